package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
)

const (
	resetColor  = "\033[0m"
	clearScreen = "\033[H\033[J"
	divider     = "─"
	cellWidth   = 4
	nameWidth   = gamestate.MaxName
)

var (
	colors  = [gamestate.MaxPlayers]string{"\033[41m", "\033[42m", "\033[43m", "\033[44m", "\033[45m", "\033[46m", "\033[100m", "\033[47m", "\033[101m"}
	symbols = [gamestate.MaxPlayers]string{"🐙", "🦎", "🐥", "🐬", "🦄", "🐋", "🐜", "🐏", "🐛"}
)

// Renderer draws snapshots as ANSI text.
type Renderer struct {
	out   io.Writer
	ansi  bool
	clear bool
}

// NewRenderer - ansi enables colours and screen clearing between frames.
func NewRenderer(out io.Writer, ansi bool) *Renderer {
	return &Renderer{out: out, ansi: ansi, clear: ansi}
}

// Render - writes one full frame.
func (that *Renderer) Render(snapshot *gamestate.Snapshot) error {
	var frame strings.Builder

	if that.clear {
		frame.WriteString(clearScreen)
	}

	width := snapshot.Width * cellWidth

	that.title(&frame, "BOARD", width)
	for y := range snapshot.Height {
		for x := range snapshot.Width {
			that.cell(&frame, snapshot.Cell(x, y))
		}
		frame.WriteByte('\n')
	}

	that.title(&frame, "PLAYERS", width)
	for i, player := range snapshot.Players {
		blocked := "no"
		if player.Blocked {
			blocked = "yes"
		}

		fmt.Fprintf(&frame, "%s %s pid %-7d score %-5d valid %-5d invalid %-5d at (%d,%d) blocked %s\n",
			that.paint(i, symbols[i]),
			runewidth.FillRight(player.Name, nameWidth),
			player.PID, player.Score, player.ValidMoves, player.InvalidMoves, player.X, player.Y, blocked)
	}

	if snapshot.Finished {
		that.title(&frame, "GAME OVER", width)
	} else {
		frame.WriteString(strings.Repeat(divider, width))
		frame.WriteByte('\n')
	}

	if _, err := io.WriteString(that.out, frame.String()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

func (that *Renderer) cell(frame *strings.Builder, value int32) {
	id, captured := gamestate.Owner(value)
	if !captured || id >= gamestate.MaxPlayers {
		if value <= 0 {
			frame.WriteString(strings.Repeat(" ", cellWidth))
			return
		}

		fmt.Fprintf(frame, " %2d ", value)
		return
	}

	frame.WriteString(that.paint(id, runewidth.FillRight(" "+symbols[id], cellWidth)))
}

func (that *Renderer) paint(id int, text string) string {
	if !that.ansi {
		return text
	}

	return colors[id] + text + resetColor
}

func (that *Renderer) title(frame *strings.Builder, text string, width int) {
	left := max(0, (width-runewidth.StringWidth(text))/2)
	right := max(0, width-left-runewidth.StringWidth(text))

	frame.WriteString(strings.Repeat(divider, left))
	frame.WriteString(text)
	frame.WriteString(strings.Repeat(divider, right))
	frame.WriteByte('\n')
}
