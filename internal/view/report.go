package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/rocketscienceinc/gridcapture/internal/entity"
)

// PrintReport - writes the final standings of a game as a table.
func PrintReport(out io.Writer, report *entity.Report) error {
	var table strings.Builder

	fmt.Fprintf(&table, "game %s %dx%d seed %d finished: %s\n", report.ID, report.Width, report.Height, report.Seed, report.Reason)
	fmt.Fprintf(&table, "%s %-8s %-12s %6s %6s %8s\n",
		runewidth.FillRight("player", nameWidth), "pid", "exit", "score", "valid", "invalid")

	for _, player := range report.Players {
		exit := fmt.Sprintf("code %d", player.Exit.Code)
		if player.Exit.Signal != "" {
			exit = player.Exit.Signal
		}

		fmt.Fprintf(&table, "%s %-8d %-12s %6d %6d %8d\n",
			runewidth.FillRight(player.Name, nameWidth), player.PID, exit, player.Score, player.ValidMoves, player.InvalidMoves)
	}

	names := make([]string, 0, len(report.Players))
	for _, i := range report.Winners() {
		names = append(names, report.Players[i].Name)
	}
	fmt.Fprintf(&table, "winner: %s\n", strings.Join(names, ", "))

	if _, err := io.WriteString(out, table.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
