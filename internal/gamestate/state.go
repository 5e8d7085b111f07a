// Package gamestate lays the authoritative game out over a single contiguous
// memory region: a fixed header with the player table followed by the board
// cells in row-major order. The region may be private heap memory or a shared
// memory mapping; nothing in this package synchronises access, callers hold
// the appropriate gate right.
package gamestate

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"sync/atomic"
	"unsafe"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
)

const (
	MaxPlayers = 9
	MaxName    = 16

	MinSide = 10
	MaxSide = 100

	minReward = 1
	maxReward = 9
)

// record is the in-memory layout of one participant. No Go pointers: it lives in shared memory.
type record struct {
	name    [MaxName]byte
	score   uint32
	invalid uint32
	valid   uint32
	x       uint16
	y       uint16
	pid     int32
	blocked uint32
}

type header struct {
	width       uint16
	height      uint16
	playerCount uint32
	players     [MaxPlayers]record
	finished    uint32
	_           uint32
}

const cellSize = int(unsafe.Sizeof(int32(0)))

var boardOffset = alignUp(int(unsafe.Sizeof(header{})), 8)

func alignUp(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

// Size - returns the number of bytes a region must hold for a width x height board.
func Size(width, height int) int {
	return boardOffset + width*height*cellSize
}

// Options describe a new game.
type Options struct {
	Width  int
	Height int
	// Paths are the participants' launch paths, their last element becomes the display name.
	Paths []string
	Seed  int64
}

// Validate - checks the board bounds and participant count.
func (that Options) Validate() error {
	if that.Width < MinSide || that.Width > MaxSide || that.Height < MinSide || that.Height > MaxSide {
		return fmt.Errorf("%w: %dx%d, each side must be within [%d,%d]",
			apperror.ErrBoardSize, that.Width, that.Height, MinSide, MaxSide)
	}

	if len(that.Paths) == 0 || len(that.Paths) > MaxPlayers {
		return fmt.Errorf("%w: %d, want 1..%d", apperror.ErrPlayerCount, len(that.Paths), MaxPlayers)
	}

	return nil
}

// State is a handle over a laid-out region.
type State struct {
	hdr   *header
	board []int32
	mem   []byte
}

func view(mem []byte, width, height int) (*State, error) {
	if len(mem) < Size(width, height) {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", apperror.ErrSegmentTooSmall, len(mem), Size(width, height))
	}

	base := unsafe.Pointer(&mem[0])

	return &State{
		hdr:   (*header)(base),
		board: unsafe.Slice((*int32)(unsafe.Add(base, boardOffset)), width*height),
		mem:   mem,
	}, nil
}

// Init - lays out a new game over mem: header, players at their starting cells and a seeded board.
func Init(mem []byte, opts Options) (*State, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	state, err := view(mem, opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	*state.hdr = header{
		width:       uint16(opts.Width),
		height:      uint16(opts.Height),
		playerCount: uint32(len(opts.Paths)),
	}

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint: gosec // board generation only
	for i := range state.board {
		state.board[i] = int32(minReward + rng.Intn(maxReward-minReward+1))
	}

	for i, path := range opts.Paths {
		player := &state.hdr.players[i]
		copy(player.name[:MaxName-1], filepath.Base(path))
		player.pid = -1

		x, y := startPosition(i, len(opts.Paths), opts.Width, opts.Height)
		player.x, player.y = uint16(x), uint16(y)
		state.board[y*opts.Width+x] = CapturedBy(i)
	}

	return state, nil
}

// Attach - wraps a region that was already initialised by Init, checking its dimensions.
func Attach(mem []byte, width, height int) (*State, error) {
	state, err := view(mem, width, height)
	if err != nil {
		return nil, err
	}

	if state.Width() != width || state.Height() != height {
		return nil, fmt.Errorf("%w: region holds %dx%d, want %dx%d",
			apperror.ErrStateMismatch, state.Width(), state.Height(), width, height)
	}

	return state, nil
}

// New - initialises a game over private heap memory.
func New(opts Options) (*State, error) {
	// []uint64 keeps the header 8-byte aligned.
	words := make([]uint64, (Size(opts.Width, opts.Height)+7)/8)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)

	return Init(mem, opts)
}

// startPosition spreads participants on an ellipse around the centre of the board.
func startPosition(i, count, width, height int) (int, int) {
	if count == 1 {
		return width / 2, height / 2
	}

	angle := 2 * math.Pi * float64(i) / float64(count)
	x := float64(width-1)/2 + float64(width)/3*math.Cos(angle)
	y := float64(height-1)/2 + float64(height)/3*math.Sin(angle)

	return clamp(int(math.Round(x)), 0, width-1), clamp(int(math.Round(y)), 0, height-1)
}

func clamp(v, low, high int) int {
	return max(low, min(v, high))
}

// CapturedBy - returns the cell value marking a capture by participant id.
func CapturedBy(id int) int32 {
	return -int32(id) - 1
}

// Owner - decodes a captured cell. ok is false for cells nobody captured.
func Owner(cell int32) (id int, ok bool) {
	if cell >= 0 {
		return 0, false
	}

	return int(-cell - 1), true
}

func (that *State) Width() int {
	return int(that.hdr.width)
}

func (that *State) Height() int {
	return int(that.hdr.height)
}

func (that *State) PlayerCount() int {
	return int(that.hdr.playerCount)
}

// InBounds - reports whether (x,y) lies on the board.
func (that *State) InBounds(x, y int) bool {
	return x >= 0 && x < that.Width() && y >= 0 && y < that.Height()
}

// Cell - returns the value at (x,y), which must be in bounds.
func (that *State) Cell(x, y int) int32 {
	return that.board[y*that.Width()+x]
}

func (that *State) SetCell(x, y int, value int32) {
	that.board[y*that.Width()+x] = value
}

// Player - returns a copy of participant id.
func (that *State) Player(id int) PlayerInfo {
	return that.hdr.players[id].info()
}

func (that *State) Position(id int) (int, int) {
	player := &that.hdr.players[id]
	return int(player.x), int(player.y)
}

// MoveTo - places participant id on (x,y) and credits reward to its score.
func (that *State) MoveTo(id, x, y int, reward uint32) {
	player := &that.hdr.players[id]
	player.x, player.y = uint16(x), uint16(y)
	player.score += reward
}

func (that *State) CountValid(id int) {
	that.hdr.players[id].valid++
}

func (that *State) CountInvalid(id int) {
	that.hdr.players[id].invalid++
}

func (that *State) IsBlocked(id int) bool {
	return that.hdr.players[id].blocked != 0
}

// MarkBlocked - flags participant id as blocked. The flag is never cleared.
func (that *State) MarkBlocked(id int) {
	that.hdr.players[id].blocked = 1
}

// SetPID - correlates slot id with the process that plays it.
func (that *State) SetPID(id, pid int) {
	that.hdr.players[id].pid = int32(pid)
}

// Finished - reports the terminal flag. Safe without holding any gate right.
func (that *State) Finished() bool {
	return atomic.LoadUint32(&that.hdr.finished) != 0
}

// Finish - raises the terminal flag. The flag is never cleared.
func (that *State) Finish() {
	atomic.StoreUint32(&that.hdr.finished, 1)
}

// Snapshot - copies the whole game. The caller holds reader or writer access.
func (that *State) Snapshot() Snapshot {
	snapshot := Snapshot{
		Width:    that.Width(),
		Height:   that.Height(),
		Players:  make([]PlayerInfo, that.PlayerCount()),
		Board:    make([]int32, len(that.board)),
		Finished: that.Finished(),
	}

	for i := range snapshot.Players {
		snapshot.Players[i] = that.hdr.players[i].info()
	}
	copy(snapshot.Board, that.board)

	return snapshot
}

func (that *record) info() PlayerInfo {
	name := that.name[:]
	for i, b := range name {
		if b == 0 {
			name = name[:i]
			break
		}
	}

	return PlayerInfo{
		Name:         string(name),
		PID:          int(that.pid),
		X:            int(that.x),
		Y:            int(that.y),
		Score:        that.score,
		ValidMoves:   that.valid,
		InvalidMoves: that.invalid,
		Blocked:      that.blocked != 0,
	}
}
