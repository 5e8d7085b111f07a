package gamestate

// PlayerInfo is a detached copy of one participant record.
type PlayerInfo struct {
	Name         string
	PID          int
	X            int
	Y            int
	Score        uint32
	ValidMoves   uint32
	InvalidMoves uint32
	Blocked      bool
}

// Requests returns how many proposals of this participant were processed.
func (that PlayerInfo) Requests() uint32 {
	return that.ValidMoves + that.InvalidMoves
}

// Snapshot is a detached, consistent copy of the game taken under reader access.
type Snapshot struct {
	Width    int
	Height   int
	Players  []PlayerInfo
	Board    []int32
	Finished bool
}

func (that *Snapshot) InBounds(x, y int) bool {
	return x >= 0 && x < that.Width && y >= 0 && y < that.Height
}

func (that *Snapshot) Cell(x, y int) int32 {
	return that.Board[y*that.Width+x]
}

// PlayerByPID - returns the slot played by process pid.
func (that *Snapshot) PlayerByPID(pid int) (int, bool) {
	for i, player := range that.Players {
		if player.PID == pid {
			return i, true
		}
	}

	return 0, false
}
