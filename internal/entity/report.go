package entity

import "time"

const (
	ReasonAllBlocked      = "all_blocked"
	ReasonTimeout         = "timeout"
	ReasonNoActivePlayers = "no_active_players"
	ReasonInterrupted     = "interrupted"
)

// ExitStatus describes how an agent process terminated.
type ExitStatus struct {
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Result holds the final figures of one participant.
type Result struct {
	Name         string     `json:"name"`
	PID          int        `json:"pid"`
	Exit         ExitStatus `json:"exit"`
	Score        uint32     `json:"score"`
	ValidMoves   uint32     `json:"valid_moves"`
	InvalidMoves uint32     `json:"invalid_moves"`
	Blocked      bool       `json:"blocked"`
	Disconnected bool       `json:"disconnected"`
}

// Report is the outcome of a whole game.
type Report struct {
	ID         string    `json:"id"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Seed       int64     `json:"seed"`
	Reason     string    `json:"reason"`
	FinishedAt time.Time `json:"finished_at"`
	Players    []Result  `json:"players"`
}

// Winners - returns the indexes of the players holding the highest score.
func (that *Report) Winners() []int {
	var (
		best    uint32
		winners []int
	)

	for i, player := range that.Players {
		switch {
		case len(winners) == 0 || player.Score > best:
			best = player.Score
			winners = []int{i}
		case player.Score == best:
			winners = append(winners, i)
		}
	}

	return winners
}
