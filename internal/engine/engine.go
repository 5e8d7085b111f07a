// Package engine validates and applies proposed moves. Every function expects the
// caller to hold writer access on the state it mutates.
package engine

import (
	"fmt"

	"github.com/rocketscienceinc/gridcapture/internal/apperror"
	"github.com/rocketscienceinc/gridcapture/internal/entity"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
)

// Grid is the read-only board surface shared by the live state and snapshots.
type Grid interface {
	InBounds(x, y int) bool
	Cell(x, y int) int32
}

// Delta - returns the offset of dir.
func Delta(dir entity.Direction) (int, int, error) {
	dx, dy, ok := dir.Delta()
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", apperror.ErrInvalidDirection, dir)
	}

	return dx, dy, nil
}

// target - returns the cell reached from (x,y) in direction dir.
func target(grid Grid, x, y int, dir entity.Direction) (int, int, bool) {
	dx, dy, err := Delta(dir)
	if err != nil {
		return 0, 0, false
	}

	nx, ny := x+dx, y+dy
	if !grid.InBounds(nx, ny) {
		return 0, 0, false
	}

	return nx, ny, true
}

// CanMove - reports whether stepping from (x,y) towards dir lands on an uncaptured reward.
func CanMove(grid Grid, x, y int, dir entity.Direction) bool {
	nx, ny, ok := target(grid, x, y, dir)

	return ok && grid.Cell(nx, ny) > 0
}

// Validate - reports whether participant id may move towards dir.
func Validate(state *gamestate.State, id int, dir entity.Direction) bool {
	x, y := state.Position(id)

	return CanMove(state, x, y, dir)
}

// Apply - moves participant id towards dir, credits the reward and marks the cell
// as captured. dir must have passed Validate.
func Apply(state *gamestate.State, id int, dir entity.Direction) {
	x, y := state.Position(id)

	nx, ny, ok := target(state, x, y, dir)
	if !ok {
		return
	}

	reward := state.Cell(nx, ny)
	state.MoveTo(id, nx, ny, uint32(reward))
	state.SetCell(nx, ny, gamestate.CapturedBy(id))
}

// TryMove - applies the move when valid and accounts the attempt either way.
func TryMove(state *gamestate.State, id int, dir entity.Direction) bool {
	if !Validate(state, id, dir) {
		state.CountInvalid(id)
		return false
	}

	Apply(state, id, dir)
	state.CountValid(id)

	return true
}

// IsBlocked - reports whether no direction is valid for participant id.
func IsBlocked(state *gamestate.State, id int) bool {
	for dir := range entity.Direction(entity.DirectionCount) {
		if Validate(state, id, dir) {
			return false
		}
	}

	return true
}

// RecomputeBlocking - refreshes the sticky blocked flags and reports whether every
// participant is blocked.
func RecomputeBlocking(state *gamestate.State) bool {
	allBlocked := true

	for id := range state.PlayerCount() {
		if state.IsBlocked(id) {
			continue
		}

		if IsBlocked(state, id) {
			state.MarkBlocked(id)
			continue
		}

		allBlocked = false
	}

	return allBlocked
}
