package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/gridcapture/internal/engine"
	"github.com/rocketscienceinc/gridcapture/internal/entity"
	"github.com/rocketscienceinc/gridcapture/internal/gamestate"
)

var ErrUnknownPolicy = errors.New("unknown policy")

const (
	PolicyRandom = "random"
	PolicyGreedy = "greedy"
)

// Policy picks the next direction for player id from a consistent snapshot.
type Policy interface {
	Next(snapshot *gamestate.Snapshot, id int) entity.Direction
}

// NewPolicy - returns the policy registered under name.
func NewPolicy(name string, seed int64) (Policy, error) {
	switch name {
	case PolicyRandom, "":
		return NewRandom(seed), nil
	case PolicyGreedy:
		return Greedy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Random picks uniformly among the directions that currently validate.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (that *Random) Next(snapshot *gamestate.Snapshot, id int) entity.Direction {
	candidates := validDirections(snapshot, id)
	if len(candidates) == 0 {
		return entity.Direction(that.rng.Intn(entity.DirectionCount))
	}

	return candidates[that.rng.Intn(len(candidates))]
}

// Greedy takes the richest neighbouring cell, the first one clockwise from north on ties.
type Greedy struct{}

func (Greedy) Next(snapshot *gamestate.Snapshot, id int) entity.Direction {
	player := snapshot.Players[id]

	best, bestValue := entity.North, int32(0)
	for _, dir := range validDirections(snapshot, id) {
		dx, dy, _ := dir.Delta()
		if value := snapshot.Cell(player.X+dx, player.Y+dy); value > bestValue {
			best, bestValue = dir, value
		}
	}

	return best
}

func validDirections(snapshot *gamestate.Snapshot, id int) []entity.Direction {
	player := snapshot.Players[id]

	var dirs []entity.Direction
	for dir := range entity.Direction(entity.DirectionCount) {
		if engine.CanMove(snapshot, player.X, player.Y, dir) {
			dirs = append(dirs, dir)
		}
	}

	return dirs
}
