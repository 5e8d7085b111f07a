package entity

import "fmt"

// Direction is a compass heading proposed by a player, 0 is north and values grow clockwise.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// DirectionCount is the number of valid directions.
const DirectionCount = 8

var deltas = [DirectionCount][2]int{
	{0, -1},
	{1, -1},
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
	{-1, 0},
	{-1, -1},
}

var directionNames = [DirectionCount]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// IsValid - reports whether the direction is one of the eight compass points.
func (that Direction) IsValid() bool {
	return that < DirectionCount
}

// Delta - returns the column and row offset of the direction. ok is false outside [0,7].
func (that Direction) Delta() (dx, dy int, ok bool) {
	if !that.IsValid() {
		return 0, 0, false
	}

	return deltas[that][0], deltas[that][1], true
}

func (that Direction) String() string {
	if !that.IsValid() {
		return fmt.Sprintf("Direction(%d)", uint8(that))
	}

	return directionNames[that]
}
