package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirection(t *testing.T) {
	t.Run("eight headings clockwise from north", func(t *testing.T) {
		var sumX, sumY int

		for dir := range Direction(DirectionCount) {
			dx, dy, ok := dir.Delta()

			assert.True(t, ok)
			assert.True(t, dir.IsValid())
			assert.NotEqual(t, [2]int{0, 0}, [2]int{dx, dy})
			sumX, sumY = sumX+dx, sumY+dy
		}

		// Opposite headings cancel out.
		assert.Zero(t, sumX)
		assert.Zero(t, sumY)
		assert.Equal(t, "E", East.String())
		assert.Equal(t, "NW", NorthWest.String())
	})

	t.Run("out of range", func(t *testing.T) {
		dir := Direction(DirectionCount)

		_, _, ok := dir.Delta()

		assert.False(t, ok)
		assert.False(t, dir.IsValid())
		assert.NotEmpty(t, dir.String())
	})
}

func TestReport_Winners(t *testing.T) {
	tests := []struct {
		name   string
		scores []uint32
		want   []int
	}{
		{name: "no players", scores: nil, want: nil},
		{name: "single leader", scores: []uint32{3, 9, 4}, want: []int{1}},
		{name: "tie", scores: []uint32{7, 2, 7}, want: []int{0, 2}},
		{name: "all zero", scores: []uint32{0, 0}, want: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &Report{}
			for _, score := range tt.scores {
				report.Players = append(report.Players, Result{Score: score})
			}

			assert.Equal(t, tt.want, report.Winners())
		})
	}
}
