// Package spawngrid places spawn points so that the areas generated around
// them cover a rectangle of chunks without gaps.
package spawngrid

import (
	"math"

	"github.com/samber/lo"

	"github.com/danghamo/mlg/internal/domain/shared"
)

// DefaultIncrement matches the 25 chunk wide square a server generates
// around each spawn point.
const DefaultIncrement = 25

// Generate returns spawn chunks covering the width×height rectangle starting
// at (startX, startZ), at most increment chunks apart along either axis.
// Points are ordered by x, then z. Width and height must both be at least
// increment.
func Generate(startX, startZ, width, height, increment int) ([]shared.ChunkPos, error) {
	if increment < 1 {
		return nil, shared.ErrInvalidArgumentf("increment must be positive, but is %d", increment)
	}
	if width < increment || height < increment {
		return nil, shared.ErrInvalidArgumentf(
			"width and height must both be at least %d, but are %d and %d", increment, width, height)
	}

	if !fitsInt32(startX, width) || !fitsInt32(startZ, height) {
		return nil, shared.ErrInvalidArgumentf(
			"rectangle at (%d,%d) of %dx%d chunks leaves the 32-bit chunk range", startX, startZ, width, height)
	}

	margin := increment / 2
	xs := Linear(startX+margin, width-increment, increment)
	zs := Linear(startZ+margin, height-increment, increment)

	points := make([]shared.ChunkPos, 0, len(xs)*len(zs))
	for _, x := range xs {
		points = append(points, lo.Map(zs, func(z int, _ int) shared.ChunkPos {
			return shared.NewChunkPos(int32(x), int32(z))
		})...)
	}
	return points, nil
}

// fitsInt32 reports whether every chunk in [start, start+length) is a valid
// 32-bit coordinate.
func fitsInt32(start, length int) bool {
	if int64(start) < math.MinInt32 || int64(start) > math.MaxInt32 {
		return false
	}
	return int64(length)-1 <= math.MaxInt32-int64(start)
}

// Linear spreads points from start to start+length inclusive so that
// neighbours are at most maxStep apart and all gaps are as equal as integer
// positions allow. A zero length yields just start.
func Linear(start, length, maxStep int) []int {
	if maxStep < 1 || length <= 0 {
		return []int{start}
	}
	steps := int(math.Ceil(float64(length) / float64(maxStep)))
	realStep := float64(length) / float64(steps)

	points := make([]int, steps+1)
	for k := range points {
		points[k] = start + int(math.Round(realStep*float64(k)))
	}
	return points
}
