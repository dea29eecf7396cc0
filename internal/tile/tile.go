// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tile implements the quadtree algebra that relates an output tile
// to the raw-data tile it is sliced from.
package tile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

const (
	// MaxZoom is the deepest zoom the algebra accepts.
	MaxZoom = 30

	maxPrealloc = 10
)

var (
	ErrInvalidSteps = errors.New("zoom steps out of range")
	ErrInvalidTile  = errors.New("invalid tile coordinate")
)

// Quadrant identifies which of its parent's four children a tile is.
type Quadrant struct {
	X, Y uint32
}

// quadrants is the order in which children are enumerated.
var quadrants = [4]Quadrant{
	{0, 0},
	{1, 0},
	{1, 1},
	{0, 1},
}

// Offset is a tile's position within an ancestor, in units of tiles at the
// descendant's zoom.
type Offset struct {
	X, Y uint32
}

// New creates a tile after checking that x and y fit the zoom.
func New(x, y, z int) (maptile.Tile, error) {
	if z < 0 || z > MaxZoom {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d", ErrInvalidTile, z)
	}

	n := 1 << uint(z)
	if x < 0 || y < 0 || x >= n || y >= n {
		return maptile.Tile{}, fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, z, x, y)
	}

	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// Parse reads a tile from its z/x/y path segments.  A file extension on y,
// such as ".pbf", is ignored.
func Parse(z, x, y string) (maptile.Tile, error) {
	y, _, _ = strings.Cut(y, ".")

	zi, err := strconv.Atoi(z)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %q", ErrInvalidTile, z)
	}

	xi, err := strconv.Atoi(x)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("%w: x %q", ErrInvalidTile, x)
	}

	yi, err := strconv.Atoi(y)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("%w: y %q", ErrInvalidTile, y)
	}

	return New(xi, yi, zi)
}

// Key is the z/x/y form of the tile.
func Key(t maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Parent returns the parent of t and the quadrant t occupies in it.  The
// parent of a zoom 0 tile is undefined.
func Parent(t maptile.Tile) (maptile.Tile, Quadrant) {
	parent := maptile.New(t.X>>1, t.Y>>1, t.Z-1)

	return parent, Quadrant{X: t.X & 1, Y: t.Y & 1}
}

// Children returns the four children of t in quadrant order.
func Children(t maptile.Tile) [4]maptile.Tile {
	var children [4]maptile.Tile

	for i, q := range quadrants {
		children[i] = maptile.New(t.X*2+q.X, t.Y*2+q.Y, t.Z+1)
	}

	return children
}

// Ancestor ascends steps zoom levels from t.  It returns the ancestor and the
// offset of t within the ancestor's footprint, accumulated by weighting the
// quadrant bit found at each depth by 2^(steps-1-depth).
func Ancestor(t maptile.Tile, steps int) (maptile.Tile, Offset, error) {
	if steps < 0 || steps > int(t.Z) {
		return maptile.Tile{}, Offset{}, fmt.Errorf("%w: %d steps from zoom %d", ErrInvalidSteps, steps, t.Z)
	}

	var off Offset

	current := t
	for depth := steps - 1; depth >= 0; depth-- {
		var q Quadrant

		current, q = Parent(current)

		weight := uint32(1) << uint(steps-1-depth)
		off.X += q.X * weight
		off.Y += q.Y * weight
	}

	return current, off, nil
}

// Descend is the inverse of Ancestor: it follows the quadrant bits of off
// down steps zoom levels from ancestor.
func Descend(ancestor maptile.Tile, off Offset, steps int) maptile.Tile {
	current := ancestor

	for depth := 0; depth < steps; depth++ {
		bit := uint(steps - 1 - depth)
		current = maptile.New(current.X*2+(off.X>>bit)&1, current.Y*2+(off.Y>>bit)&1, current.Z+1)
	}

	return current
}

// ParentAtZoom returns the ancestor of t at zoom z.
func ParentAtZoom(t maptile.Tile, z int) (maptile.Tile, error) {
	if z < 0 || z > int(t.Z) {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d above %d", ErrInvalidSteps, z, t.Z)
	}

	dz := uint(int(t.Z) - z)

	return maptile.New(t.X>>dz, t.Y>>dz, maptile.Zoom(z)), nil
}

// Descendants enumerates the descendants of t at zoom z, depth first with
// children in quadrant order.  The traversal uses an explicit stack so its
// depth does not grow the call stack.
func Descendants(t maptile.Tile, z int) []maptile.Tile {
	if z < int(t.Z) {
		return nil
	}

	var out []maptile.Tile
	if dz := z - int(t.Z); dz <= maxPrealloc {
		out = make([]maptile.Tile, 0, 1<<(2*uint(dz)))
	}

	stack := []maptile.Tile{t}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if int(current.Z) == z {
			out = append(out, current)
			continue
		}

		children := Children(current)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out
}
