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

package tile

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/demtiles/model"
)

func TestParent(t *testing.T) {
	tests := []struct {
		name     string
		tile     maptile.Tile
		quadrant Quadrant
	}{
		{"top-left", maptile.New(4, 6, 3), Quadrant{0, 0}},
		{"top-right", maptile.New(5, 6, 3), Quadrant{1, 0}},
		{"bottom-right", maptile.New(5, 7, 3), Quadrant{1, 1}},
		{"bottom-left", maptile.New(4, 7, 3), Quadrant{0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parent, q := Parent(tc.tile)
			assert.Equal(t, maptile.New(2, 3, 2), parent)
			assert.Equal(t, tc.quadrant, q)
		})
	}
}

func TestChildren(t *testing.T) {
	children := Children(maptile.New(2, 3, 2))

	assert.Equal(t, [4]maptile.Tile{
		maptile.New(4, 6, 3),
		maptile.New(5, 6, 3),
		maptile.New(5, 7, 3),
		maptile.New(4, 7, 3),
	}, children)
}

func TestAncestor(t *testing.T) {
	// 17/116417/51613 is sliced from raw tile 14/14552/6451.
	ancestor, off, err := Ancestor(maptile.New(116417, 51613, 17), 3)
	require.NoError(t, err)

	assert.Equal(t, maptile.New(14552, 6451, 14), ancestor)
	assert.Equal(t, Offset{X: 1, Y: 5}, off)
}

func TestAncestorZeroSteps(t *testing.T) {
	tl := maptile.New(7, 9, 5)

	ancestor, off, err := Ancestor(tl, 0)
	require.NoError(t, err)

	assert.Equal(t, tl, ancestor)
	assert.Equal(t, Offset{}, off)
}

func TestAncestorTooManySteps(t *testing.T) {
	_, _, err := Ancestor(maptile.New(1, 1, 2), 3)
	assert.ErrorIs(t, err, ErrInvalidSteps)

	_, _, err = Ancestor(maptile.New(1, 1, 2), -1)
	assert.ErrorIs(t, err, ErrInvalidSteps)
}

func TestAncestorDescendRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		z := rnd.Intn(23)
		n := uint32(1) << uint(z)
		tl := maptile.New(rnd.Uint32()%n, rnd.Uint32()%n, maptile.Zoom(z))

		for steps := 0; steps <= z; steps++ {
			ancestor, off, err := Ancestor(tl, steps)
			require.NoError(t, err)

			assert.Equal(t, int(tl.Z)-steps, int(ancestor.Z))
			assert.Equal(t, tl, Descend(ancestor, off, steps), "tile %s steps %d", Key(tl), steps)
		}
	}
}

func TestParentAtZoom(t *testing.T) {
	parent, err := ParentAtZoom(maptile.New(3725362, 1651700, 22), 14)
	require.NoError(t, err)
	assert.Equal(t, maptile.New(14552, 6451, 14), parent)

	_, err = ParentAtZoom(maptile.New(0, 0, 3), 4)
	assert.ErrorIs(t, err, ErrInvalidSteps)
}

func TestDescendants(t *testing.T) {
	tl := maptile.New(1, 2, 3)

	same := Descendants(tl, 3)
	assert.Equal(t, []maptile.Tile{tl}, same)

	two := Descendants(tl, 5)
	assert.Len(t, two, 16)

	// depth first, quadrant order
	assert.Equal(t, maptile.New(4, 8, 5), two[0])
	assert.Equal(t, maptile.New(5, 8, 5), two[1])
	assert.Equal(t, maptile.New(5, 9, 5), two[2])
	assert.Equal(t, maptile.New(4, 9, 5), two[3])
	assert.Equal(t, maptile.New(6, 8, 5), two[4])

	seen := make(map[maptile.Tile]struct{})
	for _, d := range two {
		parent, err := ParentAtZoom(d, 3)
		require.NoError(t, err)
		assert.Equal(t, tl, parent)
		seen[d] = struct{}{}
	}
	assert.Len(t, seen, 16)

	assert.Nil(t, Descendants(tl, 2))
}

func TestParse(t *testing.T) {
	tl, err := Parse("14", "14552", "6451.pbf")
	require.NoError(t, err)
	assert.Equal(t, maptile.New(14552, 6451, 14), tl)
	assert.Equal(t, "14/14552/6451", Key(tl))

	for _, bad := range [][3]string{
		{"a", "1", "1"},
		{"1", "b", "1"},
		{"1", "1", "c.pbf"},
		{"1", "2", "0"},
		{"-1", "0", "0"},
		{"31", "0", "0"},
	} {
		_, err := Parse(bad[0], bad[1], bad[2])
		assert.ErrorIs(t, err, ErrInvalidTile, "%v", bad)
	}
}

func TestPixelOf(t *testing.T) {
	// Tokyo station
	p := PixelOf(model.Degrees(139.767125), model.Degrees(35.681236), 14)
	assert.Equal(t, model.Pixel{X: 14552, Y: 6451}, p)

	origin := PixelOf(-180, 85.1, 3)
	assert.Equal(t, model.Pixel{X: 0, Y: 0}, origin)

	corner := PixelOf(180, -89, 3)
	assert.Equal(t, model.Pixel{X: 7, Y: 7}, corner)
}

func TestCenter(t *testing.T) {
	c := Center(maptile.New(0, 0, 1))

	assert.InDelta(t, -90.0, c.Lon(), 1e-9)
	assert.InDelta(t, 85.0511287798/2, c.Lat(), 1e-6)
}

func TestVoxelHeight(t *testing.T) {
	assert.Equal(t, 8.0, VoxelHeight(22))
	assert.Equal(t, 1.0, VoxelHeight(25))
	assert.Equal(t, 0.25, VoxelHeight(27))
	assert.Equal(t, 32768.0, VoxelHeight(10))
}
