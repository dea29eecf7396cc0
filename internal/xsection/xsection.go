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

// Package xsection rasterizes a polyline in world pixel space and resolves
// the elevation under every pixel it crosses.
package xsection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles/internal/dem"
	"m4o.io/demtiles/internal/tile"
	"m4o.io/demtiles/model"
)

// RawSteps is the zoom difference between a pixel and the raw tile holding
// it: a raw tile is 2^8 pixels wide.
const RawSteps = 8

// MaxPoints bounds the number of pixels a rasterized line may hold.
const MaxPoints = 1 << 16

// maxCoord bounds vertex coordinates so segment spans cannot overflow.
const maxCoord = 1 << 31

var (
	ErrInvalidLine = errors.New("invalid cross-section line")
	ErrMissingTile = errors.New("raw tile not loaded")
)

// PointsOnLine returns every pixel on the segment from a to b, both ends
// included, using Bresenham's algorithm.
func PointsOnLine(a, b model.Pixel) []model.Pixel {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)

	sx, sy := -1, -1
	if a.X < b.X {
		sx = 1
	}

	if a.Y < b.Y {
		sy = 1
	}

	err := dx + dy
	out := make([]model.Pixel, 0, max(dx, -dy)+1)

	x, y := a.X, a.Y

	for {
		out = append(out, model.Pixel{X: x, Y: y})
		if x == b.X && y == b.Y {
			break
		}

		e2 := 2 * err

		if e2 >= dy {
			if x == b.X {
				break
			}

			err += dy
			x += sx
		}

		if e2 <= dx {
			if y == b.Y {
				break
			}

			err += dx
			y += sy
		}
	}

	return out
}

// ParseLine reads vertices written as "x,y;x,y;...".
func ParseLine(s string) ([]model.Pixel, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLine)
	}

	parts := strings.Split(s, ";")
	vertices := make([]model.Pixel, 0, len(parts))

	for _, part := range parts {
		xs, ys, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("%w: vertex %q", ErrInvalidLine, part)
		}

		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %q", ErrInvalidLine, part)
		}

		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %q", ErrInvalidLine, part)
		}

		vertices = append(vertices, model.Pixel{X: x, Y: y})
	}

	return vertices, nil
}

// Rasterize joins the segments between consecutive vertices.  A vertex
// shared by two segments appears once.  A single vertex rasterizes to
// itself.  Lines longer than MaxPoints pixels are rejected.
func Rasterize(vertices []model.Pixel) ([]model.Pixel, error) {
	switch len(vertices) {
	case 0:
		return nil, fmt.Errorf("%w: no vertices", ErrInvalidLine)
	case 1:
		return []model.Pixel{vertices[0]}, nil
	}

	total := 1
	for i, v := range vertices {
		if abs(v.X) > maxCoord || abs(v.Y) > maxCoord {
			return nil, fmt.Errorf("%w: vertex %s out of range", ErrInvalidLine, v)
		}

		if i > 0 {
			prev := vertices[i-1]
			total += max(abs(v.X-prev.X), abs(v.Y-prev.Y))
		}

		if total > MaxPoints {
			return nil, fmt.Errorf("%w: longer than %d pixels", ErrInvalidLine, MaxPoints)
		}
	}

	points := make([]model.Pixel, 0, total)

	for i := 0; i < len(vertices)-1; i++ {
		segment := PointsOnLine(vertices[i], vertices[i+1])
		if len(points) > 0 {
			segment = segment[1:]
		}

		points = append(points, segment...)
	}

	return points, nil
}

// RequiredTiles returns the distinct raw tiles holding the points, which are
// pixels at zoom z, in order of first appearance.
func RequiredTiles(points []model.Pixel, z int) ([]maptile.Tile, error) {
	if z < RawSteps {
		return nil, fmt.Errorf("%w: zoom %d is below %d", tile.ErrInvalidSteps, z, RawSteps)
	}

	seen := make(map[maptile.Tile]struct{})

	var tiles []maptile.Tile

	for _, p := range points {
		t, err := tile.New(p.X, p.Y, z)
		if err != nil {
			return nil, err
		}

		raw, err := tile.ParentAtZoom(t, z-RawSteps)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[raw]; ok {
			continue
		}

		seen[raw] = struct{}{}
		tiles = append(tiles, raw)
	}

	return tiles, nil
}

// Annotate attaches the elevation in centimeters and the vertical band to
// each point.  Points without data get neither.
func Annotate(points []model.Pixel, z int, grids map[maptile.Tile]*dem.Grid) ([]model.Sample, error) {
	size := tile.VoxelHeight(z)
	samples := make([]model.Sample, 0, len(points))

	for _, p := range points {
		t, err := tile.New(p.X, p.Y, z)
		if err != nil {
			return nil, err
		}

		raw, off, err := tile.Ancestor(t, RawSteps)
		if err != nil {
			return nil, err
		}

		g, ok := grids[raw]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTile, tile.Key(raw))
		}

		h := g.At(int(off.Y), int(off.X))
		s := model.Sample{Pixel: p}

		if ele, ok := h.Scaled(100); ok {
			band, _ := h.Band(size)
			s.Elevation = &ele
			s.Band = &band
		}

		samples = append(samples, s)
	}

	return samples, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
