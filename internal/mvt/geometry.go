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

// Package mvt encodes Mapbox Vector Tiles, version 2.
package mvt

import (
	"golang.org/x/exp/constraints"
)

// GeomType is the geometry type of a feature.
type GeomType int32

const (
	Unknown GeomType = iota
	Point
	LineString
	Polygon
)

const (
	MoveTo    uint32 = 1
	LineTo    uint32 = 2
	ClosePath uint32 = 7
)

// Pos is a position in tile coordinates.
type Pos struct {
	X, Y int32
}

// ZigZag maps signed integers onto unsigned ones so that values of small
// magnitude encode to small varints.
func ZigZag(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// UnZigZag reverses ZigZag.
func UnZigZag(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// Command packs a command id and its repeat count into a command integer.
func Command(id, count uint32) uint32 {
	return (id & 0x7) | (count << 3)
}

// Square is the closed ring of the unit cell whose top-left corner is at
// (x, y), wound clockwise in tile coordinates.
func Square(x, y int32) []uint32 {
	return Ring([]Pos{
		{x, y},
		{x + 1, y},
		{x + 1, y + 1},
		{x, y + 1},
	})
}

// Ring encodes a polygon ring of at least three positions.  The ring is
// closed with ClosePath, so the first position is not repeated.  Deltas are
// taken from a cursor that starts at the origin.
func Ring(ring []Pos) []uint32 {
	if len(ring) < 3 {
		return nil
	}

	xs := make([]int32, len(ring))
	ys := make([]int32, len(ring))

	for i, p := range ring {
		xs[i] = p.X
		ys[i] = p.Y
	}

	dx := calcDeltas(xs)
	dy := calcDeltas(ys)

	geom := make([]uint32, 0, 2*len(ring)+3)
	geom = append(geom, Command(MoveTo, 1), ZigZag(dx[0]), ZigZag(dy[0]))
	geom = append(geom, Command(LineTo, uint32(len(ring)-1)))

	for i := 1; i < len(ring); i++ {
		geom = append(geom, ZigZag(dx[i]), ZigZag(dy[i]))
	}

	return append(geom, Command(ClosePath, 1))
}

func calcDeltas[T constraints.Signed](values []T) []T {
	prev := T(0)
	deltas := make([]T, len(values))

	for i, v := range values {
		deltas[i] = v - prev
		prev = v
	}

	return deltas
}

// FeatureID identifies the cell at row and col of a 256 by 256 grid.
func FeatureID(row, col int) uint64 {
	return uint64(((row & 0xFF) << 8) | (col & 0xFF))
}
