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
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles/model"
)

const (
	maxMercatorLat model.Degrees = 85.05112878
	minMercatorLat model.Degrees = -85.05112878
)

// PixelOf returns the Web Mercator tile at zoom z that contains the
// longitude and latitude.  At zoom raw+8 that tile is one pixel of a 256
// pixel raw tile.
func PixelOf(lng, lat model.Degrees, z int) model.Pixel {
	lat = max(min(lat, maxMercatorLat), minMercatorLat)

	n := math.Exp2(float64(z))
	phi := lat.Angle().Radians()

	x := (float64(lng) + 180.0) / 360.0 * n
	y := (1.0 - math.Log(math.Tan(phi)+1/math.Cos(phi))/math.Pi) / 2.0 * n

	px := clamp(int(math.Floor(x)), int(n)-1)
	py := clamp(int(math.Floor(y)), int(n)-1)

	return model.Pixel{X: px, Y: py}
}

// Center returns the midpoint of the tile's longitude and latitude bounds.
// This is not the projected center of the tile.
func Center(t maptile.Tile) orb.Point {
	return t.Bound().Center()
}

func clamp(v, hi int) int {
	return max(min(v, hi), 0)
}
