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

package geoid

import (
	"math"

	"m4o.io/demtiles/model"
)

const (
	stepLon = 1.5 / 60.0
	stepLat = 1.0 / 60.0

	// snap is how close to a grid line a point must be to be treated as
	// lying on it.
	snap = 0.00001

	// off marks an axis on which the point is not on a grid line.
	off = 99
)

// Height returns the geoid height at lon, lat in meters, or NoData outside
// the model's coverage or where a contributing sample has no value.
func (m *Model) Height(lon, lat model.Degrees) model.Height {
	v := m.Raw(lon, lat)
	if v == NoData {
		return model.NoData
	}

	return model.Meters(v)
}

// Raw is Height with NoData reported as the 999 sentinel.
func (m *Model) Raw(lon, lat model.Degrees) float64 {
	ix := int(math.Floor((float64(lon)-m.LonMin)/stepLon)) + 1
	iy := int(math.Floor((float64(lat)-m.LatMin)/stepLat)) + 1

	if ix < 0 || ix >= Cols-1 || iy < 0 || iy >= Rows-1 {
		return NoData
	}

	x := (float64(lon)-m.LonMin)/stepLon - float64(ix-1)
	y := (float64(lat)-m.LatMin)/stepLat - float64(iy-1)

	jx := ix + 1
	jy := iy + 1

	adx := onLine(x)
	ady := onLine(y)

	dat := m.Data

	switch {
	case ady != off && adx != off:
		// on a grid point; the column takes the row's snap offset
		return dat[iy+ady][ix+ady]
	case ady != off:
		// on a parallel, interpolate along longitude
		a, b := dat[iy+ady][ix], dat[iy+ady][jx]
		if a == NoData || b == NoData {
			return NoData
		}

		return (1.0-x)*a + x*b
	case adx != off:
		// on a meridian, interpolate along latitude
		a, b := dat[iy][ix+adx], dat[jy][ix+adx]
		if a == NoData || b == NoData {
			return NoData
		}

		return (1.0-y)*a + y*b
	}

	sw, nw, se, ne := dat[iy][ix], dat[jy][ix], dat[iy][jx], dat[jy][jx]
	if sw == NoData || nw == NoData || se == NoData || ne == NoData {
		return NoData
	}

	return (1.0-x)*(1.0-y)*sw + y*(1.0-x)*nw + x*(1.0-y)*se + ne*x*y
}

func onLine(f float64) int {
	f = math.Abs(f)

	switch {
	case f < snap:
		return 0
	case 1.0-f < snap:
		return 1
	default:
		return off
	}
}
