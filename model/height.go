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

package model

import (
	"math"
	"strconv"
)

// NoData is the zero Height; it carries no elevation.
var NoData = Height{}

// Height is an elevation in meters that may be absent.  Absent heights are
// never interpolated with, or rendered as, real values.
type Height struct {
	meters float64
	valid  bool
}

// Meters creates a valid Height.  NaN and infinities yield NoData.
func Meters(m float64) Height {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return NoData
	}

	return Height{meters: m, valid: true}
}

// Valid reports whether the height carries an elevation.
func (h Height) Valid() bool { return h.valid }

// Meters returns the elevation and whether it is present.
func (h Height) Meters() (float64, bool) { return h.meters, h.valid }

// Or returns the elevation, or sentinel when the height is absent.
func (h Height) Or(sentinel float64) float64 {
	if !h.valid {
		return sentinel
	}

	return h.meters
}

// Scaled returns the elevation multiplied by factor and rounded half up,
// e.g. Scaled(100) yields centimeters.
func (h Height) Scaled(factor float64) (int64, bool) {
	if !h.valid {
		return 0, false
	}

	return int64(math.Floor(h.meters*factor + Half)), true
}

// Band returns floor(h / size), the index of the vertical band of the given
// size that contains h.
func (h Height) Band(size float64) (int64, bool) {
	if !h.valid {
		return 0, false
	}

	return int64(math.Floor(h.meters / size)), true
}

func (h Height) String() string {
	if !h.valid {
		return "nodata"
	}

	return ftoa(h.meters) + "m"
}

func (h Height) MarshalJSON() ([]byte, error) {
	if !h.valid {
		return []byte("null"), nil
	}

	return strconv.AppendFloat(nil, h.meters, 'f', -1, 64), nil
}
