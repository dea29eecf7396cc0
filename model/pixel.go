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
	"encoding/json"
	"fmt"
)

// Pixel is an integer position in world pixel space at some zoom, i.e. a tile
// coordinate at that zoom.
type Pixel struct {
	X int
	Y int
}

func (p Pixel) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Sample is one point of an elevation profile.  Elevation is in centimeters
// and Band is the index of the vertical band holding the elevation; both are
// nil where the elevation is unknown.
type Sample struct {
	Pixel
	Elevation *int64
	Band      *int64
}

// MarshalJSON renders the sample as the array [x, y, elevation, band].
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.X, s.Y, s.Elevation, s.Band})
}
