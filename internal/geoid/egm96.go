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
	"github.com/westphae/geomag/pkg/egm96"

	"m4o.io/demtiles/model"
)

// EGM96 returns the global EGM96 geoid undulation at lon, lat.  It is
// offered for comparison with the regional model.
func EGM96(lon, lat model.Degrees) model.Height {
	loc := egm96.NewLocationGeodetic(float64(lat), float64(lon), 0)

	msl, err := loc.HeightAboveMSL()
	if err != nil {
		return model.NoData
	}

	return model.Meters(-msl)
}
