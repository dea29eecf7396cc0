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

package demtiles

import (
	"strings"

	"m4o.io/demtiles/model"
)

const (
	// Version is the tile schema version, appended to tile URLs so that
	// clients drop cached tiles when it changes.
	Version = "1.0.2"

	tileJSONVersion = "3.0.0"

	attribution = `<a href="https://www.gsi.go.jp/" target="_blank">&copy; GSI Japan</a>`
)

// DEMTileJSON describes the elevation tile set served under baseURL.
func DEMTileJSON(baseURL string) model.TileJSON {
	return model.TileJSON{
		TileJSON: tileJSONVersion,
		Tiles:    []string{strings.TrimSuffix(baseURL, "/") + "/jgsi-dem/tiles/{z}/{x}/{y}.pbf?v=" + Version},
		VectorLayers: []model.VectorLayer{{
			ID: DEMLayer,
			Fields: map[string]string{
				"ele":      "Number, elevation from sea level in centimeters.",
				"f_height": "Number, the height of the F value in meters.",
				"f_base":   "Number, the base of the F value in meters.",
				"f":        "Number, the F value of zfxy.",
				"x":        "Number, the X value of the tile.",
				"y":        "Number, the Y value of the tile.",
				"z":        "Number, the Z value of the tile.",
			},
		}},
		MinZoom:     demSteps,
		MaxZoom:     RawZoom + demSteps,
		Name:        "jgsi-dem",
		Attribution: attribution,
		Version:     Version,
	}
}

// GeoidTileJSON describes the geoid tile set served under baseURL.
func GeoidTileJSON(baseURL string) model.TileJSON {
	return model.TileJSON{
		TileJSON: tileJSONVersion,
		Tiles:    []string{strings.TrimSuffix(baseURL, "/") + "/geoid/tiles/{z}/{x}/{y}.pbf?v=" + Version},
		VectorLayers: []model.VectorLayer{{
			ID: GeoidLayer,
			Fields: map[string]string{
				"geoid_height": "Number, height of geoid from reference ellipsoid in millimeters.",
				"x":            "Number, the X value of the tile.",
				"y":            "Number, the Y value of the tile.",
				"z":            "Number, the Z value of the tile.",
			},
		}},
		MinZoom:     0,
		MaxZoom:     25 - GeoidScaleFactor,
		Name:        GeoidLayer,
		Attribution: attribution,
		Version:     Version,
	}
}
