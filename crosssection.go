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
	"context"
	"errors"
	"fmt"

	"github.com/destel/rill"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles/internal/dem"
	"m4o.io/demtiles/internal/tile"
	"m4o.io/demtiles/internal/xsection"
	"m4o.io/demtiles/model"
)

// Profile is an elevation cross-section.  Cubes holds one polygon per
// sampled pixel, and Points the samples themselves in line order.
type Profile struct {
	Cubes  *geojson.FeatureCollection `json:"geojsonCubes"`
	Points []model.Sample             `json:"annotatedPoints"`
}

type loadedGrid struct {
	tile maptile.Tile
	grid *dem.Grid
}

// CrossSection samples the elevation under every pixel of the polyline,
// given as "x,y;x,y;..." pixel coordinates at zoom z.  Every raw tile the
// line crosses must have data; otherwise ErrInsufficientData is returned and
// no partial profile is produced.
func (s *Service) CrossSection(ctx context.Context, z int, line string) (*Profile, error) {
	if z < xsection.RawSteps || z > tile.MaxZoom {
		return nil, invalid(fmt.Errorf("%w: zoom %d", tile.ErrInvalidSteps, z))
	}

	vertices, err := xsection.ParseLine(line)
	if err != nil {
		return nil, invalid(err)
	}

	points, err := xsection.Rasterize(vertices)
	if err != nil {
		return nil, invalid(err)
	}

	required, err := xsection.RequiredTiles(points, z)
	if err != nil {
		return nil, invalid(err)
	}

	loaded := rill.Map(rill.FromSlice(required, nil), int(s.opts.nCPU), func(t maptile.Tile) (loadedGrid, error) {
		g, err := s.merger.Grid(ctx, t)
		if errors.Is(err, dem.ErrNoData) {
			return loadedGrid{}, fmt.Errorf("%w: %w", ErrInsufficientData, err)
		}

		return loadedGrid{tile: t, grid: g}, err
	})

	grids := make(map[maptile.Tile]*dem.Grid, len(required))

	err = rill.ForEach(loaded, 1, func(l loadedGrid) error {
		grids[l.tile] = l.grid
		return nil
	})
	if err != nil {
		return nil, err
	}

	samples, err := xsection.Annotate(points, z, grids)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Cubes:  cubes(samples, z),
		Points: samples,
	}, nil
}

func cubes(samples []model.Sample, z int) *geojson.FeatureCollection {
	size := tile.VoxelHeight(z)
	fc := geojson.NewFeatureCollection()

	for _, s := range samples {
		t := maptile.New(uint32(s.X), uint32(s.Y), maptile.Zoom(z))

		f := geojson.NewFeature(t.Bound().ToPolygon())
		f.ID = s.X * s.Y

		if s.Elevation != nil {
			f.Properties["ele"] = *s.Elevation
			f.Properties["fh"] = size * float64(*s.Band+1)
			f.Properties["fb"] = size * float64(*s.Band)
		} else {
			f.Properties["ele"] = nil
			f.Properties["fh"] = nil
			f.Properties["fb"] = nil
		}

		fc.Append(f)
	}

	return fc
}
