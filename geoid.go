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
	"fmt"

	"github.com/destel/rill"
	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles/internal/mvt"
	"m4o.io/demtiles/internal/tile"
	"m4o.io/demtiles/model"
)

const (
	// GeoidScaleFactor is the zoom difference between a geoid tile and the
	// cells it is divided into.
	GeoidScaleFactor = 4

	geoidExtent = 1 << GeoidScaleFactor

	GeoidLayer = "geoid"
)

var geoidKeys = []string{"geoid_height", "x", "y", "z"}

type geoidCell struct {
	tile   maptile.Tile
	height model.Height
}

// RenderGeoidTile renders the geoid tile t.  The tile is divided into the
// 16 by 16 descendants GeoidScaleFactor zooms below it, and each descendant
// with a geoid height at its center becomes a unit square.  A tile entirely
// outside the model yields a valid layer without features.
func (s *Service) RenderGeoidTile(ctx context.Context, t maptile.Tile) ([]byte, error) {
	if int(t.Z)+GeoidScaleFactor > tile.MaxZoom {
		return nil, invalid(fmt.Errorf("%w: zoom %d too deep for geoid tiles", tile.ErrInvalidTile, t.Z))
	}

	m, err := s.geoids.Model(ctx, s.opts.geoidModel)
	if err != nil {
		return nil, err
	}

	descendants := tile.Descendants(t, int(t.Z)+GeoidScaleFactor)

	cells := rill.OrderedMap(rill.FromSlice(descendants, nil), int(s.opts.nCPU), func(d maptile.Tile) (geoidCell, error) {
		c := tile.Center(d)

		return geoidCell{tile: d, height: m.Height(model.Degrees(c.Lon()), model.Degrees(c.Lat()))}, nil
	})

	layer := mvt.NewLayer(GeoidLayer, geoidExtent, geoidKeys...)

	err = rill.ForEach(cells, 1, func(c geoidCell) error {
		mm, ok := c.height.Scaled(1000)
		if !ok {
			return nil
		}

		relX := int32(c.tile.X - t.X*geoidExtent)
		relY := int32(c.tile.Y - t.Y*geoidExtent)

		layer.AddFeature(mvt.Feature{
			Type:     mvt.Polygon,
			Geometry: mvt.Square(relX, relY),
			Tags: []mvt.Tag{
				{Key: "geoid_height", Value: mvt.IntValue(mm)},
				{Key: "x", Value: mvt.IntValue(int64(c.tile.X))},
				{Key: "y", Value: mvt.IntValue(int64(c.tile.Y))},
				{Key: "z", Value: mvt.IntValue(int64(c.tile.Z))},
			},
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	mt := mvt.Tile{Layers: []*mvt.Layer{layer}}

	return mt.Marshal(), nil
}

// GeoidHeight returns the geoid height at a longitude and latitude.
// Positions outside the model have no data.
func (s *Service) GeoidHeight(ctx context.Context, lng, lat model.Degrees) (model.Height, error) {
	if !lng.ValidLon() || !lat.ValidLat() {
		return model.NoData, invalid(fmt.Errorf("position %s, %s out of range", lng, lat))
	}

	m, err := s.geoids.Model(ctx, s.opts.geoidModel)
	if err != nil {
		return model.NoData, err
	}

	return m.Height(lng, lat), nil
}
