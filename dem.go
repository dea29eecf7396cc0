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

	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles/internal/dem"
	"m4o.io/demtiles/internal/mvt"
	"m4o.io/demtiles/internal/tile"
	"m4o.io/demtiles/model"
)

const (
	// DEMScaleFactor sets how far raw tiles are sliced: each raw tile yields
	// 2^(DEMScaleFactor-1) output tiles per side.
	DEMScaleFactor = 4

	demSteps    = DEMScaleFactor - 1
	demTileSize = dem.Size >> demSteps

	// RawZoom is the deepest zoom of the upstream elevation tiles.
	RawZoom = 14

	DEMLayer = "dem"
)

var demKeys = []string{"ele", "f_height", "f_base", "x", "y", "z", "f"}

// RenderDEMTile renders the elevation tile t.  Every cell of the raw tile
// window under t that has data becomes a unit square carrying its elevation
// and the voxel it falls in.
func (s *Service) RenderDEMTile(ctx context.Context, t maptile.Tile) ([]byte, error) {
	raw, off, err := tile.Ancestor(t, demSteps)
	if err != nil {
		return nil, invalid(err)
	}

	g, err := s.grid(ctx, raw)
	if err != nil {
		return nil, err
	}

	cubeZ := int(raw.Z) + 8
	size := tile.VoxelHeight(cubeZ)

	layer := mvt.NewLayer(DEMLayer, demTileSize, demKeys...)

	for row := 0; row < demTileSize; row++ {
		rowIdx := row + demTileSize*int(off.Y)

		for col := 0; col < demTileSize; col++ {
			colIdx := col + demTileSize*int(off.X)

			h := g.At(rowIdx, colIdx)

			ele, ok := h.Scaled(100)
			if !ok {
				continue
			}

			f, _ := h.Band(size)
			id := mvt.FeatureID(rowIdx, colIdx)

			layer.AddFeature(mvt.Feature{
				ID:       &id,
				Type:     mvt.Polygon,
				Geometry: mvt.Square(int32(col), int32(row)),
				Tags: []mvt.Tag{
					{Key: "ele", Value: mvt.IntValue(ele)},
					{Key: "f_height", Value: mvt.IntValue(int64(size * float64(f+1)))},
					{Key: "f_base", Value: mvt.IntValue(int64(size * float64(f)))},
					{Key: "x", Value: mvt.IntValue(int64(raw.X)*dem.Size + int64(colIdx))},
					{Key: "y", Value: mvt.IntValue(int64(raw.Y)*dem.Size + int64(rowIdx))},
					{Key: "z", Value: mvt.IntValue(int64(cubeZ))},
					{Key: "f", Value: mvt.IntValue(f)},
				},
			})
		}
	}

	mt := mvt.Tile{Layers: []*mvt.Layer{layer}}

	return mt.Marshal(), nil
}

// Elevation returns the elevation at a longitude and latitude, read from the
// deepest raw tiles.
func (s *Service) Elevation(ctx context.Context, lng, lat model.Degrees) (model.Height, error) {
	if !lng.ValidLon() || !lat.ValidLat() {
		return model.NoData, invalid(fmt.Errorf("position %s, %s out of range", lng, lat))
	}

	p := tile.PixelOf(lng, lat, RawZoom+8)

	t, err := tile.New(p.X, p.Y, RawZoom+8)
	if err != nil {
		return model.NoData, invalid(err)
	}

	raw, off, err := tile.Ancestor(t, 8)
	if err != nil {
		return model.NoData, invalid(err)
	}

	g, err := s.grid(ctx, raw)
	if err != nil {
		return model.NoData, err
	}

	return g.At(int(off.Y), int(off.X)), nil
}

func (s *Service) grid(ctx context.Context, raw maptile.Tile) (*dem.Grid, error) {
	g, err := s.merger.Grid(ctx, raw)
	if errors.Is(err, dem.ErrNoData) {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	} else if err != nil {
		return nil, err
	}

	return g, nil
}
