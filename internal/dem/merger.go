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

package dem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/destel/rill"
	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles/internal/cache"
	"m4o.io/demtiles/internal/tile"
)

// ErrNoData is returned when the coarse tier has no tile, so nothing can be
// rendered.
var ErrNoData = errors.New("no elevation data")

// Merger produces merged grids, fetching both tiers concurrently and
// remembering each grid for the life of the process.
type Merger struct {
	fine   Source
	coarse Source
	grids  *cache.Cache[*Grid]
}

type tier struct {
	src  Source
	fine bool
}

func NewMerger(fine, coarse Source) *Merger {
	return &Merger{
		fine:   fine,
		coarse: coarse,
		grids:  cache.New[*Grid]("dem"),
	}
}

// Grid returns the merged grid for raw tile t.  A fine tile that is missing
// or malformed counts as absent.  A missing coarse tile yields
// ErrNoData and, like any other failure, is not remembered.
func (m *Merger) Grid(ctx context.Context, t maptile.Tile) (*Grid, error) {
	return m.grids.Get(ctx, tile.Key(t), func(ctx context.Context) (*Grid, error) {
		return m.load(ctx, t)
	})
}

func (m *Merger) load(ctx context.Context, t maptile.Tile) (*Grid, error) {
	tiers := rill.FromSlice([]tier{{m.fine, true}, {m.coarse, false}}, nil)

	texts := rill.OrderedMap(tiers, 2, func(tr tier) (Text, error) {
		text, err := tr.src.Fetch(ctx, t)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil
		case tr.fine && errors.Is(err, ErrMalformedGrid):
			slog.Warn("ignoring malformed fine tile", "tile", tile.Key(t), "error", err)
			return nil, nil
		}

		return text, err
	})

	results, err := rill.ToSlice(texts)
	if err != nil {
		return nil, fmt.Errorf("raw tile %s: %w", tile.Key(t), err)
	}

	fine, coarse := results[0], results[1]
	if coarse == nil {
		return nil, fmt.Errorf("%w: raw tile %s", ErrNoData, tile.Key(t))
	}

	g := Merge(coarse, fine)

	slog.Debug("merged raw tile", "tile", tile.Key(t), "fine", fine != nil, "cells", g.Count())

	return g, nil
}

// Cached reports whether the grid for t has already been populated.
func (m *Merger) Cached(t maptile.Tile) bool {
	_, ok := m.grids.Peek(tile.Key(t))
	return ok
}
