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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	orbmvt "github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/demtiles/internal/codec"
	"m4o.io/demtiles/internal/dem"
	"m4o.io/demtiles/internal/geoid"
	"m4o.io/demtiles/internal/tile"
	"m4o.io/demtiles/model"
)

// 14/14552/6451 covers Tokyo station.
var tokyo = maptile.New(14552, 6451, 14)

type fakeSource map[maptile.Tile]string

func (f fakeSource) Fetch(_ context.Context, t maptile.Tile) (dem.Text, error) {
	body, ok := f[t]
	if !ok {
		return nil, dem.ErrNotFound
	}

	return dem.ParseText(strings.NewReader(body))
}

// countingSource records how often each tile is fetched.
type countingSource struct {
	fakeSource

	mu    sync.Mutex
	calls map[maptile.Tile]int
}

func (c *countingSource) Fetch(ctx context.Context, t maptile.Tile) (dem.Text, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[maptile.Tile]int)
	}
	c.calls[t]++
	c.mu.Unlock()

	return c.fakeSource.Fetch(ctx, t)
}

func (c *countingSource) count(t maptile.Tile) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[t]
}

func newDEMService(fine, coarse fakeSource) *Service {
	return NewService(withDEMSources(fine, coarse), WithNCpus(4))
}

func writeModel(t *testing.T, m *geoid.Model) string {
	t.Helper()

	dir := t.TempDir()

	f, err := os.Create(filepath.Join(dir, geoid.DefaultModel))
	require.NoError(t, err)
	require.NoError(t, geoid.Write(f, m, codec.FromPath(geoid.DefaultModel)))
	require.NoError(t, f.Close())

	return dir
}

// japan is a geoid model over Japan with the same height everywhere.
func japan(height float64) *geoid.Model {
	m := geoid.NewModel()
	m.LatMin = 20
	m.LonMin = 120
	m.Version = "test"

	for i := 1; i < geoid.Rows-1; i++ {
		for j := 1; j < geoid.Cols-1; j++ {
			m.Data[i][j] = height
		}
	}

	return m
}

func TestRenderDEMTile(t *testing.T) {
	s := newDEMService(
		fakeSource{tokyo: "10,5\ne,e\n"},
		fakeSource{tokyo: "12.346,e\ne,100\n"},
	)

	// top-left output tile of the raw tile
	out := maptile.New(tokyo.X*8, tokyo.Y*8, 17)

	b, err := s.RenderDEMTile(context.Background(), out)
	require.NoError(t, err)

	layers, err := orbmvt.Unmarshal(b)
	require.NoError(t, err)
	require.Len(t, layers, 1)

	layer := layers[0]
	assert.Equal(t, DEMLayer, layer.Name)
	assert.Equal(t, uint32(32), layer.Extent)
	require.Len(t, layer.Features, 3)

	first := layer.Features[0]
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, first.Geometry.Bound())
	assert.EqualValues(t, 1235, first.Properties["ele"])
	assert.EqualValues(t, 16, first.Properties["f_height"])
	assert.EqualValues(t, 8, first.Properties["f_base"])
	assert.EqualValues(t, 1, first.Properties["f"])
	assert.EqualValues(t, 14552*256, first.Properties["x"])
	assert.EqualValues(t, 6451*256, first.Properties["y"])
	assert.EqualValues(t, 22, first.Properties["z"])

	// coarse hole filled from the fine tier
	second := layer.Features[1]
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{2, 1}}, second.Geometry.Bound())
	assert.EqualValues(t, 500, second.Properties["ele"])
	assert.EqualValues(t, 0, second.Properties["f"])
	assert.EqualValues(t, 8, second.Properties["f_height"])
	assert.EqualValues(t, 0, second.Properties["f_base"])

	third := layer.Features[2]
	assert.EqualValues(t, 10000, third.Properties["ele"])
	assert.EqualValues(t, 12, third.Properties["f"])
	assert.EqualValues(t, 6451*256+1, third.Properties["y"])
}

func TestRenderDEMTileOffset(t *testing.T) {
	row := strings.TrimSuffix(strings.Repeat("1,", dem.Size), ",")
	s := newDEMService(nil, fakeSource{tokyo: strings.Repeat(row+"\n", dem.Size)})

	// bottom-right output tile of the raw tile
	out := maptile.New(tokyo.X*8+7, tokyo.Y*8+7, 17)

	b, err := s.RenderDEMTile(context.Background(), out)
	require.NoError(t, err)

	layers, err := orbmvt.Unmarshal(b)
	require.NoError(t, err)
	require.Len(t, layers[0].Features, 32*32)

	last := layers[0].Features[32*32-1]
	assert.Equal(t, orb.Bound{Min: orb.Point{31, 31}, Max: orb.Point{32, 32}}, last.Geometry.Bound())
	assert.EqualValues(t, 14552*256+255, last.Properties["x"])
	assert.EqualValues(t, 6451*256+255, last.Properties["y"])
}

func TestRenderDEMTileWindowWithoutData(t *testing.T) {
	s := newDEMService(nil, fakeSource{tokyo: "1,2\n"})

	b, err := s.RenderDEMTile(context.Background(), maptile.New(tokyo.X*8+1, tokyo.Y*8, 17))
	require.NoError(t, err)

	layers, err := orbmvt.Unmarshal(b)
	require.NoError(t, err)
	assert.Empty(t, layers[0].Features)
}

func TestRenderDEMTileNoData(t *testing.T) {
	s := newDEMService(fakeSource{tokyo: "1\n"}, fakeSource{})

	_, err := s.RenderDEMTile(context.Background(), maptile.New(tokyo.X*8, tokyo.Y*8, 17))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderDEMTileInvalid(t *testing.T) {
	s := newDEMService(nil, nil)

	_, err := s.RenderDEMTile(context.Background(), maptile.New(0, 0, 2))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, tile.ErrInvalidSteps)
}

func TestElevation(t *testing.T) {
	lng, lat := model.Degrees(139.767125), model.Degrees(35.681236)

	p := tile.PixelOf(lng, lat, RawZoom+8)
	row, col := p.Y%dem.Size, p.X%dem.Size

	lines := make([]string, row+1)
	for i := range lines {
		lines[i] = "e"
	}

	lines[row] = strings.TrimSuffix(strings.Repeat("e,", col), ",")
	if col > 0 {
		lines[row] += ","
	}

	lines[row] += "3.5"

	s := newDEMService(nil, fakeSource{tokyo: strings.Join(lines, "\n")})

	h, err := s.Elevation(context.Background(), lng, lat)
	require.NoError(t, err)
	assert.Equal(t, model.Meters(3.5), h)

	_, err = s.Elevation(context.Background(), 200, lat)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Elevation(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRenderGeoidTile(t *testing.T) {
	dir := writeModel(t, japan(36.7512))
	s := NewService(WithGeoidDir(dir), WithNCpus(4))

	// 10/909/403 contains Tokyo
	gt := maptile.New(909, 403, 10)

	b, err := s.RenderGeoidTile(context.Background(), gt)
	require.NoError(t, err)

	layers, err := orbmvt.Unmarshal(b)
	require.NoError(t, err)
	require.Len(t, layers, 1)

	layer := layers[0]
	assert.Equal(t, GeoidLayer, layer.Name)
	assert.Equal(t, uint32(16), layer.Extent)
	require.Len(t, layer.Features, 256)

	first := layer.Features[0]
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, first.Geometry.Bound())
	assert.EqualValues(t, 36751, first.Properties["geoid_height"])
	assert.EqualValues(t, 909*16, first.Properties["x"])
	assert.EqualValues(t, 403*16, first.Properties["y"])
	assert.EqualValues(t, 14, first.Properties["z"])

	// descendants are visited depth first
	second := layer.Features[1]
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{2, 1}}, second.Geometry.Bound())
}

func TestRenderGeoidTileAllNoData(t *testing.T) {
	dir := writeModel(t, japan(36.7512))
	s := NewService(WithGeoidDir(dir))

	// the Atlantic
	b, err := s.RenderGeoidTile(context.Background(), maptile.New(400, 380, 10))
	require.NoError(t, err)

	layers, err := orbmvt.Unmarshal(b)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, GeoidLayer, layers[0].Name)
	assert.Empty(t, layers[0].Features)
}

func TestRenderGeoidTileMissingModel(t *testing.T) {
	s := NewService(WithGeoidDir(t.TempDir()), WithGeoidModel("absent.json"))

	_, err := s.RenderGeoidTile(context.Background(), maptile.New(0, 0, 0))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.RenderGeoidTile(context.Background(), maptile.New(0, 0, 27))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGeoidHeight(t *testing.T) {
	dir := writeModel(t, japan(36.7512))
	s := NewService(WithGeoidDir(dir))

	h, err := s.GeoidHeight(context.Background(), 139.767125, 35.681236)
	require.NoError(t, err)

	v, ok := h.Meters()
	require.True(t, ok)
	assert.InDelta(t, 36.7512, v, 1e-9)

	h, err = s.GeoidHeight(context.Background(), -30, 35)
	require.NoError(t, err)
	assert.False(t, h.Valid())

	_, err = s.GeoidHeight(context.Background(), 139, 95)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCrossSection(t *testing.T) {
	s := newDEMService(nil, fakeSource{tokyo: "1,e,3,4\n"})

	x0, y0 := int(tokyo.X)*256, int(tokyo.Y)*256
	line := fmt.Sprintf("%d,%d;%d,%d", x0, y0, x0+3, y0)

	p, err := s.CrossSection(context.Background(), 22, line)
	require.NoError(t, err)

	require.Len(t, p.Points, 4)
	assert.Equal(t, model.Pixel{X: x0 + 1, Y: y0}, p.Points[1].Pixel)
	assert.Equal(t, int64(100), *p.Points[0].Elevation)
	assert.Nil(t, p.Points[1].Elevation)
	assert.Equal(t, int64(400), *p.Points[3].Elevation)
	assert.Equal(t, int64(0), *p.Points[3].Band)

	require.Len(t, p.Cubes.Features, 4)
	assert.Equal(t, x0*y0, p.Cubes.Features[0].ID)
	assert.Equal(t, 8.0, p.Cubes.Features[0].Properties["fh"])
	assert.Equal(t, 0.0, p.Cubes.Features[0].Properties["fb"])
	assert.Nil(t, p.Cubes.Features[1].Properties["ele"])

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var doc struct {
		Cubes struct {
			Type     string            `json:"type"`
			Features []json.RawMessage `json:"features"`
		} `json:"geojsonCubes"`
		Points [][]*int64 `json:"annotatedPoints"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))

	assert.Equal(t, "FeatureCollection", doc.Cubes.Type)
	assert.Len(t, doc.Cubes.Features, 4)
	require.Len(t, doc.Points, 4)
	assert.Nil(t, doc.Points[1][2])
	assert.Equal(t, int64(300), *doc.Points[2][2])
}

func TestCrossSectionAcrossRawTiles(t *testing.T) {
	east := maptile.New(tokyo.X+1, tokyo.Y, tokyo.Z)
	south := maptile.New(tokyo.X, tokyo.Y+1, tokyo.Z)

	full := func(v string) string {
		row := strings.TrimSuffix(strings.Repeat(v+",", dem.Size), ",")
		return strings.Repeat(row+"\n", dem.Size)
	}

	fine := &countingSource{fakeSource: fakeSource{}}
	coarse := &countingSource{fakeSource: fakeSource{
		tokyo: full("1"),
		east:  full("2"),
		south: full("3"),
	}}
	s := NewService(withDEMSources(fine, coarse), WithNCpus(4))

	x0, y0 := int(tokyo.X)*256, int(tokyo.Y)*256
	line := fmt.Sprintf("%d,%d;%d,%d;%d,%d;%d,%d",
		x0+250, y0+10, x0+260, y0+10, x0+250, y0+10, x0+250, y0+260)

	p, err := s.CrossSection(context.Background(), 22, line)
	require.NoError(t, err)

	assert.Equal(t, int64(100), *p.Points[0].Elevation)
	assert.Equal(t, int64(200), *p.Points[10].Elevation)
	assert.Equal(t, int64(300), *p.Points[len(p.Points)-1].Elevation)

	for _, tl := range []maptile.Tile{tokyo, east, south} {
		assert.Equal(t, 1, coarse.count(tl), tile.Key(tl))
		assert.Equal(t, 1, fine.count(tl), tile.Key(tl))
	}

	_, err = s.CrossSection(context.Background(), 22, line)
	require.NoError(t, err)
	assert.Equal(t, 1, coarse.count(tokyo))
}

func TestCrossSectionInsufficientData(t *testing.T) {
	s := newDEMService(nil, fakeSource{tokyo: "1\n"})

	x0, y0 := int(tokyo.X)*256+255, int(tokyo.Y)*256
	line := fmt.Sprintf("%d,%d;%d,%d", x0, y0, x0+1, y0)

	_, err := s.CrossSection(context.Background(), 22, line)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCrossSectionInvalid(t *testing.T) {
	s := newDEMService(nil, nil)

	tests := []struct {
		name string
		z    int
		line string
	}{
		{"zoom too shallow", 7, "1,1;2,2"},
		{"zoom too deep", 31, "1,1;2,2"},
		{"malformed", 10, "1;2"},
		{"outside the world", 10, "-1,0;3,0"},
		{"too long", 30, "0,0;1073741823,0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CrossSection(context.Background(), tc.z, tc.line)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestServiceHTTPSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/coarse/14/14552/6451") {
			_, _ = w.Write([]byte("2.5\n"))
			return
		}

		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewService(
		WithFineURL(srv.URL+"/fine/{z}/{x}/{y}.txt"),
		WithCoarseURL(srv.URL+"/coarse/{z}/{x}/{y}.txt"),
		WithHTTPClient(srv.Client()),
	)

	b, err := s.RenderDEMTile(context.Background(), maptile.New(tokyo.X*8, tokyo.Y*8, 17))
	require.NoError(t, err)

	layers, err := orbmvt.Unmarshal(b)
	require.NoError(t, err)
	require.Len(t, layers[0].Features, 1)
	assert.EqualValues(t, 250, layers[0].Features[0].Properties["ele"])
}

func TestTileJSON(t *testing.T) {
	d := DEMTileJSON("http://localhost:3000/")
	assert.Equal(t, []string{"http://localhost:3000/jgsi-dem/tiles/{z}/{x}/{y}.pbf?v=1.0.2"}, d.Tiles)
	assert.Equal(t, 3, d.MinZoom)
	assert.Equal(t, 17, d.MaxZoom)
	assert.Equal(t, "jgsi-dem", d.Name)
	assert.Len(t, d.VectorLayers[0].Fields, 7)

	g := GeoidTileJSON("https://tiles.example.com")
	assert.Equal(t, []string{"https://tiles.example.com/geoid/tiles/{z}/{x}/{y}.pbf?v=1.0.2"}, g.Tiles)
	assert.Equal(t, 0, g.MinZoom)
	assert.Equal(t, 21, g.MaxZoom)
	assert.Equal(t, "geoid", g.VectorLayers[0].ID)
	assert.Equal(t, Version, g.Version)
}
