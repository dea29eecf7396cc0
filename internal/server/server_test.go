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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/demtiles"
	"m4o.io/demtiles/internal/codec"
	"m4o.io/demtiles/model"
)

var tileBody = []byte("not really a vector tile, but bytes all the same")

type fakeRenderer struct {
	tiles map[maptile.Tile]error
	last  maptile.Tile
}

func (f *fakeRenderer) render(_ context.Context, t maptile.Tile) ([]byte, error) {
	f.last = t

	if err, ok := f.tiles[t]; ok {
		return nil, err
	}

	return tileBody, nil
}

func (f *fakeRenderer) RenderDEMTile(ctx context.Context, t maptile.Tile) ([]byte, error) {
	return f.render(ctx, t)
}

func (f *fakeRenderer) RenderGeoidTile(ctx context.Context, t maptile.Tile) ([]byte, error) {
	return f.render(ctx, t)
}

func (f *fakeRenderer) CrossSection(_ context.Context, z int, line string) (*demtiles.Profile, error) {
	if line == "missing" {
		return nil, fmt.Errorf("%w: raw tile 14/0/0", demtiles.ErrInsufficientData)
	}

	ele, band := int64(1234), int64(1)

	return &demtiles.Profile{
		Cubes:  geojson.NewFeatureCollection(),
		Points: []model.Sample{{Pixel: model.Pixel{X: 1, Y: 2}, Elevation: &ele, Band: &band}},
	}, nil
}

func (f *fakeRenderer) Elevation(_ context.Context, lng, _ model.Degrees) (model.Height, error) {
	if lng > 180 {
		return model.NoData, fmt.Errorf("%w: lng", demtiles.ErrInvalidInput)
	}

	return model.Meters(3.5), nil
}

func (f *fakeRenderer) GeoidHeight(_ context.Context, _, _ model.Degrees) (model.Height, error) {
	return model.NoData, nil
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var m message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))

	return m.Message
}

func TestServeTile(t *testing.T) {
	f := &fakeRenderer{}
	h := New(f, Config{}).Handler()

	rec := get(t, h, "/jgsi-dem/tiles/17/116417/51613.pbf")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mvtContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, immutable, rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, tileBody, rec.Body.Bytes())
	assert.Equal(t, maptile.New(116417, 51613, 17), f.last)

	rec = get(t, h, "/geoid/tiles/10/909/403")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maptile.New(909, 403, 10), f.last)
}

func TestServeTileDev(t *testing.T) {
	h := New(&fakeRenderer{}, Config{Dev: true}).Handler()

	rec := get(t, h, "/geoid/tiles/0/0/0")
	assert.Equal(t, noCache, rec.Header().Get("Cache-Control"))
}

func TestServeTileStatus(t *testing.T) {
	noData := maptile.New(0, 0, 5)
	broken := maptile.New(1, 0, 5)
	slow := maptile.New(2, 0, 5)
	invalid := maptile.New(0, 0, 2)

	f := &fakeRenderer{tiles: map[maptile.Tile]error{
		noData:  fmt.Errorf("%w: coarse tier", demtiles.ErrNoData),
		broken:  errors.New("connection reset"),
		slow:    fmt.Errorf("fetch: %w", context.DeadlineExceeded),
		invalid: fmt.Errorf("%w: zoom steps out of range", demtiles.ErrInvalidInput),
	}}
	h := New(f, Config{}).Handler()

	rec := get(t, h, "/jgsi-dem/tiles/5/0/0")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = get(t, h, "/jgsi-dem/tiles/5/1/0")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", messageOf(t, rec))

	rec = get(t, h, "/jgsi-dem/tiles/5/2/0")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	rec = get(t, h, "/jgsi-dem/tiles/2/0/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/jgsi-dem/tiles/5/x/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/jgsi-dem/tiles/5/32/0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	rec := get(t, h, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", messageOf(t, rec))
}

func TestHealth(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestID(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	rec := get(t, h, "/health")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	const id = "0b6c1b5e-8a62-4a43-9a38-3a0e6f9f2a51"

	rec = get(t, h, "/health", requestIDHeader, id)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	rec = get(t, h, "/health", requestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestTileJSON(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	rec := get(t, h, "/jgsi-dem/tiles.json", "X-Forwarded-Proto", "https")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, metadata, rec.Header().Get("Cache-Control"))

	var tj model.TileJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tj))
	assert.Equal(t, []string{"https://example.com/jgsi-dem/tiles/{z}/{x}/{y}.pbf?v=" + demtiles.Version}, tj.Tiles)

	h = New(&fakeRenderer{}, Config{BaseURL: "http://localhost:3000"}).Handler()

	rec = get(t, h, "/geoid/tiles.json")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tj))
	assert.Equal(t, []string{"http://localhost:3000/geoid/tiles/{z}/{x}/{y}.pbf?v=" + demtiles.Version}, tj.Tiles)
	assert.Equal(t, 21, tj.MaxZoom)
}

func TestCrossSection(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	rec := get(t, h, "/jgsi-dem/cross-section?z=22&line=1,2;3,4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jsonContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"geojsonCubes":{"type":"FeatureCollection","features":[]},"annotatedPoints":[[1,2,1234,1]]}`,
		rec.Body.String())

	rec = get(t, h, "/jgsi-dem/cross-section?z=22&line=1%2C2%3B3%2C4")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/jgsi-dem/cross-section?z=22&line=missing")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "insufficient DEM data", messageOf(t, rec))

	rec = get(t, h, "/jgsi-dem/cross-section?line=1,2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/jgsi-dem/cross-section?z=22")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHeights(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	rec := get(t, h, "/jgsi-dem/elevation?lng=139.5&lat=35.25")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lng":139.5,"lat":35.25,"height":3.5}`, rec.Body.String())

	rec = get(t, h, "/geoid/height?lng=-30&lat=35")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lng":-30,"lat":35,"height":null}`, rec.Body.String())

	rec = get(t, h, "/jgsi-dem/elevation?lng=200&lat=35")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/jgsi-dem/elevation?lng=abc&lat=35")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid lng", messageOf(t, rec))
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header string
		name   string
		c      codec.Compression
	}{
		{"", "", codec.RAW},
		{"identity", "", codec.RAW},
		{"gzip", "gzip", codec.GZIP},
		{"gzip, deflate", "deflate", codec.ZLIB},
		{"gzip, deflate, br, zstd", "zstd", codec.ZSTD},
		{"zstd;q=0.5, gzip", "gzip", codec.GZIP},
		{"gzip;q=0, deflate;q=0", "", codec.RAW},
		{"*", "zstd", codec.ZSTD},
		{"*;q=0.1, gzip;q=0.5", "gzip", codec.GZIP},
		{"br", "br", codec.BROTLI},
		{"gzip, deflate, br", "br", codec.BROTLI},
		{"br;q=0.5, deflate", "deflate", codec.ZLIB},
		{" GZIP ; Q=0.8 ", "gzip", codec.GZIP},
	}

	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			name, c := negotiate(tc.header)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.c, c)
		})
	}
}

func TestServeTileEncoded(t *testing.T) {
	h := New(&fakeRenderer{}, Config{}).Handler()

	decoders := map[string]func(io.Reader) (io.Reader, error){
		"zstd": func(r io.Reader) (io.Reader, error) {
			d, err := zstd.NewReader(r)
			return d, err
		},
		"br": func(r io.Reader) (io.Reader, error) {
			return brotli.NewReader(r), nil
		},
		"gzip": func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		},
		"deflate": func(r io.Reader) (io.Reader, error) {
			return zlib.NewReader(r)
		},
	}

	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			rec := get(t, h, "/geoid/tiles/0/0/0", "Accept-Encoding", name)

			assert.Equal(t, name, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, "accept-encoding", rec.Header().Get("Vary"))

			rdr, err := decode(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)

			body, err := io.ReadAll(rdr)
			require.NoError(t, err)
			assert.Equal(t, tileBody, body)
		})
	}
}

func TestQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?z=22&line=1,2;3,4&&a=%41&bad=%zz", nil)

	q := query(req)
	assert.Equal(t, "22", q.Get("z"))
	assert.Equal(t, "1,2;3,4", q.Get("line"))
	assert.Equal(t, "A", q.Get("a"))
	assert.False(t, q.Has("bad"))
}
