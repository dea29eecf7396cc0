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

// Package server exposes the tile service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/maptile"

	"m4o.io/demtiles"
	"m4o.io/demtiles/internal/tile"
	"m4o.io/demtiles/model"
)

const (
	mvtContentType  = "application/vnd.mapbox-vector-tile"
	jsonContentType = "application/json"

	immutable = "public, max-age=31536000, immutable"
	noCache   = "no-cache"
	metadata  = "public, max-age=30"

	DefaultTimeout = 30 * time.Second
)

// Renderer is the service behind the routes.
type Renderer interface {
	RenderDEMTile(ctx context.Context, t maptile.Tile) ([]byte, error)
	RenderGeoidTile(ctx context.Context, t maptile.Tile) ([]byte, error)
	CrossSection(ctx context.Context, z int, line string) (*demtiles.Profile, error)
	Elevation(ctx context.Context, lng, lat model.Degrees) (model.Height, error)
	GeoidHeight(ctx context.Context, lng, lat model.Degrees) (model.Height, error)
}

// Config holds the server settings.
type Config struct {
	// BaseURL is the public URL tiles are served under.  When empty it is
	// derived from each request.
	BaseURL string

	// Dev disables long lived caching of tiles.
	Dev bool

	// Timeout bounds the handling of each request.
	Timeout time.Duration
}

type Server struct {
	svc Renderer
	cfg Config
}

func New(svc Renderer, cfg Config) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Server{svc: svc, cfg: cfg}
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /jgsi-dem/tiles.json", s.handleDEMTileJSON)
	mux.HandleFunc("GET /jgsi-dem/tiles/{z}/{x}/{y}", s.handleDEMTile)
	mux.HandleFunc("GET /jgsi-dem/cross-section", s.handleCrossSection)
	mux.HandleFunc("GET /jgsi-dem/elevation", s.handleElevation)
	mux.HandleFunc("GET /geoid/tiles.json", s.handleGeoidTileJSON)
	mux.HandleFunc("GET /geoid/tiles/{z}/{x}/{y}", s.handleGeoidTile)
	mux.HandleFunc("GET /geoid/height", s.handleGeoidHeight)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})

	return withRequestID(mux)
}

func (s *Server) handleDEMTileJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, metadata, demtiles.DEMTileJSON(s.baseURL(r)))
}

func (s *Server) handleGeoidTileJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, metadata, demtiles.GeoidTileJSON(s.baseURL(r)))
}

func (s *Server) handleDEMTile(w http.ResponseWriter, r *http.Request) {
	s.serveTile(w, r, s.svc.RenderDEMTile)
}

func (s *Server) handleGeoidTile(w http.ResponseWriter, r *http.Request) {
	s.serveTile(w, r, s.svc.RenderGeoidTile)
}

func (s *Server) serveTile(w http.ResponseWriter, r *http.Request, render func(context.Context, maptile.Tile) ([]byte, error)) {
	t, err := tile.Parse(r.PathValue("z"), r.PathValue("x"), r.PathValue("y"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	b, err := render(ctx, t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cacheControl := immutable
	if s.cfg.Dev {
		cacheControl = noCache
	}

	w.Header().Set("Content-Type", mvtContentType)
	w.Header().Set("Cache-Control", cacheControl)

	writeEncoded(w, r, b)
}

func (s *Server) handleCrossSection(w http.ResponseWriter, r *http.Request) {
	q := query(r)

	z, err := strconv.Atoi(q.Get("z"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid z")
		return
	}

	line := q.Get("line")
	if line == "" {
		writeMessage(w, http.StatusBadRequest, "line parameter required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	p, err := s.svc.CrossSection(ctx, z, line)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, "", p)
}

type heightResponse struct {
	Lng    model.Degrees `json:"lng"`
	Lat    model.Degrees `json:"lat"`
	Height model.Height  `json:"height"`
}

func (s *Server) handleElevation(w http.ResponseWriter, r *http.Request) {
	s.serveHeight(w, r, s.svc.Elevation)
}

func (s *Server) handleGeoidHeight(w http.ResponseWriter, r *http.Request) {
	s.serveHeight(w, r, s.svc.GeoidHeight)
}

func (s *Server) serveHeight(w http.ResponseWriter, r *http.Request, lookup func(context.Context, model.Degrees, model.Degrees) (model.Height, error)) {
	q := r.URL.Query()

	lng, err := model.ParseDegrees(q.Get("lng"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid lng")
		return
	}

	lat, err := model.ParseDegrees(q.Get("lat"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid lat")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	h, err := lookup(ctx, lng, lat)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, "", heightResponse{Lng: lng, Lat: lat, Height: h})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}

// query parses the query string splitting on '&' only, so that ';' may
// appear in values unescaped.
func query(r *http.Request) url.Values {
	values := make(url.Values)

	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		if pair == "" {
			continue
		}

		k, v, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}

		val, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}

		values.Add(key, val)
	}

	return values
}

func writeJSON(w http.ResponseWriter, cacheControl string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("unable to encode response", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")

		return
	}

	w.Header().Set("Content-Type", jsonContentType)
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}

	_, _ = w.Write(b)
}
