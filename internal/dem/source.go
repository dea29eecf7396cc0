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
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/maptile"
)

const (
	// DefaultFineURL is the DEM5A tier: accurate but with partial coverage.
	DefaultFineURL = "https://cyberjapandata.gsi.go.jp/xyz/dem5a/{z}/{x}/{y}.txt"

	// DefaultCoarseURL is the DEM10B tier: less accurate, widest coverage.
	DefaultCoarseURL = "https://cyberjapandata.gsi.go.jp/xyz/dem/{z}/{x}/{y}.txt"

	DefaultTimeout = 15 * time.Second

	maxBodySize = 8 << 20
)

// ErrNotFound is returned by a Source that has no tile at the requested
// coordinate.
var ErrNotFound = errors.New("elevation tile not found")

// Source fetches the elevation text of a raw tile.
type Source interface {
	Fetch(ctx context.Context, t maptile.Tile) (Text, error)
}

// HTTPSource fetches tiles from a URL template containing {z}, {x} and {y}.
type HTTPSource struct {
	template string
	client   *http.Client
}

// NewHTTPSource creates a source.  A nil client gets one with DefaultTimeout.
func NewHTTPSource(template string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &HTTPSource{template: template, client: client}
}

// URL expands the template for t.
func (s *HTTPSource) URL(t maptile.Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	)

	return r.Replace(s.template)
}

// Fetch retrieves and parses a tile.  Any non-success status is reported as
// ErrNotFound; transport failures are returned as errors.
func (s *HTTPSource) Fetch(ctx context.Context, t maptile.Tile) (Text, error) {
	url := s.URL(t)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request for %s: %w", url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

		slog.Debug("upstream tile absent", "url", url, "status", resp.StatusCode)

		return nil, fmt.Errorf("%w: %s returned %d", ErrNotFound, url, resp.StatusCode)
	}

	text, err := ParseText(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}

	slog.Debug("upstream tile fetched", "url", url, "rows", len(text))

	return text, nil
}
