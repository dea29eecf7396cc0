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

// Package demtiles renders elevation and geoid vector tiles and answers
// elevation cross-section queries over the GSI Japan elevation tiles.
package demtiles

import (
	"net/http"

	"m4o.io/demtiles/internal/dem"
	"m4o.io/demtiles/internal/geoid"
)

// Service renders tiles and profiles.  It is safe for concurrent use; the
// merged elevation grids and geoid models it loads are shared by all
// requests for the life of the service.
type Service struct {
	opts   serviceOptions
	merger *dem.Merger
	geoids *geoid.Store
}

// NewService creates a service configured by opts.
func NewService(opts ...ServiceOption) *Service {
	c := defaultServiceConfig

	for _, opt := range opts {
		opt(&c)
	}

	client := c.client
	if client == nil {
		client = &http.Client{Timeout: c.httpTimeout}
	}

	fine, coarse := c.fine, c.coarse
	if fine == nil {
		fine = dem.NewHTTPSource(c.fineURL, client)
	}

	if coarse == nil {
		coarse = dem.NewHTTPSource(c.coarseURL, client)
	}

	return &Service{
		opts:   c,
		merger: dem.NewMerger(fine, coarse),
		geoids: geoid.NewStore(c.geoidDir),
	}
}
