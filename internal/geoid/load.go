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

package geoid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"m4o.io/demtiles/internal/cache"
	"m4o.io/demtiles/internal/codec"
)

// Load reads a JSON model file, decompressing it according to its
// extension.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open geoid model: %w", err)
	}
	defer f.Close()

	return Read(f, codec.FromPath(path))
}

// Read decodes a model from r compressed with c.
func Read(r io.Reader, c codec.Compression) (*Model, error) {
	rdr, err := codec.NewReader(r, c)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	return Decode(rdr)
}

// Write encodes a model to w compressed with c.
func Write(w io.Writer, m *Model, c codec.Compression) error {
	wrtr, err := codec.NewWriter(w, c)
	if err != nil {
		return err
	}

	if err = Encode(wrtr, m); err != nil {
		return err
	}

	if err = wrtr.Close(); err != nil {
		return fmt.Errorf("could not flush %s stream: %w", c, err)
	}

	return nil
}

// Store loads models from a directory, each at most once.
type Store struct {
	dir    string
	models *cache.Cache[*Model]
}

func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		models: cache.New[*Model]("geoid"),
	}
}

// Model returns the model stored in the named file.
func (s *Store) Model(ctx context.Context, name string) (*Model, error) {
	return s.models.Get(ctx, name, func(context.Context) (*Model, error) {
		path := filepath.Join(s.dir, name)
		start := time.Now()

		m, err := Load(path)
		if err != nil {
			return nil, err
		}

		slog.Info("loaded geoid model", "path", path, "version", m.Version, "elapsed", time.Since(start))

		return m, nil
	})
}
