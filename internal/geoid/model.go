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

// Package geoid evaluates the height of the geoid above the reference
// ellipsoid from a gridded geoid model.
package geoid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// Rows and Cols are the dimensions of the sample grid, including one
	// padding row and column on each side.
	Rows = 1802
	Cols = 1202

	// NoData marks grid cells, and results, without a value.
	NoData = 999.0

	// DefaultModel is the model file served when none is configured.
	DefaultModel = "gsigeo2011_ver2_1.json.br"
)

var ErrMalformedModel = errors.New("malformed geoid model")

// Model is a geoid grid.  Data is indexed [latitude index+1][longitude
// index+1].  A Model is never modified once loaded.
type Model struct {
	Data    [][]float64 `json:"dat"`
	LatMin  float64     `json:"glamn"`
	LonMin  float64     `json:"glomn"`
	DLat    float64     `json:"dgla"`
	DLon    float64     `json:"dglo"`
	NLat    int         `json:"nla"`
	NLon    int         `json:"nlo"`
	Kind    int         `json:"ikind"`
	Version string      `json:"vern"`
}

// NewModel returns a model with every sample set to NoData.
func NewModel() *Model {
	data := make([][]float64, Rows)

	for i := range data {
		row := make([]float64, Cols)
		for j := range row {
			row[j] = NoData
		}

		data[i] = row
	}

	return &Model{Data: data}
}

// Validate checks the grid dimensions.
func (m *Model) Validate() error {
	if len(m.Data) != Rows {
		return fmt.Errorf("%w: %d rows, want %d", ErrMalformedModel, len(m.Data), Rows)
	}

	for i, row := range m.Data {
		if len(row) != Cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrMalformedModel, i, len(row), Cols)
		}
	}

	return nil
}

// Count returns the number of samples carrying a value.
func (m *Model) Count() int {
	n := 0

	for _, row := range m.Data {
		for _, v := range row {
			if v != NoData {
				n++
			}
		}
	}

	return n
}

// Decode reads a model in its JSON form.
func Decode(r io.Reader) (*Model, error) {
	var m Model

	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedModel, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Encode writes the model in its JSON form.
func Encode(w io.Writer, m *Model) error {
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("could not encode geoid model: %w", err)
	}

	return nil
}
