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

// Package dem acquires raw elevation tiles and merges the two resolution
// tiers into a single grid.
package dem

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"m4o.io/demtiles/model"
)

const (
	// Size is the width and height of a raw tile in pixels.
	Size = 256

	noData = "e"
)

var ErrMalformedGrid = errors.New("malformed elevation grid")

// Text is an elevation text tile as parsed, rows of cells that may be
// ragged or short.
type Text [][]model.Height

// At returns the cell at row and col, or NoData when the text does not
// reach that far.
func (t Text) At(row, col int) model.Height {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return model.NoData
	}

	return t[row][col]
}

// Has reports whether the text contains a cell at row and col.
func (t Text) Has(row, col int) bool {
	return row >= 0 && row < len(t) && col >= 0 && col < len(t[row])
}

// ParseText reads a comma separated elevation tile.  Cells are trimmed and
// empty cells dropped; "e" marks a cell without data.
func ParseText(r io.Reader) (Text, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read elevation text: %w", err)
	}

	lines := strings.Split(string(b), "\n")
	if len(lines) > Size+1 || (len(lines) == Size+1 && strings.TrimSpace(lines[Size]) != "") {
		return nil, fmt.Errorf("%w: %d rows", ErrMalformedGrid, len(lines))
	}

	text := make(Text, 0, len(lines))

	for i, line := range lines {
		row := make([]model.Height, 0, Size)

		for _, cell := range strings.Split(line, ",") {
			cell = strings.TrimSpace(cell)

			switch cell {
			case "":
				continue
			case noData:
				row = append(row, model.NoData)
			default:
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d: %q", ErrMalformedGrid, i, cell)
				}

				row = append(row, model.Meters(v))
			}
		}

		if len(row) > Size {
			return nil, fmt.Errorf("%w: row %d has %d cells", ErrMalformedGrid, i, len(row))
		}

		text = append(text, row)
	}

	return text, nil
}

// Grid is a merged raw tile.  Once built it is never modified.
type Grid [Size][Size]model.Height

// At returns the height at row and col.  Positions outside the grid have no
// data.
func (g *Grid) At(row, col int) model.Height {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return model.NoData
	}

	return g[row][col]
}

// Merge overlays two resolution tiers.  Each cell present in the coarse text
// is taken from it, except that a coarse cell without data is replaced by the
// fine cell at the same position when a fine text exists.  Cells beyond the
// coarse text have no data.
func Merge(coarse, fine Text) *Grid {
	var g Grid

	for row, cells := range coarse {
		for col, h := range cells {
			if !h.Valid() && fine != nil {
				h = fine.At(row, col)
			}

			g[row][col] = h
		}
	}

	return &g
}

// Count returns the number of cells with data.
func (g *Grid) Count() int {
	n := 0

	for row := range g {
		for col := range g[row] {
			if g[row][col].Valid() {
				n++
			}
		}
	}

	return n
}
