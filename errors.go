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
	"errors"
	"fmt"
)

var (
	// ErrNoData means the requested tile has no data at all.  It is not a
	// failure: servers answer it with an empty response.
	ErrNoData = errors.New("no data")

	// ErrInvalidInput marks requests that can never succeed as given.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientData means a cross-section touches a raw tile that has no
	// data.
	ErrInsufficientData = errors.New("insufficient DEM data")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
