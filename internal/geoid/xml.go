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
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

var ErrInvalidGridID = errors.New("invalid geoid grid id")

var gridID = regexp.MustCompile(`^geoid(\d{4})(\d{4})$`)

// DecodeXML reads the published XML form of a geoid model.  Each sample is a
// geoid_height element whose id, geoidBBBBLLLL, gives its latitude and
// longitude indexes, holding the height in a Z element.  Samples absent from
// the document stay NoData.
func DecodeXML(r io.Reader) (*Model, error) {
	m := NewModel()

	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var (
		element  string
		lat, lon int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedModel, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			element = t.Name.Local

			if element == "geoid_height" {
				lat, lon, err = parseGridID(attr(t, "id"))
				if err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			element = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}

			if err := m.set(element, text, lat, lon); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func (m *Model) set(element, text string, lat, lon int) error {
	var err error

	switch element {
	case "Z":
		m.Data[lat+1][lon+1], err = strconv.ParseFloat(text, 64)
	case "glamn":
		m.LatMin, err = strconv.ParseFloat(text, 64)
	case "glomn":
		m.LonMin, err = strconv.ParseFloat(text, 64)
	case "dgla":
		m.DLat, err = strconv.ParseFloat(text, 64)
	case "dglo":
		m.DLon, err = strconv.ParseFloat(text, 64)
	case "nla":
		m.NLat, err = strconv.Atoi(text)
	case "nlo":
		m.NLon, err = strconv.Atoi(text)
	case "ikind":
		m.Kind, err = strconv.Atoi(text)
	case "vern":
		m.Version = text
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedModel, element, err)
	}

	return nil
}

func parseGridID(id string) (lat, lon int, err error) {
	match := gridID.FindStringSubmatch(id)
	if match == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidGridID, id)
	}

	lat, _ = strconv.Atoi(match[1])
	lon, _ = strconv.Atoi(match[2])

	if lat+1 >= Rows || lon+1 >= Cols {
		return 0, 0, fmt.Errorf("%w: %q outside the grid", ErrInvalidGridID, id)
	}

	return lat, lon, nil
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}

	return ""
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}

	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}

	return enc.NewDecoder().Reader(input), nil
}
