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
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"m4o.io/demtiles/internal/codec"
)

// encodings are the content codings offered, most preferred first.
var encodings = []struct {
	name        string
	compression codec.Compression
}{
	{"zstd", codec.ZSTD},
	{"br", codec.BROTLI},
	{"deflate", codec.ZLIB},
	{"gzip", codec.GZIP},
}

// negotiate picks the content coding for an Accept-Encoding header.  The
// coding with the highest quality wins, ties going to the more preferred.  An
// empty name means the body is sent as is.
func negotiate(header string) (string, codec.Compression) {
	if header == "" {
		return "", codec.RAW
	}

	quality := make(map[string]float64)
	wildcard := -1.0

	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(part, ";")
		name = strings.ToLower(strings.TrimSpace(name))
		q := 1.0

		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.EqualFold(k, "q") {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					q = f
				}
			}
		}

		if name == "*" {
			wildcard = q
			continue
		}

		quality[name] = q
	}

	best, bestQ := "", 0.0
	bestC := codec.RAW

	for _, e := range encodings {
		q, ok := quality[e.name]
		if !ok {
			q = wildcard
		}

		if q > bestQ {
			best, bestQ, bestC = e.name, q, e.compression
		}
	}

	return best, bestC
}

// writeEncoded sends body compressed with the coding the client prefers.
func writeEncoded(w http.ResponseWriter, r *http.Request, body []byte) {
	name, c := negotiate(r.Header.Get("Accept-Encoding"))

	if name != "" {
		var buf bytes.Buffer

		wrtr, err := codec.NewWriter(&buf, c)
		if err == nil {
			_, err = wrtr.Write(body)
		}

		if err == nil {
			err = wrtr.Close()
		}

		if err != nil {
			slog.Warn("unable to encode response, sending identity", "encoding", name, "error", err)
		} else {
			w.Header().Set("Vary", "accept-encoding")
			w.Header().Set("Content-Encoding", name)

			body = buf.Bytes()
		}
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}
