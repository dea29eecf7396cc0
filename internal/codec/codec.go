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

// Package codec selects a compression format from a file name and wraps
// readers and writers accordingly.
package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz/lzma"
)

// Compression is the compression format of a stored file.
type Compression int

const (
	RAW Compression = iota
	ZLIB
	LZMA
	LZ4
	ZSTD
	GZIP
	BROTLI
)

var ErrUnknownCompression = errors.New("unknown compression type")

var extensions = map[string]Compression{
	".json": RAW,
	".zz":   ZLIB,
	".zlib": ZLIB,
	".lzma": LZMA,
	".lz4":  LZ4,
	".zst":  ZSTD,
	".zstd": ZSTD,
	".gz":   GZIP,
	".br":   BROTLI,
}

func (c Compression) String() string {
	switch c {
	case RAW:
		return "raw"
	case ZLIB:
		return "zlib"
	case LZMA:
		return "lzma"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	case GZIP:
		return "gzip"
	case BROTLI:
		return "brotli"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// Extension is the file extension conventionally used for c.
func (c Compression) Extension() string {
	switch c {
	case ZLIB:
		return ".zz"
	case LZMA:
		return ".lzma"
	case LZ4:
		return ".lz4"
	case ZSTD:
		return ".zst"
	case GZIP:
		return ".gz"
	case BROTLI:
		return ".br"
	default:
		return ""
	}
}

// Parse maps a compression name, as printed by String, back to its value.
func Parse(name string) (Compression, error) {
	for c := RAW; c <= BROTLI; c++ {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}

	return RAW, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
}

// FromPath picks the compression from the last extension of path.  Files
// without a recognised compression extension are read raw.
func FromPath(path string) Compression {
	if c, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}

	return RAW
}

// NewReader wraps r with the decompressor for c.  The returned reader must
// be closed once consumed.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case RAW:
		return io.NopCloser(r), nil
	case ZLIB:
		rdr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zlib reader: %w", err)
		}

		return rdr, nil
	case LZMA:
		rdr, err := lzma.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("lzma reader: %w", err)
		}

		return io.NopCloser(rdr), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case ZSTD:
		rdr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}

		return rdr.IOReadCloser(), nil
	case GZIP:
		rdr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}

		return rdr, nil
	case BROTLI:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownCompression, c)
	}
}

type nopCloserWriter struct {
	io.Writer
}

func (w nopCloserWriter) Close() error {
	return nil
}

// NewWriter wraps w with the compressor for c.  Close must be called to
// flush the compressed stream; it does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case RAW:
		return nopCloserWriter{w}, nil
	case ZLIB:
		return zlib.NewWriter(w), nil
	case LZMA:
		wrtr, err := lzma.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("lzma writer: %w", err)
		}

		return wrtr, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case ZSTD:
		wrtr, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}

		return wrtr, nil
	case GZIP:
		return gzip.NewWriter(w), nil
	case BROTLI:
		return brotli.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownCompression, c)
	}
}
