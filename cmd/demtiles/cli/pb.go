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

package cli

import (
	"fmt"
	"io"
	"os"

	pb "gopkg.in/cheggaaa/pb.v1"
)

// progressReader tracks the bytes read from a file on stderr.  Closing it
// closes the file and clears the progress line.
type progressReader struct {
	r   io.Reader
	f   *os.File
	bar *pb.ProgressBar
}

// WrapInputFile reports read progress of f against its size under the given
// prefix.  Stdin and quiet runs are returned unwrapped.
func WrapInputFile(f *os.File, prefix string, quiet bool) (io.ReadCloser, error) {
	if f == os.Stdin || quiet {
		return f, nil
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	bar := pb.New64(fi.Size()).SetUnits(pb.U_BYTES_DEC).SetWidth(79).Prefix(prefix)
	bar.Output = os.Stderr
	bar.Start()

	return progressReader{
		r:   bar.NewProxyReader(f),
		f:   f,
		bar: bar,
	}, nil
}

func (p progressReader) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p progressReader) Close() error {
	p.bar.Output = nil
	p.bar.NotPrint = true
	p.bar.Finish()

	fmt.Fprintf(os.Stderr, "\033[2K\r")

	return p.f.Close()
}
