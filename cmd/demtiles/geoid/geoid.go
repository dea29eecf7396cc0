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

// Package geoid converts and inspects geoid model files.
package geoid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4o.io/demtiles/cmd/demtiles/cli"
	"m4o.io/demtiles/internal/codec"
	gsi "m4o.io/demtiles/internal/geoid"
)

var out io.Writer = os.Stdout

var input *os.File

// summary describes a model file.
type summary struct {
	Version string  `json:"version"`
	Kind    int     `json:"kind"`
	LatMin  float64 `json:"latMin"`
	LonMin  float64 `json:"lonMin"`
	DLat    float64 `json:"dLat"`
	DLon    float64 `json:"dLon"`
	NLat    int     `json:"nLat"`
	NLon    int     `json:"nLon"`
	Samples int64   `json:"samples"`
}

func init() {
	cli.RootCmd.AddCommand(geoidCmd)
	geoidCmd.AddCommand(convertCmd, infoCmd)

	flags := convertCmd.Flags()
	flags.VarP(cli.NewReaderValue(os.Stdin, &input), "input", "i", "geoid XML file (defaults to stdin)")
	flags.StringP("output", "o", "", "model file to write")
	flags.StringP("compression", "c", "", "compression of the model (defaults to the output extension)")
	flags.BoolP("quiet", "q", false, "do not show progress")
	_ = convertCmd.MarkFlagRequired("output")

	infoCmd.Flags().BoolP("json", "j", false, "format information in JSON")
}

var geoidCmd = &cobra.Command{
	Use:   "geoid",
	Short: "Work with geoid model files",
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a geoid XML file to a JSON model file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()

		path, err := flags.GetString("output")
		if err != nil {
			return err
		}

		c := codec.FromPath(path)
		if name, _ := flags.GetString("compression"); name != "" {
			if c, err = codec.Parse(name); err != nil {
				return err
			}
		}

		quiet, err := flags.GetBool("quiet")
		if err != nil {
			return err
		}

		in, err := cli.WrapInputFile(input, "converting ", quiet)
		if err != nil {
			return err
		}

		m, err := convertFile(in, path, c)
		if err = errors.Join(err, in.Close()); err != nil {
			return err
		}

		fi, err := os.Stat(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "wrote %s samples of %s to %s (%s, %s)\n",
			humanize.Comma(int64(m.Count())), m.Version, path, c, humanize.Bytes(uint64(fi.Size())))

		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <model file>",
	Short: "Print information about a geoid model file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := gsi.Load(args[0])
		if err != nil {
			return err
		}

		jsonfmt, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		s := summarize(m)
		if jsonfmt {
			return renderJSON(s)
		}

		renderTxt(s)

		return nil
	},
}

// convert decodes XML from r and writes it to w as a model compressed with
// c.
func convert(r io.Reader, w io.Writer, c codec.Compression) (*gsi.Model, error) {
	m, err := gsi.DecodeXML(r)
	if err != nil {
		return nil, err
	}

	if err = gsi.Write(w, m, c); err != nil {
		return nil, err
	}

	return m, nil
}

// convertFile converts r into the model file at path.  The model is written
// to a temporary file beside path and renamed over it once complete, so a
// failed conversion leaves no file behind.
func convertFile(r io.Reader, path string, c codec.Compression) (*gsi.Model, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}

	m, err := convert(r, f, c)
	if err = errors.Join(err, f.Close()); err == nil {
		err = os.Rename(f.Name(), path)
	}

	if err != nil {
		_ = os.Remove(f.Name())
		return nil, err
	}

	return m, nil
}

func summarize(m *gsi.Model) *summary {
	return &summary{
		Version: m.Version,
		Kind:    m.Kind,
		LatMin:  m.LatMin,
		LonMin:  m.LonMin,
		DLat:    m.DLat,
		DLon:    m.DLon,
		NLat:    m.NLat,
		NLon:    m.NLon,
		Samples: int64(m.Count()),
	}
}

func renderJSON(s *summary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(out, string(b))

	return err
}

func renderTxt(s *summary) {
	fmt.Fprintf(out, "Version: %s\n", s.Version)
	fmt.Fprintf(out, "Kind: %d\n", s.Kind)
	fmt.Fprintf(out, "Origin: %g, %g\n", s.LatMin, s.LonMin)
	fmt.Fprintf(out, "Spacing: %g, %g\n", s.DLat, s.DLon)
	fmt.Fprintf(out, "Grid: %d x %d\n", s.NLat, s.NLon)
	fmt.Fprintf(out, "Samples: %s\n", humanize.Comma(s.Samples))
}
