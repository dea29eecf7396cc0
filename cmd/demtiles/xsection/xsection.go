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

// Package xsection prints an elevation profile along a polyline.
package xsection

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"m4o.io/demtiles"
	"m4o.io/demtiles/cmd/demtiles/cli"
)

var out io.Writer = os.Stdout

func init() {
	cli.RootCmd.AddCommand(xsectionCmd)

	flags := xsectionCmd.Flags()
	flags.IntP("zoom", "z", 22, "zoom of the line's pixel coordinates")
	flags.BoolP("json", "j", false, "print the profile as JSON")
}

var xsectionCmd = &cobra.Command{
	Use:   "cross-section <x,y;x,y;...>",
	Short: "Print the elevation profile along a line",
	Long:  "Print the elevation of every pixel along a polyline given in pixel coordinates at some zoom.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		z, err := flags.GetInt("zoom")
		if err != nil {
			return err
		}

		jsonfmt, err := flags.GetBool("json")
		if err != nil {
			return err
		}

		p, err := cli.NewService(cmd).CrossSection(cmd.Context(), z, args[0])
		if err != nil {
			return err
		}

		if jsonfmt {
			return renderJSON(p)
		}

		renderTxt(p)

		return nil
	},
}

func renderJSON(p *demtiles.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, string(b))

	return err
}

func renderTxt(p *demtiles.Profile) {
	fmt.Fprintf(out, "%10s %10s %12s %6s\n", "x", "y", "elevation", "band")

	for _, s := range p.Points {
		ele, band := "-", "-"
		if s.Elevation != nil {
			ele = fmt.Sprintf("%.2f", float64(*s.Elevation)/100)
		}
		if s.Band != nil {
			band = fmt.Sprint(*s.Band)
		}

		fmt.Fprintf(out, "%10d %10d %12s %6s\n", s.X, s.Y, ele, band)
	}
}
