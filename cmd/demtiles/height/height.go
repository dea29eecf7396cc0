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

// Package height prints the elevation and geoid height of a position.
package height

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"m4o.io/demtiles"
	"m4o.io/demtiles/cmd/demtiles/cli"
	"m4o.io/demtiles/internal/geoid"
	"m4o.io/demtiles/model"
)

var out io.Writer = os.Stdout

// report holds the heights of one position.  Ellipsoidal is the elevation
// plus the geoid height, absent when either is.
type report struct {
	Lng         model.Degrees `json:"lng"`
	Lat         model.Degrees `json:"lat"`
	Elevation   model.Height  `json:"elevation"`
	Geoid       model.Height  `json:"geoid"`
	Ellipsoidal model.Height  `json:"ellipsoidal"`
	EGM96       *model.Height `json:"egm96,omitempty"`
}

func init() {
	cli.RootCmd.AddCommand(heightCmd)

	flags := heightCmd.Flags()
	flags.BoolP("json", "j", false, "format the heights in JSON")
	flags.Bool("egm96", false, "also print the EGM96 geoid height")
}

var heightCmd = &cobra.Command{
	Use:   "height <lng> <lat>",
	Short: "Print the elevation and geoid height of a position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lng, err := model.ParseDegrees(args[0])
		if err != nil {
			return err
		}

		lat, err := model.ParseDegrees(args[1])
		if err != nil {
			return err
		}

		flags := cmd.Flags()

		egm, err := flags.GetBool("egm96")
		if err != nil {
			return err
		}

		jsonfmt, err := flags.GetBool("json")
		if err != nil {
			return err
		}

		r, err := runHeight(cmd.Context(), cli.NewService(cmd), lng, lat)
		if err != nil {
			return err
		}

		if egm {
			h := geoid.EGM96(lng, lat)
			r.EGM96 = &h
		}

		if jsonfmt {
			return renderJSON(r)
		}

		renderTxt(r)

		return nil
	},
}

type heights interface {
	Elevation(ctx context.Context, lng, lat model.Degrees) (model.Height, error)
	GeoidHeight(ctx context.Context, lng, lat model.Degrees) (model.Height, error)
}

// runHeight looks up both heights.  A position without elevation data still
// reports its geoid height.
func runHeight(ctx context.Context, svc heights, lng, lat model.Degrees) (*report, error) {
	ele, err := svc.Elevation(ctx, lng, lat)
	if err != nil && !errors.Is(err, demtiles.ErrNoData) {
		return nil, err
	}

	g, err := svc.GeoidHeight(ctx, lng, lat)
	if err != nil {
		return nil, err
	}

	r := &report{Lng: lng, Lat: lat, Elevation: ele, Geoid: g}

	if e, ok := ele.Meters(); ok {
		if n, ok := g.Meters(); ok {
			r.Ellipsoidal = model.Meters(e + n)
		}
	}

	return r, nil
}

func renderJSON(r *report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, string(b))

	return err
}

func renderTxt(r *report) {
	fmt.Fprintf(out, "Position: %s, %s\n", r.Lng, r.Lat)
	fmt.Fprintf(out, "Elevation: %s\n", r.Elevation)
	fmt.Fprintf(out, "Geoid: %s\n", r.Geoid)
	fmt.Fprintf(out, "Ellipsoidal: %s\n", r.Ellipsoidal)
	if r.EGM96 != nil {
		fmt.Fprintf(out, "EGM96: %s\n", *r.EGM96)
	}
}
