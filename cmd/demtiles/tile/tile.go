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

// Package tile renders a single tile from the command line.
package tile

import (
	"fmt"
	"io"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	orbmvt "github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"
	"github.com/spf13/cobra"

	"m4o.io/demtiles"
	"m4o.io/demtiles/cmd/demtiles/cli"
	"m4o.io/demtiles/internal/tile"
)

var out io.Writer = os.Stdout

var output *os.File

func init() {
	cli.RootCmd.AddCommand(tileCmd)

	flags := tileCmd.Flags()
	flags.VarP(cli.NewWriterValue(nil, &output), "output", "o", "write the tile to a file instead of stdout")
	flags.BoolP("summary", "s", false, "print the layers of the tile instead of its bytes")
}

var tileCmd = &cobra.Command{
	Use:   "tile (dem|geoid) <z>/<x>/<y>",
	Short: "Render an elevation or geoid tile",
	Long:  "Render an elevation or geoid vector tile and write its bytes, or a summary of it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTile(args[1])
		if err != nil {
			return err
		}

		svc := cli.NewService(cmd)

		var render func() ([]byte, error)
		switch args[0] {
		case "dem":
			render = func() ([]byte, error) { return svc.RenderDEMTile(cmd.Context(), t) }
		case "geoid":
			render = func() ([]byte, error) { return svc.RenderGeoidTile(cmd.Context(), t) }
		default:
			return fmt.Errorf("unknown tile set %q", args[0])
		}

		b, err := render()
		if err != nil {
			return err
		}

		summary, err := cmd.Flags().GetBool("summary")
		if err != nil {
			return err
		}

		if summary {
			return renderSummary(t, b)
		}

		if output == nil {
			_, err = out.Write(b)
			return err
		}

		defer output.Close()

		if _, err = output.Write(b); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "wrote %s to %s\n", humanize.Bytes(uint64(len(b))), output.Name())

		return nil
	},
}

func parseTile(s string) (maptile.Tile, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return maptile.Tile{}, fmt.Errorf("%w: %q is not z/x/y", demtiles.ErrInvalidInput, s)
	}

	return tile.Parse(parts[0], parts[1], parts[2])
}

func renderSummary(t maptile.Tile, b []byte) error {
	layers, err := orbmvt.Unmarshal(b)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Tile: %s\n", tile.Key(t))
	fmt.Fprintf(out, "Size: %s\n", humanize.Bytes(uint64(len(b))))

	for _, l := range layers {
		fmt.Fprintf(out, "Layer: %s (extent %d, %s features)\n",
			l.Name, l.Extent, humanize.Comma(int64(len(l.Features))))
	}

	return nil
}
