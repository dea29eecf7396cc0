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

// Package cli holds the root command and the helpers shared by the
// subcommands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// RootCmd is the base command every subcommand attaches to.
var RootCmd = &cobra.Command{
	Use:   "demtiles",
	Short: "Elevation and geoid vector tile server",
	Long: `demtiles serves elevation and geoid height data as Mapbox vector tiles.

Settings are read from flags first, then DEMTILES_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd, os.Stderr)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("fine-url", "", "URL template of the fine elevation tier")
	flags.String("coarse-url", "", "URL template of the coarse elevation tier")
	flags.Duration("http-timeout", 0, "bound on each upstream fetch")
	flags.String("geoid-dir", "data", "directory holding geoid models")
	flags.String("geoid-model", "", "geoid model file served")
	flags.Uint16("cpu", 0, "number of CPUs used for rendering")
}

func setupLogging(cmd *cobra.Command, w io.Writer) error {
	level := ConfigString(cmd, "log-level", "DEMTILES_LOG_LEVEL", "info")

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch format := ConfigString(cmd, "log-format", "DEMTILES_LOG_FORMAT", "text"); strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	slog.SetDefault(slog.New(h))

	return nil
}
