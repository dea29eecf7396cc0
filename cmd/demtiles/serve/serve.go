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

// Package serve runs the HTTP tile server.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"m4o.io/demtiles/cmd/demtiles/cli"
	"m4o.io/demtiles/internal/server"
)

const (
	readTimeout     = 5 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

func init() {
	cli.RootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("addr", "a", ":8080", "address to listen on")
	flags.String("base-url", "", "public base URL of the tiles (derived from requests when empty)")
	flags.Bool("dev", false, "disable long lived caching of tiles")
	flags.Duration("timeout", server.DefaultTimeout, "bound on the handling of each request")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP tile server",
	Long: `Start the HTTP tile server.  Routes:
  /jgsi-dem/tiles.json            elevation TileJSON
  /jgsi-dem/tiles/{z}/{x}/{y}.pbf elevation tiles
  /jgsi-dem/cross-section         elevation profile along a line
  /jgsi-dem/elevation             elevation of a point
  /geoid/tiles.json               geoid TileJSON
  /geoid/tiles/{z}/{x}/{y}.pbf    geoid tiles
  /geoid/height                   geoid height of a point
  /health                         liveness`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := server.Config{
			BaseURL: cli.ConfigString(cmd, "base-url", "DEMTILES_BASE_URL", ""),
			Dev:     cli.ConfigBool(cmd, "dev", "DEMTILES_DEV", false),
			Timeout: cli.ConfigDuration(cmd, "timeout", "DEMTILES_TIMEOUT", server.DefaultTimeout),
		}
		addr := cli.ConfigString(cmd, "addr", "DEMTILES_ADDR", ":8080")

		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}

		return run(ctx, l, server.New(cli.NewService(cmd), cfg).Handler(), cfg)
	},
}

// run serves h on l until ctx is done, then drains in-flight requests.
func run(ctx context.Context, l net.Listener, h http.Handler, cfg server.Config) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      cfg.Timeout + readTimeout,
		IdleTimeout:       idleTimeout,
	}

	slog.Info("serving",
		"addr", l.Addr().String(),
		"base_url", cfg.BaseURL,
		"dev", cfg.Dev)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Serve(l)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return err
	}

	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
