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
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"m4o.io/demtiles"
)

// ConfigString returns the flag value if it was set, else the environment
// variable if it is not empty, else def.
func ConfigString(cmd *cobra.Command, flag, env, def string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}

	if v := os.Getenv(env); v != "" {
		return v
	}

	return def
}

// ConfigBool follows the same precedence as ConfigString.
func ConfigBool(cmd *cobra.Command, flag, env string, def bool) bool {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}

	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}

	return def
}

// ConfigDuration follows the same precedence as ConfigString.
func ConfigDuration(cmd *cobra.Command, flag, env string, def time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}

	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}

	return def
}

func configUint16(cmd *cobra.Command, flag, env string, def uint16) uint16 {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetUint16(flag)
		return v
	}

	if v := os.Getenv(env); v != "" {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			return uint16(n)
		}
	}

	return def
}

// ServiceOptions collects the service settings shared by every subcommand.
func ServiceOptions(cmd *cobra.Command) []demtiles.ServiceOption {
	var opts []demtiles.ServiceOption

	if v := ConfigString(cmd, "fine-url", "DEMTILES_FINE_URL", ""); v != "" {
		opts = append(opts, demtiles.WithFineURL(v))
	}

	if v := ConfigString(cmd, "coarse-url", "DEMTILES_COARSE_URL", ""); v != "" {
		opts = append(opts, demtiles.WithCoarseURL(v))
	}

	if v := ConfigDuration(cmd, "http-timeout", "DEMTILES_HTTP_TIMEOUT", 0); v > 0 {
		opts = append(opts, demtiles.WithHTTPTimeout(v))
	}

	opts = append(opts, demtiles.WithGeoidDir(ConfigString(cmd, "geoid-dir", "DEMTILES_GEOID_DIR", "data")))

	if v := ConfigString(cmd, "geoid-model", "DEMTILES_GEOID_MODEL", ""); v != "" {
		opts = append(opts, demtiles.WithGeoidModel(v))
	}

	if v := configUint16(cmd, "cpu", "DEMTILES_CPU", 0); v > 0 {
		opts = append(opts, demtiles.WithNCpus(v))
	}

	return opts
}

// NewService builds the service from the command's settings.
func NewService(cmd *cobra.Command) *demtiles.Service {
	return demtiles.NewService(ServiceOptions(cmd)...)
}
