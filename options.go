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

package demtiles

import (
	"net/http"
	"runtime"
	"time"

	"m4o.io/demtiles/internal/dem"
	"m4o.io/demtiles/internal/geoid"
)

// DefaultNCpu provides the default number of CPUs.
func DefaultNCpu() uint16 {
	cpus := uint16(runtime.GOMAXPROCS(-1))

	return max(cpus-1, 1)
}

// serviceOptions provides optional configuration parameters for Service construction.
type serviceOptions struct {
	fineURL     string        // URL template of the fine elevation tier
	coarseURL   string        // URL template of the coarse elevation tier
	httpTimeout time.Duration // bound on each upstream fetch
	client      *http.Client
	geoidDir    string // directory holding geoid model files
	geoidModel  string // model file served for geoid tiles
	nCPU        uint16 // the number of CPUs to use for background processing

	fine, coarse dem.Source
}

// ServiceOption configures how we set up the service.
type ServiceOption func(*serviceOptions)

// WithFineURL sets the URL template, with {z}, {x} and {y} placeholders, of
// the fine elevation tier.
func WithFineURL(template string) ServiceOption {
	return func(o *serviceOptions) {
		o.fineURL = template
	}
}

// WithCoarseURL sets the URL template of the coarse elevation tier.
func WithCoarseURL(template string) ServiceOption {
	return func(o *serviceOptions) {
		o.coarseURL = template
	}
}

// WithHTTPTimeout bounds each upstream fetch.
func WithHTTPTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.httpTimeout = d
	}
}

// WithHTTPClient replaces the client used for upstream fetches.  It takes
// precedence over WithHTTPTimeout.
func WithHTTPClient(c *http.Client) ServiceOption {
	return func(o *serviceOptions) {
		o.client = c
	}
}

// WithGeoidDir sets the directory geoid models are read from.
func WithGeoidDir(dir string) ServiceOption {
	return func(o *serviceOptions) {
		o.geoidDir = dir
	}
}

// WithGeoidModel sets the file name of the geoid model.
func WithGeoidModel(name string) ServiceOption {
	return func(o *serviceOptions) {
		o.geoidModel = name
	}
}

// WithNCpus lets you set the number of CPUs to use for background processing.
func WithNCpus(n uint16) ServiceOption {
	return func(o *serviceOptions) {
		o.nCPU = max(n, 1)
	}
}

// withDEMSources replaces the fine and coarse elevation sources.  Sources
// live in an internal package, so only this module's tests use it.
func withDEMSources(fine, coarse dem.Source) ServiceOption {
	return func(o *serviceOptions) {
		o.fine = fine
		o.coarse = coarse
	}
}

// defaultServiceConfig provides a default configuration for services.
var defaultServiceConfig = serviceOptions{
	fineURL:     dem.DefaultFineURL,
	coarseURL:   dem.DefaultCoarseURL,
	httpTimeout: dem.DefaultTimeout,
	geoidDir:    "data",
	geoidModel:  geoid.DefaultModel,
	nCPU:        DefaultNCpu(),
}
