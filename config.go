// Copyright 2025 Blink Labs Software
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

package agora

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/identity"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	clock               clock.Clock
	dataDir             string
	apiListenAddress    string
	apiMaxRequestsPerIP int
	tlsCertFilePath     string
	tlsKeyFilePath      string
	admin               identity.Identity
	votingPeriod        time.Duration
	quorumBps           uint64
	passThresholdBps    uint64
	shutdownTimeout     time.Duration
	apiReuseAddress     bool
	tracing             bool
	tracingStdout       bool
}

// governanceParams assembles the configured initial governance parameters.
// A zero value means no initial parameters were configured and the governor
// falls back to its own defaults.
func (c *Config) governanceParams() governance.Params {
	return governance.Params{
		VotingPeriod:     c.votingPeriod,
		QuorumBps:        c.quorumBps,
		PassThresholdBps: c.passThresholdBps,
	}
}

func (n *Node) configValidate() error {
	params := n.config.governanceParams()
	if params != (governance.Params{}) {
		if err := params.Validate(); err != nil {
			return err
		}
	}
	if n.config.tracingStdout && !n.config.tracing {
		return errors.New("tracing stdout output requires tracing to be enabled")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new agora config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithAdmin specifies the bootstrap admin identity. This is only used when the database
// has no admin recorded yet. An admin recorded in the database takes precedence
func WithAdmin(admin identity.Identity) ConfigOptionFunc {
	return func(c *Config) {
		c.admin = admin
	}
}

// WithApiListenAddress specifies the listen address for the governance REST API. This defaults to :8080
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithApiMaxRequestsPerIP specifies the maximum number of concurrent in-flight API requests
// allowed per source address. Zero disables the limit and is the default
func WithApiMaxRequestsPerIP(maxRequests int) ConfigOptionFunc {
	return func(c *Config) {
		c.apiMaxRequestsPerIP = maxRequests
	}
}

// WithApiReuseAddress specifies whether to set SO_REUSEADDR and SO_REUSEPORT on the API
// listen socket. This is disabled by default
func WithApiReuseAddress(reuseAddress bool) ConfigOptionFunc {
	return func(c *Config) {
		c.apiReuseAddress = reuseAddress
	}
}

// WithApiTlsCertFilePath specifies the path to the TLS certificate for the API listener. This defaults to empty
func WithApiTlsCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithApiTlsKeyFilePath specifies the path to the TLS key for the API listener. This defaults to empty
func WithApiTlsKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithClock specifies the clock used for proposal timing. This is mostly useful for
// testing with a mock clock. The default is the system clock
func WithClock(clk clock.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clk
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithVotingPeriod specifies the initial voting period for new proposals. Parameters
// stored in the database take precedence over this value
func WithVotingPeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.votingPeriod = period
	}
}

// WithQuorumBps specifies the initial participation quorum in basis points. Parameters
// stored in the database take precedence over this value
func WithQuorumBps(quorumBps uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.quorumBps = quorumBps
	}
}

// WithPassThresholdBps specifies the initial pass threshold in basis points. Parameters
// stored in the database take precedence over this value
func WithPassThresholdBps(passThresholdBps uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.passThresholdBps = passThresholdBps
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
