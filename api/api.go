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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Api is the governance REST API server.
type Api struct {
	config          ApiConfig
	logger          *slog.Logger
	node            ApiNode
	httpServer      *http.Server
	mu              sync.Mutex
	ipRequests      map[string]int
	ipRequestsMutex sync.Mutex
}

type ApiConfig struct {
	ListenAddress   string
	TlsCertFilePath string
	TlsKeyFilePath  string
	ReuseAddress    bool
	// MaxRequestsPerIP limits concurrent in-flight requests per source
	// address. Zero disables the limit
	MaxRequestsPerIP int
}

// New creates a new governance API server instance.
func New(
	cfg ApiConfig,
	node ApiNode,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Api{
		config:     cfg,
		logger:     logger,
		node:       node,
		ipRequests: make(map[string]int),
	}
}

// Start starts the HTTP server in a background goroutine.
func (a *Api) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", a.handleHealth)
	mux.HandleFunc("GET /v1/members", a.handleListMembers)
	mux.HandleFunc("POST /v1/members", a.handleAddMember)
	mux.HandleFunc("GET /v1/members/{id}", a.handleMemberStatus)
	mux.HandleFunc("DELETE /v1/members/{id}", a.handleRemoveMember)
	mux.HandleFunc("PUT /v1/admin", a.handleSetAdmin)
	mux.HandleFunc("GET /v1/params", a.handleParams)
	mux.HandleFunc("PUT /v1/params", a.handleSetParams)
	mux.HandleFunc("POST /v1/proposals", a.handleCreateProposal)
	mux.HandleFunc("GET /v1/proposals", a.handleListProposals)
	mux.HandleFunc("GET /v1/proposals/{id}", a.handleProposal)
	mux.HandleFunc(
		"GET /v1/proposals/{id}/state",
		a.handleProposalState,
	)
	mux.HandleFunc(
		"POST /v1/proposals/{id}/votes",
		a.handleVote,
	)
	mux.HandleFunc(
		"GET /v1/proposals/{id}/votes/{voter}",
		a.handleVoteStatus,
	)
	mux.HandleFunc(
		"POST /v1/proposals/{id}/execute",
		a.handleExecuteProposal,
	)
	mux.HandleFunc("GET /v1/events", a.handleEvents)

	handler := http.Handler(mux)
	if a.config.MaxRequestsPerIP > 0 {
		handler = a.limitRequests(handler)
	}
	if a.config.TlsCertFilePath == "" || a.config.TlsKeyFilePath == "" {
		// Use h2c so we can serve HTTP/2 without TLS
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Start the server with deterministic error detection
	if err := a.startServer(ctx, server); err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.logger.Info(
		"governance API listener started on " +
			a.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down " +
					"governance API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(
				shutdownCtx,
			); err != nil {
				a.logger.Error(
					"failed to shutdown governance "+
						"API server on context "+
						"cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (a *Api) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug(
			"shutting down governance API server",
		)
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown governance API "+
					"server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer starts the HTTP server with deterministic
// error detection. It binds the listening socket first so
// port conflicts are detected immediately, then serves in
// a background goroutine.
func (a *Api) startServer(
	ctx context.Context,
	server *http.Server,
) error {
	listenConfig := net.ListenConfig{}
	if a.config.ReuseAddress {
		listenConfig.Control = socketControl
	}
	ln, err := listenConfig.Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for governance API "+
				"server: %w",
			err,
		)
	}
	go func() {
		var err error
		if a.config.TlsCertFilePath != "" &&
			a.config.TlsKeyFilePath != "" {
			err = server.ServeTLS(
				ln,
				a.config.TlsCertFilePath,
				a.config.TlsKeyFilePath,
			)
		} else {
			err = server.Serve(ln)
		}
		if err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"governance API server error",
				"error", err,
			)
		}
	}()
	return nil
}
