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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/api"
	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/registry"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	journal       *database.EventJournal
	registry      *registry.Registry
	governor      *governance.Governor
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Registry returns the membership registry. It's not available until Run has
// been called
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// Governor returns the proposal governor. It's not available until Run has
// been called
func (n *Node) Governor() *governance.Governor {
	return n.governor
}

// Database returns the underlying database. It's not available until Run has
// been called
func (n *Node) Database() *database.Database {
	return n.db
}

func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbNeedsRecovery := false
	db, err := database.New(
		n.config.logger,
		n.config.dataDir,
		n.config.promRegistry,
	)
	if db == nil {
		n.config.logger.Error(
			"failed to create database",
			"error",
			"empty database returned",
		)
		return errors.New("empty database returned")
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"database initialization error, needs recovery",
			"error",
			err,
		)
		dbNeedsRecovery = true
	}
	// Run DB recovery if needed
	if dbNeedsRecovery {
		if err := n.db.RecoverCommitTimestamp(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	// Record registry and governance events in the journal
	n.journal = database.NewEventJournal(
		n.db,
		n.eventBus,
		registry.MemberAddedEventType,
		registry.MemberRemovedEventType,
		registry.AdminChangedEventType,
		governance.ProposalCreatedEventType,
		governance.VoteCastEventType,
		governance.ProposalExecutedEventType,
		governance.ParamsUpdatedEventType,
	)
	// Load membership registry
	memberRegistry, err := registry.NewRegistry(
		registry.RegistryConfig{
			Logger:       n.config.logger,
			EventBus:     n.eventBus,
			PromRegistry: n.config.promRegistry,
			Clock:        n.config.clock,
			Store:        n.db,
			Admin:        n.config.admin,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	n.registry = memberRegistry
	// Load governor
	governor, err := governance.NewGovernor(
		governance.GovernorConfig{
			Logger:       n.config.logger,
			EventBus:     n.eventBus,
			PromRegistry: n.config.promRegistry,
			Clock:        n.config.clock,
			Store:        n.db,
			Members:      n.registry,
			Params:       n.config.governanceParams(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load governor: %w", err)
	}
	n.governor = governor
	// Configure API
	n.api = api.New(
		api.ApiConfig{
			ListenAddress:    n.config.apiListenAddress,
			MaxRequestsPerIP: n.config.apiMaxRequestsPerIP,
			TlsCertFilePath:  n.config.tlsCertFilePath,
			TlsKeyFilePath:   n.config.tlsKeyFilePath,
			ReuseAddress:     n.config.apiReuseAddress,
		},
		api.NewNodeAdapter(n.registry, n.governor, n.db),
		n.config.logger,
	)
	if err := n.api.Start(ctx); err != nil {
		return err
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain event delivery
	n.config.logger.Debug("shutdown phase 2: draining events")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Flush state and close database
	n.config.logger.Debug("shutdown phase 3: flushing state")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
