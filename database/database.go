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

package database

import (
	"errors"
	"io"
	"log/slog"

	"github.com/blinklabs-io/agora/database/journal"
	"github.com/blinklabs-io/agora/database/sqlite"

	"github.com/prometheus/client_golang/prometheus"
)

// Database couples the sqlite metadata store, which holds registry and
// governance state, with the badger journal, which holds the append-only
// event log.
type Database struct {
	logger   *slog.Logger
	journal  *journal.JournalStoreBadger
	metadata *sqlite.MetadataStoreSqlite
	dataDir  string
}

// Journal returns the underlying journal store instance
func (d *Database) Journal() *journal.JournalStoreBadger {
	return d.journal
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *sqlite.MetadataStoreSqlite {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	metadataErr := d.Metadata().Close()
	err = errors.Join(err, metadataErr)
	// Close journal
	journalErr := d.Journal().Close()
	err = errors.Join(err, journalErr)
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	// Check commit timestamp
	if err := d.checkCommitTimestamp(); err != nil {
		return err
	}
	return nil
}

// New creates a new database instance with optional persistence using the provided data directory
func New(
	logger *slog.Logger,
	dataDir string,
	promRegistry prometheus.Registerer,
) (*Database, error) {
	metadataDb, err := sqlite.New(dataDir, logger, promRegistry)
	if err != nil {
		return nil, err
	}
	journalDb, err := journal.New(
		journal.WithDataDir(dataDir),
		journal.WithLogger(logger),
		journal.WithPromRegistry(promRegistry),
		// Value log GC only applies to disk-backed journals
		journal.WithGc(dataDir != ""),
	)
	if err != nil {
		return nil, err
	}
	db := &Database{
		logger:   logger,
		journal:  journalDb,
		metadata: metadataDb,
		dataDir:  dataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
