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

package journal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database/types"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

// Default sizes for the journal database (in bytes). The journal holds small
// JSON records, so these are far below badger's own defaults.
const (
	DefaultBlockCacheSize   = 67108864 // 64MB
	DefaultIndexCacheSize   = 16777216 // 16MB
	DefaultValueLogFileSize = 67108864 // 64MB
	DefaultMemTableSize     = 16777216 // 16MB
	DefaultValueThreshold   = 1048576  // 1MB
)

// badgerTxn wraps a badger transaction and implements types.Txn
type badgerTxn struct {
	store    *JournalStoreBadger
	tx       *badger.Txn
	finished bool
}

func newBadgerTxn(store *JournalStoreBadger, tx *badger.Txn) *badgerTxn {
	return &badgerTxn{store: store, tx: tx}
}

// validateTxn validates a types.Txn for this journal store and returns the
// underlying *badgerTxn if valid.
func (d *JournalStoreBadger) validateTxn(txn types.Txn) (*badgerTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	badgerTxn, ok := txn.(*badgerTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if badgerTxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if err := badgerTxn.validateTxn(); err != nil {
		return nil, err
	}
	return badgerTxn, nil
}

// validateTxn checks if the transaction is still valid for use
func (t *badgerTxn) validateTxn() error {
	if t.finished {
		return errors.New("transaction already finished")
	}
	if t.tx == nil {
		return types.ErrJournalStoreUnavailable
	}
	return nil
}

func (t *badgerTxn) Commit() error {
	if t.finished {
		return nil
	}
	if t.tx == nil {
		t.finished = true
		return nil
	}
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.finished = true
	return nil
}

func (t *badgerTxn) Rollback() error {
	if t.finished {
		return nil
	}
	if t.tx != nil {
		t.tx.Discard()
	}
	t.finished = true
	return nil
}

// JournalStoreBadger stores the event journal in badger. Entries are keyed by
// a monotonic sequence number so key order matches append order.
type JournalStoreBadger struct {
	promRegistry     prometheus.Registerer
	db               *badger.DB
	logger           *slog.Logger
	gcTicker         *time.Ticker
	gcStopCh         chan struct{}
	dataDir          string
	gcWg             sync.WaitGroup
	seqMutex         sync.Mutex
	nextSeq          uint64
	blockCacheSize   uint64
	indexCacheSize   uint64
	valueLogFileSize int64
	memTableSize     int64
	valueThreshold   int64
	gcEnabled        bool
}

// New creates a new journal store
func New(opts ...JournalStoreBadgerOptionFunc) (*JournalStoreBadger, error) {
	db := &JournalStoreBadger{
		// Set defaults
		gcEnabled:        true, // Enable GC by default for disk-backed stores
		blockCacheSize:   DefaultBlockCacheSize,
		indexCacheSize:   DefaultIndexCacheSize,
		valueLogFileSize: int64(DefaultValueLogFileSize),
		memTableSize:     int64(DefaultMemTableSize),
		valueThreshold:   int64(DefaultValueThreshold),
	}
	for _, opt := range opts {
		opt(db)
	}

	var journalDb *badger.DB
	var err error

	if db.dataDir == "" {
		// No dataDir, use in-memory config
		badgerOpts := badger.DefaultOptions("").
			WithLogger(NewBadgerLogger(db.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true).
			WithValueThreshold(db.valueThreshold)
		journalDb, err = badger.Open(badgerOpts)
		if err != nil {
			return nil, err
		}
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(db.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			// Create data directory
			if err := os.MkdirAll(db.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		journalDir := filepath.Join(
			db.dataDir,
			"journal",
		)
		badgerOpts := badger.DefaultOptions(journalDir).
			WithLogger(NewBadgerLogger(db.logger)).
			WithLoggingLevel(badger.WARNING).
			WithBlockCacheSize(int64(db.blockCacheSize)). //nolint:gosec // blockCacheSize is controlled and reasonable
			WithIndexCacheSize(int64(db.indexCacheSize)). //nolint:gosec // indexCacheSize is controlled and reasonable
			WithValueLogFileSize(db.valueLogFileSize).
			WithMemTableSize(db.memTableSize).
			WithValueThreshold(db.valueThreshold).
			WithCompression(options.Snappy)
		journalDb, err = badger.Open(badgerOpts)
		if err != nil {
			return nil, err
		}
	}
	db.db = journalDb
	if err := db.init(); err != nil {
		return db, err
	}
	return db, nil
}

func (d *JournalStoreBadger) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := d.loadNextSeq(); err != nil {
		return err
	}
	// Configure GC
	if d.gcEnabled {
		d.gcTicker = time.NewTicker(5 * time.Minute)
		d.gcStopCh = make(chan struct{})
		d.gcWg.Add(1)
		go d.journalGc(d.gcTicker, d.gcStopCh)
	}
	return nil
}

// loadNextSeq finds the highest committed sequence number so appends resume
// where the previous run left off
func (d *JournalStoreBadger) loadNextSeq() error {
	d.seqMutex.Lock()
	defer d.seqMutex.Unlock()
	d.nextSeq = 1
	return d.db.View(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Reverse = true
		iterOpts.PrefetchValues = false
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()
		// Seek past the end of the journal key range
		seekKey := types.JournalEntryKey(^uint64(0))
		for iter.Seek(seekKey); iter.ValidForPrefix([]byte(types.JournalEntryKeyPrefix)); iter.Next() {
			if seq, ok := types.JournalEntrySeq(iter.Item().Key()); ok {
				d.nextSeq = seq + 1
				return nil
			}
		}
		return nil
	})
}

func (d *JournalStoreBadger) journalGc(t *time.Ticker, stop <-chan struct{}) {
	defer d.gcWg.Done()
	for {
		select {
		case <-t.C:
		again:
			err := d.DB().RunValueLogGC(0.5)
			if err != nil {
				// Log any actual errors
				if !errors.Is(err, badger.ErrNoRewrite) {
					d.logger.Warn(
						fmt.Sprintf("journal DB: GC failure: %s", err),
						"component", "database",
					)
				}
			} else {
				// Run it again if it just ran successfully
				goto again
			}
		case <-stop:
			return
		}
	}
}

// Close gets the database handle from our journal store and closes it
func (d *JournalStoreBadger) Close() error {
	// Stop GC ticker if it exists
	if d.gcTicker != nil {
		d.gcTicker.Stop()
		if d.gcStopCh != nil {
			close(d.gcStopCh)
			d.gcStopCh = nil
		}
		// Wait for GC goroutine to finish
		d.gcWg.Wait()
		d.gcTicker = nil
	}
	db := d.DB()
	return db.Close()
}

// DB returns the database handle
func (d *JournalStoreBadger) DB() *badger.DB {
	return d.db
}

// NewTransaction creates a new badger transaction
func (d *JournalStoreBadger) NewTransaction(update bool) types.Txn {
	return newBadgerTxn(d, d.DB().NewTransaction(update))
}

// Append writes a value under the next sequence number within a transaction
// and returns the assigned sequence number. Sequence numbers start at 1. A
// rolled back append leaves a gap, which readers skip over.
func (d *JournalStoreBadger) Append(
	txn types.Txn,
	value []byte,
) (uint64, error) {
	badgerTxn, err := d.validateTxn(txn)
	if err != nil {
		return 0, err
	}
	d.seqMutex.Lock()
	defer d.seqMutex.Unlock()
	seq := d.nextSeq
	if err := badgerTxn.tx.Set(types.JournalEntryKey(seq), value); err != nil {
		return 0, err
	}
	d.nextSeq++
	return seq, nil
}

// Get retrieves a journal entry by sequence number within a transaction
func (d *JournalStoreBadger) Get(
	txn types.Txn,
	seq uint64,
) ([]byte, error) {
	badgerTxn, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	item, err := badgerTxn.tx.Get(types.JournalEntryKey(seq))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrJournalKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Scan iterates journal entries in sequence order starting at from, invoking
// fn for each entry until limit entries have been seen, fn returns an error,
// or the journal is exhausted. A limit of 0 means no limit.
func (d *JournalStoreBadger) Scan(
	txn types.Txn,
	from uint64,
	limit int,
	fn func(seq uint64, value []byte) error,
) error {
	badgerTxn, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	iterOpts := badger.IteratorOptions{
		Prefix:         []byte(types.JournalEntryKeyPrefix),
		PrefetchValues: true,
		PrefetchSize:   100,
	}
	iter := badgerTxn.tx.NewIterator(iterOpts)
	defer iter.Close()
	count := 0
	for iter.Seek(types.JournalEntryKey(from)); iter.Valid(); iter.Next() {
		if limit > 0 && count >= limit {
			break
		}
		item := iter.Item()
		seq, ok := types.JournalEntrySeq(item.Key())
		if !ok {
			continue
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(seq, value); err != nil {
			return err
		}
		count++
	}
	return nil
}

// LastSeq returns the most recently assigned sequence number, or 0 if the
// journal is empty
func (d *JournalStoreBadger) LastSeq() uint64 {
	d.seqMutex.Lock()
	defer d.seqMutex.Unlock()
	return d.nextSeq - 1
}
