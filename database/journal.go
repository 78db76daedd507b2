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
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/event"
)

// JournalRecord is a single entry read back from the event journal
type JournalRecord struct {
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// journalValue is the persisted form of a record. The sequence number lives
// in the key, not the value.
type journalValue struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// AppendEvent persists an event record to the journal and returns its
// assigned sequence number
func (d *Database) AppendEvent(
	eventType string,
	timestamp time.Time,
	data any,
	txn *Txn,
) (uint64, error) {
	owned := false
	if txn == nil {
		txn = d.Transaction(true)
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	dataJson, err := json.Marshal(data)
	if err != nil {
		return 0, err
	}
	value, err := json.Marshal(journalValue{
		Type:      eventType,
		Timestamp: timestamp,
		Data:      dataJson,
	})
	if err != nil {
		return 0, err
	}
	seq, err := d.journal.Append(txn.Journal(), value)
	if err != nil {
		return 0, err
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return 0, err
		}
	}
	return seq, nil
}

// EventsSince retrieves up to limit journal records starting at sequence
// number from. A limit of 0 means no limit.
func (d *Database) EventsSince(
	from uint64,
	limit int,
) ([]JournalRecord, error) {
	txn := NewJournalOnlyTxn(d, false)
	defer txn.Release()
	ret := []JournalRecord{}
	err := d.journal.Scan(
		txn.Journal(),
		from,
		limit,
		func(seq uint64, value []byte) error {
			var tmpValue journalValue
			if err := json.Unmarshal(value, &tmpValue); err != nil {
				return err
			}
			ret = append(ret, JournalRecord{
				Seq:       seq,
				Type:      tmpValue.Type,
				Timestamp: tmpValue.Timestamp,
				Data:      tmpValue.Data,
			})
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// LastEventSeq returns the sequence number of the most recent journal record,
// or 0 if the journal is empty
func (d *Database) LastEventSeq() uint64 {
	return d.journal.LastSeq()
}

// EventJournal persists published events as they are delivered. Register it
// on an event bus for each event type that should be recorded.
type EventJournal struct {
	db     *Database
	logger *slog.Logger
}

// NewEventJournal creates an event journal subscriber backed by the given
// database and registers it on the event bus for the given event types
func NewEventJournal(
	db *Database,
	eventBus *event.EventBus,
	eventTypes ...event.EventType,
) *EventJournal {
	logger := db.logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	j := &EventJournal{
		db:     db,
		logger: logger,
	}
	for _, eventType := range eventTypes {
		eventBus.RegisterSubscriber(eventType, j)
	}
	return j
}

// Deliver implements event.Subscriber. Journal failures are logged rather
// than returned so a storage hiccup doesn't unregister the journal from the
// bus.
func (j *EventJournal) Deliver(evt event.Event) error {
	_, err := j.db.AppendEvent(string(evt.Type), evt.Timestamp, evt.Data, nil)
	if err != nil {
		j.logger.Error(
			"failed to append event to journal",
			"component", "database",
			"type", evt.Type,
			"error", err,
		)
	}
	return nil
}

// Close implements event.Subscriber
func (j *EventJournal) Close() {}
