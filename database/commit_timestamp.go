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
	"fmt"
)

type CommitTimestampError struct {
	MetadataTimestamp int64
	JournalTimestamp  int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (journal)",
		e.MetadataTimestamp,
		e.JournalTimestamp,
	)
}

func (d *Database) checkCommitTimestamp() error {
	// Get value from metadata
	metadataTimestamp, metadataErr := d.Metadata().GetCommitTimestamp()
	if metadataErr != nil {
		return fmt.Errorf(
			"failed to get metadata timestamp: %w",
			metadataErr,
		)
	}
	// No timestamp in the database
	if metadataTimestamp <= 0 {
		return nil
	}
	// Get value from journal
	journalTimestamp, journalErr := d.Journal().GetCommitTimestamp()
	if journalErr != nil {
		return fmt.Errorf(
			"failed to get journal timestamp: %w",
			journalErr,
		)
	}
	// Compare values
	if journalTimestamp != metadataTimestamp {
		return CommitTimestampError{
			MetadataTimestamp: metadataTimestamp,
			JournalTimestamp:  journalTimestamp,
		}
	}
	return nil
}

// RecoverCommitTimestamp reconciles the stores after a torn write. The
// metadata store is authoritative for registry and governance state and the
// journal is append-only, so recovery amounts to stamping both stores with a
// fresh shared commit timestamp.
func (d *Database) RecoverCommitTimestamp() error {
	txn := d.Transaction(true)
	defer txn.Release()
	return txn.Commit()
}

func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	// Update metadata
	if err := d.Metadata().SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return err
	}
	// Update journal
	if err := d.Journal().SetCommitTimestamp(timestamp, txn.Journal()); err != nil {
		return err
	}
	return nil
}
