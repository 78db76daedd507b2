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

package types

import (
	"errors"
)

// ErrJournalKeyNotFound is returned by journal operations when a key is missing
var ErrJournalKeyNotFound = errors.New("journal key not found")

// ErrTxnWrongType is returned when a transaction has the wrong type
var ErrTxnWrongType = errors.New("invalid transaction type")

// ErrNilTxn is returned when a nil transaction is provided where a valid transaction is required
var ErrNilTxn = errors.New("nil transaction")

// ErrNoStoreAvailable is returned when no journal or metadata store is available
var ErrNoStoreAvailable = errors.New("no store available")

// ErrJournalStoreUnavailable is returned when journal store cannot be accessed
var ErrJournalStoreUnavailable = errors.New("journal store unavailable")

// Txn is a simple transaction handle for commit/rollback only.
// Database layer (Txn) coordinates metadata and journal operations separately.
type Txn interface {
	Commit() error
	Rollback() error
}
