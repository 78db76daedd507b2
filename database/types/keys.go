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
	"encoding/binary"
)

const (
	JournalEntryKeyPrefix = "j"
)

func JournalKeyUint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// JournalEntryKey builds the key for a journal entry. Sequence numbers are
// big-endian so that key order matches append order.
func JournalEntryKey(seq uint64) []byte {
	key := []byte(JournalEntryKeyPrefix)
	// Convert sequence number to bytes
	seqBytes := JournalKeyUint64ToBytes(seq)
	key = append(key, seqBytes...)
	return key
}

// JournalEntrySeq extracts the sequence number from a journal entry key
func JournalEntrySeq(key []byte) (uint64, bool) {
	if len(key) != len(JournalEntryKeyPrefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(JournalEntryKeyPrefix):]), true
}
