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

package models

import (
	"time"
)

// Proposal represents a governance proposal. The primary key is the proposal
// id itself, assigned sequentially from 1 by the governance engine. Proposals
// are never deleted.
type Proposal struct {
	ID           uint64    `gorm:"primarykey"`
	Proposer     []byte    `gorm:"size:28;not null"`
	Description  string    `gorm:"not null"`
	StartTime    time.Time `gorm:"not null"`
	EndTime      time.Time `gorm:"index;not null"`
	ForVotes     uint64    `gorm:"not null"`
	AgainstVotes uint64    `gorm:"not null"`
	Executed     bool      `gorm:"not null"`
	ExecutedAt   *time.Time
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}
