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

// Member represents a registered member credential. Removal deletes the row;
// there is no soft delete, since re-adding a member is a fresh registration.
type Member struct {
	ID         uint      `gorm:"primarykey"`
	Credential []byte    `gorm:"uniqueIndex:idx_member_credential;size:28;not null"`
	AddedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name
func (Member) TableName() string {
	return "member"
}
