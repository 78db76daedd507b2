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

// Admin holds the current admin credential as a single row with ID 1.
// Admin changes overwrite the row in place.
type Admin struct {
	ID         uint   `gorm:"primarykey"`
	Credential []byte `gorm:"size:28;not null"`
}

// TableName returns the table name
func (Admin) TableName() string {
	return "admin"
}
