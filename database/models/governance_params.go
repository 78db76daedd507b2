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

// GovernanceParams holds the current governance parameters as a single row
// with ID 1. Parameter updates replace all three values atomically.
type GovernanceParams struct {
	ID               uint   `gorm:"primarykey"`
	VotingPeriodSecs uint64 `gorm:"not null"`
	QuorumBps        uint64 `gorm:"not null"`
	PassThresholdBps uint64 `gorm:"not null"`
}

// TableName returns the table name
func (GovernanceParams) TableName() string {
	return "governance_params"
}
