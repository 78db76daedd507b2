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

package sqlite

import (
	"errors"
	"time"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	governanceParamsRowId = 1
)

// GetGovernanceParams retrieves the current governance parameters. Returns
// nil if no parameters have been recorded yet.
func (d *MetadataStoreSqlite) GetGovernanceParams(
	txn types.Txn,
) (*models.GovernanceParams, error) {
	var tmpParams models.GovernanceParams
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&tmpParams); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &tmpParams, nil
}

// SetGovernanceParams replaces the governance parameters row
func (d *MetadataStoreSqlite) SetGovernanceParams(
	params *models.GovernanceParams,
	txn types.Txn,
) error {
	params.ID = governanceParamsRowId
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"voting_period_secs",
			"quorum_bps",
			"pass_threshold_bps",
		}),
	}).Create(params)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetProposals retrieves all proposals in id order
func (d *MetadataStoreSqlite) GetProposals(
	txn types.Txn,
) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id").Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// AddProposal creates a proposal record
func (d *MetadataStoreSqlite) AddProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		return result.Error
	}
	return nil
}

// SetProposalTallies updates the vote tallies on a proposal
func (d *MetadataStoreSqlite) SetProposalTallies(
	proposalId uint64,
	forVotes uint64,
	againstVotes uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Proposal{}).
		Where("id = ?", proposalId).
		Updates(map[string]any{
			"for_votes":     forVotes,
			"against_votes": againstVotes,
		})
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// SetProposalExecuted marks a proposal as executed
func (d *MetadataStoreSqlite) SetProposalExecuted(
	proposalId uint64,
	executedAt time.Time,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Proposal{}).
		Where("id = ?", proposalId).
		Updates(map[string]any{
			"executed":    true,
			"executed_at": executedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetVotes retrieves all votes for a proposal
func (d *MetadataStoreSqlite) GetVotes(
	proposalId uint64,
	txn types.Txn,
) ([]*models.Vote, error) {
	var votes []*models.Vote
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"proposal_id = ?",
		proposalId,
	).Find(&votes); result.Error != nil {
		return nil, result.Error
	}
	return votes, nil
}

// AddVote creates a vote record
func (d *MetadataStoreSqlite) AddVote(
	vote *models.Vote,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		return result.Error
	}
	return nil
}
