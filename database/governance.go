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
	"time"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/identity"
)

// SetParams persists the governance parameters
func (d *Database) SetParams(params governance.Params) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	tmpParams := models.GovernanceParams{
		VotingPeriodSecs: uint64(params.VotingPeriod / time.Second), // #nosec G115
		QuorumBps:        params.QuorumBps,
		PassThresholdBps: params.PassThresholdBps,
	}
	if err := d.metadata.SetGovernanceParams(
		&tmpParams,
		txn.Metadata(),
	); err != nil {
		return err
	}
	return txn.Commit()
}

// AddProposal persists a newly created proposal
func (d *Database) AddProposal(p governance.Proposal) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	tmpProposal := models.Proposal{
		ID:           p.Id,
		Proposer:     p.Proposer.Bytes(),
		Description:  p.Description,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		ForVotes:     p.ForVotes,
		AgainstVotes: p.AgainstVotes,
		Executed:     p.Executed,
	}
	if err := d.metadata.AddProposal(&tmpProposal, txn.Metadata()); err != nil {
		return err
	}
	return txn.Commit()
}

// AddVote persists a vote and the updated proposal tallies in a single
// transaction
func (d *Database) AddVote(
	proposalId uint64,
	voter identity.Identity,
	support bool,
	castAt time.Time,
	forVotes uint64,
	againstVotes uint64,
) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	tmpVote := models.Vote{
		ProposalID: proposalId,
		Voter:      voter.Bytes(),
		Support:    support,
		CastAt:     castAt,
	}
	if err := d.metadata.AddVote(&tmpVote, txn.Metadata()); err != nil {
		return err
	}
	if err := d.metadata.SetProposalTallies(
		proposalId,
		forVotes,
		againstVotes,
		txn.Metadata(),
	); err != nil {
		return err
	}
	return txn.Commit()
}

// MarkExecuted persists the executed flag on a proposal
func (d *Database) MarkExecuted(
	proposalId uint64,
	executedAt time.Time,
) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	if err := d.metadata.SetProposalExecuted(
		proposalId,
		executedAt,
		txn.Metadata(),
	); err != nil {
		return err
	}
	return txn.Commit()
}

// LoadParams retrieves the stored governance parameters. Returns nil if no
// parameters have been recorded yet.
func (d *Database) LoadParams() (*governance.Params, error) {
	tmpParams, err := d.metadata.GetGovernanceParams(nil)
	if err != nil {
		return nil, err
	}
	if tmpParams == nil {
		return nil, nil
	}
	ret := &governance.Params{
		// #nosec G115
		VotingPeriod:     time.Duration(tmpParams.VotingPeriodSecs) * time.Second,
		QuorumBps:        tmpParams.QuorumBps,
		PassThresholdBps: tmpParams.PassThresholdBps,
	}
	return ret, nil
}

// LoadProposals retrieves all stored proposals with their voter ledgers. The
// proposals and votes are read in a single transaction for a consistent
// snapshot.
func (d *Database) LoadProposals() ([]governance.StoredProposal, error) {
	txn := NewMetadataOnlyTxn(d, false)
	defer txn.Release()
	proposals, err := d.metadata.GetProposals(txn.Metadata())
	if err != nil {
		return nil, err
	}
	ret := make([]governance.StoredProposal, 0, len(proposals))
	for _, proposal := range proposals {
		proposer, err := identity.NewIdentityFromBytes(proposal.Proposer)
		if err != nil {
			return nil, err
		}
		stored := governance.StoredProposal{
			Proposal: governance.Proposal{
				Id:           proposal.ID,
				Proposer:     proposer,
				Description:  proposal.Description,
				StartTime:    proposal.StartTime,
				EndTime:      proposal.EndTime,
				ForVotes:     proposal.ForVotes,
				AgainstVotes: proposal.AgainstVotes,
				Executed:     proposal.Executed,
			},
			Votes: make(map[identity.Identity]bool),
		}
		votes, err := d.metadata.GetVotes(proposal.ID, txn.Metadata())
		if err != nil {
			return nil, err
		}
		for _, vote := range votes {
			voter, err := identity.NewIdentityFromBytes(vote.Voter)
			if err != nil {
				return nil, err
			}
			stored.Votes[voter] = vote.Support
		}
		ret = append(ret, stored)
	}
	return ret, nil
}
