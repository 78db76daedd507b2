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

package api

import (
	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/identity"
)

// ApiNode is the interface that the governance API server uses to reach the
// membership registry, the proposal engine, and the event journal. This
// decouples the HTTP server from the concrete component structs and enables
// testing with mock implementations.
type ApiNode interface {
	// Admin returns the current admin identity.
	Admin() identity.Identity

	// Members returns all current members.
	Members() []identity.Identity

	// MemberCount returns the current number of members.
	MemberCount() int

	// IsMember reports whether the given identity is a member.
	IsMember(id identity.Identity) bool

	// AddMember registers a new member. Admin only.
	AddMember(caller identity.Identity, member identity.Identity) error

	// RemoveMember removes an existing member. Admin only.
	RemoveMember(caller identity.Identity, member identity.Identity) error

	// SetAdmin transfers the admin role. Admin only.
	SetAdmin(caller identity.Identity, newAdmin identity.Identity) error

	// Params returns the current governance parameters.
	Params() governance.Params

	// SetParams replaces the governance parameters. Admin only.
	SetParams(caller identity.Identity, params governance.Params) error

	// CreateProposal opens a new proposal and returns its id.
	CreateProposal(
		caller identity.Identity,
		description string,
	) (uint64, error)

	// Vote casts a for or against vote on a proposal.
	Vote(
		caller identity.Identity,
		proposalId uint64,
		support bool,
	) error

	// HasVoted reports whether an identity has voted on a proposal.
	HasVoted(proposalId uint64, voter identity.Identity) (bool, error)

	// ProposalState evaluates the current status of a proposal.
	ProposalState(proposalId uint64) (governance.Status, error)

	// ExecuteProposal marks a succeeded proposal as executed.
	ExecuteProposal(caller identity.Identity, proposalId uint64) error

	// ProposalView returns a proposal with its status at read time.
	ProposalView(proposalId uint64) (governance.ProposalView, error)

	// ProposalViews returns all proposals with their statuses.
	ProposalViews() []governance.ProposalView

	// EventsSince returns journal entries with sequence numbers at or
	// above from, up to limit entries.
	EventsSince(from uint64, limit int) ([]database.JournalRecord, error)

	// LastEventSeq returns the sequence number of the newest journal
	// entry.
	LastEventSeq() uint64
}
