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
	"github.com/blinklabs-io/agora/registry"
)

// NodeAdapter wraps the concrete registry, governor, and database to
// implement the ApiNode interface.
type NodeAdapter struct {
	registry *registry.Registry
	governor *governance.Governor
	db       *database.Database
}

// NewNodeAdapter creates a NodeAdapter over the given components. Panics if
// any of them is nil.
func NewNodeAdapter(
	memberRegistry *registry.Registry,
	governor *governance.Governor,
	db *database.Database,
) *NodeAdapter {
	if memberRegistry == nil || governor == nil || db == nil {
		panic("NewNodeAdapter: all components must be non-nil")
	}
	return &NodeAdapter{
		registry: memberRegistry,
		governor: governor,
		db:       db,
	}
}

func (a *NodeAdapter) Admin() identity.Identity {
	return a.registry.Admin()
}

func (a *NodeAdapter) Members() []identity.Identity {
	return a.registry.Members()
}

func (a *NodeAdapter) MemberCount() int {
	return a.registry.MemberCount()
}

func (a *NodeAdapter) IsMember(id identity.Identity) bool {
	return a.registry.IsMember(id)
}

func (a *NodeAdapter) AddMember(
	caller identity.Identity,
	member identity.Identity,
) error {
	return a.registry.AddMember(caller, member)
}

func (a *NodeAdapter) RemoveMember(
	caller identity.Identity,
	member identity.Identity,
) error {
	return a.registry.RemoveMember(caller, member)
}

func (a *NodeAdapter) SetAdmin(
	caller identity.Identity,
	newAdmin identity.Identity,
) error {
	return a.registry.SetAdmin(caller, newAdmin)
}

func (a *NodeAdapter) Params() governance.Params {
	return a.governor.Params()
}

func (a *NodeAdapter) SetParams(
	caller identity.Identity,
	params governance.Params,
) error {
	return a.governor.SetParams(caller, params)
}

func (a *NodeAdapter) CreateProposal(
	caller identity.Identity,
	description string,
) (uint64, error) {
	return a.governor.CreateProposal(caller, description)
}

func (a *NodeAdapter) Vote(
	caller identity.Identity,
	proposalId uint64,
	support bool,
) error {
	return a.governor.Vote(caller, proposalId, support)
}

func (a *NodeAdapter) HasVoted(
	proposalId uint64,
	voter identity.Identity,
) (bool, error) {
	return a.governor.HasVoted(proposalId, voter)
}

func (a *NodeAdapter) ProposalState(
	proposalId uint64,
) (governance.Status, error) {
	return a.governor.ProposalState(proposalId)
}

func (a *NodeAdapter) ExecuteProposal(
	caller identity.Identity,
	proposalId uint64,
) error {
	return a.governor.ExecuteProposal(caller, proposalId)
}

func (a *NodeAdapter) ProposalView(
	proposalId uint64,
) (governance.ProposalView, error) {
	return a.governor.ProposalView(proposalId)
}

func (a *NodeAdapter) ProposalViews() []governance.ProposalView {
	return a.governor.ProposalViews()
}

func (a *NodeAdapter) EventsSince(
	from uint64,
	limit int,
) ([]database.JournalRecord, error) {
	return a.db.EventsSince(from, limit)
}

func (a *NodeAdapter) LastEventSeq() uint64 {
	return a.db.LastEventSeq()
}
