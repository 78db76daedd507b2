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

package governance

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/identity"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// MembershipSource is the view of the membership registry needed by the
// governance engine. Member count and admin status are always read live.
type MembershipSource interface {
	IsMember(id identity.Identity) bool
	IsAdmin(id identity.Identity) bool
	MemberCount() int
}

// Store persists governance state. Load methods are called once at startup;
// mutating methods must commit each operation's net effect atomically.
type Store interface {
	SetParams(params Params) error
	AddProposal(p Proposal) error
	AddVote(
		proposalId uint64,
		voter identity.Identity,
		support bool,
		castAt time.Time,
		forVotes uint64,
		againstVotes uint64,
	) error
	MarkExecuted(proposalId uint64, executedAt time.Time) error
	LoadParams() (*Params, error)
	LoadProposals() ([]StoredProposal, error)
}

type GovernorConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Clock        clock.Clock
	Store        Store
	Members      MembershipSource
	// Params are the initial governance parameters, used until an admin
	// updates them. Stored parameters take precedence.
	Params Params
}

// proposalEntry pairs a proposal with its voter ledger
type proposalEntry struct {
	proposal Proposal
	votes    map[identity.Identity]bool
}

// Governor owns the proposal sequence and governance parameters. A single
// writer lock serializes all mutations; reads take consistent snapshots.
type Governor struct {
	config    GovernorConfig
	metrics   governorMetrics
	logger    *slog.Logger
	eventBus  *event.EventBus
	clock     clock.Clock
	members   MembershipSource
	params    Params
	proposals []*proposalEntry
	sync.RWMutex
}

func NewGovernor(config GovernorConfig) (*Governor, error) {
	if config.Members == nil {
		return nil, errors.New("no membership source configured")
	}
	g := &Governor{
		config:   config,
		eventBus: config.EventBus,
		members:  config.Members,
		params:   config.Params,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		g.logger = config.Logger
	}
	if config.Clock == nil {
		g.clock = clock.New()
	} else {
		g.clock = config.Clock
	}
	if g.params == (Params{}) {
		g.params = DefaultParams()
	}
	if err := g.params.Validate(); err != nil {
		return nil, err
	}
	if config.Store != nil {
		if err := g.load(); err != nil {
			return nil, err
		}
	}
	g.initMetrics(config.PromRegistry)
	g.metrics.proposals.Set(float64(len(g.proposals)))
	return g, nil
}

func (g *Governor) load() error {
	storedParams, err := g.config.Store.LoadParams()
	if err != nil {
		return err
	}
	if storedParams != nil {
		if err := storedParams.Validate(); err != nil {
			return err
		}
		g.params = *storedParams
	}
	storedProposals, err := g.config.Store.LoadProposals()
	if err != nil {
		return err
	}
	for _, stored := range storedProposals {
		// Proposal ids are assigned sequentially from 1, so the stored
		// sequence must be dense
		expectedId := uint64(len(g.proposals)) + 1
		if stored.Proposal.Id != expectedId {
			return errors.New("stored proposal sequence has gaps")
		}
		entry := &proposalEntry{
			proposal: stored.Proposal,
			votes:    make(map[identity.Identity]bool),
		}
		for voter, support := range stored.Votes {
			entry.votes[voter] = support
		}
		g.proposals = append(g.proposals, entry)
	}
	return nil
}

// SetParams replaces all governance parameters. Only the admin may call
// this. The write is atomic: either all three parameters change or none do.
func (g *Governor) SetParams(caller identity.Identity, params Params) error {
	g.Lock()
	defer g.Unlock()
	if !g.members.IsAdmin(caller) {
		return ErrUnauthorized
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if g.config.Store != nil {
		if err := g.config.Store.SetParams(params); err != nil {
			return err
		}
	}
	g.params = params
	g.logger.Info(
		"governance parameters updated",
		"component", "governance",
		"voting_period", params.VotingPeriod,
		"quorum_bps", params.QuorumBps,
		"pass_threshold_bps", params.PassThresholdBps,
	)
	g.publish(
		ParamsUpdatedEventType,
		ParamsUpdatedEvent{
			VotingPeriod:     params.VotingPeriod,
			QuorumBps:        params.QuorumBps,
			PassThresholdBps: params.PassThresholdBps,
			Timestamp:        g.clock.Now(),
		},
	)
	return nil
}

// Params returns a snapshot of the current governance parameters
func (g *Governor) Params() Params {
	g.RLock()
	defer g.RUnlock()
	return g.params
}

// CreateProposal opens a new proposal for voting and returns its id. The
// caller must be a current member. The voting window is frozen here from the
// current parameters; later parameter changes never move it.
func (g *Governor) CreateProposal(
	caller identity.Identity,
	description string,
) (uint64, error) {
	g.Lock()
	defer g.Unlock()
	if !g.members.IsMember(caller) {
		return 0, NewNotMemberError(caller)
	}
	now := g.clock.Now()
	proposal := Proposal{
		Id:          uint64(len(g.proposals)) + 1,
		Proposer:    caller,
		Description: description,
		StartTime:   now,
		EndTime:     now.Add(g.params.VotingPeriod),
	}
	if g.config.Store != nil {
		if err := g.config.Store.AddProposal(proposal); err != nil {
			return 0, err
		}
	}
	g.proposals = append(g.proposals, &proposalEntry{
		proposal: proposal,
		votes:    make(map[identity.Identity]bool),
	})
	g.metrics.proposalsCreated.Inc()
	g.metrics.proposals.Set(float64(len(g.proposals)))
	g.logger.Info(
		"proposal created",
		"component", "governance",
		"proposal_id", proposal.Id,
		"proposer", caller,
	)
	g.publish(
		ProposalCreatedEventType,
		ProposalCreatedEvent{
			Id:          proposal.Id,
			Proposer:    proposal.Proposer,
			Description: proposal.Description,
			StartTime:   proposal.StartTime,
			EndTime:     proposal.EndTime,
		},
	)
	return proposal.Id, nil
}

// Vote records a single for/against vote by a member on an active proposal.
// Each member votes at most once per proposal; there is no vote changing.
func (g *Governor) Vote(
	caller identity.Identity,
	proposalId uint64,
	support bool,
) error {
	g.Lock()
	defer g.Unlock()
	entry, err := g.entry(proposalId)
	if err != nil {
		return err
	}
	if !g.members.IsMember(caller) {
		return NewNotMemberError(caller)
	}
	now := g.clock.Now()
	if now.Before(entry.proposal.StartTime) {
		return ErrVotingNotStarted
	}
	if now.After(entry.proposal.EndTime) {
		return ErrVotingEnded
	}
	if _, ok := entry.votes[caller]; ok {
		return NewAlreadyVotedError(proposalId, caller)
	}
	forVotes := entry.proposal.ForVotes
	againstVotes := entry.proposal.AgainstVotes
	if support {
		forVotes++
	} else {
		againstVotes++
	}
	if g.config.Store != nil {
		err := g.config.Store.AddVote(
			proposalId,
			caller,
			support,
			now,
			forVotes,
			againstVotes,
		)
		if err != nil {
			return err
		}
	}
	entry.votes[caller] = support
	entry.proposal.ForVotes = forVotes
	entry.proposal.AgainstVotes = againstVotes
	g.metrics.votesCast.Inc()
	g.logger.Info(
		"vote cast",
		"component", "governance",
		"proposal_id", proposalId,
		"voter", caller,
		"support", support,
	)
	g.publish(
		VoteCastEventType,
		VoteCastEvent{
			Id:           proposalId,
			Voter:        caller,
			Support:      support,
			ForVotes:     forVotes,
			AgainstVotes: againstVotes,
			Timestamp:    now,
		},
	)
	return nil
}

// HasVoted reports whether the given identity has voted on a proposal
func (g *Governor) HasVoted(
	proposalId uint64,
	voter identity.Identity,
) (bool, error) {
	g.RLock()
	defer g.RUnlock()
	entry, err := g.entry(proposalId)
	if err != nil {
		return false, err
	}
	_, ok := entry.votes[voter]
	return ok, nil
}

// ProposalState evaluates the current lifecycle status of a proposal. The
// evaluation is pure: the member count and parameters are read live, and no
// state is modified.
func (g *Governor) ProposalState(proposalId uint64) (Status, error) {
	g.RLock()
	defer g.RUnlock()
	entry, err := g.entry(proposalId)
	if err != nil {
		return StatusActive, err
	}
	return evaluateStatus(
		entry.proposal,
		uint64(g.members.MemberCount()), // #nosec G115
		g.params,
		g.clock.Now(),
	), nil
}

// ExecuteProposal marks a succeeded proposal as executed. Any non-null
// identity may call this, member or not. The executed flag is set exactly
// once and never recomputed afterward.
func (g *Governor) ExecuteProposal(
	caller identity.Identity,
	proposalId uint64,
) error {
	g.Lock()
	defer g.Unlock()
	if caller.IsZero() {
		return ErrInvalidIdentity
	}
	entry, err := g.entry(proposalId)
	if err != nil {
		return err
	}
	if entry.proposal.Executed {
		return ErrAlreadyExecuted
	}
	now := g.clock.Now()
	memberCount := uint64(g.members.MemberCount()) // #nosec G115
	status := evaluateStatus(entry.proposal, memberCount, g.params, now)
	switch status {
	case StatusNoMembers:
		return ErrNoMembers
	case StatusActive:
		return ErrVotingNotEnded
	case StatusQuorumNotReached:
		return ErrQuorumNotReached
	case StatusInsufficientSupport:
		return ErrInsufficientSupport
	case StatusSucceeded:
		// Falls through to execution
	default:
		return ErrAlreadyExecuted
	}
	if g.config.Store != nil {
		if err := g.config.Store.MarkExecuted(proposalId, now); err != nil {
			return err
		}
	}
	entry.proposal.Executed = true
	g.metrics.proposalsExecuted.Inc()
	g.logger.Info(
		"proposal executed",
		"component", "governance",
		"proposal_id", proposalId,
		"caller", caller,
		"for_votes", entry.proposal.ForVotes,
		"against_votes", entry.proposal.AgainstVotes,
	)
	g.publish(
		ProposalExecutedEventType,
		ProposalExecutedEvent{
			Id:           proposalId,
			Caller:       caller,
			ForVotes:     entry.proposal.ForVotes,
			AgainstVotes: entry.proposal.AgainstVotes,
			MemberCount:  memberCount,
			Timestamp:    now,
		},
	)
	return nil
}

// Proposal returns a snapshot of a single proposal
func (g *Governor) Proposal(proposalId uint64) (Proposal, error) {
	g.RLock()
	defer g.RUnlock()
	entry, err := g.entry(proposalId)
	if err != nil {
		return Proposal{}, err
	}
	return entry.proposal, nil
}

// Proposals returns a snapshot of all proposals in id order
func (g *Governor) Proposals() []Proposal {
	g.RLock()
	defer g.RUnlock()
	ret := make([]Proposal, len(g.proposals))
	for i := range g.proposals {
		ret[i] = g.proposals[i].proposal
	}
	return ret
}

// ProposalView couples a proposal snapshot with its status at read time
type ProposalView struct {
	Proposal Proposal
	Status   Status
}

// ProposalView returns a proposal snapshot and its status from a single
// consistent read
func (g *Governor) ProposalView(proposalId uint64) (ProposalView, error) {
	g.RLock()
	defer g.RUnlock()
	entry, err := g.entry(proposalId)
	if err != nil {
		return ProposalView{}, err
	}
	return ProposalView{
		Proposal: entry.proposal,
		Status: evaluateStatus(
			entry.proposal,
			uint64(g.members.MemberCount()), // #nosec G115
			g.params,
			g.clock.Now(),
		),
	}, nil
}

// ProposalViews returns all proposals with their statuses from a single
// consistent read
func (g *Governor) ProposalViews() []ProposalView {
	g.RLock()
	defer g.RUnlock()
	now := g.clock.Now()
	memberCount := uint64(g.members.MemberCount()) // #nosec G115
	ret := make([]ProposalView, len(g.proposals))
	for i := range g.proposals {
		ret[i] = ProposalView{
			Proposal: g.proposals[i].proposal,
			Status: evaluateStatus(
				g.proposals[i].proposal,
				memberCount,
				g.params,
				now,
			),
		}
	}
	return ret
}

// ProposalCount returns the number of proposals ever created
func (g *Governor) ProposalCount() uint64 {
	g.RLock()
	defer g.RUnlock()
	return uint64(len(g.proposals))
}

// entry looks up a proposal by id. Callers must hold the lock.
func (g *Governor) entry(proposalId uint64) (*proposalEntry, error) {
	if proposalId == 0 || proposalId > uint64(len(g.proposals)) {
		return nil, NewInvalidProposalError(proposalId)
	}
	return g.proposals[proposalId-1], nil
}

func (g *Governor) publish(eventType event.EventType, data any) {
	if g.eventBus == nil {
		return
	}
	g.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}
