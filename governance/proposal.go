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
	"fmt"
	"time"

	"github.com/blinklabs-io/agora/identity"
)

// MaxBps is the denominator for basis-point parameters
const MaxBps uint64 = 10_000

// Params are the process-wide governance parameters. QuorumBps and
// PassThresholdBps are basis points out of MaxBps. All three are read live
// when a proposal is evaluated; only a proposal's voting window is frozen
// at creation.
type Params struct {
	VotingPeriod     time.Duration
	QuorumBps        uint64
	PassThresholdBps uint64
}

func (p Params) Validate() error {
	if p.VotingPeriod <= 0 || p.VotingPeriod%time.Second != 0 {
		return NewInvalidParameterError(
			"voting_period",
			fmt.Sprintf("%s (must be a positive whole number of seconds)", p.VotingPeriod),
		)
	}
	if p.QuorumBps > MaxBps {
		return NewInvalidParameterError(
			"quorum_bps",
			fmt.Sprintf("%d (must be at most %d)", p.QuorumBps, MaxBps),
		)
	}
	if p.PassThresholdBps > MaxBps {
		return NewInvalidParameterError(
			"pass_threshold_bps",
			fmt.Sprintf("%d (must be at most %d)", p.PassThresholdBps, MaxBps),
		)
	}
	return nil
}

// DefaultParams returns the parameters used when none are configured or
// stored: one-day voting window, 25% participation quorum, simple majority.
func DefaultParams() Params {
	return Params{
		VotingPeriod:     24 * time.Hour,
		QuorumBps:        2500,
		PassThresholdBps: 5000,
	}
}

// Proposal is an immutable record of a question put to the members, plus its
// monotonically growing tallies and sticky executed flag. Instances returned
// from the Governor are value snapshots.
type Proposal struct {
	Id           uint64
	Proposer     identity.Identity
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	ForVotes     uint64
	AgainstVotes uint64
	Executed     bool
}

// StoredProposal is a proposal together with its recorded votes, as loaded
// from a Store at startup
type StoredProposal struct {
	Proposal Proposal
	Votes    map[identity.Identity]bool
}

type Status int

const (
	StatusActive Status = iota
	StatusNoMembers
	StatusQuorumNotReached
	StatusInsufficientSupport
	StatusSucceeded
	StatusExecuted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusNoMembers:
		return "no_members"
	case StatusQuorumNotReached:
		return "quorum_not_reached"
	case StatusInsufficientSupport:
		return "insufficient_support"
	case StatusSucceeded:
		return "succeeded"
	case StatusExecuted:
		return "executed"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

// Failed reports whether the status is one of the terminal failure outcomes
func (s Status) Failed() bool {
	return s == StatusQuorumNotReached || s == StatusInsufficientSupport
}

// evaluateStatus derives the lifecycle status of a proposal. It is a pure
// function of the proposal snapshot, the live member count, the live
// parameters, and the current time. The executed flag short-circuits
// everything else, so an executed proposal never flips status when
// parameters or membership change afterward.
//
// Threshold comparisons use exact integer cross-multiplication, never
// division:
//
//	quorum reached:  totalVotes * MaxBps >= memberCount * quorumBps
//	passes:          forVotes * MaxBps >= totalVotes * passThresholdBps
//
// Both comparisons are inclusive, so hitting a threshold exactly counts.
//
// An open voting window always reads Active. Membership and tallies are
// only consulted once the window has closed.
func evaluateStatus(
	p Proposal,
	memberCount uint64,
	params Params,
	now time.Time,
) Status {
	if p.Executed {
		return StatusExecuted
	}
	if !now.After(p.EndTime) {
		return StatusActive
	}
	if memberCount == 0 {
		return StatusNoMembers
	}
	totalVotes := p.ForVotes + p.AgainstVotes
	if totalVotes*MaxBps < memberCount*params.QuorumBps {
		return StatusQuorumNotReached
	}
	if p.ForVotes*MaxBps >= totalVotes*params.PassThresholdBps {
		return StatusSucceeded
	}
	return StatusInsufficientSupport
}
