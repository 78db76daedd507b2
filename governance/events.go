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
	"time"

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/identity"
)

const (
	ProposalCreatedEventType  event.EventType = "governance.proposal_created"
	VoteCastEventType         event.EventType = "governance.vote_cast"
	ProposalExecutedEventType event.EventType = "governance.proposal_executed"
	ParamsUpdatedEventType    event.EventType = "governance.params_updated"
)

type ProposalCreatedEvent struct {
	Id          uint64
	Proposer    identity.Identity
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

type VoteCastEvent struct {
	Id           uint64
	Voter        identity.Identity
	Support      bool
	ForVotes     uint64
	AgainstVotes uint64
	Timestamp    time.Time
}

type ProposalExecutedEvent struct {
	Id           uint64
	Caller       identity.Identity
	ForVotes     uint64
	AgainstVotes uint64
	MemberCount  uint64
	Timestamp    time.Time
}

type ParamsUpdatedEvent struct {
	VotingPeriod     time.Duration
	QuorumBps        uint64
	PassThresholdBps uint64
	Timestamp        time.Time
}
