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
	"encoding/json"
	"time"

	"github.com/blinklabs-io/agora/identity"
)

// ErrorResponse is the JSON body for every error response.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// HealthResponse is returned by GET /v1/health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// MembersResponse is returned by GET /v1/members. A zeroed admin means no
// admin has been configured.
type MembersResponse struct {
	Admin       identity.Identity   `json:"admin"`
	MemberCount int                 `json:"member_count"`
	Members     []identity.Identity `json:"members"`
}

// MemberRequest is the body for POST /v1/members.
type MemberRequest struct {
	Identity identity.Identity `json:"identity"`
}

// MemberResponse describes a single identity's membership.
type MemberResponse struct {
	Identity identity.Identity `json:"identity"`
	IsMember bool              `json:"is_member"`
}

// AdminRequest is the body for PUT /v1/admin.
type AdminRequest struct {
	Identity identity.Identity `json:"identity"`
}

// AdminResponse is returned by PUT /v1/admin.
type AdminResponse struct {
	Admin identity.Identity `json:"admin"`
}

// ParamsRequest is the body for PUT /v1/params.
type ParamsRequest struct {
	VotingPeriodSeconds uint64 `json:"voting_period_seconds"`
	QuorumBps           uint64 `json:"quorum_bps"`
	PassThresholdBps    uint64 `json:"pass_threshold_bps"`
}

// ParamsResponse is returned by GET and PUT /v1/params.
type ParamsResponse struct {
	VotingPeriodSeconds uint64 `json:"voting_period_seconds"`
	QuorumBps           uint64 `json:"quorum_bps"`
	PassThresholdBps    uint64 `json:"pass_threshold_bps"`
}

// CreateProposalRequest is the body for POST /v1/proposals.
type CreateProposalRequest struct {
	Description string `json:"description"`
}

// ProposalResponse represents a proposal together with its status at read
// time.
type ProposalResponse struct {
	Id           uint64            `json:"id"`
	Proposer     identity.Identity `json:"proposer"`
	Description  string            `json:"description"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	ForVotes     uint64            `json:"for_votes"`
	AgainstVotes uint64            `json:"against_votes"`
	Executed     bool              `json:"executed"`
	Status       string            `json:"status"`
}

// ProposalStateResponse is returned by GET /v1/proposals/{id}/state.
type ProposalStateResponse struct {
	Id     uint64 `json:"id"`
	Status string `json:"status"`
}

// VoteRequest is the body for POST /v1/proposals/{id}/votes. Support is a
// pointer so a missing field can be told apart from an explicit false.
type VoteRequest struct {
	Support *bool `json:"support"`
}

// VoteResponse is returned after casting a vote.
type VoteResponse struct {
	ProposalId   uint64            `json:"proposal_id"`
	Voter        identity.Identity `json:"voter"`
	Support      bool              `json:"support"`
	ForVotes     uint64            `json:"for_votes"`
	AgainstVotes uint64            `json:"against_votes"`
}

// VoteStatusResponse is returned by GET /v1/proposals/{id}/votes/{voter}.
type VoteStatusResponse struct {
	ProposalId uint64            `json:"proposal_id"`
	Voter      identity.Identity `json:"voter"`
	HasVoted   bool              `json:"has_voted"`
}

// EventResponse is a single event journal entry.
type EventResponse struct {
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventsResponse is returned by GET /v1/events.
type EventsResponse struct {
	Events  []EventResponse `json:"events"`
	LastSeq uint64          `json:"last_seq"`
}
