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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/identity"
	"github.com/blinklabs-io/agora/registry"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGovernanceLifecycle drives a complete proposal lifecycle through the
// HTTP handlers with the real engine components behind the adapter.
func TestGovernanceLifecycle(t *testing.T) {
	adminId := testIdentity(t, 0xa0)
	memberA := testIdentity(t, 0x01)
	memberB := testIdentity(t, 0x02)
	memberC := testIdentity(t, 0x03)
	outsider := testIdentity(t, 0xee)

	mockClock := clock.NewMock()
	promRegistry := prometheus.NewRegistry()
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Stop()
	db, err := database.New(nil, "", promRegistry)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	database.NewEventJournal(
		db,
		eventBus,
		registry.MemberAddedEventType,
		registry.MemberRemovedEventType,
		registry.AdminChangedEventType,
		governance.ProposalCreatedEventType,
		governance.VoteCastEventType,
		governance.ProposalExecutedEventType,
		governance.ParamsUpdatedEventType,
	)
	memberRegistry, err := registry.NewRegistry(registry.RegistryConfig{
		PromRegistry: promRegistry,
		EventBus:     eventBus,
		Clock:        mockClock,
		Store:        db,
		Admin:        adminId,
	})
	require.NoError(t, err)
	governor, err := governance.NewGovernor(governance.GovernorConfig{
		PromRegistry: promRegistry,
		EventBus:     eventBus,
		Clock:        mockClock,
		Store:        db,
		Members:      memberRegistry,
		Params: governance.Params{
			VotingPeriod:     100 * time.Second,
			QuorumBps:        2000,
			PassThresholdBps: 5001,
		},
	})
	require.NoError(t, err)
	a := newTestApi(NewNodeAdapter(memberRegistry, governor, db))

	// Register three members
	for _, member := range []identity.Identity{
		memberA,
		memberB,
		memberC,
	} {
		req := identityRequest(
			http.MethodPost,
			"/v1/members",
			adminId,
			`{"identity":"`+member.String()+`"}`,
		)
		w := httptest.NewRecorder()
		a.handleAddMember(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	req := httptest.NewRequest(
		http.MethodGet, "/v1/members", nil,
	)
	w := httptest.NewRecorder()
	a.handleListMembers(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var membersResp MembersResponse
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&membersResp),
	)
	assert.Equal(t, 3, membersResp.MemberCount)
	assert.Equal(t, adminId, membersResp.Admin)

	// Member A opens a proposal
	req = identityRequest(
		http.MethodPost,
		"/v1/proposals",
		memberA,
		`{"description":"Buy snacks for the weekly sync"}`,
	)
	w = httptest.NewRecorder()
	a.handleCreateProposal(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var proposalResp ProposalResponse
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&proposalResp),
	)
	assert.Equal(t, uint64(1), proposalResp.Id)
	assert.Equal(t, "active", proposalResp.Status)
	assert.True(
		t,
		proposalResp.EndTime.Equal(
			proposalResp.StartTime.Add(100*time.Second),
		),
	)

	// A and B vote in favor
	for _, voter := range []identity.Identity{memberA, memberB} {
		req = identityRequest(
			http.MethodPost,
			"/v1/proposals/1/votes",
			voter,
			`{"support":true}`,
		)
		req.SetPathValue("id", "1")
		w = httptest.NewRecorder()
		a.handleVote(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	req = httptest.NewRequest(
		http.MethodGet,
		"/v1/proposals/1/votes/"+memberC.String(),
		nil,
	)
	req.SetPathValue("id", "1")
	req.SetPathValue("voter", memberC.String())
	w = httptest.NewRecorder()
	a.handleVoteStatus(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var voteStatusResp VoteStatusResponse
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&voteStatusResp),
	)
	assert.False(t, voteStatusResp.HasVoted)

	// Executing before the window closes is a conflict
	req = identityRequest(
		http.MethodPost,
		"/v1/proposals/1/execute",
		outsider,
		"",
	)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleExecuteProposal(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	// Cross the end of the voting window
	mockClock.Add(101 * time.Second)
	req = httptest.NewRequest(
		http.MethodGet, "/v1/proposals/1/state", nil,
	)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleProposalState(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var stateResp ProposalStateResponse
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&stateResp),
	)
	assert.Equal(t, "succeeded", stateResp.Status)

	// Anyone may execute a succeeded proposal
	req = identityRequest(
		http.MethodPost,
		"/v1/proposals/1/execute",
		outsider,
		"",
	)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleExecuteProposal(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&proposalResp),
	)
	assert.True(t, proposalResp.Executed)
	assert.Equal(t, "executed", proposalResp.Status)
	assert.Equal(t, uint64(2), proposalResp.ForVotes)
	assert.Equal(t, uint64(0), proposalResp.AgainstVotes)

	// A second execution is a conflict
	req = identityRequest(
		http.MethodPost,
		"/v1/proposals/1/execute",
		outsider,
		"",
	)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleExecuteProposal(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	// The journal recorded the whole history: three membership changes,
	// the proposal, two votes, and the execution
	req = httptest.NewRequest(
		http.MethodGet, "/v1/events", nil,
	)
	w = httptest.NewRecorder()
	a.handleEvents(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var eventsResp EventsResponse
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&eventsResp),
	)
	require.Len(t, eventsResp.Events, 7)
	assert.Equal(t, uint64(7), eventsResp.LastSeq)
	assert.Equal(
		t,
		string(registry.MemberAddedEventType),
		eventsResp.Events[0].Type,
	)
	assert.Equal(
		t,
		string(governance.ProposalCreatedEventType),
		eventsResp.Events[3].Type,
	)
	assert.Equal(
		t,
		string(governance.ProposalExecutedEventType),
		eventsResp.Events[6].Type,
	)
	var createdEvent governance.ProposalCreatedEvent
	require.NoError(
		t,
		json.Unmarshal(eventsResp.Events[3].Data, &createdEvent),
	)
	assert.Equal(
		t,
		"Buy snacks for the weekly sync",
		createdEvent.Description,
	)
	assert.Equal(t, memberA, createdEvent.Proposer)

	// Paging by sequence number
	req = httptest.NewRequest(
		http.MethodGet, "/v1/events?from=4&limit=2", nil,
	)
	w = httptest.NewRecorder()
	a.handleEvents(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(
		t,
		json.NewDecoder(w.Body).Decode(&eventsResp),
	)
	require.Len(t, eventsResp.Events, 2)
	assert.Equal(t, uint64(4), eventsResp.Events[0].Seq)
	assert.Equal(t, uint64(5), eventsResp.Events[1].Seq)
}
