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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/identity"
	"github.com/blinklabs-io/agora/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNode implements ApiNode for testing.
type mockNode struct {
	admin           identity.Identity
	members         []identity.Identity
	memberCount     int
	isMember        bool
	params          governance.Params
	view            governance.ProposalView
	views           []governance.ProposalView
	state           governance.Status
	hasVoted        bool
	createId        uint64
	events          []database.JournalRecord
	lastSeq         uint64
	addMemberErr    error
	removeMemberErr error
	setAdminErr     error
	setParamsErr    error
	createErr       error
	voteErr         error
	hasVotedErr     error
	stateErr        error
	executeErr      error
	viewErr         error
	eventsErr       error
}

func (m *mockNode) Admin() identity.Identity {
	return m.admin
}

func (m *mockNode) Members() []identity.Identity {
	return m.members
}

func (m *mockNode) MemberCount() int {
	return m.memberCount
}

func (m *mockNode) IsMember(_ identity.Identity) bool {
	return m.isMember
}

func (m *mockNode) AddMember(
	_ identity.Identity,
	_ identity.Identity,
) error {
	return m.addMemberErr
}

func (m *mockNode) RemoveMember(
	_ identity.Identity,
	_ identity.Identity,
) error {
	return m.removeMemberErr
}

func (m *mockNode) SetAdmin(
	_ identity.Identity,
	_ identity.Identity,
) error {
	return m.setAdminErr
}

func (m *mockNode) Params() governance.Params {
	return m.params
}

func (m *mockNode) SetParams(
	_ identity.Identity,
	_ governance.Params,
) error {
	return m.setParamsErr
}

func (m *mockNode) CreateProposal(
	_ identity.Identity,
	_ string,
) (uint64, error) {
	return m.createId, m.createErr
}

func (m *mockNode) Vote(
	_ identity.Identity,
	_ uint64,
	_ bool,
) error {
	return m.voteErr
}

func (m *mockNode) HasVoted(
	_ uint64,
	_ identity.Identity,
) (bool, error) {
	return m.hasVoted, m.hasVotedErr
}

func (m *mockNode) ProposalState(
	_ uint64,
) (governance.Status, error) {
	return m.state, m.stateErr
}

func (m *mockNode) ExecuteProposal(
	_ identity.Identity,
	_ uint64,
) error {
	return m.executeErr
}

func (m *mockNode) ProposalView(
	_ uint64,
) (governance.ProposalView, error) {
	return m.view, m.viewErr
}

func (m *mockNode) ProposalViews() []governance.ProposalView {
	return m.views
}

func (m *mockNode) EventsSince(
	_ uint64,
	_ int,
) ([]database.JournalRecord, error) {
	return m.events, m.eventsErr
}

func (m *mockNode) LastEventSeq() uint64 {
	return m.lastSeq
}

func newTestApi(node ApiNode) *Api {
	return New(
		ApiConfig{
			ListenAddress: ":0",
		},
		node,
		slog.Default(),
	)
}

func testIdentity(t *testing.T, fill byte) identity.Identity {
	t.Helper()
	id, err := identity.NewIdentityFromBytes(
		bytes.Repeat([]byte{fill}, identity.IdentitySize),
	)
	require.NoError(t, err)
	return id
}

func identityRequest(
	method string,
	target string,
	caller identity.Identity,
	body string,
) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(IdentityHeaderName, caller.String())
	return req
}

func TestStartStop(t *testing.T) {
	mock := &mockNode{}
	a := newTestApi(mock)

	err := a.Start(t.Context())
	require.NoError(t, err)

	// Verify server is running
	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	// Stop the server
	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	err = a.Stop(stopCtx)
	require.NoError(t, err)

	// Verify server is stopped
	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestStartAlreadyStarted(t *testing.T) {
	mock := &mockNode{}
	a := newTestApi(mock)

	ctx := t.Context()
	err := a.Start(ctx)
	require.NoError(t, err)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	// Starting again should error
	err = a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestHandleHealth(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/health", nil,
	)
	w := httptest.NewRecorder()
	a.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(
		t,
		"application/json",
		w.Header().Get("Content-Type"),
	)

	var resp HealthResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.IsHealthy)
}

func TestHandleListMembers(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	member := testIdentity(t, 0x01)
	mock := &mockNode{
		admin:       admin,
		members:     []identity.Identity{member},
		memberCount: 1,
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodGet, "/v1/members", nil,
	)
	w := httptest.NewRecorder()
	a.handleListMembers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp MembersResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, admin, resp.Admin)
	assert.Equal(t, 1, resp.MemberCount)
	assert.Equal(t, []identity.Identity{member}, resp.Members)
}

func TestHandleListMembersEmpty(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/members", nil,
	)
	w := httptest.NewRecorder()
	a.handleListMembers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// A nil member list must render as an empty array, not null
	assert.Contains(t, w.Body.String(), `"members":[]`)
}

func TestHandleAddMember(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	member := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodPost,
		"/v1/members",
		admin,
		`{"identity":"`+member.String()+`"}`,
	)
	w := httptest.NewRecorder()
	a.handleAddMember(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp MemberResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, member, resp.Identity)
	assert.True(t, resp.IsMember)
}

func TestHandleAddMemberMissingHeader(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodPost,
		"/v1/members",
		strings.NewReader(`{"identity":"00"}`),
	)
	w := httptest.NewRecorder()
	a.handleAddMember(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, IdentityHeaderName)
}

func TestHandleAddMemberInvalidBody(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodPost,
		"/v1/members",
		admin,
		`{"identity":"zz"}`,
	)
	w := httptest.NewRecorder()
	a.handleAddMember(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAddMemberUnauthorized(t *testing.T) {
	caller := testIdentity(t, 0x01)
	member := testIdentity(t, 0x02)
	a := newTestApi(&mockNode{
		addMemberErr: registry.ErrUnauthorized,
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/members",
		caller,
		`{"identity":"`+member.String()+`"}`,
	)
	w := httptest.NewRecorder()
	a.handleAddMember(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleAddMemberAlreadyMember(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	member := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		addMemberErr: registry.NewAlreadyMemberError(member),
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/members",
		admin,
		`{"identity":"`+member.String()+`"}`,
	)
	w := httptest.NewRecorder()
	a.handleAddMember(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleMemberStatus(t *testing.T) {
	member := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{isMember: true})

	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/members/"+member.String(),
		nil,
	)
	req.SetPathValue("id", member.String())
	w := httptest.NewRecorder()
	a.handleMemberStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp MemberResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, member, resp.Identity)
	assert.True(t, resp.IsMember)
}

func TestHandleMemberStatusInvalidIdentity(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/members/nothex", nil,
	)
	req.SetPathValue("id", "nothex")
	w := httptest.NewRecorder()
	a.handleMemberStatus(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRemoveMember(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	member := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodDelete,
		"/v1/members/"+member.String(),
		admin,
		"",
	)
	req.SetPathValue("id", member.String())
	w := httptest.NewRecorder()
	a.handleRemoveMember(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp MemberResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, member, resp.Identity)
	assert.False(t, resp.IsMember)
}

func TestHandleRemoveMemberNotMember(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	member := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		removeMemberErr: registry.NewNotMemberError(member),
	})

	req := identityRequest(
		http.MethodDelete,
		"/v1/members/"+member.String(),
		admin,
		"",
	)
	req.SetPathValue("id", member.String())
	w := httptest.NewRecorder()
	a.handleRemoveMember(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleSetAdmin(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	newAdmin := testIdentity(t, 0xa1)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodPut,
		"/v1/admin",
		admin,
		`{"identity":"`+newAdmin.String()+`"}`,
	)
	w := httptest.NewRecorder()
	a.handleSetAdmin(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp AdminResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, newAdmin, resp.Admin)
}

func TestHandleSetAdminInvalidIdentity(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	a := newTestApi(&mockNode{
		setAdminErr: registry.ErrInvalidIdentity,
	})

	req := identityRequest(
		http.MethodPut,
		"/v1/admin",
		admin,
		`{}`,
	)
	w := httptest.NewRecorder()
	a.handleSetAdmin(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleParams(t *testing.T) {
	a := newTestApi(&mockNode{
		params: governance.Params{
			VotingPeriod:     300 * time.Second,
			QuorumBps:        2500,
			PassThresholdBps: 5000,
		},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/params", nil,
	)
	w := httptest.NewRecorder()
	a.handleParams(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ParamsResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), resp.VotingPeriodSeconds)
	assert.Equal(t, uint64(2500), resp.QuorumBps)
	assert.Equal(t, uint64(5000), resp.PassThresholdBps)
}

func TestHandleSetParams(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodPut,
		"/v1/params",
		admin,
		`{"voting_period_seconds":600,"quorum_bps":1000,"pass_threshold_bps":6000}`,
	)
	w := httptest.NewRecorder()
	a.handleSetParams(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ParamsResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), resp.VotingPeriodSeconds)
}

func TestHandleSetParamsInvalid(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	a := newTestApi(&mockNode{
		setParamsErr: governance.NewInvalidParameterError(
			"quorum_bps",
			"20000",
		),
	})

	req := identityRequest(
		http.MethodPut,
		"/v1/params",
		admin,
		`{"voting_period_seconds":600,"quorum_bps":20000}`,
	)
	w := httptest.NewRecorder()
	a.handleSetParams(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSetParamsPeriodOverflow(t *testing.T) {
	admin := testIdentity(t, 0xa0)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodPut,
		"/v1/params",
		admin,
		`{"voting_period_seconds":18446744073709551615}`,
	)
	w := httptest.NewRecorder()
	a.handleSetParams(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateProposal(t *testing.T) {
	proposer := testIdentity(t, 0x01)
	start := time.Unix(5000, 0).UTC()
	a := newTestApi(&mockNode{
		createId: 1,
		view: governance.ProposalView{
			Proposal: governance.Proposal{
				Id:          1,
				Proposer:    proposer,
				Description: "test proposal",
				StartTime:   start,
				EndTime:     start.Add(100 * time.Second),
			},
			Status: governance.StatusActive,
		},
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals",
		proposer,
		`{"description":"test proposal"}`,
	)
	w := httptest.NewRecorder()
	a.handleCreateProposal(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp ProposalResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Id)
	assert.Equal(t, proposer, resp.Proposer)
	assert.Equal(t, "test proposal", resp.Description)
	assert.Equal(t, "active", resp.Status)
}

func TestHandleCreateProposalNotMember(t *testing.T) {
	caller := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		createErr: governance.NewNotMemberError(caller),
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals",
		caller,
		`{"description":"test"}`,
	)
	w := httptest.NewRecorder()
	a.handleCreateProposal(w, req)

	// A membership rejection is an authorization failure
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleListProposals(t *testing.T) {
	proposer := testIdentity(t, 0x01)
	start := time.Unix(5000, 0).UTC()
	a := newTestApi(&mockNode{
		views: []governance.ProposalView{
			{
				Proposal: governance.Proposal{
					Id:        1,
					Proposer:  proposer,
					StartTime: start,
					EndTime:   start.Add(100 * time.Second),
				},
				Status: governance.StatusActive,
			},
		},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/proposals", nil,
	)
	w := httptest.NewRecorder()
	a.handleListProposals(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []ProposalResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, uint64(1), resp[0].Id)
}

func TestHandleProposalNotFound(t *testing.T) {
	a := newTestApi(&mockNode{
		viewErr: governance.NewInvalidProposalError(99),
	})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/proposals/99", nil,
	)
	req.SetPathValue("id", "99")
	w := httptest.NewRecorder()
	a.handleProposal(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleProposalInvalidId(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/proposals/abc", nil,
	)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	a.handleProposal(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleProposalState(t *testing.T) {
	a := newTestApi(&mockNode{
		state: governance.StatusSucceeded,
	})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/proposals/1/state", nil,
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleProposalState(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ProposalStateResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Id)
	assert.Equal(t, "succeeded", resp.Status)
}

func TestHandleVote(t *testing.T) {
	voter := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		view: governance.ProposalView{
			Proposal: governance.Proposal{
				Id:       1,
				ForVotes: 1,
			},
			Status: governance.StatusActive,
		},
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals/1/votes",
		voter,
		`{"support":true}`,
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleVote(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp VoteResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.ProposalId)
	assert.Equal(t, voter, resp.Voter)
	assert.True(t, resp.Support)
	assert.Equal(t, uint64(1), resp.ForVotes)
}

func TestHandleVoteMissingSupport(t *testing.T) {
	voter := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals/1/votes",
		voter,
		`{}`,
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleVote(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "support")
}

func TestHandleVoteAlreadyVoted(t *testing.T) {
	voter := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		voteErr: governance.NewAlreadyVotedError(1, voter),
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals/1/votes",
		voter,
		`{"support":false}`,
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleVote(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleVoteEnded(t *testing.T) {
	voter := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		voteErr: governance.ErrVotingEnded,
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals/1/votes",
		voter,
		`{"support":true}`,
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleVote(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleVoteStatus(t *testing.T) {
	voter := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{hasVoted: true})

	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/proposals/1/votes/"+voter.String(),
		nil,
	)
	req.SetPathValue("id", "1")
	req.SetPathValue("voter", voter.String())
	w := httptest.NewRecorder()
	a.handleVoteStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp VoteStatusResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.ProposalId)
	assert.Equal(t, voter, resp.Voter)
	assert.True(t, resp.HasVoted)
}

func TestHandleVoteStatusInvalidVoter(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/proposals/1/votes/nothex",
		nil,
	)
	req.SetPathValue("id", "1")
	req.SetPathValue("voter", "nothex")
	w := httptest.NewRecorder()
	a.handleVoteStatus(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExecuteProposal(t *testing.T) {
	caller := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		view: governance.ProposalView{
			Proposal: governance.Proposal{
				Id:       1,
				ForVotes: 2,
				Executed: true,
			},
			Status: governance.StatusExecuted,
		},
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals/1/execute",
		caller,
		"",
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleExecuteProposal(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ProposalResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.Executed)
	assert.Equal(t, "executed", resp.Status)
}

func TestHandleExecuteProposalNotEnded(t *testing.T) {
	caller := testIdentity(t, 0x01)
	a := newTestApi(&mockNode{
		executeErr: governance.ErrVotingNotEnded,
	})

	req := identityRequest(
		http.MethodPost,
		"/v1/proposals/1/execute",
		caller,
		"",
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleExecuteProposal(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleEvents(t *testing.T) {
	now := time.Unix(1000, 0).UTC()
	a := newTestApi(&mockNode{
		events: []database.JournalRecord{
			{
				Seq:       1,
				Type:      "registry.member_added",
				Timestamp: now,
				Data:      json.RawMessage(`{"k":"v"}`),
			},
		},
		lastSeq: 1,
	})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/events?from=1&limit=10", nil,
	)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp EventsResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, uint64(1), resp.Events[0].Seq)
	assert.Equal(
		t,
		"registry.member_added",
		resp.Events[0].Type,
	)
	assert.Equal(t, uint64(1), resp.LastSeq)
}

func TestHandleEventsInvalidParams(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/events?from=abc", nil,
	)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(
		http.MethodGet, "/v1/events?limit=0", nil,
	)
	w = httptest.NewRecorder()
	a.handleEvents(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEventsInternalError(t *testing.T) {
	a := newTestApi(&mockNode{
		eventsErr: errors.New("disk on fire"),
	})

	req := httptest.NewRequest(
		http.MethodGet, "/v1/events", nil,
	)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal error details stay out of the response body
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestErrorStatus(t *testing.T) {
	member := testIdentity(t, 0x01)
	testDefs := []struct {
		err    error
		status int
	}{
		{registry.ErrUnauthorized, http.StatusForbidden},
		{governance.ErrUnauthorized, http.StatusForbidden},
		// Governance membership rejections unwrap to ErrUnauthorized
		{governance.NewNotMemberError(member), http.StatusForbidden},
		{registry.ErrInvalidIdentity, http.StatusBadRequest},
		{governance.ErrInvalidIdentity, http.StatusBadRequest},
		{
			governance.NewInvalidParameterError("quorum_bps", "20000"),
			http.StatusBadRequest,
		},
		{
			governance.NewInvalidProposalError(99),
			http.StatusNotFound,
		},
		{
			registry.NewAlreadyMemberError(member),
			http.StatusConflict,
		},
		{
			registry.NewNotMemberError(member),
			http.StatusConflict,
		},
		{
			governance.NewAlreadyVotedError(1, member),
			http.StatusConflict,
		},
		{governance.ErrVotingNotStarted, http.StatusConflict},
		{governance.ErrVotingEnded, http.StatusConflict},
		{governance.ErrVotingNotEnded, http.StatusConflict},
		{governance.ErrAlreadyExecuted, http.StatusConflict},
		{governance.ErrQuorumNotReached, http.StatusConflict},
		{governance.ErrInsufficientSupport, http.StatusConflict},
		{governance.ErrNoMembers, http.StatusConflict},
		{errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.status,
			errorStatus(testDef.err),
			"unexpected status for error: %v",
			testDef.err,
		)
	}
}
