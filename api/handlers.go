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
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/identity"
	"github.com/blinklabs-io/agora/registry"
)

// IdentityHeaderName is the request header carrying the hex-encoded caller
// identity.
const IdentityHeaderName = "X-Agora-Identity"

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response body.
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// errorStatus maps engine errors onto HTTP status codes. Authorization
// failures are 403, validation failures 400, unknown proposals 404, and
// state conflicts 409. Governance membership rejections unwrap to
// ErrUnauthorized and land on 403 through the first case. Anything
// unrecognized is treated as internal.
func errorStatus(err error) int {
	var (
		alreadyMemberErr   registry.AlreadyMemberError
		notMemberErr       registry.NotMemberError
		alreadyVotedErr    governance.AlreadyVotedError
		invalidProposalErr governance.InvalidProposalError
		invalidParamErr    governance.InvalidParameterError
	)
	switch {
	case errors.Is(err, registry.ErrUnauthorized),
		errors.Is(err, governance.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrInvalidIdentity),
		errors.Is(err, governance.ErrInvalidIdentity),
		errors.As(err, &invalidParamErr):
		return http.StatusBadRequest
	case errors.As(err, &invalidProposalErr):
		return http.StatusNotFound
	case errors.As(err, &alreadyMemberErr),
		errors.As(err, &notMemberErr),
		errors.As(err, &alreadyVotedErr),
		errors.Is(err, governance.ErrVotingNotStarted),
		errors.Is(err, governance.ErrVotingEnded),
		errors.Is(err, governance.ErrVotingNotEnded),
		errors.Is(err, governance.ErrAlreadyExecuted),
		errors.Is(err, governance.ErrQuorumNotReached),
		errors.Is(err, governance.ErrInsufficientSupport),
		errors.Is(err, governance.ErrNoMembers):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError maps an engine error onto an HTTP error response.
// Internal errors are logged and their details kept out of the body.
func (a *Api) writeEngineError(
	w http.ResponseWriter,
	err error,
) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// callerIdentity extracts the caller identity from the request header.
func callerIdentity(
	r *http.Request,
) (identity.Identity, error) {
	raw := r.Header.Get(IdentityHeaderName)
	if raw == "" {
		return identity.Identity{}, errors.New(
			"missing " + IdentityHeaderName + " header",
		)
	}
	return identity.NewIdentityFromHex(raw)
}

// proposalIdFromPath parses the {id} path segment.
func proposalIdFromPath(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

// proposalResponse maps a proposal view onto its response form.
func proposalResponse(
	view governance.ProposalView,
) ProposalResponse {
	return ProposalResponse{
		Id:           view.Proposal.Id,
		Proposer:     view.Proposal.Proposer,
		Description:  view.Proposal.Description,
		StartTime:    view.Proposal.StartTime,
		EndTime:      view.Proposal.EndTime,
		ForVotes:     view.Proposal.ForVotes,
		AgainstVotes: view.Proposal.AgainstVotes,
		Executed:     view.Proposal.Executed,
		Status:       view.Status.String(),
	}
}

// handleHealth handles GET /v1/health and returns liveness
// status.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleListMembers handles GET /v1/members and returns the
// admin, the member count, and all members.
func (a *Api) handleListMembers(
	w http.ResponseWriter,
	_ *http.Request,
) {
	members := a.node.Members()
	if members == nil {
		members = []identity.Identity{}
	}
	writeJSON(w, http.StatusOK, MembersResponse{
		Admin:       a.node.Admin(),
		MemberCount: a.node.MemberCount(),
		Members:     members,
	})
}

// handleAddMember handles POST /v1/members and registers a
// new member. Admin only.
func (a *Api) handleAddMember(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid request body",
		)
		return
	}
	if err := a.node.AddMember(caller, req.Identity); err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MemberResponse{
		Identity: req.Identity,
		IsMember: true,
	})
}

// handleMemberStatus handles GET /v1/members/{id} and
// reports whether the identity is a member.
func (a *Api) handleMemberStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := identity.NewIdentityFromHex(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{
		Identity: id,
		IsMember: a.node.IsMember(id),
	})
}

// handleRemoveMember handles DELETE /v1/members/{id} and
// removes an existing member. Admin only.
func (a *Api) handleRemoveMember(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	member, err := identity.NewIdentityFromHex(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.node.RemoveMember(caller, member); err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberResponse{
		Identity: member,
		IsMember: false,
	})
}

// handleSetAdmin handles PUT /v1/admin and transfers the
// admin role. Admin only.
func (a *Api) handleSetAdmin(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid request body",
		)
		return
	}
	if err := a.node.SetAdmin(caller, req.Identity); err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminResponse{
		Admin: req.Identity,
	})
}

// handleParams handles GET /v1/params and returns the
// current governance parameters.
func (a *Api) handleParams(
	w http.ResponseWriter,
	_ *http.Request,
) {
	params := a.node.Params()
	writeJSON(w, http.StatusOK, ParamsResponse{
		// #nosec G115
		VotingPeriodSeconds: uint64(
			params.VotingPeriod / time.Second,
		),
		QuorumBps:        params.QuorumBps,
		PassThresholdBps: params.PassThresholdBps,
	})
}

// handleSetParams handles PUT /v1/params and replaces the
// governance parameters. Admin only.
func (a *Api) handleSetParams(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid request body",
		)
		return
	}
	// Reject periods that would overflow a time.Duration
	if req.VotingPeriodSeconds > math.MaxInt64/uint64(time.Second) {
		a.writeEngineError(
			w,
			governance.NewInvalidParameterError(
				"voting_period",
				strconv.FormatUint(req.VotingPeriodSeconds, 10),
			),
		)
		return
	}
	params := governance.Params{
		// #nosec G115
		VotingPeriod: time.Duration(
			req.VotingPeriodSeconds,
		) * time.Second,
		QuorumBps:        req.QuorumBps,
		PassThresholdBps: req.PassThresholdBps,
	}
	if err := a.node.SetParams(caller, params); err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ParamsResponse{
		VotingPeriodSeconds: req.VotingPeriodSeconds,
		QuorumBps:           req.QuorumBps,
		PassThresholdBps:    req.PassThresholdBps,
	})
}

// handleCreateProposal handles POST /v1/proposals and opens
// a new proposal. Members only.
func (a *Api) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid request body",
		)
		return
	}
	proposalId, err := a.node.CreateProposal(caller, req.Description)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	view, err := a.node.ProposalView(proposalId)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposalResponse(view))
}

// handleListProposals handles GET /v1/proposals and returns
// all proposals with their statuses.
func (a *Api) handleListProposals(
	w http.ResponseWriter,
	_ *http.Request,
) {
	views := a.node.ProposalViews()
	ret := make([]ProposalResponse, 0, len(views))
	for _, view := range views {
		ret = append(ret, proposalResponse(view))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleProposal handles GET /v1/proposals/{id} and returns
// a single proposal with its status.
func (a *Api) handleProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, err := proposalIdFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid proposal id",
		)
		return
	}
	view, err := a.node.ProposalView(proposalId)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(view))
}

// handleProposalState handles GET /v1/proposals/{id}/state
// and returns just the proposal status.
func (a *Api) handleProposalState(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, err := proposalIdFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid proposal id",
		)
		return
	}
	status, err := a.node.ProposalState(proposalId)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProposalStateResponse{
		Id:     proposalId,
		Status: status.String(),
	})
}

// handleVote handles POST /v1/proposals/{id}/votes and
// casts a vote. Members only.
func (a *Api) handleVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	proposalId, err := proposalIdFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid proposal id",
		)
		return
	}
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid request body",
		)
		return
	}
	if req.Support == nil {
		writeError(
			w,
			http.StatusBadRequest,
			"missing support field",
		)
		return
	}
	if err := a.node.Vote(caller, proposalId, *req.Support); err != nil {
		a.writeEngineError(w, err)
		return
	}
	view, err := a.node.ProposalView(proposalId)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, VoteResponse{
		ProposalId:   proposalId,
		Voter:        caller,
		Support:      *req.Support,
		ForVotes:     view.Proposal.ForVotes,
		AgainstVotes: view.Proposal.AgainstVotes,
	})
}

// handleVoteStatus handles
// GET /v1/proposals/{id}/votes/{voter} and reports whether
// the identity has voted.
func (a *Api) handleVoteStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalId, err := proposalIdFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid proposal id",
		)
		return
	}
	voter, err := identity.NewIdentityFromHex(r.PathValue("voter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hasVoted, err := a.node.HasVoted(proposalId, voter)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VoteStatusResponse{
		ProposalId: proposalId,
		Voter:      voter,
		HasVoted:   hasVoted,
	})
}

// handleExecuteProposal handles
// POST /v1/proposals/{id}/execute and marks a succeeded
// proposal as executed. Any caller may execute.
func (a *Api) handleExecuteProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	proposalId, err := proposalIdFromPath(r)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"invalid proposal id",
		)
		return
	}
	if err := a.node.ExecuteProposal(caller, proposalId); err != nil {
		a.writeEngineError(w, err)
		return
	}
	view, err := a.node.ProposalView(proposalId)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(view))
}

// handleEvents handles GET /v1/events and returns a page of
// event journal entries.
func (a *Api) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	from := uint64(1)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(
				w,
				http.StatusBadRequest,
				"invalid from parameter",
			)
			return
		}
		from = parsed
	}
	limit := defaultEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(
				w,
				http.StatusBadRequest,
				"invalid limit parameter",
			)
			return
		}
		limit = min(parsed, maxEventsLimit)
	}
	records, err := a.node.EventsSince(from, limit)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	events := make([]EventResponse, 0, len(records))
	for _, record := range records {
		events = append(events, EventResponse{
			Seq:       record.Seq,
			Type:      record.Type,
			Timestamp: record.Timestamp,
			Data:      record.Data,
		})
	}
	writeJSON(w, http.StatusOK, EventsResponse{
		Events:  events,
		LastSeq: a.node.LastEventSeq(),
	})
}
