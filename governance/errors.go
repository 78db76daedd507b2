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
	"fmt"

	"github.com/blinklabs-io/agora/identity"
)

var (
	ErrUnauthorized = errors.New(
		"caller is not authorized for this operation",
	)
	ErrInvalidIdentity = errors.New(
		"null identity supplied where a real one is required",
	)
	ErrVotingNotStarted = errors.New(
		"voting has not started for this proposal",
	)
	ErrVotingEnded = errors.New(
		"the voting window for this proposal has closed",
	)
	ErrVotingNotEnded = errors.New(
		"the voting window for this proposal is still open",
	)
	ErrAlreadyExecuted = errors.New(
		"proposal has already been executed",
	)
	ErrQuorumNotReached = errors.New(
		"participation did not reach the quorum",
	)
	ErrInsufficientSupport = errors.New(
		"for votes did not meet the pass threshold",
	)
	ErrNoMembers = errors.New(
		"no members are registered",
	)
)

type InvalidProposalError struct {
	id uint64
}

func NewInvalidProposalError(id uint64) InvalidProposalError {
	return InvalidProposalError{id: id}
}

func (e InvalidProposalError) Id() uint64 {
	return e.id
}

func (e InvalidProposalError) Error() string {
	return fmt.Sprintf("no proposal with id %d", e.id)
}

type NotMemberError struct {
	caller identity.Identity
}

func NewNotMemberError(caller identity.Identity) NotMemberError {
	return NotMemberError{caller: caller}
}

func (e NotMemberError) Caller() identity.Identity {
	return e.caller
}

func (e NotMemberError) Error() string {
	return fmt.Sprintf("identity %s is not a member", e.caller)
}

// Unwrap surfaces the authorization failure behind a membership rejection
func (e NotMemberError) Unwrap() error {
	return ErrUnauthorized
}

type AlreadyVotedError struct {
	voter identity.Identity
	id    uint64
}

func NewAlreadyVotedError(id uint64, voter identity.Identity) AlreadyVotedError {
	return AlreadyVotedError{id: id, voter: voter}
}

func (e AlreadyVotedError) Id() uint64 {
	return e.id
}

func (e AlreadyVotedError) Voter() identity.Identity {
	return e.voter
}

func (e AlreadyVotedError) Error() string {
	return fmt.Sprintf(
		"identity %s has already voted on proposal %d",
		e.voter,
		e.id,
	)
}

type InvalidParameterError struct {
	param string
	value string
}

func NewInvalidParameterError(param string, value string) InvalidParameterError {
	return InvalidParameterError{param: param, value: value}
}

func (e InvalidParameterError) Param() string {
	return e.param
}

func (e InvalidParameterError) Error() string {
	return fmt.Sprintf(
		"invalid governance parameter %s: %s",
		e.param,
		e.value,
	)
}
