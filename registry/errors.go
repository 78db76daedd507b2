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

package registry

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
)

type AlreadyMemberError struct {
	member identity.Identity
}

func NewAlreadyMemberError(member identity.Identity) AlreadyMemberError {
	return AlreadyMemberError{member: member}
}

func (e AlreadyMemberError) Member() identity.Identity {
	return e.member
}

func (e AlreadyMemberError) Error() string {
	return fmt.Sprintf("identity %s is already a member", e.member)
}

type NotMemberError struct {
	member identity.Identity
}

func NewNotMemberError(member identity.Identity) NotMemberError {
	return NotMemberError{member: member}
}

func (e NotMemberError) Member() identity.Identity {
	return e.member
}

func (e NotMemberError) Error() string {
	return fmt.Sprintf("identity %s is not a member", e.member)
}
