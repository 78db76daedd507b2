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

package database

import (
	"time"

	"github.com/blinklabs-io/agora/identity"
)

// SetAdmin persists the admin credential, replacing any previous one
func (d *Database) SetAdmin(admin identity.Identity) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	if err := d.metadata.SetAdmin(admin.Bytes(), txn.Metadata()); err != nil {
		return err
	}
	return txn.Commit()
}

// AddMember persists a member credential
func (d *Database) AddMember(
	member identity.Identity,
	addedAt time.Time,
) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	if err := d.metadata.AddMember(
		member.Bytes(),
		addedAt,
		txn.Metadata(),
	); err != nil {
		return err
	}
	return txn.Commit()
}

// RemoveMember deletes a member credential
func (d *Database) RemoveMember(member identity.Identity) error {
	txn := d.Transaction(true)
	defer txn.Rollback() //nolint:errcheck
	if err := d.metadata.RemoveMember(
		member.Bytes(),
		txn.Metadata(),
	); err != nil {
		return err
	}
	return txn.Commit()
}

// LoadAdmin retrieves the stored admin credential. Returns the null identity
// if no admin has been recorded yet.
func (d *Database) LoadAdmin() (identity.Identity, error) {
	credential, err := d.metadata.GetAdmin(nil)
	if err != nil {
		return identity.Identity{}, err
	}
	if credential == nil {
		return identity.Identity{}, nil
	}
	return identity.NewIdentityFromBytes(credential)
}

// LoadMembers retrieves all stored member credentials
func (d *Database) LoadMembers() ([]identity.Identity, error) {
	members, err := d.metadata.GetMembers(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]identity.Identity, 0, len(members))
	for _, member := range members {
		tmpIdentity, err := identity.NewIdentityFromBytes(member.Credential)
		if err != nil {
			return nil, err
		}
		ret = append(ret, tmpIdentity)
	}
	return ret, nil
}
