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

package sqlite

import (
	"errors"
	"time"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	adminRowId = 1
)

// GetAdmin retrieves the current admin credential. Returns nil if no admin
// has been recorded yet.
func (d *MetadataStoreSqlite) GetAdmin(txn types.Txn) ([]byte, error) {
	var tmpAdmin models.Admin
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&tmpAdmin); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return tmpAdmin.Credential, nil
}

// SetAdmin records the admin credential, replacing any previous one
func (d *MetadataStoreSqlite) SetAdmin(
	credential []byte,
	txn types.Txn,
) error {
	tmpAdmin := models.Admin{
		ID:         adminRowId,
		Credential: credential,
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"credential"}),
	}).Create(&tmpAdmin)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetMembers retrieves all member records
func (d *MetadataStoreSqlite) GetMembers(
	txn types.Txn,
) ([]*models.Member, error) {
	var members []*models.Member
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id").Find(&members); result.Error != nil {
		return nil, result.Error
	}
	return members, nil
}

// AddMember creates a member record
func (d *MetadataStoreSqlite) AddMember(
	credential []byte,
	addedAt time.Time,
	txn types.Txn,
) error {
	tmpMember := models.Member{
		Credential: credential,
		AddedAt:    addedAt,
	}
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(&tmpMember); result.Error != nil {
		return result.Error
	}
	return nil
}

// RemoveMember deletes a member record by credential
func (d *MetadataStoreSqlite) RemoveMember(
	credential []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("credential = ?", credential).
		Delete(&models.Member{})
	if result.Error != nil {
		return result.Error
	}
	return nil
}
