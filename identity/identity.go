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

package identity

import (
	"encoding/hex"
	"fmt"
)

// IdentitySize is the length in bytes of a participant credential
const IdentitySize = 28

// Identity is an opaque participant credential. The zero value is the null
// identity and is not valid for any registry or governance operation.
type Identity [IdentitySize]byte

type InvalidIdentityError struct {
	Value string
}

func (e *InvalidIdentityError) Error() string {
	return fmt.Sprintf("invalid identity: %s", e.Value)
}

// NewIdentityFromBytes creates an Identity from raw credential bytes
func NewIdentityFromBytes(data []byte) (Identity, error) {
	var ret Identity
	if len(data) != IdentitySize {
		return ret, &InvalidIdentityError{
			Value: fmt.Sprintf("%d bytes, expected %d", len(data), IdentitySize),
		}
	}
	copy(ret[:], data)
	return ret, nil
}

// NewIdentityFromHex creates an Identity from a hex-encoded credential
func NewIdentityFromHex(hexStr string) (Identity, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return Identity{}, &InvalidIdentityError{Value: hexStr}
	}
	return NewIdentityFromBytes(data)
}

func (i Identity) String() string {
	return hex.EncodeToString(i[:])
}

func (i Identity) Bytes() []byte {
	return i[:]
}

// IsZero returns true for the null identity
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// MarshalText implements encoding.TextMarshaler. Identities are rendered as
// hex in JSON bodies and as JSON object keys.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Identity) UnmarshalText(text []byte) error {
	tmpIdentity, err := NewIdentityFromHex(string(text))
	if err != nil {
		return err
	}
	*i = tmpIdentity
	return nil
}
