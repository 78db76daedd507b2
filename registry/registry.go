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
	"bytes"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/identity"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MemberAddedEventType   event.EventType = "registry.member_added"
	MemberRemovedEventType event.EventType = "registry.member_removed"
	AdminChangedEventType  event.EventType = "registry.admin_changed"
)

type MemberAddedEvent struct {
	Member      identity.Identity
	MemberCount int
	Timestamp   time.Time
}

type MemberRemovedEvent struct {
	Member      identity.Identity
	MemberCount int
	Timestamp   time.Time
}

type AdminChangedEvent struct {
	PreviousAdmin identity.Identity
	NewAdmin      identity.Identity
	Timestamp     time.Time
}

// Store persists membership state. Load methods are called once at startup;
// mutating methods must commit each change atomically.
type Store interface {
	SetAdmin(admin identity.Identity) error
	AddMember(member identity.Identity, addedAt time.Time) error
	RemoveMember(member identity.Identity) error
	LoadAdmin() (identity.Identity, error)
	LoadMembers() ([]identity.Identity, error)
}

type RegistryConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Clock        clock.Clock
	Store        Store
	// Admin is the bootstrap admin identity used when the store has no
	// admin recorded (or no store is configured)
	Admin identity.Identity
}

// Registry tracks the privileged admin identity and the flat member set that
// gates all governance participation
type Registry struct {
	config  RegistryConfig
	metrics struct {
		members           prometheus.Gauge
		membershipChanges *prometheus.CounterVec
		adminChanges      prometheus.Counter
	}
	logger   *slog.Logger
	eventBus *event.EventBus
	clock    clock.Clock
	admin    identity.Identity
	members  map[identity.Identity]struct{}
	sync.RWMutex
}

func NewRegistry(config RegistryConfig) (*Registry, error) {
	r := &Registry{
		config:   config,
		eventBus: config.EventBus,
		members:  make(map[identity.Identity]struct{}),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		r.logger = config.Logger
	}
	if config.Clock == nil {
		r.clock = clock.New()
	} else {
		r.clock = config.Clock
	}
	if config.Store != nil {
		if err := r.load(); err != nil {
			return nil, err
		}
	}
	if r.admin.IsZero() {
		if config.Admin.IsZero() {
			return nil, errors.New("no admin identity configured")
		}
		r.admin = config.Admin
		// Record the bootstrap admin so later config changes don't silently
		// rotate the admin on restart
		if config.Store != nil {
			if err := config.Store.SetAdmin(r.admin); err != nil {
				return nil, err
			}
		}
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	r.metrics.members = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "agora_registry_members",
		Help: "current number of registered members",
	})
	r.metrics.membershipChanges = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_registry_membership_changes_total",
			Help: "total membership changes by operation",
		},
		[]string{"op"},
	)
	r.metrics.adminChanges = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_registry_admin_changes_total",
			Help: "total admin identity changes",
		},
	)
	r.metrics.members.Set(float64(len(r.members)))
	return r, nil
}

func (r *Registry) load() error {
	storedAdmin, err := r.config.Store.LoadAdmin()
	if err != nil {
		return err
	}
	r.admin = storedAdmin
	storedMembers, err := r.config.Store.LoadMembers()
	if err != nil {
		return err
	}
	for _, member := range storedMembers {
		r.members[member] = struct{}{}
	}
	return nil
}

// SetAdmin transfers the admin role to a new identity. Only the current
// admin may call this.
func (r *Registry) SetAdmin(caller identity.Identity, newAdmin identity.Identity) error {
	r.Lock()
	defer r.Unlock()
	if caller != r.admin {
		return ErrUnauthorized
	}
	if newAdmin.IsZero() {
		return ErrInvalidIdentity
	}
	if r.config.Store != nil {
		if err := r.config.Store.SetAdmin(newAdmin); err != nil {
			return err
		}
	}
	previousAdmin := r.admin
	r.admin = newAdmin
	r.metrics.adminChanges.Inc()
	r.logger.Info(
		"admin changed",
		"component", "registry",
		"previous_admin", previousAdmin,
		"new_admin", newAdmin,
	)
	r.publish(
		AdminChangedEventType,
		AdminChangedEvent{
			PreviousAdmin: previousAdmin,
			NewAdmin:      newAdmin,
			Timestamp:     r.clock.Now(),
		},
	)
	return nil
}

// AddMember registers a new member identity. Only the admin may call this.
func (r *Registry) AddMember(caller identity.Identity, member identity.Identity) error {
	r.Lock()
	defer r.Unlock()
	if caller != r.admin {
		return ErrUnauthorized
	}
	if member.IsZero() {
		return ErrInvalidIdentity
	}
	if _, ok := r.members[member]; ok {
		return NewAlreadyMemberError(member)
	}
	now := r.clock.Now()
	if r.config.Store != nil {
		if err := r.config.Store.AddMember(member, now); err != nil {
			return err
		}
	}
	r.members[member] = struct{}{}
	r.metrics.members.Inc()
	r.metrics.membershipChanges.WithLabelValues("add").Inc()
	r.logger.Info(
		"member added",
		"component", "registry",
		"member", member,
		"member_count", len(r.members),
	)
	r.publish(
		MemberAddedEventType,
		MemberAddedEvent{
			Member:      member,
			MemberCount: len(r.members),
			Timestamp:   now,
		},
	)
	return nil
}

// RemoveMember removes an existing member identity. Only the admin may call
// this. Votes already recorded by the removed member are unaffected.
func (r *Registry) RemoveMember(caller identity.Identity, member identity.Identity) error {
	r.Lock()
	defer r.Unlock()
	if caller != r.admin {
		return ErrUnauthorized
	}
	if _, ok := r.members[member]; !ok {
		return NewNotMemberError(member)
	}
	if r.config.Store != nil {
		if err := r.config.Store.RemoveMember(member); err != nil {
			return err
		}
	}
	delete(r.members, member)
	r.metrics.members.Dec()
	r.metrics.membershipChanges.WithLabelValues("remove").Inc()
	r.logger.Info(
		"member removed",
		"component", "registry",
		"member", member,
		"member_count", len(r.members),
	)
	r.publish(
		MemberRemovedEventType,
		MemberRemovedEvent{
			Member:      member,
			MemberCount: len(r.members),
			Timestamp:   r.clock.Now(),
		},
	)
	return nil
}

// IsMember reports whether the given identity is currently a member
func (r *Registry) IsMember(id identity.Identity) bool {
	r.RLock()
	defer r.RUnlock()
	_, ok := r.members[id]
	return ok
}

// IsAdmin reports whether the given identity is the current admin
func (r *Registry) IsAdmin(id identity.Identity) bool {
	r.RLock()
	defer r.RUnlock()
	return !id.IsZero() && id == r.admin
}

func (r *Registry) Admin() identity.Identity {
	r.RLock()
	defer r.RUnlock()
	return r.admin
}

func (r *Registry) MemberCount() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.members)
}

// Members returns a sorted snapshot of the current member set
func (r *Registry) Members() []identity.Identity {
	r.RLock()
	defer r.RUnlock()
	ret := make([]identity.Identity, 0, len(r.members))
	for member := range r.members {
		ret = append(ret, member)
	}
	slices.SortFunc(ret, func(a, b identity.Identity) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return ret
}

func (r *Registry) publish(eventType event.EventType, data any) {
	if r.eventBus == nil {
		return
	}
	r.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}
