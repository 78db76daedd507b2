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

package event

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingSubscriber struct {
	closed bool
}

func (m *failingSubscriber) Deliver(evt Event) error {
	return errors.New("deliver failed")
}

func (m *failingSubscriber) Close() {
	m.closed = true
}

func TestDeliverFailureUnregisters(t *testing.T) {
	eb := NewEventBus(nil, nil)
	sub := &failingSubscriber{}
	subId := eb.RegisterSubscriber("test.fail", sub)
	require.NotZero(t, subId)
	// Publish should cause a deliver failure and unregister the subscriber
	eb.Publish("test.fail", NewEvent("test.fail", "x"))
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if subs, ok := eb.subscribers["test.fail"]; ok {
		_, exists := subs[subId]
		require.False(t, exists, "expected subscriber removal after deliver failure")
	}
	require.True(t, sub.closed, "expected subscriber Close() after deliver failure")
}

func TestChannelSubscriberDropsWhenFull(t *testing.T) {
	const bufferSize = 5
	sub := newChannelSubscriber(bufferSize)
	for i := range bufferSize {
		require.NoError(t, sub.Deliver(NewEvent("test", i)))
	}
	// Buffer is full: the next Deliver must drop instead of blocking
	err := sub.Deliver(NewEvent("test", "overflow"))
	require.ErrorIs(t, err, ErrQueueFull)
	// The buffered events are intact and the overflow event is absent
	for i := range bufferSize {
		select {
		case evt := <-sub.ch:
			require.Equal(t, i, evt.Data)
		default:
			t.Fatalf("expected %d buffered events, got %d", bufferSize, i)
		}
	}
	select {
	case <-sub.ch:
		t.Fatal("overflow event should have been dropped")
	default:
	}
}

func TestChannelSubscriberDeliverAfterClose(t *testing.T) {
	sub := newChannelSubscriber(1)
	sub.Close()
	// Idempotent
	sub.Close()
	require.NoError(t, sub.Deliver(NewEvent("test", "late")))
}

func TestPublishDoesNotBlockOnFullChannel(t *testing.T) {
	eb := NewEventBus(nil, nil)
	typ := EventType("deadlock.test")
	_, ch := eb.Subscribe(typ)

	// Fill the subscriber's channel buffer completely
	for range EventQueueSize {
		eb.Publish(typ, NewEvent(typ, "fill"))
	}

	// The next Publish must complete without blocking
	done := make(chan struct{})
	go func() {
		defer close(done)
		eb.Publish(typ, NewEvent(typ, "overflow"))
	}()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond,
		"Publish should not block when subscriber channel is full",
	)

	// Drain the buffered events; the overflow event was dropped
	for drained := 0; drained < EventQueueSize; drained++ {
		select {
		case <-ch:
		default:
			t.Fatalf("expected %d buffered events, got %d", EventQueueSize, drained)
		}
	}
	select {
	case <-ch:
		t.Fatal("overflow event should have been dropped")
	default:
	}
	eb.Stop()
}
