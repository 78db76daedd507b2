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
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EventQueueSize = 20
)

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

// Subscriber is a delivery abstraction that allows the EventBus to deliver
// events to in-memory channels and to storage- or network-backed consumers
// via the same interface. Implementations must ensure Close() is idempotent.
type Subscriber interface {
	Deliver(Event) error
	Close()
}

// channelSubscriber adapts a buffered channel to the Subscriber interface.
// Deliver never blocks: when the channel buffer is full the event is dropped
// and counted rather than stalling the publisher.
type channelSubscriber struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

func newChannelSubscriber(buffer int) *channelSubscriber {
	return &channelSubscriber{
		ch: make(chan Event, buffer),
	}
}

func (c *channelSubscriber) Deliver(evt Event) error {
	// Hold a read lock for the duration of the send so Close waits for
	// in-flight sends before closing the channel
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// ErrQueueFull is returned by Deliver when a subscriber queue is full and the
// event was dropped
var ErrQueueFull = fmt.Errorf("subscriber queue full")

type EventBus struct {
	subscribers map[EventType]map[EventSubscriberId]Subscriber
	metrics     *eventMetrics
	lastSubId   EventSubscriberId
	logger      *slog.Logger
	mu          sync.RWMutex
}

func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	e := &EventBus{
		subscribers: make(map[EventType]map[EventSubscriberId]Subscriber),
	}
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = logger
	}
	if promRegistry != nil {
		e.initMetrics(promRegistry)
	}
	return e
}

// Subscribe allows a consumer to receive events of a particular type via a channel
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	chSub := newChannelSubscriber(EventQueueSize)
	subId := e.lastSubId + 1
	e.lastSubId = subId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]Subscriber)
	}
	e.subscribers[eventType][subId] = chSub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType), "in-memory").
			Inc()
	}
	return subId, chSub.ch
}

// SubscribeFunc allows a consumer to receive events of a particular type via a
// callback function. A panic inside the handler is recovered so the delivery
// goroutine keeps processing subsequent events.
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	go func(evtCh <-chan Event, handlerFunc EventHandlerFunc) {
		for {
			evt, ok := <-evtCh
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						e.logger.Error(
							"panic in event handler",
							"component", "eventbus",
							"type", eventType,
							"error", r,
						)
					}
				}()
				handlerFunc(evt)
			}()
		}
	}(evtCh, handlerFunc)
	return subId
}

// RegisterSubscriber attaches an external Subscriber implementation for a
// particular event type and returns the assigned subscriber id
func (e *EventBus) RegisterSubscriber(
	eventType EventType,
	sub Subscriber,
) EventSubscriberId {
	e.mu.Lock()
	defer e.mu.Unlock()
	subId := e.lastSubId + 1
	e.lastSubId = subId
	if _, ok := e.subscribers[eventType]; !ok {
		e.subscribers[eventType] = make(map[EventSubscriberId]Subscriber)
	}
	e.subscribers[eventType][subId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType), "external").
			Inc()
	}
	return subId
}

// Unsubscribe stops delivery of events for a particular type for an existing subscriber
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	var subToClose Subscriber
	if evtTypeSubs, ok := e.subscribers[eventType]; ok {
		if sub, ok2 := evtTypeSubs[subId]; ok2 {
			subToClose = sub
			delete(evtTypeSubs, subId)
			if len(evtTypeSubs) == 0 {
				delete(e.subscribers, eventType)
			}
			if e.metrics != nil {
				e.metrics.subscribers.WithLabelValues(string(eventType), subscriberKind(sub)).
					Dec()
			}
		}
	}
	e.mu.Unlock()

	if subToClose != nil {
		subToClose.Close()
	}
}

// Publish sends an event of a particular type to all subscribers. Delivery
// never blocks the publisher: channel subscribers drop events when their
// queue is full, and a subscriber returning any other error is unregistered.
func (e *EventBus) Publish(eventType EventType, evt Event) {
	// Build subscriber list inside read lock to avoid map race condition
	e.mu.RLock()
	subs, ok := e.subscribers[eventType]
	type subItem struct {
		sub Subscriber
		id  EventSubscriberId
	}
	subList := make([]subItem, 0, len(subs))
	if ok {
		for id, sub := range subs {
			subList = append(subList, subItem{id: id, sub: sub})
		}
	}
	e.mu.RUnlock()
	for _, item := range subList {
		// Protect against panics inside subscriber Deliver implementations
		var deliverErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					deliverErr = fmt.Errorf("subscriber deliver panic: %v", r)
				}
			}()
			deliverErr = item.sub.Deliver(evt)
		}()
		if deliverErr == nil {
			continue
		}
		if e.metrics != nil {
			e.metrics.deliveryErrors.WithLabelValues(string(eventType), subscriberKind(item.sub)).
				Inc()
		}
		if deliverErr == ErrQueueFull {
			e.logger.Debug(
				"subscriber queue full, dropped event",
				"component", "eventbus",
				"type", eventType,
			)
			continue
		}
		// Unregister the failing subscriber
		e.Unsubscribe(eventType, item.id)
		e.logger.Debug(
			"unregistered subscriber after delivery error",
			"component", "eventbus",
			"type", eventType,
			"error", deliverErr,
		)
	}
	if e.metrics != nil {
		e.metrics.eventsTotal.WithLabelValues(string(eventType)).Inc()
	}
}

// Stop closes all subscribers and clears the subscribers map. This ensures
// that SubscribeFunc goroutines exit cleanly during shutdown. The EventBus
// can still accept new subscribers after Stop() is called.
func (e *EventBus) Stop() {
	e.mu.Lock()
	subsCopy := e.subscribers
	e.subscribers = make(map[EventType]map[EventSubscriberId]Subscriber)
	e.mu.Unlock()

	// Close subscribers outside of lock
	for _, evtTypeSubs := range subsCopy {
		for _, sub := range evtTypeSubs {
			sub.Close()
		}
	}

	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}

func subscriberKind(sub Subscriber) string {
	if _, ok := sub.(*channelSubscriber); ok {
		return "in-memory"
	}
	return "external"
}
