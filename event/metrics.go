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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type eventMetrics struct {
	eventsTotal    *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveryErrors *prometheus.CounterVec
}

func (e *EventBus) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	e.metrics = &eventMetrics{}
	e.metrics.eventsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_eventbus_events_total",
			Help: "total events published by type",
		},
		[]string{"type"},
	)
	e.metrics.subscribers = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agora_eventbus_subscribers",
			Help: "current subscribers by type and kind",
		},
		[]string{"type", "kind"},
	)
	e.metrics.deliveryErrors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_eventbus_delivery_errors_total",
			Help: "total delivery errors and dropped events by type and kind",
		},
		[]string{"type", "kind"},
	)
}
