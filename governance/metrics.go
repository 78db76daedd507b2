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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governorMetrics struct {
	proposals         prometheus.Gauge
	proposalsCreated  prometheus.Counter
	votesCast         prometheus.Counter
	proposalsExecuted prometheus.Counter
}

func (g *Governor) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	g.metrics.proposals = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "agora_governance_proposals",
		Help: "total number of proposals tracked",
	})
	g.metrics.proposalsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_proposals_created_total",
			Help: "total proposals created",
		},
	)
	g.metrics.votesCast = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_votes_cast_total",
			Help: "total votes cast",
		},
	)
	g.metrics.proposalsExecuted = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_proposals_executed_total",
			Help: "total proposals executed",
		},
	)
}
