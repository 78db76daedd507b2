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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	testDefs := []struct {
		name      string
		params    Params
		wantParam string
	}{
		{
			name: "valid",
			params: Params{
				VotingPeriod:     100 * time.Second,
				QuorumBps:        2000,
				PassThresholdBps: 5001,
			},
		},
		{
			name: "zero bps allowed",
			params: Params{
				VotingPeriod:     time.Second,
				QuorumBps:        0,
				PassThresholdBps: 0,
			},
		},
		{
			name: "max bps allowed",
			params: Params{
				VotingPeriod:     time.Second,
				QuorumBps:        MaxBps,
				PassThresholdBps: MaxBps,
			},
		},
		{
			name: "zero voting period",
			params: Params{
				VotingPeriod:     0,
				QuorumBps:        2000,
				PassThresholdBps: 5000,
			},
			wantParam: "voting_period",
		},
		{
			name: "negative voting period",
			params: Params{
				VotingPeriod:     -time.Second,
				QuorumBps:        2000,
				PassThresholdBps: 5000,
			},
			wantParam: "voting_period",
		},
		{
			name: "fractional voting period",
			params: Params{
				VotingPeriod:     1500 * time.Millisecond,
				QuorumBps:        2000,
				PassThresholdBps: 5000,
			},
			wantParam: "voting_period",
		},
		{
			name: "quorum above max",
			params: Params{
				VotingPeriod:     time.Second,
				QuorumBps:        MaxBps + 1,
				PassThresholdBps: 5000,
			},
			wantParam: "quorum_bps",
		},
		{
			name: "threshold above max",
			params: Params{
				VotingPeriod:     time.Second,
				QuorumBps:        2000,
				PassThresholdBps: MaxBps + 1,
			},
			wantParam: "pass_threshold_bps",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := testDef.params.Validate()
			if testDef.wantParam == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var paramErr InvalidParameterError
			require.True(t, errors.As(err, &paramErr))
			assert.Equal(t, testDef.wantParam, paramErr.Param())
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "active", StatusActive.String())
	assert.Equal(t, "no_members", StatusNoMembers.String())
	assert.Equal(t, "quorum_not_reached", StatusQuorumNotReached.String())
	assert.Equal(t, "insufficient_support", StatusInsufficientSupport.String())
	assert.Equal(t, "succeeded", StatusSucceeded.String())
	assert.Equal(t, "executed", StatusExecuted.String())
}

func TestStatusFailed(t *testing.T) {
	assert.True(t, StatusQuorumNotReached.Failed())
	assert.True(t, StatusInsufficientSupport.Failed())
	assert.False(t, StatusActive.Failed())
	assert.False(t, StatusSucceeded.Failed())
	assert.False(t, StatusExecuted.Failed())
	assert.False(t, StatusNoMembers.Failed())
}

func TestEvaluateStatus(t *testing.T) {
	start := time.Unix(1000, 0)
	end := start.Add(100 * time.Second)
	params := Params{
		VotingPeriod:     100 * time.Second,
		QuorumBps:        2000,
		PassThresholdBps: 5000,
	}
	base := Proposal{
		Id:        1,
		StartTime: start,
		EndTime:   end,
	}

	testDefs := []struct {
		name        string
		proposal    func() Proposal
		memberCount uint64
		params      Params
		now         time.Time
		want        Status
	}{
		{
			name:        "executed short circuits",
			proposal:    func() Proposal { p := base; p.Executed = true; return p },
			memberCount: 0,
			params:      params,
			now:         start,
			want:        StatusExecuted,
		},
		{
			name:        "no members",
			proposal:    func() Proposal { return base },
			memberCount: 0,
			params:      params,
			now:         end.Add(time.Second),
			want:        StatusNoMembers,
		},
		{
			name:        "active at start",
			proposal:    func() Proposal { return base },
			memberCount: 10,
			params:      params,
			now:         start,
			want:        StatusActive,
		},
		{
			name:        "active at exact end",
			proposal:    func() Proposal { return base },
			memberCount: 10,
			params:      params,
			now:         end,
			want:        StatusActive,
		},
		{
			name:        "no members mid window stays active",
			proposal:    func() Proposal { return base },
			memberCount: 0,
			params:      params,
			now:         start.Add(50 * time.Second),
			want:        StatusActive,
		},
		{
			name: "quorum met exactly",
			// 10 members at 2000 bps requires 2 votes: 2*10000 == 10*2000.
			// One of two votes in favor meets a 5000 bps threshold
			// inclusively: 1*10000 >= 2*5000
			proposal: func() Proposal {
				p := base
				p.ForVotes = 1
				p.AgainstVotes = 1
				return p
			},
			memberCount: 10,
			params:      params,
			now:         end.Add(time.Second),
			want:        StatusSucceeded,
		},
		{
			name: "quorum missed by one",
			proposal: func() Proposal {
				p := base
				p.ForVotes = 1
				return p
			},
			memberCount: 10,
			params:      params,
			now:         end.Add(time.Second),
			want:        StatusQuorumNotReached,
		},
		{
			name: "threshold met exactly",
			// 51 of 100 votes at 5100 bps: 51*10000 == 100*5100
			proposal: func() Proposal {
				p := base
				p.ForVotes = 51
				p.AgainstVotes = 49
				return p
			},
			memberCount: 100,
			params: Params{
				VotingPeriod:     100 * time.Second,
				QuorumBps:        2000,
				PassThresholdBps: 5100,
			},
			now:  end.Add(time.Second),
			want: StatusSucceeded,
		},
		{
			name: "threshold missed",
			// 51 of 100 votes at 5200 bps: 510000 < 520000
			proposal: func() Proposal {
				p := base
				p.ForVotes = 51
				p.AgainstVotes = 49
				return p
			},
			memberCount: 100,
			params: Params{
				VotingPeriod:     100 * time.Second,
				QuorumBps:        2000,
				PassThresholdBps: 5200,
			},
			now:  end.Add(time.Second),
			want: StatusInsufficientSupport,
		},
		{
			name: "zero thresholds succeed with no votes",
			// Quorum of zero is satisfied with no votes, and a zero
			// threshold passes with zero for votes: 0*10000 >= 0*0
			proposal:    func() Proposal { return base },
			memberCount: 10,
			params: Params{
				VotingPeriod:     100 * time.Second,
				QuorumBps:        0,
				PassThresholdBps: 0,
			},
			now:  end.Add(time.Second),
			want: StatusSucceeded,
		},
		{
			name: "unanimous against",
			proposal: func() Proposal {
				p := base
				p.AgainstVotes = 10
				return p
			},
			memberCount: 10,
			params:      params,
			now:         end.Add(time.Second),
			want:        StatusInsufficientSupport,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			got := evaluateStatus(
				testDef.proposal(),
				testDef.memberCount,
				testDef.params,
				testDef.now,
			)
			assert.Equal(t, testDef.want, got)
		})
	}
}

func TestEvaluateStatusQuorumExact(t *testing.T) {
	// memberCount=10, quorumBps=2000: two votes meet quorum exactly
	// (2*10000 == 10*2000), and with both votes in favor the proposal
	// succeeds
	start := time.Unix(1000, 0)
	p := Proposal{
		Id:           1,
		StartTime:    start,
		EndTime:      start.Add(100 * time.Second),
		ForVotes:     2,
		AgainstVotes: 0,
	}
	params := Params{
		VotingPeriod:     100 * time.Second,
		QuorumBps:        2000,
		PassThresholdBps: 5000,
	}
	got := evaluateStatus(p, 10, params, p.EndTime.Add(time.Second))
	assert.Equal(t, StatusSucceeded, got)
}

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}
