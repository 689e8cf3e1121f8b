package engine

import (
	"context"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/probe"
)

// mockProber simulates a target server against a *clock.Mock: each Probe
// call advances the mock clock by a scripted RTT and returns the server's
// simulated Date-header instant (local + skew, truncated to whole seconds).
type mockProber struct {
	clk       *clock.Mock
	rtts      []time.Duration
	idx       int
	firstDone bool
	missing   bool // simulate no Date header at all
}

func newMockProber(clk *clock.Mock, rtts []time.Duration) *mockProber {
	return &mockProber{clk: clk, rtts: rtts}
}

func (m *mockProber) Probe(ctx context.Context, deadline time.Duration) (probe.Sample, *enginerr.SyncError) {
	if m.missing {
		return probe.Sample{}, enginerr.New(enginerr.KindMissingTimeSource, enginerr.PhaseNone)
	}

	rtt := m.rtts[m.idx%len(m.rtts)]
	m.idx++

	// The Date header reflects the server's clock at response generation,
	// which under a symmetric-latency assumption falls at the midpoint of
	// the round trip — the same assumption phase2/phase3/phase4 make when
	// they schedule sends at target-arrival-minus-half-RTT.
	send := m.clk.NowMonotonic()
	half := rtt / 2
	m.clk.Advance(half)
	server := m.clk.ServerNow()
	m.clk.Advance(rtt - half)
	recv := m.clk.NowMonotonic()

	first := !m.firstDone
	m.firstDone = true

	return probe.Sample{
		SendMonotonic:   send,
		RecvMonotonic:   recv,
		RTT:             rtt,
		ServerInstant:   server,
		FirstOnWarmConn: first,
	}, nil
}
