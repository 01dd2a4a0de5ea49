package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/encodeous/packetsim/mock"
	"github.com/encodeous/packetsim/state"
	"github.com/iti/rngstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fastPacing shrinks the stepper pacing so integration tests finish quickly.
func fastPacing(t *testing.T) {
	t.Helper()
	base, scale, stagger := state.BaseStepDelay, state.DelayScale, state.BurstStagger
	state.BaseStepDelay = time.Millisecond
	state.DelayScale = 0
	state.BurstStagger = 0
	t.Cleanup(func() {
		state.BaseStepDelay, state.DelayScale, state.BurstStagger = base, scale, stagger
	})
}

// startSim runs a full engine in the background and waits for its main loop,
// the same way cmd waits before feeding demo traffic.
func startSim(t *testing.T, cfg state.SimCfg) (*state.State, *Handle, *recordingSink, chan error) {
	t.Helper()
	sink := &recordingSink{}
	ready := make(chan *state.State, 1)
	done := make(chan error, 1)
	go func() {
		done <- Start(cfg, slog.LevelError, "", sink, ready)
	}()
	var st *state.State
	select {
	case st = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not start")
	}
	waitFor(t, st.Started.Load, "main loop did not start")
	return st, NewHandle(st.Env), sink, done
}

func shutdown(t *testing.T, st *state.State, done chan error) {
	t.Helper()
	st.Cancel(context.Canceled)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPacketRunsToTerminalState(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, sink, done := startSim(t, mock.DefaultSimCfg())

	pv, err := h.CreatePacket(0, 5, 512)
	require.NoError(t, err)
	assert.Equal(t, state.StatusInTransit, pv.Status)
	assert.Equal(t, []state.NodeId{0}, pv.Path)

	var final state.Snapshot
	waitFor(t, func() bool {
		snap, err := h.Snapshot()
		require.NoError(t, err)
		final = snap
		return snap.Stats.DeliveredPackets+snap.Stats.DroppedPackets == 1
	}, "packet never reached a terminal state")

	assert.Equal(t, 1, final.Stats.TotalPackets)
	assert.Empty(t, final.Packets, "terminal packets leave the in-flight set")
	if final.Stats.DeliveredPackets == 1 {
		// shortest route 0 to 5 is three hops
		assert.GreaterOrEqual(t, final.Stats.AverageHops, 3.0)
		assert.LessOrEqual(t, final.Stats.AverageHops, float64(state.DefaultTTL))
	}

	// every recorded step belongs to this packet and the trace is contiguous
	steps := sink.StepsFor(pv.Id)
	require.NotEmpty(t, steps)
	last := steps[len(steps)-1]
	assert.NotEqual(t, state.OutcomeForwarded, last.Outcome)
	for _, res := range steps[:len(steps)-1] {
		assert.Equal(t, state.OutcomeForwarded, res.Outcome)
	}

	// the retention cache still resolves the retired packet
	item := Get[*Driver](st).Terminated.Get(pv.Id)
	require.NotNil(t, item)
	assert.True(t, item.Value().Status == state.StatusDelivered || item.Value().Status == state.StatusDropped)

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

func TestCreatePacketRejectsInvalidEndpoints(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, _, done := startSim(t, mock.DefaultSimCfg())

	_, err := h.CreatePacket(2, 2, 512)
	require.ErrorIs(t, err, state.ErrInvalidEndpoints)
	_, err = h.CreatePacket(0, 99, 512)
	require.ErrorIs(t, err, state.ErrInvalidEndpoints)
	_, err = h.CreatePacket(99, 0, 512)
	require.ErrorIs(t, err, state.ErrInvalidEndpoints)

	snap, err := h.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snap.Stats.TotalPackets, "failed sends must not register packets")
	assert.Empty(t, snap.Packets)

	// rejection is not fatal: the engine keeps serving commands
	require.NoError(t, st.Context.Err())
	pv, err := h.CreatePacket(0, 5, 512)
	require.NoError(t, err)
	assert.Equal(t, state.StatusInTransit, pv.Status)

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

func TestStaleStepperIgnoresReusedPacketId(t *testing.T) {
	s, _ := newTestSim(lineCfg(2), &scriptRand{fill: 0.99})
	d := &Driver{}
	require.NoError(t, d.Init(s))
	defer d.Cleanup(s)

	stale := registerPacket(s, 0, 1, 512)

	// reset rebuilds the world and restarts the id allocator, so a new
	// packet comes up under the old id
	s.Clear()
	BuildTopology(s, s.Cfg)
	replacement := registerPacket(s, 0, 1, 512)
	require.Equal(t, stale.Id, replacement.Id)

	// a stepper that slept across the reset must not drive the newcomer
	res := d.tick(s, stale)
	assert.Equal(t, state.StepResult{}, res)
	assert.Equal(t, 0, replacement.Hops)
	assert.Equal(t, state.NodeId(0), replacement.CurrentNode)

	// the replacement's own stepper still advances it
	res = d.tick(s, replacement)
	assert.Equal(t, state.OutcomeForwarded, res.Outcome)
	assert.Equal(t, 1, replacement.Hops)
}

func TestSendBurst(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, sink, done := startSim(t, mock.DefaultSimCfg())

	created, err := h.SendBurst(0, 5, 3, 256)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	waitFor(t, func() bool {
		snap, err := h.Snapshot()
		require.NoError(t, err)
		return snap.Stats.DeliveredPackets+snap.Stats.DroppedPackets == 3
	}, "burst packets never all terminated")

	createdEvents := 0
	for _, ev := range sink.All() {
		if _, ok := ev.(state.PacketCreated); ok {
			createdEvents++
		}
	}
	assert.Equal(t, 3, createdEvents)

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

func TestHandleTopologyCommands(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, sink, done := startSim(t, mock.DefaultSimCfg())

	n, err := h.AddNode(1000, 400)
	require.NoError(t, err)
	assert.Equal(t, state.NodeId(6), n.Id)

	ok, err := h.AddEdge(6, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.AddEdge(6, 5)
	require.NoError(t, err)
	assert.False(t, ok, "duplicate edge")

	snap, err := h.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 7)
	// the new node is routable from everywhere
	for _, nv := range snap.Nodes {
		if nv.Id == 6 {
			continue
		}
		assert.Contains(t, nv.RoutingTable, state.NodeId(6), "node %d has no route to 6", nv.Id)
	}

	ok, err = h.RemoveEdge(5, 6)
	require.NoError(t, err)
	assert.True(t, ok, "either orientation removes the edge")
	ok, err = h.RemoveNode(6)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.RemoveNode(6)
	require.NoError(t, err)
	assert.False(t, ok)

	kinds := map[string]bool{}
	for _, ev := range sink.All() {
		kinds[ev.Kind()] = true
	}
	for _, want := range []string{"node_added", "edge_added", "edge_removed", "node_removed"} {
		assert.True(t, kinds[want], "missing %s event", want)
	}

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

func TestSetManualCongestionValidation(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, _, done := startSim(t, mock.DefaultSimCfg())

	_, err := h.SetManualCongestion(1, math.NaN())
	require.Error(t, err)
	_, err = h.SetManualCongestion(1, math.Inf(1))
	require.Error(t, err)

	ok, err := h.SetManualCongestion(1, 0.7)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.SetManualCongestion(99, 0.7)
	require.NoError(t, err)
	assert.False(t, ok, "unknown node is a no-op")

	snap, err := h.Snapshot()
	require.NoError(t, err)
	for _, nv := range snap.Nodes {
		if nv.Id == 1 {
			assert.Equal(t, 0.7, nv.ManualCongestion)
		}
	}

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

func TestRandomTrafficPerturbsCongestion(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, sink, done := startSim(t, mock.DefaultSimCfg())

	require.NoError(t, h.ToggleRandomCongestion(true))
	_, err := h.CreatePacket(0, 5, 512)
	require.NoError(t, err)

	// with jitter enabled, refresh passes push idle nodes above zero
	waitFor(t, func() bool {
		for _, ev := range sink.All() {
			upd, ok := ev.(state.CongestionUpdated)
			if !ok {
				continue
			}
			for id, level := range upd.Levels {
				if level > 0 && id != 0 {
					return true
				}
			}
		}
		return false
	}, "no congestion perturbation observed")

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

func TestResetRestoresInitialWorld(t *testing.T) {
	opt := goleak.IgnoreCurrent()
	fastPacing(t)
	st, h, _, done := startSim(t, mock.DefaultSimCfg())

	_, err := h.SendBurst(0, 5, 3, 256)
	require.NoError(t, err)
	_, err = h.SetManualCongestion(1, 0.9)
	require.NoError(t, err)
	_, err = h.AddNode(1000, 400)
	require.NoError(t, err)

	require.NoError(t, h.Reset())

	snap, err := h.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 6)
	assert.Equal(t, state.Stats{}, snap.Stats)
	assert.Empty(t, snap.Packets)
	for _, nv := range snap.Nodes {
		assert.Zero(t, nv.ManualCongestion)
		assert.Zero(t, nv.PacketsProcessed)
	}

	// allocators restart from zero
	pv, err := h.CreatePacket(0, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, state.PacketId(0), pv.Id)
	assert.Equal(t, state.DefaultPacketSize, pv.Size)

	shutdown(t, st, done)
	goleak.VerifyNone(t, opt)
}

// Drop rates under heavy manual congestion must exceed the uncongested
// baseline. Each trial uses its own seeded stream so the comparison is
// reproducible.
func TestCongestionIncreasesDropRate(t *testing.T) {
	cfg := state.SimCfg{
		Nodes: []state.NodeCfg{{Id: 0}, {Id: 1}, {Id: 2}, {Id: 3}},
		Graph: []string{"0, 1", "1, 3", "0, 2", "2, 3"},
	}

	trial := func(seed string, congested bool) bool {
		s, _ := newTestSim(cfg, rngstream.New(seed))
		if congested {
			s.GetNode(1).ManualCongestion = 1.0
			s.GetNode(2).ManualCongestion = 1.0
		}
		p := registerPacket(s, 0, 3, 512)
		for i := 0; i <= state.DefaultTTL+1 && !p.Terminal(); i++ {
			RefreshCongestion(s)
			StepPacket(s, p)
		}
		require.True(t, p.Terminal(), "packet did not terminate within its TTL")
		return p.Status == state.StatusDropped
	}

	const trials = 150
	baseline, congested := 0, 0
	for i := 0; i < trials; i++ {
		if trial(fmt.Sprintf("baseline-%d", i), false) {
			baseline++
		}
		if trial(fmt.Sprintf("congested-%d", i), true) {
			congested++
		}
	}

	assert.Greater(t, congested, baseline,
		"congestion should raise drops (baseline %d, congested %d)", baseline, congested)
	assert.GreaterOrEqual(t, congested-baseline, trials/10,
		"drop rate gap too small (baseline %d, congested %d)", baseline, congested)
}
