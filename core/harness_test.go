package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/encodeous/packetsim/state"
)

// recordingSink captures every emitted event for assertions. Safe to read
// from the test goroutine while an engine is running.
type recordingSink struct {
	mu     sync.Mutex
	events []state.Event
}

func (r *recordingSink) Deliver(ev state.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) All() []state.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]state.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) Steps() []state.StepResult {
	steps := make([]state.StepResult, 0)
	for _, ev := range r.All() {
		if st, ok := ev.(state.PacketStepped); ok {
			steps = append(steps, st.Result)
		}
	}
	return steps
}

func (r *recordingSink) StepsFor(id state.PacketId) []state.StepResult {
	steps := make([]state.StepResult, 0)
	for _, st := range r.Steps() {
		if st.Packet.Id == id {
			steps = append(steps, st)
		}
	}
	return steps
}

func (r *recordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// scriptRand replays a fixed sequence of uniform draws, then keeps returning
// fill. RandInt always returns low, keeping header fields deterministic.
type scriptRand struct {
	u    []float64
	fill float64
	idx  int
}

func (r *scriptRand) RandU01() float64 {
	if r.idx < len(r.u) {
		v := r.u[r.idx]
		r.idx++
		return v
	}
	return r.fill
}

func (r *scriptRand) RandInt(low, high int) int {
	return low
}

// newTestSim builds a fully wired State for single-goroutine tests that call
// engine functions directly, bypassing the dispatch loop.
func newTestSim(cfg state.SimCfg, rng state.UniformSource) (*state.State, *recordingSink) {
	ctx, cancel := context.WithCancelCause(context.Background())
	dispatch := make(chan func(*state.State) error, 128)
	sink := &recordingSink{}
	s := &state.State{
		Nodes:    make(map[state.NodeId]*state.Node),
		InFlight: make(map[state.PacketId]*state.Packet),
		Modules:  make(map[string]state.SimModule),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			Cfg:             cfg,
			Log:             slog.New(slog.DiscardHandler),
			Sink:            sink,
			Rand:            rng,
		},
	}
	BuildTopology(s, cfg)
	return s, sink
}

// registerPacket creates a packet without spawning a stepper, for tests that
// drive StepPacket by hand.
func registerPacket(s *state.State, src, dst state.NodeId, size int) *state.Packet {
	p := state.NewPacket(s.AllocatePacketId(), src, dst, size, s.Rand)
	s.InFlight[p.Id] = p
	s.Nodes[src].Enqueue(p)
	s.Stats.TotalPackets++
	return p
}

func lineCfg(n int) state.SimCfg {
	cfg := state.SimCfg{}
	for i := 0; i < n; i++ {
		cfg.Nodes = append(cfg.Nodes, state.NodeCfg{Id: state.NodeId(i), X: float64(i) * 100, Y: 0})
		if i > 0 {
			cfg.Graph = append(cfg.Graph, stringEdge(i-1, i))
		}
	}
	return cfg
}

func stringEdge(a, b int) string {
	return fmt.Sprintf("%d, %d", a, b)
}
