package core

import (
	"fmt"
	"math"

	"github.com/encodeous/packetsim/state"
)

// Handle is the command surface of a running simulation. It can be used from
// any goroutine: every call is serialized onto the main loop, so commands
// are mutually exclusive with packet steps and congestion refreshes.
type Handle struct {
	*state.Env
}

func NewHandle(env *state.Env) *Handle {
	return &Handle{Env: env}
}

// CreatePacket injects a packet and starts routing it. Fails when either
// endpoint is missing or source equals destination; nothing is registered on
// failure.
func (h *Handle) CreatePacket(source, destination state.NodeId, size int) (state.PacketView, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		p, err := Get[*Driver](s).CreatePacket(s, source, destination, size)
		if err != nil {
			return state.PacketView{}, err
		}
		return p.View(), nil
	})
	if err != nil {
		return state.PacketView{}, err
	}
	return res.(state.PacketView), nil
}

// SendBurst injects count packets between the same endpoints with staggered
// stepper starts. Returns how many were created.
func (h *Handle) SendBurst(source, destination state.NodeId, count, size int) (int, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		return Get[*Driver](s).CreateBurst(s, source, destination, count, size)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

// AddNode creates a node at the given display position with an auto-assigned
// id and recomputes routing.
func (h *Handle) AddNode(x, y float64) (state.NodeView, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		n := AddNode(s, -1, x, y)
		RecomputeRoutingTables(s)
		s.Emit(state.NodeAdded{Node: n.View()})
		return n.View(), nil
	})
	if err != nil {
		return state.NodeView{}, err
	}
	return res.(state.NodeView), nil
}

// RemoveNode deletes a node and its edges. Returns false if it was absent.
// In-flight packets at the node are left to discover the loss on their next
// step.
func (h *Handle) RemoveNode(id state.NodeId) (bool, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		if !RemoveNode(s, id) {
			return false, nil
		}
		s.Emit(state.NodeRemoved{Id: id})
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// AddEdge connects two nodes and recomputes routing. Idempotent no-op on
// invalid or duplicate input.
func (h *Handle) AddEdge(a, b state.NodeId) (bool, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		if !AddEdge(s, a, b) {
			return false, nil
		}
		RecomputeRoutingTables(s)
		s.Emit(state.EdgeAdded{A: a, B: b})
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// RemoveEdge disconnects two nodes and recomputes routing. Idempotent no-op
// if the edge is absent.
func (h *Handle) RemoveEdge(a, b state.NodeId) (bool, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		if !RemoveEdge(s, a, b) {
			return false, nil
		}
		RecomputeRoutingTables(s)
		s.Emit(state.EdgeRemoved{A: a, B: b})
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// SetManualCongestion sets a node's congestion floor, clamped to [0,1].
// Rejects non-finite values; no-op if the node is absent.
func (h *Handle) SetManualCongestion(id state.NodeId, value float64) (bool, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false, fmt.Errorf("congestion %v is not a finite value", value)
	}
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		return SetManualCongestion(s, id, value), nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// ToggleRandomCongestion flips the process-wide random traffic flag.
func (h *Handle) ToggleRandomCongestion(enabled bool) error {
	_, err := h.DispatchWait(func(s *state.State) (any, error) {
		s.RandomTraffic = enabled
		return nil, nil
	})
	return err
}

// Snapshot returns a deep copy of the observable simulation state.
func (h *Handle) Snapshot() (state.Snapshot, error) {
	res, err := h.DispatchWait(func(s *state.State) (any, error) {
		return s.TakeSnapshot(), nil
	})
	if err != nil {
		return state.Snapshot{}, err
	}
	return res.(state.Snapshot), nil
}

// Reset tears the world down and rebuilds it from the loaded config.
// Steppers of in-flight packets notice their packet left the registry and
// stop; a packet created after the reset under a reused id stays untouched
// by them.
func (h *Handle) Reset() error {
	_, err := h.DispatchWait(func(s *state.State) (any, error) {
		s.Clear()
		BuildTopology(s, s.Cfg)
		s.Emit(state.StatsUpdated{Stats: s.Stats})
		return nil, nil
	})
	return err
}
