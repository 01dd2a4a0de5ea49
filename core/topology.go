package core

import (
	"slices"

	"github.com/encodeous/packetsim/state"
)

// Topology mutation primitives. These only touch the store; routing-table
// recomputation is the caller's responsibility except for RemoveNode, which
// must leave no surviving table pointing at the departed node.

// AddNode creates a node. If id is negative a fresh id is allocated; if a
// node with the given id already exists it is returned unchanged.
func AddNode(s *state.State, id state.NodeId, x, y float64) *state.Node {
	if id < 0 {
		id = s.AllocateNodeId()
	} else if existing, ok := s.Nodes[id]; ok {
		return existing
	} else {
		s.ObserveNodeId(id)
	}
	n := state.NewNode(id, x, y)
	s.Nodes[id] = n
	return n
}

// RemoveNode deletes a node together with every edge touching it and
// recomputes all surviving routing tables. Returns false if the node does
// not exist. In-flight packets at the node are not cancelled; their next
// step observes the loss.
func RemoveNode(s *state.State, id state.NodeId) bool {
	if _, ok := s.Nodes[id]; !ok {
		return false
	}
	s.Edges = slices.DeleteFunc(s.Edges, func(e state.Pair[state.NodeId, state.NodeId]) bool {
		return e.V1 == id || e.V2 == id
	})
	delete(s.Nodes, id)
	RecomputeRoutingTables(s)
	return true
}

// AddEdge connects a and b. No-op unless both nodes exist, a != b and no
// edge already connects them in either orientation.
func AddEdge(s *state.State, a, b state.NodeId) bool {
	if a == b {
		return false
	}
	if _, ok := s.Nodes[a]; !ok {
		return false
	}
	if _, ok := s.Nodes[b]; !ok {
		return false
	}
	if s.HasEdge(a, b) {
		return false
	}
	s.Edges = append(s.Edges, state.Pair[state.NodeId, state.NodeId]{V1: a, V2: b})
	return true
}

// RemoveEdge disconnects a and b, matching either orientation. No-op if the
// edge is absent.
func RemoveEdge(s *state.State, a, b state.NodeId) bool {
	before := len(s.Edges)
	s.Edges = slices.DeleteFunc(s.Edges, func(e state.Pair[state.NodeId, state.NodeId]) bool {
		return e.V1 == a && e.V2 == b || e.V1 == b && e.V2 == a
	})
	return len(s.Edges) != before
}

// SetManualCongestion sets a node's congestion floor, clamped to [0,1].
// Returns false if the node is absent.
func SetManualCongestion(s *state.State, id state.NodeId, value float64) bool {
	n, ok := s.Nodes[id]
	if !ok {
		return false
	}
	n.ManualCongestion = clamp01(value)
	return true
}

func clamp01(v float64) float64 {
	return max(0.0, min(1.0, v))
}
