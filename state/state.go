package state

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
)

type SimModule interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on the main loop goroutine.
type State struct {
	*Env
	Nodes    map[NodeId]*Node
	Edges    []Pair[NodeId, NodeId]
	InFlight map[PacketId]*Packet
	Stats    Stats
	Modules  map[string]SimModule

	// RandomTraffic adds a random perturbation to every congestion refresh.
	RandomTraffic bool

	nextNodeId   NodeId
	nextPacketId PacketId
}

// Env can be read from any goroutine.
type Env struct {
	DispatchChannel chan<- func(s *State) error
	Cfg             SimCfg
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
	Sink            Sink
	Rand            UniformSource
	Started         atomic.Bool
	Stopping        atomic.Bool
}

func (e *Env) Emit(ev Event) {
	if e.Sink != nil {
		e.Sink.Deliver(ev)
	}
}

func (s *State) GetNode(id NodeId) *Node {
	return s.Nodes[id]
}

// AllocateNodeId hands out the next unused node id.
func (s *State) AllocateNodeId() NodeId {
	id := s.nextNodeId
	s.nextNodeId++
	return id
}

// ObserveNodeId keeps the allocator ahead of explicitly supplied ids.
func (s *State) ObserveNodeId(id NodeId) {
	if id >= s.nextNodeId {
		s.nextNodeId = id + 1
	}
}

func (s *State) AllocatePacketId() PacketId {
	id := s.nextPacketId
	s.nextPacketId++
	return id
}

// HasEdge reports whether a and b are connected, in either orientation.
func (s *State) HasEdge(a, b NodeId) bool {
	return slices.ContainsFunc(s.Edges, func(e Pair[NodeId, NodeId]) bool {
		return e.V1 == a && e.V2 == b || e.V1 == b && e.V2 == a
	})
}

// Neighbours returns the ids adjacent to the given node.
func (s *State) Neighbours(id NodeId) []NodeId {
	nbrs := make([]NodeId, 0)
	for _, e := range s.Edges {
		if e.V1 == id {
			nbrs = append(nbrs, e.V2)
		} else if e.V2 == id {
			nbrs = append(nbrs, e.V1)
		}
	}
	return nbrs
}

// Clear empties the world: nodes, edges, in-flight packets, statistics and
// id allocators. Used by reset.
func (s *State) Clear() {
	s.Nodes = make(map[NodeId]*Node)
	s.Edges = nil
	s.InFlight = make(map[PacketId]*Packet)
	s.Stats = Stats{}
	s.RandomTraffic = false
	s.nextNodeId = 0
	s.nextPacketId = 0
}

// TakeSnapshot deep-copies the observable simulation state.
func (s *State) TakeSnapshot() Snapshot {
	snap := Snapshot{
		Nodes:   make([]NodeView, 0, len(s.Nodes)),
		Edges:   slices.Clone(s.Edges),
		Packets: make([]PacketView, 0, len(s.InFlight)),
		Stats:   s.Stats,
	}
	for _, n := range s.Nodes {
		snap.Nodes = append(snap.Nodes, n.View())
	}
	slices.SortFunc(snap.Nodes, func(a, b NodeView) int { return int(a.Id - b.Id) })
	for _, p := range s.InFlight {
		snap.Packets = append(snap.Packets, p.View())
	}
	slices.SortFunc(snap.Packets, func(a, b PacketView) int { return int(a.Id - b.Id) })
	return snap
}
