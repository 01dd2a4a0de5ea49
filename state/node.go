package state

import (
	"fmt"
	"slices"
)

type NodeId int

// RouteEntry is one row of a next-hop table: forward via Nh at the given
// path cost (hop count for the stored tables, weighted cost for on-demand
// congestion-aware queries).
type RouteEntry struct {
	Nh   NodeId
	Cost float64
}

// Node is a network device in the simulated topology. A node's queue holds
// references to the packets currently at the node; the canonical packet
// records live in the State registry.
type Node struct {
	Id    NodeId
	Label string
	X, Y  float64

	ManualCongestion float64 // user-set floor, [0,1]
	CongestionLevel  float64 // derived each refresh pass, [0,1]

	// RoutingTable maps destination -> next hop, recomputed on every
	// topology change. Unreachable destinations and the node itself are
	// absent.
	RoutingTable map[NodeId]RouteEntry

	Queue []*Packet

	PacketsProcessed int
	PacketsDropped   int
}

func NewNode(id NodeId, x, y float64) *Node {
	return &Node{
		Id:           id,
		Label:        fmt.Sprintf("N%d", id),
		X:            x,
		Y:            y,
		RoutingTable: make(map[NodeId]RouteEntry),
	}
}

func (n *Node) Enqueue(p *Packet) {
	if !slices.Contains(n.Queue, p) {
		n.Queue = append(n.Queue, p)
	}
}

func (n *Node) Unqueue(p *Packet) {
	idx := slices.Index(n.Queue, p)
	if idx != -1 {
		n.Queue = slices.Delete(n.Queue, idx, idx+1)
	}
}

func (n *Node) QueueLen() int {
	return len(n.Queue)
}
