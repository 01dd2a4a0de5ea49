package state

import "maps"

// Views are deep copies handed across the dispatch boundary: to event sinks,
// snapshot consumers and command callers. They never alias live engine state.

type NodeView struct {
	Id               NodeId
	Label            string
	X, Y             float64
	CongestionLevel  float64
	ManualCongestion float64
	QueueLen         int
	PacketsProcessed int
	PacketsDropped   int
	RoutingTable     map[NodeId]RouteEntry
}

type PacketView struct {
	Id          PacketId
	Source      NodeId
	Destination NodeId
	Size        int
	Color       string
	CurrentNode NodeId
	Path        []NodeId
	Status      Status
	Reason      DropReason
	Header      PacketHeader
	Hops        int
}

type Snapshot struct {
	Nodes   []NodeView
	Edges   []Pair[NodeId, NodeId]
	Packets []PacketView // in flight only
	Stats   Stats
}

func (n *Node) View() NodeView {
	return NodeView{
		Id:               n.Id,
		Label:            n.Label,
		X:                n.X,
		Y:                n.Y,
		CongestionLevel:  n.CongestionLevel,
		ManualCongestion: n.ManualCongestion,
		QueueLen:         len(n.Queue),
		PacketsProcessed: n.PacketsProcessed,
		PacketsDropped:   n.PacketsDropped,
		RoutingTable:     maps.Clone(n.RoutingTable),
	}
}

func (p *Packet) View() PacketView {
	path := make([]NodeId, len(p.Path))
	copy(path, p.Path)
	return PacketView{
		Id:          p.Id,
		Source:      p.Source,
		Destination: p.Destination,
		Size:        p.Size,
		Color:       p.Color,
		CurrentNode: p.CurrentNode,
		Path:        path,
		Status:      p.Status,
		Reason:      p.Reason,
		Header:      p.Header,
		Hops:        p.Hops,
	}
}
