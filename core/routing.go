package core

import (
	"math"

	"github.com/encodeous/packetsim/state"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// The routing engine converts the topology into gonum graphs and lets
// graph/path do the shortest-path work. Two variants exist:
//
//   - plain: every traversal costs 1, so a shortest path minimizes hops.
//     Computed for every node on each topology change and stored as the
//     node's routing table.
//   - congestion-weighted: stepping into neighbour n costs
//     1 + congestionWeight*congestion(n). Since that cost depends on the
//     arc's head, this variant runs on a directed graph with one arc per
//     direction. Computed on demand for a single source when a reroute is
//     evaluated, never stored.

// hopGraph builds the unit-weight undirected graph of the current topology.
func hopGraph(s *state.State) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for id := range s.Nodes {
		g.AddNode(simple.Node(int64(id)))
	}
	for _, e := range s.Edges {
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(e.V1)),
			T: simple.Node(int64(e.V2)),
			W: 1.0,
		})
	}
	return g
}

// congestionGraph builds the directed graph whose arc a->b is weighted by
// b's current congestion level.
func congestionGraph(s *state.State, congestionWeight float64) *simple.WeightedDirectedGraph {
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for id := range s.Nodes {
		g.AddNode(simple.Node(int64(id)))
	}
	arc := func(from, to state.NodeId) {
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(from)),
			T: simple.Node(int64(to)),
			W: 1.0 + congestionWeight*s.Nodes[to].CongestionLevel,
		})
	}
	for _, e := range s.Edges {
		arc(e.V1, e.V2)
		arc(e.V2, e.V1)
	}
	return g
}

// nextHopTable runs Dijkstra rooted in src and backtracks each shortest-path
// sequence to its first hop. Unreachable destinations, and src itself, are
// omitted.
func nextHopTable(s *state.State, src state.NodeId, g graph.Graph) map[state.NodeId]state.RouteEntry {
	table := make(map[state.NodeId]state.RouteEntry)
	spTree := path.DijkstraFrom(simple.Node(int64(src)), g)
	for dst := range s.Nodes {
		if dst == src {
			continue
		}
		nodeSeq, cost := spTree.To(int64(dst))
		if len(nodeSeq) < 2 || math.IsInf(cost, 1) {
			continue
		}
		table[dst] = state.RouteEntry{
			Nh:   state.NodeId(nodeSeq[1].ID()),
			Cost: cost,
		}
	}
	return table
}

// RecomputeRoutingTables rebuilds the stored hop-count table of every node.
// Must be called after any topology mutation that should be reflected in
// forwarding.
func RecomputeRoutingTables(s *state.State) {
	g := hopGraph(s)
	for id, n := range s.Nodes {
		n.RoutingTable = nextHopTable(s, id, g)
	}
}

// CongestionAwareNextHop returns the first hop of the congestion-weighted
// shortest path from src to dst, or false when either endpoint is missing or
// no path exists.
func CongestionAwareNextHop(s *state.State, src, dst state.NodeId, congestionWeight float64) (state.NodeId, bool) {
	if _, ok := s.Nodes[src]; !ok {
		return 0, false
	}
	if _, ok := s.Nodes[dst]; !ok {
		return 0, false
	}
	g := congestionGraph(s, congestionWeight)
	entry, ok := nextHopTable(s, src, g)[dst]
	if !ok {
		return 0, false
	}
	return entry.Nh, true
}

// configuredCongestionWeight resolves the reroute weighting, falling back to
// the package default when the config leaves it unset.
func configuredCongestionWeight(s *state.State) float64 {
	if s.Cfg.CongestionWeight > 0 {
		return s.Cfg.CongestionWeight
	}
	return state.CongestionWeight
}
