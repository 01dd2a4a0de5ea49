package state

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NodeCfg declares one node of the starting topology. Position is cosmetic,
// Congestion is the manual congestion floor.
type NodeCfg struct {
	Id         NodeId
	X          float64
	Y          float64
	Congestion float64 `yaml:",omitempty"`
}

// SimCfg is the YAML-loadable simulation configuration.
type SimCfg struct {
	Nodes []NodeCfg
	// Graph lists edges, one line per group of mutually connected node ids,
	// e.g. "0, 1" or "1, 2, 3" (which interconnects all three).
	Graph            []string
	RandomTraffic    bool    `yaml:"random_traffic,omitempty"`
	CongestionWeight float64 `yaml:"congestion_weight,omitempty"` // 0 means default
	// RngSeed names the rngstream seed; identical names reproduce runs.
	RngSeed string `yaml:"rng_seed,omitempty"`
}

func (c *SimCfg) NodeIds() []NodeId {
	ids := make([]NodeId, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		ids = append(ids, n.Id)
	}
	return ids
}

func parseIdList(s string, valid []NodeId) ([]NodeId, error) {
	line := make([]NodeId, 0)
	for _, part := range strings.Split(strings.TrimSpace(s), ",") {
		x := strings.TrimSpace(part)
		if x == "" {
			continue
		}
		v, err := strconv.Atoi(x)
		if err != nil {
			return nil, fmt.Errorf("%q is not a node id", x)
		}
		if !slices.Contains(valid, NodeId(v)) {
			return nil, fmt.Errorf("node %d is not declared", v)
		}
		line = append(line, NodeId(v))
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("graph line %q must list at least two nodes", s)
	}
	return line, nil
}

// ParseGraph evaluates the Graph lines down to a deduplicated undirected
// edge list. Every id on a line is connected to every other id on the same
// line.
func ParseGraph(graph []string, nodes []NodeId) ([]Pair[NodeId, NodeId], error) {
	edges := make([]Pair[NodeId, NodeId], 0)

	contains := func(a, b NodeId) bool {
		return slices.ContainsFunc(edges, func(e Pair[NodeId, NodeId]) bool {
			return e.V1 == a && e.V2 == b || e.V1 == b && e.V2 == a
		})
	}

	for _, line := range graph {
		ids, err := parseIdList(line, nodes)
		if err != nil {
			return nil, err
		}
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				if a == b {
					return nil, fmt.Errorf("graph line %q connects node %d to itself", line, a)
				}
				if !contains(a, b) {
					edges = append(edges, Pair[NodeId, NodeId]{a, b})
				}
			}
		}
	}
	return edges, nil
}
