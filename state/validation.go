package state

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidEndpoints rejects packet creation against missing nodes or
// source == destination.
var ErrInvalidEndpoints = errors.New("invalid packet endpoints")

// ConfigValidator checks a SimCfg before the engine is built from it.
func ConfigValidator(cfg *SimCfg) error {
	seen := make(map[NodeId]bool)
	for _, n := range cfg.Nodes {
		if n.Id < 0 {
			return fmt.Errorf("node id %d must not be negative", n.Id)
		}
		if seen[n.Id] {
			return fmt.Errorf("duplicate node id %d", n.Id)
		}
		seen[n.Id] = true
		if math.IsNaN(n.Congestion) || n.Congestion < 0 || n.Congestion > 1 {
			return fmt.Errorf("node %d congestion %v outside [0,1]", n.Id, n.Congestion)
		}
	}
	if _, err := ParseGraph(cfg.Graph, cfg.NodeIds()); err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}
	if cfg.CongestionWeight < 0 {
		return fmt.Errorf("congestion_weight %v must not be negative", cfg.CongestionWeight)
	}
	return nil
}
