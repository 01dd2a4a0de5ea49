package core

import "github.com/encodeous/packetsim/state"

// The congestion model is pure arithmetic over a node's manual floor, its
// queue pressure and an optional random perturbation.

// CongestionBase combines the manual floor with queue pressure, without
// randomness: min(manual + min(queueLen*step, cap), 1).
func CongestionBase(manual float64, queueLen int) float64 {
	queue := min(float64(queueLen)*state.QueueCongestionStep, state.QueueCongestionCap)
	return min(manual+queue, 1.0)
}

// RefreshCongestion recomputes every node's congestion level in one
// consistent pass and returns the new levels. With RandomTraffic set, each
// level is perturbed by a uniform draw in [RandomJitterMin, RandomJitterMax)
// and clamped to [0,1].
func RefreshCongestion(s *state.State) map[state.NodeId]float64 {
	levels := make(map[state.NodeId]float64, len(s.Nodes))
	for id, n := range s.Nodes {
		level := CongestionBase(n.ManualCongestion, n.QueueLen())
		if s.RandomTraffic {
			jitter := state.RandomJitterMin + s.Rand.RandU01()*(state.RandomJitterMax-state.RandomJitterMin)
			level = clamp01(level + jitter)
		}
		n.CongestionLevel = level
		levels[id] = level
	}
	return levels
}

// TransmissionDelay returns the simulated seconds a packet of the given size
// spends leaving a node at the given congestion level. Fully congested nodes
// are 5x slower than idle ones.
func TransmissionDelay(level float64, sizeBytes int) float64 {
	base := float64(sizeBytes) / state.BytesPerSecond
	return base * (1.0 + level*state.CongestionDelayFactor)
}

// DropProbability is the chance a hop is dropped for congestion at the given
// level.
func DropProbability(level float64) float64 {
	return level * state.CongestionDropFactor
}
