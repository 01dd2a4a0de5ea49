package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCongestionBase(t *testing.T) {
	assert.Equal(t, 0.0, CongestionBase(0, 0))
	assert.InDelta(t, 0.15, CongestionBase(0, 1), 1e-9)
	assert.InDelta(t, 0.30, CongestionBase(0, 2), 1e-9)
	// queue pressure saturates at 0.4
	assert.InDelta(t, 0.40, CongestionBase(0, 3), 1e-9)
	assert.InDelta(t, 0.40, CongestionBase(0, 50), 1e-9)
	// manual floor adds on top, total clamps at 1
	assert.InDelta(t, 0.55, CongestionBase(0.15, 50), 1e-9)
	assert.Equal(t, 1.0, CongestionBase(0.9, 3))
}

func TestRefreshCongestionDeterministicWithoutRandomTraffic(t *testing.T) {
	s, _ := newTestSim(lineCfg(3), &scriptRand{fill: 0.5})
	s.GetNode(1).ManualCongestion = 0.2
	registerPacket(s, 1, 2, 512)

	levels := RefreshCongestion(s)
	assert.Equal(t, 0.0, levels[0])
	assert.InDelta(t, 0.35, levels[1], 1e-9) // 0.2 manual + one queued packet
	assert.Equal(t, 0.0, levels[2])
	assert.InDelta(t, 0.35, s.GetNode(1).CongestionLevel, 1e-9)
}

func TestRefreshCongestionJitterClamped(t *testing.T) {
	// draw 0.0 maps to the most negative jitter, draw ~1.0 to the most positive
	s, _ := newTestSim(lineCfg(2), &scriptRand{u: []float64{0.0, 0.999999}})
	s.RandomTraffic = true
	s.GetNode(0).ManualCongestion = 0.05
	s.GetNode(1).ManualCongestion = 0.95

	levels := RefreshCongestion(s)
	for id, level := range levels {
		assert.GreaterOrEqual(t, level, 0.0, "node %d", id)
		assert.LessOrEqual(t, level, 1.0, "node %d", id)
		base := CongestionBase(s.GetNode(id).ManualCongestion, 0)
		assert.NotEqual(t, base, level, "node %d level should be perturbed", id)
	}
}

func TestTransmissionDelay(t *testing.T) {
	// 512 bytes at zero congestion
	assert.InDelta(t, 0.000512, TransmissionDelay(0, 512), 1e-9)
	// full congestion is 5x slower
	assert.InDelta(t, 0.00256, TransmissionDelay(1, 512), 1e-9)
	assert.InDelta(t, 1.0, TransmissionDelay(0, 1_000_000), 1e-9)
}

func TestDropProbability(t *testing.T) {
	assert.Equal(t, 0.0, DropProbability(0))
	assert.InDelta(t, 0.35, DropProbability(1), 1e-9)
	assert.InDelta(t, 0.175, DropProbability(0.5), 1e-9)
}
