package state

import "time"

var (
	// congestion model
	QueueCongestionStep   = 0.15 // added per queued packet
	QueueCongestionCap    = 0.4  // queue pressure saturates here
	RandomJitterMin       = -0.15
	RandomJitterMax       = 0.25
	CongestionDelayFactor = 4.0 // up to 5x slower at full congestion
	CongestionDropFactor  = 0.35
	BytesPerSecond        = 1_000_000.0

	// rerouting
	CongestionWeight      = 8.0
	RerouteThreshold      = 0.4
	ForceRerouteThreshold = 0.85

	// packets
	DefaultTTL        = 20
	DefaultPacketSize = 512
	DefaultDestPort   = 80

	// stepper pacing
	BaseStepDelay = 600 * time.Millisecond
	DelayScale    = 100.0 // wall-clock seconds per simulated second
	BurstStagger  = 200 * time.Millisecond

	// terminated packets stay resolvable this long after their last step
	RetainTerminated = time.Minute
)

// PacketColors is the display palette packets are assigned from at creation.
var PacketColors = []string{
	"#667eea", "#f59e0b", "#10b981", "#ef4444", "#8b5cf6", "#ec4899", "#06b6d4",
}
