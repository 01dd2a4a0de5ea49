package core

import (
	"fmt"
	"time"

	"github.com/encodeous/packetsim/perf"
	"github.com/encodeous/packetsim/state"
	"github.com/jellydator/ttlcache/v3"
)

// Driver owns the in-flight packet registry. Every created packet gets one
// stepper goroutine that repeatedly dispatches a congestion refresh plus one
// lifecycle step onto the main loop, then sleeps in proportion to the
// returned transmission delay. Steppers never touch shared state outside a
// dispatch.
type Driver struct {
	*state.State

	// Terminated retains recently delivered/dropped packets so snapshots and
	// late event consumers can still resolve them.
	Terminated *ttlcache.Cache[state.PacketId, state.PacketView]
}

func (d *Driver) Init(s *state.State) error {
	d.State = s
	d.Terminated = ttlcache.New[state.PacketId, state.PacketView](
		ttlcache.WithTTL[state.PacketId, state.PacketView](state.RetainTerminated),
		ttlcache.WithDisableTouchOnHit[state.PacketId, state.PacketView](),
	)
	go d.Terminated.Start()
	return nil
}

func (d *Driver) Cleanup(s *state.State) error {
	d.Terminated.Stop()
	return nil
}

// CreatePacket validates the endpoints, registers a new packet queued at its
// source and starts its stepper. Must run on the main loop goroutine.
func (d *Driver) CreatePacket(s *state.State, source, destination state.NodeId, size int) (*state.Packet, error) {
	return d.createPacket(s, source, destination, size, 0)
}

// CreateBurst registers count packets between the same endpoints, staggering
// each stepper's start so the burst spreads out.
func (d *Driver) CreateBurst(s *state.State, source, destination state.NodeId, count, size int) (int, error) {
	created := 0
	for i := 0; i < count; i++ {
		_, err := d.createPacket(s, source, destination, size, time.Duration(i)*state.BurstStagger)
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (d *Driver) createPacket(s *state.State, source, destination state.NodeId, size int, stagger time.Duration) (*state.Packet, error) {
	if source == destination {
		return nil, fmt.Errorf("%w: source %d equals destination", state.ErrInvalidEndpoints, source)
	}
	src, ok := s.Nodes[source]
	if !ok {
		return nil, fmt.Errorf("%w: no node %d", state.ErrInvalidEndpoints, source)
	}
	if _, ok := s.Nodes[destination]; !ok {
		return nil, fmt.Errorf("%w: no node %d", state.ErrInvalidEndpoints, destination)
	}
	if size <= 0 {
		size = state.DefaultPacketSize
	}

	p := state.NewPacket(s.AllocatePacketId(), source, destination, size, s.Rand)
	s.InFlight[p.Id] = p
	src.Enqueue(p)
	s.Stats.TotalPackets++

	s.Emit(state.PacketCreated{Packet: p.View()})
	perf.PacketsPerSecond.Add(1)

	if stagger > 0 {
		s.ScheduleTask(func(*state.State) error {
			go d.runPacket(p)
			return nil
		}, stagger)
	} else {
		go d.runPacket(p)
	}
	return p, nil
}

// tick runs one stepper iteration. Must run on the main loop goroutine.
// Identity is checked by pointer, not id: after a reset the registry may hold
// a different packet under a reused id, and that packet has its own stepper.
func (d *Driver) tick(s *state.State, p *state.Packet) state.StepResult {
	if s.InFlight[p.Id] != p || p.Terminal() {
		return state.StepResult{}
	}

	levels := RefreshCongestion(s)
	s.Emit(state.CongestionUpdated{Levels: levels})

	result := StepPacket(s, p)
	s.Emit(state.PacketStepped{Result: result})
	perf.StepsPerSecond.Add(1)

	if p.Terminal() {
		d.retire(s, p)
	}
	return result
}

// runPacket is the stepper: it drives one packet to a terminal state.
func (d *Driver) runPacket(p *state.Packet) {
	for {
		res, err := d.DispatchWait(func(s *state.State) (any, error) {
			return d.tick(s, p), nil
		})
		if err != nil {
			return // context cancelled
		}
		result := res.(state.StepResult)
		if result.Outcome != state.OutcomeForwarded {
			return
		}
		pause := state.BaseStepDelay + time.Duration(result.Delay*state.DelayScale*float64(time.Second))
		if !d.sleep(pause) {
			return
		}
	}
}

// retire moves a terminal packet from the in-flight registry to the
// retention cache and publishes the final statistics.
func (d *Driver) retire(s *state.State, p *state.Packet) {
	delete(s.InFlight, p.Id)
	d.Terminated.Set(p.Id, p.View(), ttlcache.DefaultTTL)
	if p.Status == state.StatusDelivered {
		perf.DeliveredPerSecond.Add(1)
		perf.DeliveredBytesPerSecond.Add(float64(p.Size))
	} else {
		perf.DroppedPerSecond.Add(1)
	}
	s.Emit(state.StatsUpdated{Stats: s.Stats})
}

func (d *Driver) sleep(dur time.Duration) bool {
	select {
	case <-time.After(dur):
		return true
	case <-d.Context.Done():
		return false
	}
}
