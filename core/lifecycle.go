package core

import (
	"fmt"
	"time"

	"github.com/encodeous/packetsim/state"
)

// StepPacket advances an in-transit packet by exactly one of: delivery, TTL
// drop, no-route drop, congestion drop, or a forward to the next hop
// (possibly rerouted around congestion). The current node's processed
// counter is incremented on every invocation, whatever the outcome.
//
// Must run on the main loop goroutine.
func StepPacket(s *state.State, p *state.Packet) state.StepResult {
	node := s.GetNode(p.CurrentNode)
	if node == nil {
		// the node under the packet was removed mid-flight; the packet went
		// down with it
		p.Status = state.StatusDropped
		p.Reason = state.DropNoRoute
		s.Stats.RecordDrop()
		return state.StepResult{
			Outcome:  state.OutcomeDropped,
			Packet:   p.View(),
			Message:  fmt.Sprintf("Packet %d dropped: No route", p.Id),
			Reason:   state.DropNoRoute,
			FromNode: p.CurrentNode,
			Hops:     p.Hops,
		}
	}

	node.Enqueue(p)
	node.PacketsProcessed++

	if p.CurrentNode == p.Destination {
		return deliver(s, p, node)
	}
	if p.TTL() <= 0 {
		return drop(s, p, node, state.DropTTLExpired,
			fmt.Sprintf("Packet %d dropped: TTL expired", p.Id))
	}
	route, ok := node.RoutingTable[p.Destination]
	if !ok {
		return drop(s, p, node, state.DropNoRoute,
			fmt.Sprintf("Packet %d dropped: No route", p.Id))
	}
	if s.Rand.RandU01() < DropProbability(node.CongestionLevel) {
		return drop(s, p, node, state.DropCongestion,
			fmt.Sprintf("Packet %d dropped: Congestion at %s", p.Id, node.Label))
	}
	return forward(s, p, node, route.Nh)
}

func deliver(s *state.State, p *state.Packet, node *state.Node) state.StepResult {
	p.Status = state.StatusDelivered
	node.Unqueue(p)

	delay := time.Since(p.StartTime).Seconds()
	s.Stats.RecordDelivery(delay, p.Hops)

	return state.StepResult{
		Outcome:    state.OutcomeDelivered,
		Packet:     p.View(),
		Message:    fmt.Sprintf("Packet %d delivered successfully!", p.Id),
		FromNode:   node.Id,
		Congestion: node.CongestionLevel,
		Delay:      delay,
		Hops:       p.Hops,
	}
}

func drop(s *state.State, p *state.Packet, node *state.Node, reason state.DropReason, msg string) state.StepResult {
	p.Status = state.StatusDropped
	p.Reason = reason
	node.Unqueue(p)
	node.PacketsDropped++
	s.Stats.RecordDrop()

	return state.StepResult{
		Outcome:    state.OutcomeDropped,
		Packet:     p.View(),
		Message:    msg,
		Reason:     reason,
		FromNode:   node.Id,
		Congestion: node.CongestionLevel,
		Hops:       p.Hops,
	}
}

func forward(s *state.State, p *state.Packet, node *state.Node, nextHop state.NodeId) state.StepResult {
	chosen := nextHop
	rerouted := false

	// a congested next hop pushes packets onto the congestion-weighted
	// alternative: always above ForceRerouteThreshold, with linearly
	// increasing probability above RerouteThreshold
	if nhNode := s.GetNode(nextHop); nhNode != nil {
		c := nhNode.CongestionLevel
		if c >= state.RerouteThreshold {
			pReroute := min(1.0, (c-state.RerouteThreshold)/(1.0-state.RerouteThreshold))
			if c >= state.ForceRerouteThreshold || s.Rand.RandU01() < pReroute {
				alt, ok := CongestionAwareNextHop(s, node.Id, p.Destination, configuredCongestionWeight(s))
				if ok && alt != nextHop {
					chosen = alt
					rerouted = true
				}
			}
		}
	}

	// pacing delay reflects the congestion of the node the packet leaves
	delay := TransmissionDelay(node.CongestionLevel, p.Size)

	node.Unqueue(p)
	p.CurrentNode = chosen
	p.Path = append(p.Path, chosen)
	p.Header.TTL--
	p.Hops++
	if next := s.GetNode(chosen); next != nil {
		next.Enqueue(p)
	}

	msg := fmt.Sprintf("Packet %d routed: %s → N%d", p.Id, node.Label, chosen)
	if rerouted {
		msg += " (rerouted due to congestion)"
	}

	return state.StepResult{
		Outcome:    state.OutcomeForwarded,
		Packet:     p.View(),
		Message:    msg,
		FromNode:   node.Id,
		ToNode:     chosen,
		Congestion: node.CongestionLevel,
		Delay:      delay,
		Hops:       p.Hops,
		Rerouted:   rerouted,
	}
}
