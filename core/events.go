package core

import (
	"log/slog"

	"github.com/encodeous/packetsim/state"
)

// slogSink is the default event sink: everything the engine emits becomes a
// structured log line.
type slogSink struct {
	log *slog.Logger
}

func (k *slogSink) Deliver(ev state.Event) {
	switch e := ev.(type) {
	case state.PacketCreated:
		k.log.Info("packet created",
			"packet", e.Packet.Id, "src", e.Packet.Source, "dst", e.Packet.Destination, "size", e.Packet.Size)
	case state.PacketStepped:
		r := e.Result
		switch r.Outcome {
		case state.OutcomeForwarded:
			k.log.Info(r.Message,
				"packet", r.Packet.Id, "from", r.FromNode, "to", r.ToNode,
				"hops", r.Hops, "delay", r.Delay, "rerouted", r.Rerouted)
		case state.OutcomeDelivered:
			k.log.Info(r.Message, "packet", r.Packet.Id, "hops", r.Hops, "delay", r.Delay)
		case state.OutcomeDropped:
			k.log.Info(r.Message, "packet", r.Packet.Id, "reason", r.Reason, "hops", r.Hops)
		}
	case state.CongestionUpdated:
		k.log.Debug("congestion refreshed", "nodes", len(e.Levels))
	case state.NodeAdded:
		k.log.Info("node added", "node", e.Node.Id, "x", e.Node.X, "y", e.Node.Y)
	case state.NodeRemoved:
		k.log.Info("node removed", "node", e.Id)
	case state.EdgeAdded:
		k.log.Info("edge added", "a", e.A, "b", e.B)
	case state.EdgeRemoved:
		k.log.Info("edge removed", "a", e.A, "b", e.B)
	case state.StatsUpdated:
		k.log.Info("stats updated",
			"total", e.Stats.TotalPackets, "delivered", e.Stats.DeliveredPackets,
			"dropped", e.Stats.DroppedPackets, "avg_hops", e.Stats.AverageHops)
	}
}
