package state

// The engine produces one event per packet step, per congestion refresh pass
// and per topology command. Events are delivered synchronously on the main
// loop goroutine; sinks that need to block must hand off internally.

type Event interface {
	Kind() string
}

// Sink consumes engine events. The default sink logs them; presentation
// layers (UI bridges, test harnesses) supply their own.
type Sink interface {
	Deliver(ev Event)
}

// StepOutcome is what a single step invocation did to a packet.
type StepOutcome string

const (
	OutcomeForwarded StepOutcome = "routing"
	OutcomeDelivered StepOutcome = "delivered"
	OutcomeDropped   StepOutcome = "dropped"
)

// StepResult is the record of one packet step, also carried by the
// PacketStepped event.
type StepResult struct {
	Outcome  StepOutcome
	Packet   PacketView
	Message  string
	Reason   DropReason // drops only
	FromNode NodeId
	ToNode   NodeId // forwards only

	// congestion level of the node that processed the step
	Congestion float64
	// transmission delay in simulated seconds, computed before the move;
	// drives the stepper's wall-clock pacing
	Delay    float64
	Hops     int
	Rerouted bool
}

type PacketCreated struct {
	Packet PacketView
}

type PacketStepped struct {
	Result StepResult
}

type CongestionUpdated struct {
	Levels map[NodeId]float64
}

type NodeAdded struct {
	Node NodeView
}

type NodeRemoved struct {
	Id NodeId
}

type EdgeAdded struct {
	A, B NodeId
}

type EdgeRemoved struct {
	A, B NodeId
}

type StatsUpdated struct {
	Stats Stats
}

func (PacketCreated) Kind() string     { return "packet_created" }
func (PacketStepped) Kind() string     { return "packet_stepped" }
func (CongestionUpdated) Kind() string { return "congestion_updated" }
func (NodeAdded) Kind() string         { return "node_added" }
func (NodeRemoved) Kind() string       { return "node_removed" }
func (EdgeAdded) Kind() string         { return "edge_added" }
func (EdgeRemoved) Kind() string       { return "edge_removed" }
func (StatsUpdated) Kind() string      { return "stats_updated" }
