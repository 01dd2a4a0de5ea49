package state

// Stats are process-lifetime aggregate counters, updated only on packet
// creation and terminal transitions.
type Stats struct {
	TotalPackets     int
	DeliveredPackets int
	DroppedPackets   int
	TotalDelay       float64 // cumulative delivery delay, seconds
	TotalHops        int     // cumulative hops of delivered packets
	AverageHops      float64
}

func (st *Stats) RecordDelivery(delaySeconds float64, hops int) {
	st.DeliveredPackets++
	st.TotalDelay += delaySeconds
	st.TotalHops += hops
	st.AverageHops = float64(st.TotalHops) / float64(st.DeliveredPackets)
}

func (st *Stats) RecordDrop() {
	st.DroppedPackets++
}
