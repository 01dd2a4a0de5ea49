package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency         = metric.NewHistogram("1m1s")
	StepsPerSecond          = metric.NewCounter("10s1s")
	PacketsPerSecond        = metric.NewCounter("10s1s")
	DeliveredPerSecond      = metric.NewCounter("10s1s")
	DroppedPerSecond        = metric.NewCounter("10s1s")
	DeliveredBytesPerSecond = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("packetsim:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("packetsim:Steps/s", StepsPerSecond)
	expvar.Publish("packetsim:Packets/s", PacketsPerSecond)
	expvar.Publish("packetsim:Delivered/s", DeliveredPerSecond)
	expvar.Publish("packetsim:Dropped/s", DroppedPerSecond)
	expvar.Publish("packetsim:DeliveredBytes/s", DeliveredBytesPerSecond)
}
