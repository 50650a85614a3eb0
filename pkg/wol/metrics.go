package wol

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsSentTotal counts magic packets handed to the local stack.
	PacketsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanwake_packets_sent_total",
		Help: "Number of magic packets accepted for transmission",
	})

	// PacketsMatchedTotal counts received datagrams that decoded as magic
	// packets and passed the session filter.
	PacketsMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanwake_packets_matched_total",
		Help: "Number of magic packets observed by the monitor",
	})

	// PacketsDiscardedTotal counts datagrams on monitored ports that were
	// not magic packets (or were filtered out).
	PacketsDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanwake_packets_discarded_total",
		Help: "Number of received datagrams discarded as not-a-magic-packet",
	})

	// ReceiveErrorsTotal counts recoverable receive errors in the monitor loop.
	ReceiveErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanwake_receive_errors_total",
		Help: "Number of non-timeout receive errors during monitoring",
	})

	// MonitoredPorts is the number of ports bound by the active session.
	MonitoredPorts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lanwake_monitored_ports",
		Help: "Number of UDP ports currently bound for monitoring",
	})
)
