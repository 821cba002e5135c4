package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinesReceived counts protocol lines read from the server, by command
	LinesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eirc_lines_received_total",
			Help: "Total number of protocol lines read from the server",
		},
		[]string{"command"},
	)

	// LinesSent counts lines written to the server
	LinesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eirc_lines_sent_total",
		Help: "Total number of protocol lines written to the server",
	})

	// MalformedLines counts lines skipped because a required token was missing
	MalformedLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eirc_malformed_lines_total",
			Help: "Total number of inbound lines skipped as malformed",
		},
		[]string{"command"},
	)

	// Triggers counts canned replies sent, by trigger
	Triggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eirc_triggers_total",
			Help: "Total number of trigger replies sent",
		},
		[]string{"trigger"},
	)

	// Connected is 1 while a session holds an open transport
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eirc_connected",
		Help: "Whether the session is connected (1) or not (0)",
	})

	// Plugins counts plugin load attempts, by result
	Plugins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eirc_plugins_total",
			Help: "Total number of plugins discovered, by result",
		},
		[]string{"result"},
	)
)
