package streamer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "browserdesk",
		Name:      "active_connections",
		Help:      "Number of live viewer connections.",
	}, []string{"transport"})

	framesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "browserdesk",
		Name:      "frames_sent_total",
		Help:      "Frames forwarded to viewers after change detection.",
	}, []string{"transport"})

	captureErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "browserdesk",
		Name:      "capture_errors_total",
		Help:      "Failed screenshot captures.",
	})

	inputErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "browserdesk",
		Name:      "input_errors_total",
		Help:      "Inbound input events that failed to decode or dispatch.",
	})
)
