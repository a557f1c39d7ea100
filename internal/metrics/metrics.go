// Package metrics holds the process-wide prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomchat_active_sessions",
		Help: "Number of currently admitted sessions",
	})

	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomchat_active_rooms",
		Help: "Number of currently active rooms",
	})

	AdmissionRejects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roomchat_admission_rejects_total",
		Help: "Connections rejected because the server was at capacity",
	})

	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roomchat_frames_total",
		Help: "Inbound frames processed by command",
	}, []string{"command"})

	ErrorFramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roomchat_error_frames_total",
		Help: "Error frames sent to clients by error code",
	}, []string{"code"})

	DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomchat_dispatch_seconds",
		Help:    "Time to dispatch one inbound frame",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(ActiveRooms)
	prometheus.MustRegister(AdmissionRejects)
	prometheus.MustRegister(FramesTotal)
	prometheus.MustRegister(ErrorFramesTotal)
	prometheus.MustRegister(DispatchDuration)
}
