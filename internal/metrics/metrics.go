package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RoleCapture = "capture"
	RoleReplay  = "replay"
)

var (
	registerOnce sync.Once

	captureRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "capture",
			Name:      "records_total",
			Help:      "Records written to session files, by message kind.",
		},
		[]string{"kind"},
	)
	captureBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "capture",
			Name:      "bytes_total",
			Help:      "Bytes written to session files.",
		},
	)
	captureDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "capture",
			Name:      "discarded_total",
			Help:      "Stale messages dropped while waiting for a session start.",
		},
		[]string{"kind"},
	)
	replayRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "replay",
			Name:      "records_total",
			Help:      "Records forwarded to replay clients.",
		},
	)
	replayBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Subsystem: "replay",
			Name:      "bytes_total",
			Help:      "Bytes sent to replay clients, handshake included.",
		},
	)
	replayWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rewind",
			Subsystem: "replay",
			Name:      "wait_seconds",
			Help:      "Scaled per-chunk replay waits.",
			Buckets:   []float64{.001, .004, .008, .016, .032, .064, .128, .255, .5, 1},
		},
	)
	sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewind",
			Name:      "sessions_total",
			Help:      "Finished captures and replays, by outcome.",
		},
		[]string{"role", "outcome"},
	)
)

// Register adds the collectors to the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(captureRecords, captureBytes, captureDiscarded,
			replayRecords, replayBytes, replayWait, sessions)
	})
}

func CaptureRecord(kind string, size int) {
	captureRecords.WithLabelValues(kind).Inc()
	captureBytes.Add(float64(size))
}

func CaptureDiscarded(kind string) {
	captureDiscarded.WithLabelValues(kind).Inc()
}

func ReplayRecord(size int) {
	replayRecords.Inc()
	replayBytes.Add(float64(size))
}

func ReplayHandshake(size int) {
	replayBytes.Add(float64(size))
}

func ReplayWait(d time.Duration) {
	replayWait.Observe(d.Seconds())
}

func SessionFinished(role, outcome string) {
	sessions.WithLabelValues(role, outcome).Inc()
}
