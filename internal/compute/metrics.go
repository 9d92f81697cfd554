package compute

import "github.com/prometheus/client_golang/prometheus"

var (
	streamCopies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "born_reorder_stream_copies_total",
			Help: "Number of byte copies enqueued on streams, by source and destination engine kind.",
		},
		[]string{"src", "dst"},
	)

	streamCopyBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "born_reorder_stream_copy_bytes_total",
			Help: "Bytes copied by streams, by source and destination engine kind.",
		},
		[]string{"src", "dst"},
	)

	kernelLaunches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "born_reorder_stream_kernel_launches_total",
			Help: "Number of kernel launches enqueued on streams.",
		},
		[]string{"engine", "kernel"},
	)
)

func init() {
	prometheus.MustRegister(streamCopies)
	prometheus.MustRegister(streamCopyBytes)
	prometheus.MustRegister(kernelLaunches)
}

// ObserveCopy records a copy of n bytes between engines of the given kinds.
func ObserveCopy(src, dst string, n uint64) {
	streamCopies.WithLabelValues(src, dst).Inc()
	streamCopyBytes.WithLabelValues(src, dst).Add(float64(n))
}

// ObserveLaunch records a kernel launch.
func ObserveLaunch(engineKind, kernel string) {
	kernelLaunches.WithLabelValues(engineKind, kernel).Inc()
}
