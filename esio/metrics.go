package esio

import "github.com/prometheus/client_golang/prometheus"

// Transfer metrics, registered on the default registry so embedding
// services export them with everything else.
var (
	metricWriteBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esio_write_bytes_total",
		Help: "Cumulative bytes this rank contributed to field, plane, and line writes.",
	})
	metricReadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esio_read_bytes_total",
		Help: "Cumulative bytes this rank consumed from field, plane, and line reads.",
	})
	metricWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esio_write_count_total",
		Help: "Cumulative number of collective write transfers.",
	})
	metricReads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esio_read_count_total",
		Help: "Cumulative number of collective read transfers.",
	})
)

func init() {
	prometheus.MustRegister(metricWriteBytes, metricReadBytes, metricWrites, metricReads)
}
