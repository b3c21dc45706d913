package client

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/systmms/blueconnect/pkg/decode"
)

// Request kinds used as the "kind" label.
const (
	kindLogin    = "login"
	kindResource = "resource"
)

var (
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	decodeErrorsTotal *prometheus.CounterVec

	metricsOnce       sync.Once
	metricsRegistered atomic.Bool
)

// InitMetrics registers the client metrics with the default Prometheus
// registry. Until it is called, recording is a no-op.
func InitMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blueconnect_client_requests_total",
				Help: "Requests sent to the Blue Connect API by kind and HTTP status (0 = transport failure)",
			},
			[]string{"kind", "code"},
		)

		requestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blueconnect_client_request_duration_seconds",
				Help:    "Latency of Blue Connect API requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		)

		decodeErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blueconnect_client_decode_errors_total",
				Help: "Response payloads that failed to decode, by error kind",
			},
			[]string{"kind"},
		)

		metricsRegistered.Store(true)
	})
}

func recordRequest(kind string, status int, elapsed time.Duration) {
	if !metricsRegistered.Load() {
		return
	}
	requestsTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func recordDecodeError(err error) {
	if !metricsRegistered.Load() {
		return
	}
	kind := "unknown"
	var de *decode.DecodeError
	if errors.As(err, &de) {
		kind = strings.ReplaceAll(de.Kind.String(), " ", "_")
	}
	decodeErrorsTotal.WithLabelValues(kind).Inc()
}
