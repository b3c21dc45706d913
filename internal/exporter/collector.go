// Package exporter publishes pool state as Prometheus metrics.
package exporter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	bcerrors "github.com/systmms/blueconnect/internal/errors"
	"github.com/systmms/blueconnect/internal/logging"
	"github.com/systmms/blueconnect/internal/poolstate"
)

const namespace = "blueconnect"

// DefaultScrapeTimeout bounds a single state fetch during a scrape.
const DefaultScrapeTimeout = 20 * time.Second

// StateFetcher produces a fresh pool snapshot.
type StateFetcher interface {
	Fetch(ctx context.Context) (*poolstate.State, error)
}

// The last-measurements feed mixes probe and test strip readings, so one
// measurement name can appear once per issuer.
var measurementLabels = []string{"pool", "measurement", "issuer"}

var (
	upDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "up"),
		"Whether the last pool state fetch succeeded.",
		nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "scrape", "duration_seconds"),
		"Time spent fetching pool state for this scrape.",
		nil, nil,
	)
	valueDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "measurement", "value"),
		"Latest measured value.",
		measurementLabels, nil,
	)
	expiredDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "measurement", "expired"),
		"1 if the measurement is too old to be trusted.",
		measurementLabels, nil,
	)
	okMinDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "measurement", "ok_min"),
		"Lower bound of the healthy range.",
		measurementLabels, nil,
	)
	okMaxDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "measurement", "ok_max"),
		"Upper bound of the healthy range.",
		measurementLabels, nil,
	)
	batteryLowDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "device", "battery_low"),
		"1 if the Blue device reports a low battery.",
		[]string{"serial"}, nil,
	)
)

// Collector fetches pool state on every scrape.
type Collector struct {
	fetcher StateFetcher
	timeout time.Duration
	logger  *logging.Logger
}

var _ prometheus.Collector = (*Collector)(nil)

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithScrapeTimeout overrides DefaultScrapeTimeout.
func WithScrapeTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *logging.Logger) CollectorOption {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCollector creates a Collector.
func NewCollector(fetcher StateFetcher, opts ...CollectorOption) *Collector {
	c := &Collector{
		fetcher: fetcher,
		timeout: DefaultScrapeTimeout,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- valueDesc
	ch <- expiredDesc
	ch <- okMinDesc
	ch <- okMaxDesc
	ch <- batteryLowDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	state, err := c.fetcher.Fetch(ctx)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
	if err != nil {
		if bcerrors.Temporary(err) {
			c.logger.Warn("Pool state fetch failed, retrying on next scrape: %v", err)
		} else {
			c.logger.Error("Pool state fetch failed: %v", err)
		}
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, 1)

	pool := state.Pool.SwimmingPoolID
	for _, m := range state.Measurements {
		ch <- prometheus.MustNewConstMetric(valueDesc, prometheus.GaugeValue, m.Value, pool, m.Name, m.Issuer)
		ch <- prometheus.MustNewConstMetric(expiredDesc, prometheus.GaugeValue, boolValue(m.Expired), pool, m.Name, m.Issuer)
		ch <- prometheus.MustNewConstMetric(okMinDesc, prometheus.GaugeValue, m.OkMin, pool, m.Name, m.Issuer)
		ch <- prometheus.MustNewConstMetric(okMaxDesc, prometheus.GaugeValue, m.OkMax, pool, m.Name, m.Issuer)
	}
	if state.Device != nil {
		ch <- prometheus.MustNewConstMetric(batteryLowDesc, prometheus.GaugeValue, boolValue(state.Device.BatteryLow), state.Device.Serial)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
