package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CatalogCollector bundles Prometheus metrics for the configuration catalog
// and satisfies the catalog's Metrics interface.
type CatalogCollector struct {
	gatherer prometheus.Gatherer

	SyncRecords  *prometheus.CounterVec
	SyncDuration prometheus.Histogram

	Bookmarks  prometheus.Gauge
	Locations  prometheus.Gauge
	TLESources prometheus.Gauge
	Satellites prometheus.Gauge
	Profiles   prometheus.Gauge
}

// NewCatalogCollector registers catalog Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil.
func NewCatalogCollector(reg prometheus.Registerer) (*CatalogCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_records_total",
		Help: "Records handled by sync passes, labeled by collection and outcome.",
	}, []string{"collection", "outcome"})
	records, err := registerCounterVec(reg, records, "catalog_sync_records_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_sync_duration_seconds",
		Help:    "Duration of full catalog sync passes in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
	duration, err = registerHistogram(reg, duration, "catalog_sync_duration_seconds")
	if err != nil {
		return nil, err
	}

	bookmarks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_bookmarks",
		Help: "Current number of catalogued bookmarks.",
	}), "catalog_bookmarks")
	if err != nil {
		return nil, err
	}
	locations, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_locations",
		Help: "Current number of catalogued observer locations.",
	}), "catalog_locations")
	if err != nil {
		return nil, err
	}
	tleSources, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_tle_sources",
		Help: "Current number of catalogued TLE sources.",
	}), "catalog_tle_sources")
	if err != nil {
		return nil, err
	}
	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_satellites",
		Help: "Current number of catalogued satellite orbits.",
	}), "catalog_satellites")
	if err != nil {
		return nil, err
	}
	profiles, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_profiles",
		Help: "Current number of catalogued source profiles.",
	}), "catalog_profiles")
	if err != nil {
		return nil, err
	}

	return &CatalogCollector{
		gatherer:     gatherer,
		SyncRecords:  records,
		SyncDuration: duration,
		Bookmarks:    bookmarks,
		Locations:    locations,
		TLESources:   tleSources,
		Satellites:   satellites,
		Profiles:     profiles,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *CatalogCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetCollectionCounts satisfies the catalog's Metrics interface so the
// catalog can drive gauge values directly from its mutators.
func (c *CatalogCollector) SetCollectionCounts(bookmarks, locations, tleSources, satellites, profiles int) {
	if c == nil {
		return
	}
	if c.Bookmarks != nil {
		c.Bookmarks.Set(float64(bookmarks))
	}
	if c.Locations != nil {
		c.Locations.Set(float64(locations))
	}
	if c.TLESources != nil {
		c.TLESources.Set(float64(tleSources))
	}
	if c.Satellites != nil {
		c.Satellites.Set(float64(satellites))
	}
	if c.Profiles != nil {
		c.Profiles.Set(float64(profiles))
	}
}

// RecordSyncOutcome counts one record handled during a sync pass.
func (c *CatalogCollector) RecordSyncOutcome(collection, outcome string) {
	if c == nil || c.SyncRecords == nil {
		return
	}
	c.SyncRecords.WithLabelValues(collection, outcome).Inc()
}

// ObserveSyncDuration records the duration of a full sync pass.
func (c *CatalogCollector) ObserveSyncDuration(seconds float64) {
	if c == nil || c.SyncDuration == nil {
		return
	}
	c.SyncDuration.Observe(seconds)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
