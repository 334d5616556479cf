package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the simulation engine and
// provides a ready-to-serve /metrics handler. It satisfies the engine's
// MetricsRecorder interface so the battlefield can drive gauge values
// directly from its tick loop.
type SimCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal   prometheus.Counter
	TickDuration prometheus.Histogram

	Entities          prometheus.Gauge
	ActiveJammers     prometheus.Gauge
	JammedReceivers   prometheus.Gauge
	TacticalAdvantage prometheus.Gauge
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of simulation ticks processed.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock duration of one simulation tick.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	duration, err = registerHistogram(reg, duration, "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	entities, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_entities",
		Help: "Current number of live entities in the world.",
	}), "sim_entities")
	if err != nil {
		return nil, err
	}
	activeJammers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_active_jammers",
		Help: "Current number of active, non-depleted jammers.",
	}), "sim_active_jammers")
	if err != nil {
		return nil, err
	}
	jammedReceivers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_jammed_receivers",
		Help: "Current number of receivers in the jammed state.",
	}), "sim_jammed_receivers")
	if err != nil {
		return nil, err
	}
	advantage, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_tactical_advantage",
		Help: "Current tactical advantage score in [0,100].",
	}), "sim_tactical_advantage")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		TicksTotal:        ticks,
		TickDuration:      duration,
		Entities:          entities,
		ActiveJammers:     activeJammers,
		JammedReceivers:   jammedReceivers,
		TacticalAdvantage: advantage,
	}, nil
}

// RecordTick counts one tick and observes its duration.
func (c *SimCollector) RecordTick(d time.Duration) {
	if c == nil {
		return
	}
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
}

// SetSimCounts updates the entity-population gauges.
func (c *SimCollector) SetSimCounts(entities, activeJammers, jammedReceivers int) {
	if c == nil {
		return
	}
	if c.Entities != nil {
		c.Entities.Set(float64(entities))
	}
	if c.ActiveJammers != nil {
		c.ActiveJammers.Set(float64(activeJammers))
	}
	if c.JammedReceivers != nil {
		c.JammedReceivers.Set(float64(jammedReceivers))
	}
}

// SetTacticalAdvantage updates the advantage gauge.
func (c *SimCollector) SetTacticalAdvantage(score int) {
	if c == nil || c.TacticalAdvantage == nil {
		return
	}
	c.TacticalAdvantage.Set(float64(score))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
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
