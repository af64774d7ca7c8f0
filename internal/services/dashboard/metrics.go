package dashboard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LeonardoBeccarini/biosync/internal/model"
)

// Metrics raggruppa i collector Prometheus del servizio. Un *Metrics nil è
// valido e non registra nulla.
type Metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	storeErrors  *prometheus.CounterVec
	simWrites    *prometheus.CounterVec
	rulesFired   *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	sensorValue  *prometheus.GaugeVec
	devices      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "biosync_ticks_total",
			Help: "Poll loop ticks executed.",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "biosync_tick_duration_seconds",
			Help:    "Duration of a full poll tick.",
			Buckets: prometheus.DefBuckets,
		}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biosync_store_errors_total",
			Help: "Failed calls to the device store, by operation.",
		}, []string{"op"}),
		simWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biosync_simulator_writes_total",
			Help: "Simulator write-backs, by result.",
		}, []string{"result"}),
		rulesFired: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biosync_rule_fired_total",
			Help: "Automation rules fired, by rule.",
		}, []string{"rule"}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "biosync_alerts_total",
			Help: "Alerts delivered to the UI, by kind.",
		}, []string{"kind"}),
		sensorValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "biosync_sensor_value",
			Help: "Last sensor value per device type.",
		}, []string{"tipo"}),
		devices: f.NewGauge(prometheus.GaugeOpts{
			Name: "biosync_devices",
			Help: "Devices in the last snapshot.",
		}),
	}
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) simulation(writes, failed int) {
	if m == nil {
		return
	}
	m.simWrites.WithLabelValues("ok").Add(float64(writes - failed))
	m.simWrites.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) ruleFired(rule string) {
	if m == nil {
		return
	}
	m.rulesFired.WithLabelValues(rule).Inc()
}

func (m *Metrics) alert(kind model.AlertKind) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) snapshot(devices []model.Device) {
	if m == nil {
		return
	}
	m.devices.Set(float64(len(devices)))
	for _, t := range model.Types {
		if d, ok := model.FindByType(devices, t); ok {
			m.sensorValue.WithLabelValues(string(t)).Set(float64(d.ValorSensor))
		}
	}
}
