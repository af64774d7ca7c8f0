package dashboard

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/LeonardoBeccarini/biosync/internal/model"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.observeTick(20 * time.Millisecond)
	m.simulation(3, 1)
	m.ruleFired("critical_stress")
	m.alert(model.AlertModal)
	m.StoreError("list")
	m.snapshot([]model.Device{{ID: "1", Tipo: model.TypeRing, ValorSensor: 77}})

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"ticks", m.ticks, 1},
		{"writes ok", m.simWrites.WithLabelValues("ok"), 2},
		{"writes failed", m.simWrites.WithLabelValues("failed"), 1},
		{"rule", m.rulesFired.WithLabelValues("critical_stress"), 1},
		{"alert", m.alerts.WithLabelValues("modal"), 1},
		{"store error", m.storeErrors.WithLabelValues("list"), 1},
		{"ring value", m.sensorValue.WithLabelValues("anillo"), 77},
		{"devices", m.devices, 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.observeTick(time.Second)
	m.StoreError("list")
	m.snapshot(nil)
}

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(3*time.Hour + 4*time.Minute + 5*time.Second); got != "03:04:05" {
		t.Errorf("got %s", got)
	}
	if got := formatUptime(-time.Second); got != "00:00:00" {
		t.Errorf("negative uptime = %s", got)
	}
}
