package dashboard_test

import (
	"testing"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/services/dashboard"
)

func TestWellbeing(t *testing.T) {
	cases := []struct {
		stress, fatigue, haptic, want int
	}{
		{80, 60, 40, 32},
		{0, 0, 100, 100},
		{100, 100, 0, 0},
		{50, 50, 50, 50},
	}
	for _, c := range cases {
		if got := dashboard.Wellbeing(c.stress, c.fatigue, c.haptic); got != c.want {
			t.Errorf("Wellbeing(%d,%d,%d) = %d, want %d", c.stress, c.fatigue, c.haptic, got, c.want)
		}
	}
}

func TestBuildRadar(t *testing.T) {
	devices := []model.Device{
		{ID: "1", Tipo: model.TypeRing, ValorSensor: 80, Estado: true},
		{ID: "2", Tipo: model.TypeInsole, ValorSensor: 60, Estado: true},
		{ID: "3", Tipo: model.TypeWristband, ValorSensor: 40},
	}
	want := dashboard.Radar{Stress: 80, Fatigue: 60, Recovery: 40, Activity: 48, Wellbeing: 33, Temperature: 37}
	if got := dashboard.BuildRadar(devices); got != want {
		t.Errorf("radar = %+v, want %+v", got, want)
	}

	devices[1].Estado = false
	if got := dashboard.BuildRadar(devices); got.Activity != 10 {
		t.Errorf("activity with insole off = %d, want 10", got.Activity)
	}
	if got := dashboard.BuildRadar(nil); got.Recovery != 100 || got.Temperature != 36 {
		t.Errorf("empty radar = %+v", got)
	}
}

func TestRecommendationsThresholds(t *testing.T) {
	cases := []struct {
		stress, fatigue, haptic int
		want                    [3]string
	}{
		{76, 81, 61, [3]string{"high", "high", "active"}},
		{75, 80, 60, [3]string{"moderate", "moderate", "standby"}},
		{51, 56, 0, [3]string{"moderate", "moderate", "standby"}},
		{50, 55, 0, [3]string{"ok", "ok", "standby"}},
	}
	for _, c := range cases {
		recs := dashboard.Recommendations(c.stress, c.fatigue, c.haptic)
		if len(recs) != 3 {
			t.Fatalf("got %d recommendations", len(recs))
		}
		for i, r := range recs {
			if r.Severity != c.want[i] {
				t.Errorf("(%d,%d,%d) %s = %s, want %s", c.stress, c.fatigue, c.haptic, r.Topic, r.Severity, c.want[i])
			}
		}
	}
}

func TestBuildDashboardMissingDevices(t *testing.T) {
	v := dashboard.BuildDashboard([]model.Device{{ID: "1", Tipo: model.TypeRing, ValorSensor: 90, Estado: true}}, 4)
	if v.Stress != 90 || v.Fatigue != 0 || v.Haptic != 0 {
		t.Errorf("values = %d/%d/%d", v.Stress, v.Fatigue, v.Haptic)
	}
	if v.Devices != 1 || v.Online != 1 || v.Alerts != 4 {
		t.Errorf("counters = %+v", v)
	}
}

func TestBuildCards(t *testing.T) {
	devices := []model.Device{
		{ID: "1", Tipo: model.TypeRing, ValorSensor: 75},
		{ID: "2", Tipo: model.TypeWristband, ValorSensor: 10},
	}
	modes := map[string]string{"2": "Intense"}
	cards := dashboard.BuildCards(devices, func(id string) string { return modes[id] })

	if cards[0].Mode != "Breathing" || cards[0].Level != "critical" || cards[0].Label == "" {
		t.Errorf("ring card = %+v", cards[0])
	}
	if cards[1].Mode != "Intense" || len(cards[1].Modes) != 3 || cards[1].Level != "normal" {
		t.Errorf("wristband card = %+v", cards[1])
	}
}
