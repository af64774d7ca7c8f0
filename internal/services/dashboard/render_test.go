package dashboard_test

import (
	"testing"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/services/dashboard"
)

func TestMultiRendererFansOut(t *testing.T) {
	a, b := &recRenderer{}, &recRenderer{}
	m := dashboard.MultiRenderer{a, dashboard.NewLogRenderer(quietLogger()), b}

	m.RenderTable([]model.Device{{ID: "1"}}, dashboard.LayoutPatch)
	m.RenderAlert(model.Alert{Title: "x"})
	m.RenderStatus(dashboard.StatusView{Ticks: 2})

	for _, r := range []*recRenderer{a, b} {
		if len(r.tables) != 1 || r.tables[0] != dashboard.LayoutPatch {
			t.Errorf("tables = %v", r.tables)
		}
		if got := r.alertTitles(); len(got) != 1 || got[0] != "x" {
			t.Errorf("alerts = %v", got)
		}
		if r.lastStatus().Ticks != 2 {
			t.Error("status not forwarded")
		}
	}
}
