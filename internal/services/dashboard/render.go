package dashboard

import (
	"log/slog"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/session"
)

// Layout dice all'adapter se aggiornare in place o ricostruire.
type Layout string

const (
	LayoutPatch   Layout = "patch"
	LayoutRebuild Layout = "rebuild"
)

// Renderer è il contratto verso la presentazione. Le chiamate sono
// fire-and-forget: l'adapter non restituisce nulla al core.
type Renderer interface {
	RenderTable(devices []model.Device, layout Layout)
	RenderCards(cards []Card, layout Layout)
	RenderGauge(t model.DeviceType, g Gauge)
	RenderChart(s session.Series)
	RenderAlert(a model.Alert)
	RenderHistory(rows []session.HistoryRow)
	RenderDashboard(v DashboardView)
	RenderStatus(s StatusView)
}

type NopRenderer struct{}

func (NopRenderer) RenderTable([]model.Device, Layout) {}
func (NopRenderer) RenderCards([]Card, Layout) {}
func (NopRenderer) RenderGauge(model.DeviceType, Gauge) {}
func (NopRenderer) RenderChart(session.Series) {}
func (NopRenderer) RenderAlert(model.Alert) {}
func (NopRenderer) RenderHistory([]session.HistoryRow) {}
func (NopRenderer) RenderDashboard(DashboardView) {}
func (NopRenderer) RenderStatus(StatusView) {}

// MultiRenderer inoltra ogni chiamata a tutti gli adapter.
type MultiRenderer []Renderer

func (m MultiRenderer) RenderTable(devices []model.Device, layout Layout) {
	for _, r := range m {
		r.RenderTable(devices, layout)
	}
}

func (m MultiRenderer) RenderCards(cards []Card, layout Layout) {
	for _, r := range m {
		r.RenderCards(cards, layout)
	}
}

func (m MultiRenderer) RenderGauge(t model.DeviceType, g Gauge) {
	for _, r := range m {
		r.RenderGauge(t, g)
	}
}

func (m MultiRenderer) RenderChart(s session.Series) {
	for _, r := range m {
		r.RenderChart(s)
	}
}

func (m MultiRenderer) RenderAlert(a model.Alert) {
	for _, r := range m {
		r.RenderAlert(a)
	}
}

func (m MultiRenderer) RenderHistory(rows []session.HistoryRow) {
	for _, r := range m {
		r.RenderHistory(rows)
	}
}

func (m MultiRenderer) RenderDashboard(v DashboardView) {
	for _, r := range m {
		r.RenderDashboard(v)
	}
}

func (m MultiRenderer) RenderStatus(s StatusView) {
	for _, r := range m {
		r.RenderStatus(s)
	}
}

// LogRenderer scrive alert e stato sul log del servizio: utile senza browser.
type LogRenderer struct {
	NopRenderer
	logger *slog.Logger
}

func NewLogRenderer(logger *slog.Logger) *LogRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRenderer{logger: logger}
}

func (l *LogRenderer) RenderAlert(a model.Alert) {
	l.logger.Info("alert", "kind", a.Kind, "severity", a.Severity, "title", a.Title, "body", a.Body)
}

func (l *LogRenderer) RenderStatus(s StatusView) {
	l.logger.Debug("status", "reachable", s.Store.Reachable, "empty", s.StoreEmpty,
		"breaker", s.Store.Breaker, "ticks", s.Ticks, "uptime", s.Uptime)
}
