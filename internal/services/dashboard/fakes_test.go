package dashboard_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/devicestore"
	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/services/dashboard"
	"github.com/LeonardoBeccarini/biosync/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// constRand restituisce sempre lo stesso valore.
type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ---------- store ----------

type fakeStore struct {
	mu          sync.Mutex
	devices     []model.Device
	nextID      int
	unreachable bool
	failWrites  bool
	updates     []model.Device
}

func newFakeStore(devices ...model.Device) *fakeStore {
	return &fakeStore{devices: devices, nextID: 100}
}

func (f *fakeStore) List(context.Context) []model.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return []model.Device{}
	}
	out := make([]model.Device, len(f.devices))
	copy(out, f.devices)
	return out
}

func (f *fakeStore) Create(_ context.Context, d model.Device) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites || f.unreachable {
		return false
	}
	f.nextID++
	d.ID = strconv.Itoa(f.nextID)
	f.devices = append(f.devices, d)
	return true
}

func (f *fakeStore) Update(_ context.Context, id string, d model.Device) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites || f.unreachable {
		return false
	}
	i := model.FindByID(f.devices, id)
	if i < 0 {
		return false
	}
	d.ID = id
	f.devices[i] = d
	f.updates = append(f.updates, d)
	return true
}

func (f *fakeStore) Delete(_ context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites || f.unreachable {
		return false
	}
	i := model.FindByID(f.devices, id)
	if i < 0 {
		return false
	}
	f.devices = append(f.devices[:i], f.devices[i+1:]...)
	return true
}

func (f *fakeStore) Status() devicestore.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return devicestore.Status{Reachable: !f.unreachable, Breaker: "closed"}
}

func (f *fakeStore) get(id string) (model.Device, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := model.FindByID(f.devices, id); i >= 0 {
		return f.devices[i], true
	}
	return model.Device{}, false
}

func (f *fakeStore) set(fn func(*fakeStore)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

// ---------- renderer ----------

type recRenderer struct {
	mu         sync.Mutex
	tables     []dashboard.Layout
	lastTable  []model.Device
	cards      []dashboard.Card
	gauges     map[model.DeviceType]dashboard.Gauge
	series     session.Series
	alerts     []model.Alert
	history    []session.HistoryRow
	dashboards []dashboard.DashboardView
	status     []dashboard.StatusView
}

func (r *recRenderer) RenderTable(devices []model.Device, layout dashboard.Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, layout)
	r.lastTable = devices
}

func (r *recRenderer) RenderCards(cards []dashboard.Card, _ dashboard.Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = cards
}

func (r *recRenderer) RenderGauge(t model.DeviceType, g dashboard.Gauge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gauges == nil {
		r.gauges = map[model.DeviceType]dashboard.Gauge{}
	}
	r.gauges[t] = g
}

func (r *recRenderer) RenderChart(s session.Series) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = s
}

func (r *recRenderer) RenderAlert(a model.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

func (r *recRenderer) RenderHistory(rows []session.HistoryRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = rows
}

func (r *recRenderer) RenderDashboard(v dashboard.DashboardView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dashboards = append(r.dashboards, v)
}

func (r *recRenderer) RenderStatus(s dashboard.StatusView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, s)
}

func (r *recRenderer) alertTitles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a.Title)
	}
	return out
}

func (r *recRenderer) lastStatus() dashboard.StatusView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[len(r.status)-1]
}

// ---------- notifier ----------

type recNotifier struct {
	mu     sync.Mutex
	alerts []model.Alert
	states []model.StateChangeEvent
}

func (n *recNotifier) NotifyAlert(_ context.Context, a model.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

func (n *recNotifier) NotifyState(_ context.Context, evt model.StateChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, evt)
	return nil
}

func (n *recNotifier) stateEvents() []model.StateChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.StateChangeEvent(nil), n.states...)
}

// ---------- fixture ----------

type fixture struct {
	d     *dashboard.Dashboard
	store *fakeStore
	rend  *recRenderer
	notif *recNotifier
	clock *clock
}

func newFixture(t *testing.T, store *fakeStore) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	sess := session.New(session.Config{Now: c.Now})
	f := &fixture{store: store, rend: &recRenderer{}, notif: &recNotifier{}, clock: c}
	f.d = dashboard.New(dashboard.Config{
		Interval: time.Hour,
		Rand:     constRand(0.5),
		Logger:   quietLogger(),
	}, store, sess, f.rend, f.notif, nil)
	t.Cleanup(f.d.Stop)
	return f
}

// dispositivi dimostrativi: stress alto, bracciale spento, fatica alta
func demoDevices() []model.Device {
	return []model.Device{
		{ID: "1", Nombre: "Ring", Tipo: model.TypeRing, ValorSensor: 85, Estado: true},
		{ID: "2", Nombre: "Insole", Tipo: model.TypeInsole, ValorSensor: 86, Estado: true},
		{ID: "3", Nombre: "Band", Tipo: model.TypeWristband, ValorSensor: 50, Estado: false},
	}
}

func intp(v int) *int { return &v }
