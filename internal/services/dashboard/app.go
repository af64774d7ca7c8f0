package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/biosync/internal/devicestore"
	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
	"github.com/LeonardoBeccarini/biosync/internal/rules"
	sim "github.com/LeonardoBeccarini/biosync/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/biosync/internal/session"
)

// Store è il sottoinsieme del client dello store usato dalla dashboard.
type Store interface {
	List(ctx context.Context) []model.Device
	Create(ctx context.Context, d model.Device) bool
	Update(ctx context.Context, id string, d model.Device) bool
	Delete(ctx context.Context, id string) bool
	Status() devicestore.Status
}

type Config struct {
	Interval     time.Duration
	WriteTimeout time.Duration // scritture delle regole, anche in shutdown
	Thresholds   rules.Thresholds
	Rand         sim.Rand
	Logger       *slog.Logger
}

type Dashboard struct {
	cfg      Config
	store    Store
	sim      *sim.Simulator
	engine   *rules.Engine
	sess     *session.Session
	renderer Renderer
	notifier Notifier
	metrics  *Metrics
	logger   *slog.Logger
	poller   *Poller

	// turn serializza tick ed eventi utente, come un event loop
	turn sync.Mutex
	// scritture delle regole ancora in volo: attese prima del turno successivo
	pending sync.WaitGroup
	ticks   atomic.Uint64

	viewMu sync.RWMutex
	gauges []Gauge
	dash   DashboardView
	status StatusView
}

func New(cfg Config, store Store, sess *session.Session, renderer Renderer, notifier Notifier, metrics *Metrics) *Dashboard {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Thresholds == (rules.Thresholds{}) {
		cfg.Thresholds = rules.DefaultThresholds()
	}
	if cfg.Rand == nil {
		cfg.Rand = sim.NewRand(0)
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	d := &Dashboard{
		cfg:      cfg,
		store:    store,
		sim:      sim.NewSimulator(store, cfg.Rand, cfg.Logger),
		engine:   rules.NewEngine(cfg.Thresholds),
		sess:     sess,
		renderer: renderer,
		notifier: notifier,
		metrics:  metrics,
		logger:   cfg.Logger,
	}
	d.poller = NewPoller(cfg.Interval, d.Tick, cfg.Logger)
	return d
}

// Start avvia il poll loop; una seconda chiamata non crea un secondo loop.
func (d *Dashboard) Start(ctx context.Context) bool { return d.poller.Start(ctx) }

// Stop ferma il loop e attende le scritture ancora in volo.
func (d *Dashboard) Stop() {
	d.poller.Stop()
	d.lock()
	d.unlock()
}

func (d *Dashboard) Running() bool { return d.poller.Running() }

func (d *Dashboard) Session() *session.Session { return d.sess }

// lock acquisisce il turno dopo che le scritture del turno precedente sono
// terminate, così due scritture sullo stesso id non si intrecciano.
func (d *Dashboard) lock() {
	d.turn.Lock()
	d.pending.Wait()
}

func (d *Dashboard) unlock() { d.turn.Unlock() }

// Tick: fetch → simulazione e write-back → regole → render.
func (d *Dashboard) Tick(ctx context.Context) {
	d.lock()
	defer d.unlock()

	start := time.Now()
	now := d.sess.Now()

	devices := d.store.List(ctx)

	res := d.sim.Step(ctx, devices)
	d.metrics.simulation(res.Writes, res.Failed)
	snapshot := res.Devices

	out := d.engine.Evaluate(snapshot, d.sess, now)
	snapshot = rules.Apply(snapshot, out.Actions)
	d.dispatch(ctx, out, now)

	d.sess.SetSnapshot(snapshot)
	n := d.ticks.Add(1)
	d.render(snapshot, now)

	d.metrics.snapshot(snapshot)
	d.metrics.observeTick(time.Since(start))
	d.logger.Debug("tick done", "n", n, "devices", len(snapshot), "writes", res.Writes,
		"rules", out.Fired, "took", time.Since(start))
}

// dispatch avvia le scritture delle regole senza attenderle e consegna gli alert.
func (d *Dashboard) dispatch(ctx context.Context, out rules.Outcome, now time.Time) {
	for _, rule := range out.Fired {
		d.metrics.ruleFired(rule)
	}

	for _, a := range out.Actions {
		dev, rule := a.Device, a.Rule
		d.pending.Add(1)
		go func() {
			defer d.pending.Done()
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.WriteTimeout)
			defer cancel()
			if !d.store.Update(wctx, dev.ID, dev) {
				d.logger.Warn("rule write failed", "rule", rule, "id", dev.ID)
				return
			}
			d.publishState(wctx, dev, "rule:"+rule, now)
		}()
	}

	for _, al := range out.Alerts {
		d.deliver(ctx, al)
	}
}

// deliver mostra un alert e lo inoltra al notifier in background.
func (d *Dashboard) deliver(ctx context.Context, a model.Alert) {
	d.sess.RecordAlert(a)
	d.renderer.RenderAlert(a)
	d.metrics.alert(a.Kind)
	go func() {
		if err := d.notifier.NotifyAlert(context.WithoutCancel(ctx), a); err != nil {
			d.logger.Warn("alert notify failed", "id", a.ID, "err", err)
		}
	}()
}

func (d *Dashboard) publishState(ctx context.Context, dev model.Device, source string, now time.Time) {
	evt := model.StateChangeEvent{
		EventID:   uuid.NewString(),
		DeviceID:  dev.ID,
		Tipo:      dev.Tipo,
		NewState:  dev.Estado,
		Source:    source,
		Timestamp: now.UTC(),
	}
	if err := d.notifier.NotifyState(ctx, evt); err != nil {
		d.logger.Warn("state notify failed", "id", dev.ID, "err", err)
	}
}

func (d *Dashboard) render(snapshot []model.Device, now time.Time) {
	layout := LayoutRebuild
	if d.sess.CheckLayout(model.IDs(snapshot)) {
		layout = LayoutPatch
	}
	d.renderer.RenderTable(snapshot, layout)
	d.renderer.RenderCards(BuildCards(snapshot, d.sess.Mode), layout)

	gauges := make([]Gauge, 0, 3)
	for _, t := range model.Types {
		dev, ok := model.FindByType(snapshot, t)
		if !ok {
			continue
		}
		g := Gauge{
			Type:   t,
			Label:  t.Label(),
			Nombre: dev.Nombre,
			Value:  dev.ValorSensor,
			Estado: dev.Estado,
			Level:  entities.LevelOf(dev.ValorSensor),
			Trend:  d.sess.Trend(t, dev.ValorSensor),
		}
		gauges = append(gauges, g)
		d.renderer.RenderGauge(t, g)
	}

	// store vuoto o irraggiungibile: niente punti a zero nel grafico
	if len(snapshot) > 0 {
		d.sess.PushPoint(snapshot, now)
		d.sess.PushHistory(snapshot, now)
	}
	d.renderer.RenderChart(d.sess.Series())
	d.renderer.RenderHistory(d.sess.History())

	dash := BuildDashboard(snapshot, d.sess.AlertCount())
	d.renderer.RenderDashboard(dash)

	st := d.statusView(snapshot, now)
	d.renderer.RenderStatus(st)

	d.viewMu.Lock()
	d.gauges, d.dash, d.status = gauges, dash, st
	d.viewMu.Unlock()
}

func (d *Dashboard) statusView(snapshot []model.Device, now time.Time) StatusView {
	return StatusView{
		Store:      d.store.Status(),
		StoreEmpty: len(snapshot) == 0,
		Automation: d.sess.AutomationEnabled(),
		Running:    d.poller.Running(),
		Uptime:     formatUptime(d.sess.Uptime(now)),
		Clock:      now.Format("15:04:05"),
		Ticks:      d.ticks.Load(),
	}
}

// View restituisce i dati della scheda richiesta dall'ultimo render.
func (d *Dashboard) View(tab model.Tab) (any, error) {
	snapshot := d.sess.Snapshot()
	d.viewMu.RLock()
	defer d.viewMu.RUnlock()

	switch tab {
	case model.TabMonitor:
		return MonitorView{
			Gauges:  append([]Gauge(nil), d.gauges...),
			Series:  d.sess.Series(),
			History: d.sess.History(),
		}, nil
	case model.TabControl:
		return BuildCards(snapshot, d.sess.Mode), nil
	case model.TabAdmin:
		return snapshot, nil
	case model.TabDashboard:
		v := d.dash
		v.Alerts = d.sess.AlertCount()
		return v, nil
	}
	return nil, ErrUnknownTab
}

// Status restituisce l'ultimo stato renderizzato, aggiornato allo store attuale.
func (d *Dashboard) Status() StatusView {
	d.viewMu.RLock()
	st := d.status
	d.viewMu.RUnlock()
	now := d.sess.Now()
	st.Store = d.store.Status()
	st.Automation = d.sess.AutomationEnabled()
	st.Running = d.poller.Running()
	st.Uptime = formatUptime(d.sess.Uptime(now))
	st.Clock = now.Format("15:04:05")
	st.Ticks = d.ticks.Load()
	return st
}
