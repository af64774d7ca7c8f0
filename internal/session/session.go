package session

import (
	"slices"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
	"github.com/LeonardoBeccarini/biosync/pkg/dedup"
)

const labelLayout = "15:04:05"

type Config struct {
	HistoryPoints int           // punti per tipo nel grafico
	HistoryRows   int           // righe del log storico
	RecentAlerts  int           // alert tenuti per l'API
	ModalCooldown time.Duration // un modale al massimo ogni ModalCooldown
	DedupTTL      time.Duration // memoria dei toast di fatica
	Now           func() time.Time
}

func (c *Config) defaults() {
	if c.HistoryPoints <= 0 {
		c.HistoryPoints = 30
	}
	if c.HistoryRows <= 0 {
		c.HistoryRows = 10
	}
	if c.RecentAlerts <= 0 {
		c.RecentAlerts = 50
	}
	if c.ModalCooldown <= 0 {
		c.ModalCooldown = 10 * time.Second
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Stable Direction = "stable"
)

type Trend struct {
	Delta     int       `json:"delta"`
	Direction Direction `json:"direction"`
}

// Point è un campione del grafico: un valore per tipo (0 se il tipo manca).
type Point struct {
	Label     string
	Ring      int
	Insole    int
	Wristband int
}

type Series struct {
	Labels    []string `json:"labels"`
	Ring      []int    `json:"ring"`
	Insole    []int    `json:"insole"`
	Wristband []int    `json:"wristband"`
}

type HistoryRow struct {
	Nombre string           `json:"nombre"`
	Tipo   model.DeviceType `json:"tipo"`
	Valor  int              `json:"valor"`
	Estado bool             `json:"estado"`
	Level  model.Level      `json:"level"`
	Hora   string           `json:"hora"`
}

// Session è lo stato derivato della dashboard, posseduto dal poll loop e
// passato esplicitamente a regole e render. Sicuro per uso concorrente.
type Session struct {
	mu  sync.Mutex
	cfg Config

	automation bool
	alertCount int
	lastModal  time.Time
	shown      *dedup.Deduper

	previous    map[model.DeviceType]int
	points      *Ring[Point]
	history     []HistoryRow
	renderedIDs []string
	alerts      *Ring[model.Alert]
	modes       map[string]string
	snapshot    []model.Device
	startedAt   time.Time
}

func New(cfg Config) *Session {
	cfg.defaults()
	return &Session{
		cfg:        cfg,
		automation: true,
		shown:      dedup.New(cfg.DedupTTL, 1000).WithClock(cfg.Now),
		previous:   make(map[model.DeviceType]int),
		points:     NewRing[Point](cfg.HistoryPoints),
		alerts:     NewRing[model.Alert](cfg.RecentAlerts),
		modes:      make(map[string]string),
		startedAt:  cfg.Now(),
	}
}

func (s *Session) Now() time.Time { return s.cfg.Now() }

// ---------- automazione e alert ----------

func (s *Session) AutomationEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.automation
}

// SetAutomation riporta se il valore è cambiato.
func (s *Session) SetAutomation(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.automation != on
	s.automation = on
	return changed
}

// AllowModal è vero se nessun modale è stato mostrato nel cooldown; in quel
// caso registra now come ultimo modale.
func (s *Session) AllowModal(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lastModal.IsZero() && now.Sub(s.lastModal) < s.cfg.ModalCooldown {
		return false
	}
	s.lastModal = now
	return true
}

// FirstSighting è vero la prima volta che key compare.
func (s *Session) FirstSighting(key string) bool {
	return s.shown.ShouldProcess(key)
}

func (s *Session) IncAlerts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertCount++
	return s.alertCount
}

func (s *Session) AlertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertCount
}

func (s *Session) RecordAlert(a model.Alert) {
	s.mu.Lock()
	s.alerts.Push(a)
	s.mu.Unlock()
}

// RecentAlerts restituisce gli alert dal più recente.
func (s *Session) RecentAlerts() []model.Alert {
	s.mu.Lock()
	items := s.alerts.Items()
	s.mu.Unlock()
	slices.Reverse(items)
	return items
}

// ---------- trend e storico ----------

// Trend confronta v con il valore precedente del tipo e lo memorizza.
// Alla prima lettura il trend è stabile.
func (s *Session) Trend(t model.DeviceType, v int) Trend {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.previous[t]
	s.previous[t] = v
	if !ok {
		return Trend{Direction: Stable}
	}
	d := v - prev
	switch {
	case d > 0:
		return Trend{Delta: d, Direction: Up}
	case d < 0:
		return Trend{Delta: d, Direction: Down}
	}
	return Trend{Direction: Stable}
}

// PushPoint aggiunge un campione per tipo al grafico.
func (s *Session) PushPoint(devices []model.Device, now time.Time) {
	valueOf := func(t model.DeviceType) int {
		if d, ok := model.FindByType(devices, t); ok {
			return d.ValorSensor
		}
		return 0
	}
	p := Point{
		Label:     now.Format(labelLayout),
		Ring:      valueOf(model.TypeRing),
		Insole:    valueOf(model.TypeInsole),
		Wristband: valueOf(model.TypeWristband),
	}
	s.mu.Lock()
	s.points.Push(p)
	s.mu.Unlock()
}

func (s *Session) Series() Series {
	s.mu.Lock()
	pts := s.points.Items()
	s.mu.Unlock()

	out := Series{
		Labels:    make([]string, 0, len(pts)),
		Ring:      make([]int, 0, len(pts)),
		Insole:    make([]int, 0, len(pts)),
		Wristband: make([]int, 0, len(pts)),
	}
	for _, p := range pts {
		out.Labels = append(out.Labels, p.Label)
		out.Ring = append(out.Ring, p.Ring)
		out.Insole = append(out.Insole, p.Insole)
		out.Wristband = append(out.Wristband, p.Wristband)
	}
	return out
}

// PushHistory antepone una riga per dispositivo e tiene le ultime HistoryRows.
func (s *Session) PushHistory(devices []model.Device, now time.Time) {
	hora := now.Format(labelLayout)
	rows := make([]HistoryRow, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, HistoryRow{
			Nombre: d.Nombre,
			Tipo:   d.Tipo,
			Valor:  d.ValorSensor,
			Estado: d.Estado,
			Level:  entities.LevelOf(d.ValorSensor),
			Hora:   hora,
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(rows, s.history...)
	if len(s.history) > s.cfg.HistoryRows {
		s.history = s.history[:s.cfg.HistoryRows]
	}
}

func (s *Session) History() []HistoryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// ---------- struttura della tabella ----------

// SameStructure: stessi id nello stesso ordine e lista precedente non vuota.
func SameStructure(prev, next []string) bool {
	return len(prev) > 0 && slices.Equal(prev, next)
}

// CheckLayout confronta ids con gli ultimi renderizzati e li memorizza.
// Vero se basta un patch, falso se serve una ricostruzione.
func (s *Session) CheckLayout(ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	same := SameStructure(s.renderedIDs, ids)
	s.renderedIDs = slices.Clone(ids)
	return same
}

// ---------- snapshot, modalità, uptime ----------

func (s *Session) SetSnapshot(devices []model.Device) {
	s.mu.Lock()
	s.snapshot = slices.Clone(devices)
	s.mu.Unlock()
}

func (s *Session) Snapshot() []model.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snapshot)
}

func (s *Session) SetMode(id, mode string) {
	s.mu.Lock()
	s.modes[id] = mode
	s.mu.Unlock()
}

func (s *Session) Mode(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[id]
}

// ForgetDevice rimuove lo stato legato a un dispositivo eliminato.
func (s *Session) ForgetDevice(id string) {
	s.mu.Lock()
	delete(s.modes, id)
	s.mu.Unlock()
}

func (s *Session) Uptime(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}
