package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/biosync/internal/model"
)

const (
	RuleCriticalStress    = "critical_stress"
	RuleHighFatigue       = "high_fatigue"
	RuleProtocolCompleted = "protocol_completed"
)

// State è lo stato di sessione di cui le regole hanno bisogno.
type State interface {
	AutomationEnabled() bool
	AllowModal(now time.Time) bool
	FirstSighting(key string) bool
	IncAlerts() int
}

type Thresholds struct {
	StressCritical int // anello oltre questa soglia → bracciale ON
	StressNormal   int // anello sotto questa soglia → bracciale OFF
	FatigueHigh    int // soletta oltre questa soglia → toast
	FatigueBucket  int // ampiezza della fascia di dedup dei toast
}

func DefaultThresholds() Thresholds {
	return Thresholds{StressCritical: 80, StressNormal: 40, FatigueHigh: 85, FatigueBucket: 5}
}

// Action è una scrittura richiesta da una regola: Device è il record già
// aggiornato da inviare allo store.
type Action struct {
	Rule   string
	Device model.Device
}

type Outcome struct {
	Actions    []Action
	Alerts     []model.Alert
	Fired      []string
	Suppressed int // modali scartati dal rate limit
}

type Engine struct {
	th    Thresholds
	newID func() string
}

func NewEngine(th Thresholds) *Engine {
	if th.FatigueBucket <= 0 {
		th.FatigueBucket = DefaultThresholds().FatigueBucket
	}
	return &Engine{th: th, newID: uuid.NewString}
}

// Evaluate applica le regole allo snapshot, in ordine fisso. Non scrive
// nulla: le azioni vanno applicate dal chiamante.
func (e *Engine) Evaluate(devices []model.Device, st State, now time.Time) Outcome {
	var out Outcome
	if !st.AutomationEnabled() {
		return out
	}

	ring, hasRing := model.FindByType(devices, model.TypeRing)
	insole, hasInsole := model.FindByType(devices, model.TypeInsole)
	band, hasBand := model.FindByType(devices, model.TypeWristband)

	// 1: stress critico → attiva il bracciale
	if hasRing && hasBand && ring.ValorSensor > e.th.StressCritical && !band.Estado {
		band.Estado = true
		out.Actions = append(out.Actions, Action{Rule: RuleCriticalStress, Device: band})
		out.Fired = append(out.Fired, RuleCriticalStress)
		if st.AllowModal(now) {
			out.Alerts = append(out.Alerts, model.Alert{
				ID:       e.newID(),
				Kind:     model.AlertModal,
				Severity: model.SeverityWarning,
				Title:    "Critical stress detected",
				Body: fmt.Sprintf("Cortisol level of %s reached %d/100. The haptic wristband %s was turned on to start the regulation protocol.",
					ring.Nombre, ring.ValorSensor, band.Nombre),
				DeviceInfo: fmt.Sprintf("Ring: %d | Wristband: on", ring.ValorSensor),
				Time:       now,
			})
		} else {
			out.Suppressed++
		}
		st.IncAlerts()
	}

	// 2: fatica alta → un toast per fascia di valore
	if hasInsole && insole.ValorSensor > e.th.FatigueHigh {
		key := fmt.Sprintf("fatigue_%d", insole.ValorSensor/e.th.FatigueBucket)
		if st.FirstSighting(key) {
			out.Alerts = append(out.Alerts, model.Alert{
				ID:       e.newID(),
				Kind:     model.AlertToast,
				Severity: model.SeverityWarning,
				Title:    "High fatigue",
				Body:     fmt.Sprintf("%s: %d/100. Immediate rest recommended.", insole.Nombre, insole.ValorSensor),
				Time:     now,
			})
			out.Fired = append(out.Fired, RuleHighFatigue)
			st.IncAlerts()
		}
	}

	// 3: stress rientrato → spegne il bracciale
	if hasRing && hasBand && ring.ValorSensor < e.th.StressNormal && band.Estado {
		band.Estado = false
		out.Actions = append(out.Actions, Action{Rule: RuleProtocolCompleted, Device: band})
		out.Fired = append(out.Fired, RuleProtocolCompleted)
		out.Alerts = append(out.Alerts, model.Alert{
			ID:       e.newID(),
			Kind:     model.AlertToast,
			Severity: model.SeveritySuccess,
			Title:    "Protocol completed",
			Body:     fmt.Sprintf("Stress back to normal (%d/100). %s turned off.", ring.ValorSensor, band.Nombre),
			Time:     now,
		})
	}

	return out
}

// Apply restituisce una copia di devices con le azioni applicate.
func Apply(devices []model.Device, actions []Action) []model.Device {
	out := make([]model.Device, len(devices))
	copy(out, devices)
	for _, a := range actions {
		if i := model.FindByID(out, a.Device.ID); i >= 0 {
			out[i] = a.Device
		}
	}
	return out
}
