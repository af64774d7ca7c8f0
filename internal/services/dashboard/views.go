package dashboard

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/devicestore"
	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
	"github.com/LeonardoBeccarini/biosync/internal/session"
)

// ---------- DTO verso la UI ----------

type Gauge struct {
	Type   model.DeviceType `json:"type"`
	Label  string           `json:"label"`
	Nombre string           `json:"nombre"`
	Value  int              `json:"value"`
	Estado bool             `json:"estado"`
	Level  model.Level      `json:"level"`
	Trend  session.Trend    `json:"trend"`
}

type Card struct {
	Device      model.Device `json:"device"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Level       model.Level  `json:"level"`
	Modes       []string     `json:"modes"`
	Mode        string       `json:"mode"`
}

type Recommendation struct {
	Topic    string `json:"topic"` // stress | fatigue | haptic
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

type Radar struct {
	Stress      int `json:"stress"`
	Fatigue     int `json:"fatigue"`
	Recovery    int `json:"recovery"`
	Activity    int `json:"activity"`
	Wellbeing   int `json:"wellbeing"`
	Temperature int `json:"temperature"`
}

type DashboardView struct {
	Stress          int              `json:"stress"`
	Fatigue         int              `json:"fatigue"`
	Haptic          int              `json:"haptic"`
	Wellbeing       int              `json:"wellbeing"`
	Devices         int              `json:"devices"`
	Online          int              `json:"online"`
	Alerts          int              `json:"alerts"`
	Radar           Radar            `json:"radar"`
	Recommendations []Recommendation `json:"recommendations"`
}

type StatusView struct {
	Store      devicestore.Status `json:"store"`
	StoreEmpty bool               `json:"store_empty"`
	Automation bool               `json:"automation"`
	Running    bool               `json:"running"`
	Uptime     string             `json:"uptime"`
	Clock      string             `json:"clock"`
	Ticks      uint64             `json:"ticks"`
}

type MonitorView struct {
	Gauges  []Gauge              `json:"gauges"`
	Series  session.Series       `json:"series"`
	History []session.HistoryRow `json:"history"`
}

// ---------- builder ----------

func valueOf(devices []model.Device, t model.DeviceType) int {
	if d, ok := model.FindByType(devices, t); ok {
		return d.ValorSensor
	}
	return 0
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Wellbeing: indice sintetico di benessere in [0,100].
func Wellbeing(stress, fatigue, haptic int) int {
	w := (float64(100-stress) + float64(100-fatigue) + float64(haptic)/2) / 2.5
	return entities.Clamp(roundHalfUp(w), 0, 100)
}

func BuildRadar(devices []model.Device) Radar {
	stress := valueOf(devices, model.TypeRing)
	fatigue := valueOf(devices, model.TypeInsole)
	haptic := valueOf(devices, model.TypeWristband)

	recovery := max(0, 100-fatigue)
	activity := 10
	if insole, ok := model.FindByType(devices, model.TypeInsole); ok && insole.Estado {
		activity = min(100, roundHalfUp(float64(fatigue)*0.8))
	}
	temp := roundHalfUp(36 + float64(haptic)*0.03)
	return Radar{
		Stress:      stress,
		Fatigue:     fatigue,
		Recovery:    recovery,
		Activity:    activity,
		Wellbeing:   roundHalfUp(float64(recovery+(100-stress)+(100-fatigue)) / 3),
		Temperature: temp,
	}
}

func Recommendations(stress, fatigue, haptic int) []Recommendation {
	recs := make([]Recommendation, 0, 3)

	switch {
	case stress > 75:
		recs = append(recs, Recommendation{"stress", "high", fmt.Sprintf(
			"High stress level (%d/100). A 5 minute diaphragmatic breathing session is recommended; the ThermoVibe wristband can assist in Soft mode.", stress)})
	case stress > 50:
		recs = append(recs, Recommendation{"stress", "moderate", fmt.Sprintf(
			"Moderate stress (%d/100). Take a 5 minute break every hour to stay productive.", stress)})
	default:
		recs = append(recs, Recommendation{"stress", "ok", fmt.Sprintf(
			"Stress within the optimal range (%d/100). Keep going with your current activities.", stress)})
	}

	switch {
	case fatigue > 80:
		recs = append(recs, Recommendation{"fatigue", "high", fmt.Sprintf(
			"High muscle fatigue (%d/100). Rest immediately and keep your legs raised for at least 20 minutes.", fatigue)})
	case fatigue > 55:
		recs = append(recs, Recommendation{"fatigue", "moderate", fmt.Sprintf(
			"Moderate fatigue (%d/100). Lower the intensity of the current activity and consider stretching.", fatigue)})
	default:
		recs = append(recs, Recommendation{"fatigue", "ok", fmt.Sprintf(
			"Muscle fatigue in the normal range (%d/100). Your body is handling the activity level well.", fatigue)})
	}

	if haptic > 60 {
		recs = append(recs, Recommendation{"haptic", "active", fmt.Sprintf(
			"ThermoVibe running at high intensity (%d/100). Thermal regulation is countering the detected stress.", haptic)})
	} else {
		recs = append(recs, Recommendation{"haptic", "standby", fmt.Sprintf(
			"ThermoVibe on standby (%d/100). Ready to start the wellbeing protocol when needed.", haptic)})
	}
	return recs
}

func BuildDashboard(devices []model.Device, alerts int) DashboardView {
	stress := valueOf(devices, model.TypeRing)
	fatigue := valueOf(devices, model.TypeInsole)
	haptic := valueOf(devices, model.TypeWristband)
	return DashboardView{
		Stress:          stress,
		Fatigue:         fatigue,
		Haptic:          haptic,
		Wellbeing:       Wellbeing(stress, fatigue, haptic),
		Devices:         len(devices),
		Online:          model.CountOnline(devices),
		Alerts:          alerts,
		Radar:           BuildRadar(devices),
		Recommendations: Recommendations(stress, fatigue, haptic),
	}
}

// ModesFor elenca le modalità operative disponibili per tipo.
func ModesFor(t model.DeviceType) []string {
	switch t {
	case model.TypeRing:
		return []string{"Breathing", "Meditation", "Focus"}
	case model.TypeInsole:
		return []string{"Walk", "Run", "Rest"}
	case model.TypeWristband:
		return []string{"Soft", "Medium", "Intense"}
	}
	return nil
}

func describe(t model.DeviceType) string {
	switch t {
	case model.TypeRing:
		return "CortiSense: GSR / cortisol"
	case model.TypeInsole:
		return "StepGuard: plantar fatigue"
	case model.TypeWristband:
		return "ThermoVibe: thermal haptics"
	}
	return ""
}

func BuildCards(devices []model.Device, modeOf func(id string) string) []Card {
	cards := make([]Card, 0, len(devices))
	for _, d := range devices {
		modes := ModesFor(d.Tipo)
		mode := ""
		if modeOf != nil {
			mode = modeOf(d.ID)
		}
		if mode == "" && len(modes) > 0 {
			mode = modes[0]
		}
		cards = append(cards, Card{
			Device:      d,
			Label:       d.Tipo.Label(),
			Description: describe(d.Tipo),
			Level:       entities.LevelOf(d.ValorSensor),
			Modes:       modes,
			Mode:        mode,
		})
	}
	return cards
}

func validMode(t model.DeviceType, mode string) bool {
	return slices.Contains(ModesFor(t), mode)
}

// formatUptime → hh:mm:ss
func formatUptime(d time.Duration) string {
	s := int(d.Seconds())
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}
