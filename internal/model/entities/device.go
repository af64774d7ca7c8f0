package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DeviceType identifica la variante di dispositivo. I valori sono quelli
// salvati nello store remoto.
type DeviceType string

const (
	TypeRing      DeviceType = "anillo"    // anello cortisolo (stress)
	TypeInsole    DeviceType = "plantilla" // soletta (fatica)
	TypeWristband DeviceType = "pulsera"   // bracciale aptico
)

// Types elenca le varianti in ordine di visualizzazione.
var Types = []DeviceType{TypeRing, TypeInsole, TypeWristband}

func (t DeviceType) Valid() bool {
	switch t {
	case TypeRing, TypeInsole, TypeWristband:
		return true
	}
	return false
}

// Label restituisce il nome leggibile della variante.
func (t DeviceType) Label() string {
	switch t {
	case TypeRing:
		return "Cortisol ring"
	case TypeInsole:
		return "Fatigue insole"
	case TypeWristband:
		return "Haptic wristband"
	}
	return string(t)
}

const (
	MinValue     = 0
	MaxValue     = 100
	DefaultValue = 50 // valore assunto quando lo store non riporta valor_sensor
)

// Device è l'unico record persistito nello store remoto.
type Device struct {
	ID            string     `json:"id,omitempty"`
	Nombre        string     `json:"nombre"`
	Tipo          DeviceType `json:"tipo"`
	ValorSensor   int        `json:"valor_sensor"`
	Estado        bool       `json:"estado"`
	UltimaLectura string     `json:"ultima_lectura"`
}

// UnmarshalJSON accetta i formati "sporchi" dello store mock: id numerico,
// valor_sensor come stringa, estado come "true"/"false".
func (d *Device) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*d = Device{ValorSensor: DefaultValue}

	switch x := m["id"].(type) {
	case string:
		d.ID = x
	case float64:
		d.ID = strconv.FormatInt(int64(x), 10)
	}
	if v, ok := m["nombre"].(string); ok {
		d.Nombre = v
	}
	if v, ok := m["tipo"].(string); ok {
		d.Tipo = DeviceType(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := m["ultima_lectura"].(string); ok {
		d.UltimaLectura = v
	}

	// valor_sensor come numero o stringa
	if mv, ok := m["valor_sensor"]; ok {
		switch x := mv.(type) {
		case float64:
			d.ValorSensor = Clamp(int(math.Round(x)), MinValue, MaxValue)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				d.ValorSensor = Clamp(int(math.Round(f)), MinValue, MaxValue)
			}
		}
	}

	switch x := m["estado"].(type) {
	case bool:
		d.Estado = x
	case string:
		d.Estado, _ = strconv.ParseBool(strings.TrimSpace(x))
	case float64:
		d.Estado = x != 0
	}
	return nil
}

// MarshalJSON garantisce che il valore inviato allo store resti in [0,100].
func (d Device) MarshalJSON() ([]byte, error) {
	type plain Device
	p := plain(d)
	p.ValorSensor = Clamp(p.ValorSensor, MinValue, MaxValue)
	return json.Marshal(p)
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Level è l'interpretazione qualitativa di una lettura.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelModerate Level = "moderate"
	LevelCritical Level = "critical"
)

func LevelOf(v int) Level {
	switch {
	case v < 40:
		return LevelNormal
	case v < 70:
		return LevelModerate
	default:
		return LevelCritical
	}
}
