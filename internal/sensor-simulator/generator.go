package sensor_simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/model/entities"
)

// ====== Tunables ======
const (
	// anello acceso: 15% di probabilità di picco di stress
	ringEventProb = 0.15
	// soletta accesa: 20% di probabilità di picco di attività
	insolePeakProb = 0.20

	// anello spento: il cortisolo scende ma non sotto questa soglia
	ringRestFloor = 10

	// bracciale acceso: range "normale"
	wristbandMin = 10
	wristbandMax = 80
)

// Rand è la sorgente di casualità; *rand.Rand la soddisfa.
// Iniettata così i test sono deterministici.
type Rand interface {
	Float64() float64
}

// NewRand crea una sorgente con il seed dato; seed 0 → basato sull'orario.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NextValue calcola la prossima lettura di un dispositivo a partire dalla
// precedente. Funzione pura: nessuno stato oltre a quello di rnd.
func NextValue(d model.Device, rnd Rand) int {
	prev := float64(d.ValorSensor)
	next := prev

	if !d.Estado {
		// Spento → recupero lento, mai in salita
		switch d.Tipo {
		case model.TypeInsole:
			next = math.Max(0, prev-(rnd.Float64()*4+1))
		case model.TypeRing:
			next = math.Min(prev, math.Max(ringRestFloor, prev-rnd.Float64()*3))
		default:
			next = math.Max(0, prev-(rnd.Float64()*6+2))
		}
		return round(next)
	}

	switch d.Tipo {
	case model.TypeRing:
		if rnd.Float64() < ringEventProb {
			next = math.Min(entities.MaxValue, prev+rnd.Float64()*20+8)
		} else {
			// leggera tendenza a scendere
			next = prev + (rnd.Float64()-0.4)*8
		}
	case model.TypeInsole:
		// fatica cumulativa
		if rnd.Float64() < insolePeakProb {
			next = math.Min(entities.MaxValue, prev+rnd.Float64()*15+5)
		} else {
			next = math.Min(entities.MaxValue, prev+rnd.Float64()*3+0.5)
		}
	case model.TypeWristband:
		next = prev + (rnd.Float64()-0.5)*6
		next = math.Max(wristbandMin, math.Min(wristbandMax, next))
	}
	return round(next)
}

func round(v float64) int {
	return entities.Clamp(int(math.Floor(v+0.5)), entities.MinValue, entities.MaxValue)
}
