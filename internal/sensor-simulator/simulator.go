package sensor_simulator

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/biosync/internal/model"
)

// Writer è la parte dello store usata per il write-back.
type Writer interface {
	Update(ctx context.Context, id string, d model.Device) bool
}

// Result riassume un passo di simulazione.
type Result struct {
	Devices []model.Device // snapshot con i nuovi valori
	Writes  int
	Failed  int
}

type Simulator struct {
	rnd    Rand
	store  Writer
	logger *slog.Logger
}

func NewSimulator(store Writer, rnd Rand, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{rnd: rnd, store: store, logger: logger}
}

// Step avanza ogni dispositivo dello snapshot e riscrive nello store quelli
// cambiati di almeno 1. Le scritture partono in parallelo e vengono attese
// tutte prima di tornare; una scrittura fallita non ferma le altre e il valore
// in memoria avanza comunque.
func (s *Simulator) Step(ctx context.Context, devices []model.Device) Result {
	out := make([]model.Device, len(devices))
	copy(out, devices)

	var (
		g      errgroup.Group
		failed atomic.Int32
		writes int
	)
	seen := make(map[string]struct{}, len(out))

	for i := range out {
		d := out[i]
		next := NextValue(d, s.rnd)
		if abs(next-d.ValorSensor) < 1 {
			continue
		}
		d.ValorSensor = next
		out[i] = d

		// stesso id due volte nello snapshot: una sola scrittura per tick
		if _, dup := seen[d.ID]; dup || d.ID == "" {
			s.logger.Warn("simulator: skipping write-back", "id", d.ID, "duplicate", dup)
			continue
		}
		seen[d.ID] = struct{}{}

		writes++
		g.Go(func() error {
			if !s.store.Update(ctx, d.ID, d) {
				failed.Add(1)
				s.logger.Warn("simulator: write-back failed", "id", d.ID, "tipo", d.Tipo, "valor", d.ValorSensor)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("simulator: step done", "devices", len(out), "writes", writes, "failed", failed.Load())
	return Result{Devices: out, Writes: writes, Failed: int(failed.Load())}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
