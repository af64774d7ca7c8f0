package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller esegue tick a intervallo fisso su una sola goroutine: due tick non
// si sovrappongono mai e al massimo uno resta in coda mentre un altro gira.
type Poller struct {
	interval time.Duration
	tick     func(context.Context)
	logger   *slog.Logger

	refresh chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, tick func(context.Context), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval: interval,
		tick:     tick,
		logger:   logger,
		refresh:  make(chan struct{}, 1),
	}
}

// Start avvia il loop con un primo tick immediato. Se il loop è già attivo
// non fa nulla e restituisce false.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
	p.logger.Info("poller started", "interval", p.interval)
	return true
}

// Stop ferma il loop e attende la fine del tick in corso. Idempotente.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("poller stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Refresh chiede un tick appena possibile, senza bloccare.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			drain[struct{}](p.refresh)
		case <-p.refresh:
			drain[time.Time](t.C)
		}
		if ctx.Err() != nil {
			return
		}
		p.tick(ctx)
	}
}

// una sola tick pendente: scarta l'altra sorgente se anch'essa è pronta
func drain[T any](ch <-chan T) {
	select {
	case <-ch:
	default:
	}
}
