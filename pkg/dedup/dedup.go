package dedup

import (
	"sync"
	"time"
)

// Deduper ricorda le chiavi già viste per un TTL. Usato sia per i payload MQTT
// ridelivered sia per i toast di fatica (una volta per fascia di valore).
type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seen map[string]time.Time
	now  func() time.Time
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]time.Time, max), now: time.Now}
}

// WithClock sostituisce l'orologio (test).
func (d *Deduper) WithClock(now func() time.Time) *Deduper {
	d.mu.Lock()
	d.now = now
	d.mu.Unlock()
	return d
}

// ShouldProcess è un check-and-set: true solo la prima volta che la chiave
// compare entro il TTL.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.evict(now)
	}
	return true
}

// Seen riporta se la chiave è ancora valida senza registrarla.
func (d *Deduper) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.seen[id]
	return ok && d.now().Before(exp)
}

func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func (d *Deduper) evict(now time.Time) {
	for k, v := range d.seen {
		if now.After(v) {
			delete(d.seen, k)
		}
		if len(d.seen) <= d.max {
			return
		}
	}
	// nessuna chiave scaduta: si scarta la più vecchia
	var oldest string
	var oldestExp time.Time
	for k, v := range d.seen {
		if oldest == "" || v.Before(oldestExp) {
			oldest, oldestExp = k, v
		}
	}
	delete(d.seen, oldest)
}
