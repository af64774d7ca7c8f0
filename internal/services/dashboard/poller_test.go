package dashboard_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/services/dashboard"
)

func TestPollerTicksNeverOverlap(t *testing.T) {
	var running, maxRunning, count atomic.Int32
	tick := func(context.Context) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond)
		count.Add(1)
		running.Add(-1)
	}

	p := dashboard.NewPoller(time.Millisecond, tick, quietLogger())
	p.Start(context.Background())
	for i := 0; i < 20; i++ {
		p.Refresh()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	if m := maxRunning.Load(); m != 1 {
		t.Errorf("max concurrent ticks = %d, want 1", m)
	}
	if count.Load() < 2 {
		t.Errorf("only %d ticks ran", count.Load())
	}
}

func TestPollerStartIsIdempotent(t *testing.T) {
	var count atomic.Int32
	p := dashboard.NewPoller(time.Hour, func(context.Context) { count.Add(1) }, quietLogger())

	if !p.Start(context.Background()) {
		t.Fatal("first Start returned false")
	}
	if p.Start(context.Background()) {
		t.Error("second Start returned true")
	}
	p.Stop()
	p.Stop()

	// un solo loop: un solo tick iniziale
	if n := count.Load(); n != 1 {
		t.Errorf("ticks = %d, want 1", n)
	}
	if p.Running() {
		t.Error("running after Stop")
	}

	// riavviabile dopo Stop
	if !p.Start(context.Background()) {
		t.Error("Start after Stop returned false")
	}
	p.Stop()
}

func TestPollerRefreshRunsTick(t *testing.T) {
	ticks := make(chan struct{}, 10)
	p := dashboard.NewPoller(time.Hour, func(context.Context) { ticks <- struct{}{} }, quietLogger())
	p.Start(context.Background())
	defer p.Stop()

	waitTick := func(what string) {
		t.Helper()
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatalf("no tick after %s", what)
		}
	}
	waitTick("start")
	p.Refresh()
	waitTick("refresh")
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var count atomic.Int32
	p := dashboard.NewPoller(5*time.Millisecond, func(context.Context) { count.Add(1) }, quietLogger())
	p.Start(ctx)
	cancel()
	time.Sleep(30 * time.Millisecond)
	n := count.Load()
	time.Sleep(30 * time.Millisecond)
	if count.Load() != n {
		t.Error("ticks continued after context cancel")
	}
	p.Stop()
}
