package dashboard_test

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/biosync/internal/services/dashboard"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestCommandHandlerTogglesDevice(t *testing.T) {
	f := newFixture(t, newFakeStore(demoDevices()...))
	h := dashboard.NewCommandHandler(f.d, time.Minute, quietLogger())

	err := h.Handle(dashboard.TopicCommands+"/#", fakeMessage{
		topic:   dashboard.TopicCommands + "/3",
		payload: []byte(`{"estado":true}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if band, _ := f.store.get("3"); !band.Estado {
		t.Error("id from topic: wristband not turned on")
	}

	err = h.Handle(dashboard.TopicCommands+"/#", fakeMessage{
		topic:   dashboard.TopicCommands,
		payload: []byte(`{"device_id":"1","estado":false}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if ring, _ := f.store.get("1"); ring.Estado {
		t.Error("id from payload: ring not turned off")
	}

	states := f.notif.stateEvents()
	if len(states) != 2 || states[0].Source != "mqtt" {
		t.Errorf("state events = %+v", states)
	}
}

func TestCommandHandlerDropsDuplicates(t *testing.T) {
	f := newFixture(t, newFakeStore(demoDevices()...))
	h := dashboard.NewCommandHandler(f.d, time.Minute, quietLogger())

	msg := fakeMessage{topic: dashboard.TopicCommands + "/3", payload: []byte(`{"estado":true}`)}
	for i := 0; i < 3; i++ {
		if err := h.Handle("", msg); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(f.notif.stateEvents()); n != 1 {
		t.Errorf("redelivered payload applied %d times", n)
	}
}

func TestCommandHandlerRetriesAfterStoreFailure(t *testing.T) {
	store := newFakeStore(demoDevices()...)
	store.unreachable = true
	f := newFixture(t, store)
	h := dashboard.NewCommandHandler(f.d, time.Minute, quietLogger())

	msg := fakeMessage{topic: dashboard.TopicCommands + "/3", payload: []byte(`{"estado":true}`)}
	if err := h.Handle("", msg); err == nil {
		t.Fatal("toggle with unreachable store returned nil")
	}

	// la redelivery dopo il ripristino deve essere eseguita
	store.set(func(s *fakeStore) { s.unreachable = false })
	if err := h.Handle("", msg); err != nil {
		t.Fatal(err)
	}
	if band, _ := store.get("3"); !band.Estado {
		t.Error("redelivered command not applied")
	}
	if n := len(f.notif.stateEvents()); n != 1 {
		t.Errorf("state events = %d", n)
	}
}

func TestCommandHandlerBadInput(t *testing.T) {
	f := newFixture(t, newFakeStore(demoDevices()...))
	h := dashboard.NewCommandHandler(f.d, time.Minute, quietLogger())

	if err := h.Handle("", fakeMessage{topic: dashboard.TopicCommands + "/1", payload: []byte(`nope`)}); err == nil {
		t.Error("bad payload accepted")
	}
	if err := h.Handle("", fakeMessage{topic: dashboard.TopicCommands, payload: []byte(`{"estado":true}`)}); err == nil {
		t.Error("command without id accepted")
	}
	// id sconosciuto: nessun errore, nessun effetto
	if err := h.Handle("", fakeMessage{topic: dashboard.TopicCommands, payload: []byte(`{"device_id":"42","estado":true}`)}); err != nil {
		t.Errorf("unknown id err = %v", err)
	}
	if len(f.notif.stateEvents()) != 0 {
		t.Error("unexpected state change")
	}
}

// consumer finto: consegna i messaggi in coda all'handler registrato
type fakeConsumer struct {
	handler func(string, mqtt.Message) error
	queue   []fakeMessage
	errs    []error
}

func (c *fakeConsumer) SetHandler(h func(string, mqtt.Message) error) { c.handler = h }

func (c *fakeConsumer) ConsumeMessage(ctx context.Context) {
	for _, m := range c.queue {
		if ctx.Err() != nil {
			return
		}
		c.errs = append(c.errs, c.handler("biosync/commands/#", m))
	}
}

func TestCommandHandlerRunWiresConsumer(t *testing.T) {
	f := newFixture(t, newFakeStore(demoDevices()...))
	h := dashboard.NewCommandHandler(f.d, time.Minute, quietLogger())

	c := &fakeConsumer{queue: []fakeMessage{
		{topic: dashboard.TopicCommands + "/3", payload: []byte(`{"estado":true}`)},
		{topic: dashboard.TopicCommands + "/3", payload: []byte(`{"estado":true}`)},
		{topic: dashboard.TopicCommands, payload: []byte(`{}`)},
	}}
	h.Run(context.Background(), c)

	if len(c.errs) != 3 || c.errs[0] != nil || c.errs[1] != nil || c.errs[2] == nil {
		t.Errorf("errs = %v", c.errs)
	}
	if band, _ := f.store.get("3"); !band.Estado {
		t.Error("wristband not turned on")
	}
	if n := len(f.notif.stateEvents()); n != 1 {
		t.Errorf("state events = %d", n)
	}
}
