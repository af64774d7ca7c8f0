package mockstore_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/biosync/internal/devicestore"
	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/services/mockstore"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreSequentialIDs(t *testing.T) {
	s := mockstore.NewStore()
	a := s.Create("devices", mockstore.Record{"id": "999", "nombre": "a"})
	b := s.Create("devices", mockstore.Record{"nombre": "b"})
	other := s.Create("others", mockstore.Record{})

	if a["id"] != "1" || b["id"] != "2" || other["id"] != "1" {
		t.Errorf("ids = %v %v %v", a["id"], b["id"], other["id"])
	}

	if _, err := s.Delete("devices", "1"); err != nil {
		t.Fatal(err)
	}
	// gli id non vengono riutilizzati
	if c := s.Create("devices", mockstore.Record{}); c["id"] != "3" {
		t.Errorf("id after delete = %v", c["id"])
	}
	list := s.List("devices")
	if len(list) != 2 || list[0]["id"] != "2" {
		t.Errorf("list = %v", list)
	}
}

func TestStoreUpdateMergesAndKeepsID(t *testing.T) {
	s := mockstore.NewStore()
	s.Create("d", mockstore.Record{"nombre": "a", "estado": false})

	got, err := s.Update("d", "1", mockstore.Record{"id": "7", "estado": true})
	if err != nil {
		t.Fatal(err)
	}
	if got["id"] != "1" || got["nombre"] != "a" || got["estado"] != true {
		t.Errorf("updated = %v", got)
	}
	if _, err := s.Update("d", "2", mockstore.Record{}); err == nil {
		t.Error("update of missing record succeeded")
	}
}

func TestStoreSeedOnlyWhenEmpty(t *testing.T) {
	s := mockstore.NewStore()
	if n := s.Seed("d", mockstore.Record{"a": 1}, mockstore.Record{"b": 2}); n != 2 {
		t.Errorf("seeded %d", n)
	}
	if n := s.Seed("d", mockstore.Record{"c": 3}); n != 0 {
		t.Errorf("second seed added %d", n)
	}
}

func TestAPIStatusCodes(t *testing.T) {
	srv := httptest.NewServer(mockstore.NewRouter(mockstore.NewStore(), quietLogger()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/items", "application/json", strings.NewReader(`{"nombre":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	var created map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created["id"] != "1" {
		t.Errorf("create = %d %v", resp.StatusCode, created)
	}

	resp, err = http.Get(srv.URL + "/items/42")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing item = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/items", "application/json", strings.NewReader(`[`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body = %d", resp.StatusCode)
	}
}

// il client dello store contro il mock: stesso contratto del servizio remoto
func TestDeviceStoreClientAgainstMock(t *testing.T) {
	srv := httptest.NewServer(mockstore.NewRouter(mockstore.NewStore(), quietLogger()))
	defer srv.Close()

	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.Local)
	c := devicestore.New(devicestore.Config{
		BaseURL: srv.URL + "/dispositivos_IoT",
		Timeout: time.Second,
		Logger:  quietLogger(),
		Now:     func() time.Time { return now },
	})
	ctx := context.Background()

	if got := c.List(ctx); len(got) != 0 {
		t.Fatalf("empty collection = %v", got)
	}
	if !c.Status().Reachable {
		t.Error("empty collection reported as unreachable")
	}

	if !c.Create(ctx, model.Device{Nombre: "Ring", Tipo: model.TypeRing, ValorSensor: 42}) {
		t.Fatal("create failed")
	}
	list := c.List(ctx)
	if len(list) != 1 || list[0].ID != "1" || list[0].UltimaLectura != "03/02/2025 04:05:06" {
		t.Fatalf("list = %+v", list)
	}

	d := list[0]
	d.Estado = true
	if !c.Update(ctx, d.ID, d) {
		t.Fatal("update failed")
	}
	if got := c.List(ctx)[0]; !got.Estado || got.ValorSensor != 42 {
		t.Errorf("after update = %+v", got)
	}
	if c.Update(ctx, "99", d) {
		t.Error("update of missing id succeeded")
	}
	if !c.Delete(ctx, d.ID) || len(c.List(ctx)) != 0 {
		t.Error("delete failed")
	}
}
