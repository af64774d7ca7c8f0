package dashboard

import (
	"encoding/json"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler /healthz: stato sintetico delle dipendenze, sempre 200.
type healthHandler struct {
	d    *Dashboard
	mqtt mqtt.Client // nil se MQTT è disabilitato
}

func NewHealthHandler(d *Dashboard, m mqtt.Client) http.Handler {
	return &healthHandler{d: d, mqtt: m}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status         string `json:"status"`
		Running        bool   `json:"running"`
		StoreReachable bool   `json:"store_reachable"`
		Breaker        string `json:"breaker"`
		MQTTEnabled    bool   `json:"mqtt_enabled"`
		MQTTConnected  bool   `json:"mqtt_connected"`
	}
	store := h.d.store.Status()
	st := status{
		Running:        h.d.Running(),
		StoreReachable: store.Reachable,
		Breaker:        store.Breaker,
		MQTTEnabled:    h.mqtt != nil,
		MQTTConnected:  h.mqtt != nil && h.mqtt.IsConnectionOpen(),
	}

	mqttOK := h.mqtt == nil || st.MQTTConnected
	switch {
	case st.Running && st.StoreReachable && mqttOK:
		st.Status = "ok"
	case st.Running:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 solo se il loop gira e lo store risponde.
type readyHandler struct {
	d *Dashboard
}

func NewReadyHandler(d *Dashboard) http.Handler {
	return &readyHandler{d: d}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.d.Running() && h.d.store.Status().Reachable
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
