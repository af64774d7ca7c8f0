package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/LeonardoBeccarini/biosync/internal/model"
)

const maxBody = 64 << 10

// RouterConfig raccoglie i pezzi opzionali montati sul router.
type RouterConfig struct {
	Hub       http.Handler // /ws
	Metrics   http.Handler // /metrics
	MQTT      mqtt.Client  // solo per /healthz
	StaticDir string
	Origins   []string
}

type api struct {
	d *Dashboard
}

// NewRouter costruisce le rotte HTTP della dashboard, con CORS.
func NewRouter(d *Dashboard, rc RouterConfig) http.Handler {
	a := &api{d: d}
	r := mux.NewRouter()

	r.Handle("/healthz", NewHealthHandler(d, rc.MQTT)).Methods(http.MethodGet)
	r.Handle("/readyz", NewReadyHandler(d)).Methods(http.MethodGet)
	if rc.Metrics != nil {
		r.Handle("/metrics", rc.Metrics).Methods(http.MethodGet)
	}
	if rc.Hub != nil {
		r.Handle("/ws", rc.Hub).Methods(http.MethodGet)
	}

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/devices", a.listDevices).Methods(http.MethodGet)
	s.HandleFunc("/devices", a.createDevice).Methods(http.MethodPost)
	s.HandleFunc("/devices/{id}", a.editDevice).Methods(http.MethodPut)
	s.HandleFunc("/devices/{id}", a.deleteDevice).Methods(http.MethodDelete)
	s.HandleFunc("/devices/{id}/toggle", a.toggleDevice).Methods(http.MethodPost)
	s.HandleFunc("/devices/{id}/mode", a.setMode).Methods(http.MethodPost)
	s.HandleFunc("/automation", a.getAutomation).Methods(http.MethodGet)
	s.HandleFunc("/automation", a.setAutomation).Methods(http.MethodPost)
	s.HandleFunc("/views/{tab}", a.view).Methods(http.MethodGet)
	s.HandleFunc("/alerts", a.alerts).Methods(http.MethodGet)
	s.HandleFunc("/status", a.status).Methods(http.MethodGet)
	s.HandleFunc("/refresh", a.refresh).Methods(http.MethodPost)

	if rc.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(rc.StaticDir)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: rc.Origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

func (a *api) listDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.d.store.List(r.Context()))
}

func (a *api) createDevice(w http.ResponseWriter, r *http.Request) {
	var in DeviceInput
	if !readJSON(w, r, &in) {
		return
	}
	if err := a.d.CreateDevice(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *api) editDevice(w http.ResponseWriter, r *http.Request) {
	var in DeviceInput
	if !readJSON(w, r, &in) {
		return
	}
	if err := a.d.EditDevice(r.Context(), mux.Vars(r)["id"], in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) deleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := a.d.DeleteDevice(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) toggleDevice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Estado *bool `json:"estado"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	if body.Estado == nil {
		writeError(w, errors.Join(ErrInvalid, errors.New("estado is required")))
		return
	}
	applied, err := a.d.ToggleDevice(r.Context(), mux.Vars(r)["id"], *body.Estado, "user")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (a *api) setMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	if err := a.d.SetMode(r.Context(), mux.Vars(r)["id"], body.Mode); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) getAutomation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": a.d.sess.AutomationEnabled()})
}

func (a *api) setAutomation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if !readJSON(w, r, &body) {
		return
	}
	if body.Enabled == nil {
		writeError(w, errors.Join(ErrInvalid, errors.New("enabled is required")))
		return
	}
	a.d.SetAutomation(r.Context(), *body.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": a.d.sess.AutomationEnabled()})
}

func (a *api) view(w http.ResponseWriter, r *http.Request) {
	v, err := a.d.View(model.Tab(mux.Vars(r)["tab"]))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *api) alerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.d.sess.RecentAlerts())
}

func (a *api) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.d.Status())
}

func (a *api) refresh(w http.ResponseWriter, _ *http.Request) {
	a.d.poller.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

// ---------- helpers ----------

func readJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, msg := http.StatusInternalServerError, err.Error()
	switch {
	case errors.Is(err, ErrInvalid):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownTab):
		code = http.StatusNotFound
	case errors.Is(err, ErrTypeImmutable):
		code = http.StatusConflict
	case errors.Is(err, ErrSaveFailed):
		code, msg = http.StatusBadGateway, SaveFailedMessage
	case errors.Is(err, ErrDeleteFailed):
		code, msg = http.StatusBadGateway, DeleteFailedMessage
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
