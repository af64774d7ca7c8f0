package mockstore

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

const maxBody = 64 << 10

// NewRouter espone le collezioni con la stessa API REST del servizio remoto:
// GET/POST /{collection}, GET/PUT/DELETE /{collection}/{id}.
func NewRouter(s *Store, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{store: s, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.HandleFunc("/{collection}", h.list).Methods(http.MethodGet)
	r.HandleFunc("/{collection}", h.create).Methods(http.MethodPost)
	r.HandleFunc("/{collection}/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/{collection}/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/{collection}/{id}", h.delete).Methods(http.MethodDelete)
	return r
}

type handler struct {
	store  *Store
	logger *slog.Logger
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List(mux.Vars(r)["collection"]))
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	rec, err := h.store.Get(v["collection"], v["id"])
	if err != nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	rec, ok := readRecord(w, r)
	if !ok {
		return
	}
	out := h.store.Create(mux.Vars(r)["collection"], rec)
	h.logger.Debug("mockstore: created", "collection", mux.Vars(r)["collection"], "id", out["id"])
	writeJSON(w, http.StatusCreated, out)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	rec, ok := readRecord(w, r)
	if !ok {
		return
	}
	v := mux.Vars(r)
	out, err := h.store.Update(v["collection"], v["id"], rec)
	if errors.Is(err, ErrNotFound) {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	v := mux.Vars(r)
	out, err := h.store.Delete(v["collection"], v["id"])
	if errors.Is(err, ErrNotFound) {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func readRecord(w http.ResponseWriter, r *http.Request) (Record, bool) {
	var rec Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return rec, true
}

func writeNotFound(w http.ResponseWriter) {
	// il servizio remoto risponde con una stringa JSON
	writeJSON(w, http.StatusNotFound, "Not found")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
