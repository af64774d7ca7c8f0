package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LeonardoBeccarini/biosync/internal/model"
	"github.com/LeonardoBeccarini/biosync/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Frame è il messaggio JSON inviato ai browser.
type Frame struct {
	Type   string          `json:"type"`
	Layout Layout          `json:"layout,omitempty"`
	Key    string          `json:"key,omitempty"`
	Data   json.RawMessage `json:"data"`
	Time   time.Time       `json:"time"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub è il Renderer verso i browser: ogni chiamata diventa un Frame inviato a
// tutti i client connessi. L'ultimo frame per chiave viene riproposto ai nuovi
// client con layout rebuild.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	last    map[string]Frame
	order   []string
	closed  bool
}

// NewHub accetta le origini consentite; lista vuota o "*" = tutte.
func NewHub(origins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:  logger,
		now:     time.Now,
		clients: make(map[*client]struct{}),
		last:    make(map[string]Frame),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || slices.Contains(origins, o)
	}
}

// ---------- Renderer ----------

func (h *Hub) RenderTable(devices []model.Device, layout Layout) {
	h.broadcast("table", "table", layout, devices)
}

func (h *Hub) RenderCards(cards []Card, layout Layout) {
	h.broadcast("cards", "cards", layout, cards)
}

func (h *Hub) RenderGauge(t model.DeviceType, g Gauge) {
	h.broadcast("gauge", "gauge:"+string(t), "", g)
}

func (h *Hub) RenderChart(s session.Series) {
	h.broadcast("chart", "chart", "", s)
}

// gli alert non vengono riproposti ai nuovi client
func (h *Hub) RenderAlert(a model.Alert) {
	h.broadcast("alert", "", "", a)
}

func (h *Hub) RenderHistory(rows []session.HistoryRow) {
	h.broadcast("history", "history", "", rows)
}

func (h *Hub) RenderDashboard(v DashboardView) {
	h.broadcast("dashboard", "dashboard", "", v)
}

func (h *Hub) RenderStatus(s StatusView) {
	h.broadcast("status", "status", "", s)
}

// ---------- connessioni ----------

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("ws client connected", "remote", r.RemoteAddr)
	go h.writePump(c)
	h.readPump(c)
}

// Clients restituisce il numero di browser connessi.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close chiude tutte le connessioni; i render successivi vengono ignorati.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	for _, key := range h.order {
		f := h.last[key]
		if f.Layout != "" {
			f.Layout = LayoutRebuild
		}
		msg, err := json.Marshal(f)
		if err != nil {
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(typ, key string, layout Layout, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("ws encode failed", "type", typ, "err", err)
		return
	}
	f := Frame{Type: typ, Layout: layout, Key: key, Data: data, Time: h.now().UTC()}
	msg, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("ws encode failed", "type", typ, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if key != "" {
		if _, seen := h.last[key]; !seen {
			h.order = append(h.order, key)
		}
		h.last[key] = f
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// client lento: lo scolleghiamo invece di bloccare il tick
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn("ws client too slow, dropped")
		}
	}
}

func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump scarta i messaggi in ingresso: i comandi passano dalle API HTTP.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
