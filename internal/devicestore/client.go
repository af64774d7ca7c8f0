package devicestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/biosync/internal/model"
)

// TimeLayout è il formato di ultima_lectura (giorno/mese/anno, ora locale).
const TimeLayout = "02/01/2006 15:04:05"

const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

type Config struct {
	BaseURL string // URL completo della collezione, es. https://.../dispositivos_IoT
	Timeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration

	Logger  *slog.Logger
	Now     func() time.Time
	OnError func(op string) // hook per le metriche
}

// Status descrive l'esito dell'ultima lettura: permette alla UI di
// distinguere uno store vuoto da uno irraggiungibile.
type Status struct {
	Reachable  bool      `json:"reachable"`
	Breaker    string    `json:"breaker"`
	LastError  string    `json:"last_error,omitempty"`
	LastListAt time.Time `json:"last_list_at"`
}

// Client incapsula le chiamate REST allo store con Circuit Breaker.
// Nessun errore esce dal client: i fallimenti diventano lista vuota o false.
type Client struct {
	base    string
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
	now     func() time.Time
	onError func(op string)

	mu     sync.Mutex
	status Status
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Client{
		base:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    resty.New().SetTimeout(cfg.Timeout).SetHeader("Accept", "application/json"),
		logger:  cfg.Logger,
		now:     cfg.Now,
		onError: cfg.OnError,
		status:  Status{Reachable: true},
	}
	c.breaker = mkCB("device-store", cfg.BreakerFailures, cfg.BreakerOpenFor, c.logger)
	c.status.Breaker = c.breaker.State().String()
	return c
}

func mkCB(name string, fails int, openFor time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		// una richiesta annullata dal chiamante non è colpa dello store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// List legge l'intera collezione. Mai nil: in caso di errore lista vuota.
func (c *Client) List(ctx context.Context) []model.Device {
	res, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).Get(c.base)
		if err != nil {
			return nil, fmt.Errorf("list request: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("list: upstream status %d", resp.StatusCode())
		}
		var out []model.Device
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("list decode: %w", err)
		}
		return out, nil
	})

	c.mu.Lock()
	c.status.LastListAt = c.now()
	c.status.Breaker = c.breaker.State().String()
	if err != nil {
		c.status.Reachable = false
		c.status.LastError = err.Error()
	} else {
		c.status.Reachable = true
		c.status.LastError = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(OpList, err)
		return []model.Device{}
	}
	devices := res.([]model.Device)
	if devices == nil {
		devices = []model.Device{}
	}
	return devices
}

// Create inserisce un nuovo dispositivo; lo store assegna l'id.
func (c *Client) Create(ctx context.Context, d model.Device) bool {
	d.ID = ""
	d.UltimaLectura = c.stamp()
	return c.write(ctx, OpCreate, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(d).Post(c.base)
	})
}

// Update sostituisce il record id con d.
func (c *Client) Update(ctx context.Context, id string, d model.Device) bool {
	if id == "" {
		return false
	}
	d.ID = id
	d.UltimaLectura = c.stamp()
	return c.write(ctx, OpUpdate, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(d).Put(c.itemURL(id))
	})
}

func (c *Client) Delete(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	return c.write(ctx, OpDelete, func(r *resty.Request) (*resty.Response, error) {
		return r.Delete(c.itemURL(id))
	})
}

// Status restituisce una copia dello stato corrente.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	st.Breaker = c.breaker.State().String()
	return st
}

func (c *Client) write(ctx context.Context, op string, do func(*resty.Request) (*resty.Response, error)) bool {
	_, err := c.breaker.Execute(func() (any, error) {
		resp, err := do(c.http.R().SetContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%s request: %w", op, err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%s: upstream status %d", op, resp.StatusCode())
		}
		return nil, nil
	})
	if err != nil {
		c.fail(op, err)
		return false
	}
	return true
}

func (c *Client) fail(op string, err error) {
	c.logger.Error("device store call failed", "op", op, "err", err, "breaker", c.breaker.State().String())
	if c.onError != nil {
		c.onError(op)
	}
}

func (c *Client) stamp() string {
	return c.now().Format(TimeLayout)
}

func (c *Client) itemURL(id string) string {
	return c.base + "/" + url.PathEscape(id)
}
