package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client is one dashboard connection of a company.
type Client struct {
	CompanyID uint
	Send      chan []byte
	hub       *Hub
	once      sync.Once
}

func NewClient(companyID uint) *Client {
	return &Client{CompanyID: companyID, Send: make(chan []byte, 64)}
}

// Close unregisters the client and closes Send. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.hub != nil {
			c.hub.unregister(c)
		}
		close(c.Send)
	})
}

// Event is the envelope pushed to dashboards.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// Hub fans company events out to that company's open dashboards.
type Hub struct {
	mu        sync.RWMutex
	byCompany map[uint]map[*Client]struct{}
	log       *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{byCompany: make(map[uint]map[*Client]struct{}), log: log}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byCompany[c.CompanyID] == nil {
		h.byCompany[c.CompanyID] = make(map[*Client]struct{})
	}
	h.byCompany[c.CompanyID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byCompany[c.CompanyID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byCompany, c.CompanyID)
		}
	}
}

// Publish sends an event to every dashboard of the company. Slow clients drop events
// rather than block the caller. The read lock is held while sending so a client cannot
// be closed mid-send.
func (h *Hub) Publish(companyID uint, event string, payload interface{}) {
	data, err := json.Marshal(Event{Type: event, Data: payload, At: time.Now().UTC()})
	if err != nil {
		h.log.Error("encode dashboard event", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byCompany[companyID] {
		select {
		case c.Send <- data:
		default:
			h.log.Debug("dashboard client lagging, event dropped", zap.Uint("company_id", companyID))
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byCompany {
		n += len(m)
	}
	return n
}
