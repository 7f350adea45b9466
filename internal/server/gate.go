package server

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// requestGate keeps only the newest in-flight request per key. Starting a request cancels
// the previous one, and a finished request learns whether it is still the newest.
type requestGate struct {
	mu       sync.Mutex
	sequence uint64
	entries  map[string]gateEntry
}

type gateEntry struct {
	ticket uint64
	cancel context.CancelFunc
}

type gateTicket struct {
	key string
	id  uint64
}

func newRequestGate() *requestGate {
	return &requestGate{entries: make(map[string]gateEntry)}
}

// Begin registers a new request for key, cancelling any request it supersedes.
func (g *requestGate) Begin(parent context.Context, key string) (context.Context, gateTicket) {
	ctx, cancel := context.WithCancel(parent)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sequence++
	if previous, ok := g.entries[key]; ok {
		previous.cancel()
	}
	g.entries[key] = gateEntry{ticket: g.sequence, cancel: cancel}
	return ctx, gateTicket{key: key, id: g.sequence}
}

// Current reports whether the ticket still belongs to the newest request for its key.
func (g *requestGate) Current(ticket gateTicket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[ticket.key]
	return ok && entry.ticket == ticket.id
}

// Finish releases the ticket. Superseded tickets were already cancelled by their successor.
func (g *requestGate) Finish(ticket gateTicket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[ticket.key]
	if !ok || entry.ticket != ticket.id {
		return
	}
	entry.cancel()
	delete(g.entries, ticket.key)
}

// respondLatest runs produce under the gate keyed by client and route. A response whose
// request was superseded while running is replaced by 409.
func (h *httpHandler) respondLatest(c *gin.Context, produce func(ctx context.Context) (int, any)) {
	clientID := strings.TrimSpace(c.GetHeader(clientIDHeader))
	if clientID == "" {
		status, body := produce(c.Request.Context())
		c.JSON(status, body)
		return
	}

	ctx, ticket := h.gate.Begin(c.Request.Context(), clientID+" "+c.FullPath())
	defer h.gate.Finish(ticket)

	status, body := produce(ctx)
	if !h.gate.Current(ticket) {
		c.JSON(http.StatusConflict, gin.H{"error": "superseded"})
		return
	}
	c.JSON(status, body)
}
