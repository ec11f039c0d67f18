package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WarmupEvent is pushed to websocket subscribers whenever a background run
// resolves, so frontends can refresh cached filter options without polling.
type WarmupEvent struct {
	Job        string    `json:"job"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// WarmupNotifier broadcasts warmup run completions over websockets. It
// satisfies the scheduler's run recorder interface so it can sit next to the
// job-history repository.
type WarmupNotifier struct {
	log zerolog.Logger

	mu     sync.Mutex
	subs   map[*websocket.Conn]struct{}
	closed bool
}

// NewWarmupNotifier creates a warmup notifier
func NewWarmupNotifier(log zerolog.Logger) *WarmupNotifier {
	return &WarmupNotifier{
		log:  log.With().Str("component", "warmup-notifier").Logger(),
		subs: make(map[*websocket.Conn]struct{}),
	}
}

// Record implements the run recorder interface by broadcasting the run result
func (n *WarmupNotifier) Record(job string, startedAt, finishedAt time.Time, outcome, detail string) {
	n.Broadcast(WarmupEvent{
		Job:        job,
		Outcome:    outcome,
		Detail:     detail,
		FinishedAt: finishedAt,
	})
}

// Broadcast sends an event to every subscriber. Dead connections are dropped.
func (n *WarmupNotifier) Broadcast(event WarmupEvent) {
	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.subs))
	for c := range n.subs {
		conns = append(conns, c)
	}
	n.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := wsjson.Write(ctx, c, event)
		cancel()
		if err != nil {
			n.log.Debug().Err(err).Msg("Dropping websocket subscriber")
			n.remove(c)
			_ = c.Close(websocket.StatusNormalClosure, "write failed")
		}
	}
}

// HandleSubscribe upgrades the request to a websocket and keeps it registered
// until the client goes away.
// GET /api/events/warmup
func (n *WarmupNotifier) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		n.log.Warn().Err(err).Msg("Failed to accept websocket")
		return
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	n.subs[conn] = struct{}{}
	count := len(n.subs)
	n.mu.Unlock()

	n.log.Debug().Int("subscribers", count).Msg("Warmup subscriber connected")

	// Subscribers never send payloads. CloseRead surfaces the disconnect.
	readCtx := conn.CloseRead(r.Context())
	<-readCtx.Done()

	n.remove(conn)
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// Close drops every subscriber and rejects new ones
func (n *WarmupNotifier) Close() {
	n.mu.Lock()
	n.closed = true
	conns := make([]*websocket.Conn, 0, len(n.subs))
	for c := range n.subs {
		conns = append(conns, c)
	}
	n.subs = make(map[*websocket.Conn]struct{})
	n.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (n *WarmupNotifier) remove(c *websocket.Conn) {
	n.mu.Lock()
	delete(n.subs, c)
	n.mu.Unlock()
}
