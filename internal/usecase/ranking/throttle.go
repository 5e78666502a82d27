package ranking

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Throttle default bounds.
const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 60
	DefaultMaxClients  = 10000
)

// window is one client's fixed counting window.
type window struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// Throttle is a fixed-window per-client limiter. Client windows live in an
// LRU cache so the table stays bounded no matter how many distinct clients
// appear; evicting an active window merely restarts that client's count,
// which the fixed-window model already tolerates at boundaries.
type Throttle struct {
	mu      sync.Mutex
	windows *lru.Cache[string, *window]
	window  time.Duration
	max     int
	now     func() time.Time
}

// NewThrottle creates a limiter allowing maxRequests per win per client,
// tracking at most maxClients distinct clients.
func NewThrottle(win time.Duration, maxRequests, maxClients int) *Throttle {
	if win <= 0 {
		win = DefaultWindow
	}
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	cache, _ := lru.New[string, *window](maxClients)
	return &Throttle{
		windows: cache,
		window:  win,
		max:     maxRequests,
		now:     time.Now,
	}
}

// Allow counts one request for clientID and reports whether it is within the
// window's budget. The increment-and-compare is atomic per client.
func (t *Throttle) Allow(clientID string) bool {
	now := t.now()

	t.mu.Lock()
	w, ok := t.windows.Get(clientID)
	if !ok {
		w = &window{resetAt: now.Add(t.window)}
		t.windows.Add(clientID, w)
	}
	t.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	if now.After(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(t.window)
	}
	w.count++
	return w.count <= t.max
}
