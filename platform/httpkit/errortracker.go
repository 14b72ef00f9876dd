package httpkit

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorTracker keeps the timestamps of recent 5xx responses so the health
// check can report an error rate without a metrics backend.
type ErrorTracker struct {
	mu     sync.Mutex
	window time.Duration
	events []time.Time
	now    func() time.Time
}

// NewErrorTracker creates a tracker that forgets errors older than window.
func NewErrorTracker(window time.Duration) *ErrorTracker {
	return &ErrorTracker{window: window, now: time.Now}
}

// Record registers one server error at the current time.
func (t *ErrorTracker) Record() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.prune(now)
	t.events = append(t.events, now)
}

// RecentCount returns the number of server errors inside the window.
func (t *ErrorTracker) RecentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(t.now())
	return len(t.events)
}

// Middleware records every response with a 5xx status.
func (t *ErrorTracker) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= 500 {
			t.Record()
		}
	}
}

func (t *ErrorTracker) prune(now time.Time) {
	cutoff := now.Add(-t.window)
	i := 0
	for i < len(t.events) && !t.events[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
