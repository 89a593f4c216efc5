// internal/approvals/notify/queue.go
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a toast for display.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultDuration is how long a toast stays visible unless dismissed.
const DefaultDuration = 5 * time.Second

// Notification is one transient user-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Queue is the session's toast queue. Entries expire after their duration
// and are pruned lazily on every read; ordering is insertion order. Nothing
// is persisted and the queue starts empty.
type Queue struct {
	mu      sync.Mutex
	entries []Notification
	now     func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Push enqueues a message. A zero duration uses DefaultDuration. The
// returned id can be used to dismiss the entry early.
func (q *Queue) Push(message string, severity Severity, duration time.Duration) string {
	if duration <= 0 {
		duration = DefaultDuration
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	entry := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
	q.entries = append(q.entries, entry)
	return entry.ID
}

// Dismiss removes an entry before it expires.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, entry := range q.entries {
		if entry.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// Active prunes expired entries and returns the live ones in insertion order.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	live := q.entries[:0]
	for _, entry := range q.entries {
		if entry.ExpiresAt.After(now) {
			live = append(live, entry)
		}
	}
	q.entries = live

	out := make([]Notification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len reports the number of live entries.
func (q *Queue) Len() int {
	return len(q.Active())
}
