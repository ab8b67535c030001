package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"webrelay/internal/domain"
)

// ActivityCapacity is the fixed size of the operator activity feed.
const ActivityCapacity = 20

// ActivityLog is a bounded, newest-first record of human-readable event
// descriptions. Producers only append; inserting beyond capacity evicts
// the oldest entry. The log is shared across endpoint changes — it is
// the one relay component that outlives a session generation.
type ActivityLog struct {
	mu      sync.Mutex
	entries []string
	bus     domain.EventBus // optional; wakes consumers on new entries
}

// NewActivityLog creates an empty activity log. bus may be nil.
func NewActivityLog(bus domain.EventBus) *ActivityLog {
	return &ActivityLog{
		entries: make([]string, 0, ActivityCapacity),
		bus:     bus,
	}
}

// Record inserts text at the front, evicting beyond capacity.
func (l *ActivityLog) Record(text string) {
	l.mu.Lock()
	l.entries = append([]string{text}, l.entries...)
	if len(l.entries) > ActivityCapacity {
		l.entries = l.entries[:ActivityCapacity]
	}
	l.mu.Unlock()

	if l.bus != nil {
		l.bus.Publish(context.Background(), domain.Event{
			Type:      domain.EventActivity,
			Timestamp: time.Now(),
			Payload:   text,
		})
	}
}

// Recordf is Record with fmt.Sprintf formatting.
func (l *ActivityLog) Recordf(format string, args ...any) {
	l.Record(fmt.Sprintf(format, args...))
}

// Entries returns a newest-first snapshot copy.
func (l *ActivityLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the current number of entries.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
