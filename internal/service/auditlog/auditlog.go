// Package auditlog keeps the bounded, newest-first history of every mutating
// engine operation.
package auditlog

import (
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/crew-alert/internal/domain/crew"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 500

// Log is an append-only ring of entries. It is not safe for concurrent use.
type Log struct {
	// entries holds the log, newest first.
	entries []crew.LogEntry
	// capacity is the maximum number of entries kept.
	capacity int
	// nextID is the id of the next appended entry.
	nextID uint64
	// now returns the current time.
	now func() time.Time
}

// New creates an empty log. Non-positive capacities use DefaultCapacity.
func New(capacity int, now func() time.Time) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if now == nil {
		now = time.Now
	}

	return &Log{
		entries:  make([]crew.LogEntry, 0, capacity),
		capacity: capacity,
		nextID:   1,
		now:      now,
	}
}

// Restore loads entries saved earlier (newest first) and truncates them to capacity.
func (l *Log) Restore(entries []crew.LogEntry, next uint64) {
	l.entries = slices.Clone(entries[:min(len(entries), l.capacity)])
	l.nextID = max(next, 1)

	for _, e := range l.entries {
		if e.ID >= l.nextID {
			l.nextID = e.ID + 1
		}
	}
}

// Append prepends a timestamped entry and evicts the oldest ones beyond capacity.
func (l *Log) Append(text string) crew.LogEntry {
	entry := crew.LogEntry{
		ID:        l.nextID,
		Timestamp: l.now(),
		Text:      text,
	}

	l.nextID++

	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, crew.LogEntry{})
	}

	copy(l.entries[1:], l.entries)
	l.entries[0] = entry

	return entry
}

// Appendf formats and appends an entry.
func (l *Log) Appendf(format string, args ...any) crew.LogEntry {
	return l.Append(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []crew.LogEntry {
	return slices.Clone(l.entries)
}

// NextID returns the id the next entry will get.
func (l *Log) NextID() uint64 {
	return l.nextID
}

// Capacity returns the maximum number of entries kept.
func (l *Log) Capacity() int {
	return l.capacity
}
