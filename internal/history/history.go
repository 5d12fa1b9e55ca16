// Package history keeps the bounded, most-recent-first record of past analyses.
package history

const (
	// DefaultCapacity is the number of entries kept when no capacity is configured.
	DefaultCapacity = 10
	// MaxCapacity is the largest capacity a ledger accepts.
	MaxCapacity = 50
)

// Entry summarizes one completed analysis. Entries are values and are never
// updated after creation.
type Entry struct {
	ID             int64  `json:"id"`
	Timestamp      int64  `json:"timestamp"`
	ResumeFileName string `json:"resume_file_name"`
	JDFileName     string `json:"jd_file_name"`
	Score          int    `json:"score"`
	Coverage       int    `json:"coverage"`
}

// Valid reports whether the entry could have been produced by an analysis.
func (e Entry) Valid() bool {
	return e.ID > 0 &&
		e.Score >= 0 && e.Score <= 100 &&
		e.Coverage >= 0 && e.Coverage <= 100
}

// Ledger is an immutable history. Append and Clear return new ledgers and
// leave the receiver untouched.
type Ledger struct {
	capacity int
	entries  []Entry
}

// New returns an empty ledger. Capacities outside [1, MaxCapacity] are
// replaced by DefaultCapacity or MaxCapacity.
func New(capacity int) Ledger {
	return Ledger{capacity: normalizeCapacity(capacity)}
}

// Restore rebuilds a ledger from persisted entries, assumed most-recent-first.
// Invalid entries and duplicate ids are dropped; the result is truncated to
// capacity.
func Restore(capacity int, entries []Entry) Ledger {
	l := New(capacity)
	seen := make(map[int64]bool, len(entries))
	kept := make([]Entry, 0, min(len(entries), l.capacity))
	for _, e := range entries {
		if !e.Valid() || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		kept = append(kept, e)
		if len(kept) == l.capacity {
			break
		}
	}
	l.entries = kept
	return l
}

// Append returns a ledger with e first, evicting the oldest entries beyond
// capacity.
func (l Ledger) Append(e Entry) Ledger {
	capacity := normalizeCapacity(l.capacity)
	n := min(len(l.entries)+1, capacity)

	next := make([]Entry, 0, n)
	next = append(next, e)
	next = append(next, l.entries[:n-1]...)
	return Ledger{capacity: capacity, entries: next}
}

// Clear returns an empty ledger with the same capacity.
func (l Ledger) Clear() Ledger {
	return New(l.capacity)
}

// Entries returns a copy of the entries, most recent first.
func (l Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len is the number of entries held.
func (l Ledger) Len() int {
	return len(l.entries)
}

// Capacity is the maximum number of entries held.
func (l Ledger) Capacity() int {
	return normalizeCapacity(l.capacity)
}

// NextID returns an id greater than every id in the ledger and than floor.
func (l Ledger) NextID(floor int64) int64 {
	next := floor
	for _, e := range l.entries {
		next = max(next, e.ID)
	}
	return next + 1
}

func normalizeCapacity(capacity int) int {
	switch {
	case capacity <= 0:
		return DefaultCapacity
	case capacity > MaxCapacity:
		return MaxCapacity
	default:
		return capacity
	}
}
