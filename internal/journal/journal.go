// Package journal keeps the blessing audit trail. Entries are appended as the
// interpreter applies, skips or reverts effects; nothing ever replays them to
// rebuild run state.
package journal

import "sync"

// Outcome values recorded on each entry.
const (
	OutcomeApplied  = "applied"
	OutcomeSkipped  = "skipped"
	OutcomeReverted = "reverted"
)

// Entry is one immutable audit record.
type Entry struct {
	Seq        uint64         `json:"seq"`
	Stage      string         `json:"stage"`
	BlessingID string         `json:"blessingId"`
	EffectType string         `json:"effectType"`
	Params     map[string]any `json:"params,omitempty"`
	Outcome    string         `json:"outcome"`
	Reason     string         `json:"reason,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	ActIndex   int            `json:"actIndex"`
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	e.Params = cloneMap(e.Params)
	e.Details = cloneMap(e.Details)
	return e
}

// Telemetry receives a metric name whenever a bounded history evicts.
type Telemetry interface {
	RecordJournalDrop(metric string)
}

const metricJournalEvicted = "blessing_history_evicted"

// History is the append-only audit interface the run engine writes to.
type History interface {
	// Append stores a copy of e, assigns the next sequence number and
	// returns the stored entry.
	Append(e Entry) Entry
	// Entries returns a copy of the retained entries, oldest first.
	Entries() []Entry
	Len() int
	// Restore replaces the retained entries with a persisted list. Sequence
	// numbering resumes after the highest restored Seq.
	Restore(entries []Entry)
}

// Log is an unbounded History.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	seq     uint64
}

func NewLog() *Log {
	return &Log{entries: make([]Entry, 0)}
}

func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	stored := e.Clone()
	stored.Seq = l.seq
	l.entries = append(l.entries, stored)
	return stored.Clone()
}

func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneEntries(l.entries)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Restore(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = cloneEntries(entries)
	if l.entries == nil {
		l.entries = make([]Entry, 0)
	}
	l.seq = maxSeq(l.entries)
}

// Ring is a History that keeps only the most recent Capacity entries.
type Ring struct {
	mu        sync.RWMutex
	buf       []Entry
	start     int
	size      int
	seq       uint64
	evicted   uint64
	telemetry Telemetry
}

// NewRing constructs a ring holding up to capacity entries. A capacity below
// one is raised to one.
func NewRing(capacity int, telemetry Telemetry) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Entry, capacity), telemetry: telemetry}
}

func (r *Ring) Append(e Entry) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := e.Clone()
	stored.Seq = r.seq
	r.pushLocked(stored)
	return stored.Clone()
}

func (r *Ring) pushLocked(e Entry) {
	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.start+r.size)%capacity] = e
		r.size++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % capacity
	r.evicted++
	if r.telemetry != nil {
		r.telemetry.RecordJournalDrop(metricJournalEvicted)
	}
}

func (r *Ring) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)].Clone())
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Evicted reports how many entries have been pushed out since construction.
func (r *Ring) Evicted() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evicted
}

func (r *Ring) Restore(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start, r.size = 0, 0
	for i := range r.buf {
		r.buf[i] = Entry{}
	}
	for _, e := range entries {
		r.pushLocked(e.Clone())
	}
	r.seq = maxSeq(entries)
}

func maxSeq(entries []Entry) uint64 {
	var max uint64
	for _, e := range entries {
		if e.Seq > max {
			max = e.Seq
		}
	}
	return max
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	case map[string]int:
		out := make(map[string]int, len(typed))
		for k, n := range typed {
			out[k] = n
		}
		return out
	default:
		return v
	}
}
