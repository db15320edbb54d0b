package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

// NamedSink registers a sink with the router. MinSeverity raises the
// router-wide floor for this sink only.
type NamedSink struct {
	Name        string
	Sink        Sink
	MinSeverity Severity
}

// Router decouples event producers from sinks. Publish never blocks the run
// engine: a full queue drops the event and bumps the drop counter.
type Router struct {
	cfg      Config
	queue    chan Event
	workers  []*sinkWorker
	clock    Clock
	fallback *log.Logger
	fields   map[string]any
	closed   atomic.Bool
	stop     chan struct{}
	done     chan struct{}

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
	lastDropLog  atomic.Int64

	categoryMu sync.Mutex
	byCategory map[string]uint64
}

// RouterStats is a point-in-time view of router throughput.
type RouterStats struct {
	EventsTotal  uint64            `json:"eventsTotal"`
	DroppedTotal uint64            `json:"droppedTotal"`
	ByCategory   map[string]uint64 `json:"byCategory,omitempty"`
	Sinks        []SinkStats       `json:"sinks,omitempty"`
}

type SinkStats struct {
	Name     string `json:"name"`
	Written  uint64 `json:"written"`
	Dropped  uint64 `json:"dropped"`
	Failures uint64 `json:"failures"`
}

// NewRouter starts a router delivering to namedSinks. A nil clock uses the
// wall clock; a nil fallback logs router trouble to stderr.
func NewRouter(clock Clock, cfg Config, fallback *log.Logger, namedSinks []NamedSink) *Router {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	r := &Router{
		cfg:        cfg,
		queue:      make(chan Event, cfg.BufferSize),
		clock:      clock,
		fallback:   fallback,
		fields:     cfg.CloneFields(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		byCategory: map[string]uint64{},
	}

	workerBuffer := min(max(cfg.BufferSize, 32), 1024)
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		floor := named.MinSeverity
		if floor < cfg.MinimumSeverity {
			floor = cfg.MinimumSeverity
		}
		r.workers = append(r.workers, newSinkWorker(named.Name, named.Sink, floor, workerBuffer, fallback))
	}

	go r.dispatch()
	return r
}

func (r *Router) dispatch() {
	var wg sync.WaitGroup
	for _, w := range r.workers {
		wg.Add(1)
		go func(w *sinkWorker) {
			defer wg.Done()
			w.run()
		}(w)
	}
	defer func() {
		for _, w := range r.workers {
			close(w.events)
		}
		wg.Wait()
		close(r.done)
	}()

	for {
		select {
		case event := <-r.queue:
			r.forward(event)
		case <-r.stop:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) forward(event Event) {
	if event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		event = cloneForFields(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	r.eventsTotal.Add(1)
	if event.Category != "" {
		r.categoryMu.Lock()
		r.byCategory[event.Category]++
		r.categoryMu.Unlock()
	}
	for _, w := range r.workers {
		if event.Severity >= w.floor {
			w.enqueue(event)
		}
	}
}

func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.handleDrop(event)
	}
}

func (r *Router) handleDrop(event Event) {
	r.droppedTotal.Add(1)
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	now := time.Now().UnixNano()
	next := r.lastDropLog.Load()
	if (next == 0 || now >= next) && r.lastDropLog.CompareAndSwap(next, now+interval.Nanoseconds()) {
		r.fallback.Printf("dropping event type=%s run=%s", event.Type, event.RunID)
	}
}

// Close stops intake, flushes queued events to every sink and closes them.
// Calling it again is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, w := range r.workers {
		if err := w.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
	r.categoryMu.Lock()
	if len(r.byCategory) > 0 {
		stats.ByCategory = make(map[string]uint64, len(r.byCategory))
		for k, v := range r.byCategory {
			stats.ByCategory[k] = v
		}
	}
	r.categoryMu.Unlock()
	for _, w := range r.workers {
		stats.Sinks = append(stats.Sinks, SinkStats{
			Name:     w.name,
			Written:  w.written.Load(),
			Dropped:  w.dropped.Load(),
			Failures: w.failures.Load(),
		})
	}
	return stats
}

// Sink returns the registered sink called name, or nil.
func (r *Router) Sink(name string) Sink {
	for _, w := range r.workers {
		if w.name == name {
			return w.sink
		}
	}
	return nil
}

type sinkWorker struct {
	name     string
	sink     Sink
	floor    Severity
	events   chan Event
	fallback *log.Logger

	written  atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

func newSinkWorker(name string, sink Sink, floor Severity, buffer int, fallback *log.Logger) *sinkWorker {
	return &sinkWorker{
		name:     name,
		sink:     sink,
		floor:    floor,
		events:   make(chan Event, buffer),
		fallback: fallback,
	}
}

func (w *sinkWorker) enqueue(event Event) {
	select {
	case w.events <- cloneForFields(event):
	default:
		w.dropped.Add(1)
		w.fallback.Printf("sink %s backlog full dropping event type=%s", w.name, event.Type)
	}
}

// run writes events in order. After a failed write the worker backs off
// before the next one, doubling up to 32s while failures continue.
func (w *sinkWorker) run() {
	streak := 0
	for event := range w.events {
		if streak > 0 {
			time.Sleep(backoff(streak))
		}
		if err := w.sink.Write(event); err != nil {
			streak++
			w.failures.Add(1)
			w.fallback.Printf("sink %s failed: %v (retry in %s)", w.name, err, backoff(streak))
			continue
		}
		streak = 0
		w.written.Add(1)
	}
}

func backoff(streak int) time.Duration {
	return time.Duration(1<<min(streak, 5)) * time.Second
}
