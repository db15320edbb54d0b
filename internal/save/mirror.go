package save

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virtu333/rogue-emblem-sub003/internal/journal"
)

const metricMirrorDropped = "save_mirror_dropped"

type mirrorJob struct {
	slot string
	data []byte
}

// RedisMirror copies persisted envelopes to redis on a background worker.
// It only ever reads finished envelopes; a full queue drops the copy rather
// than slowing the caller.
type RedisMirror struct {
	client    redis.Cmdable
	prefix    string
	ttl       time.Duration
	queue     chan mirrorJob
	fallback  *log.Logger
	telemetry journal.Telemetry
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool

	mirrored atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

type MirrorStats struct {
	Mirrored uint64
	Dropped  uint64
	Failed   uint64
}

// MirrorOptions tunes a RedisMirror. Zero values pick defaults.
type MirrorOptions struct {
	Prefix    string
	TTL       time.Duration
	Buffer    int
	Fallback  *log.Logger
	Telemetry journal.Telemetry
}

func NewRedisMirror(client redis.Cmdable, opts MirrorOptions) *RedisMirror {
	if opts.Prefix == "" {
		opts.Prefix = "rogue-emblem:save:"
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.Fallback == nil {
		opts.Fallback = log.New(os.Stderr, "[save-mirror] ", log.LstdFlags)
	}
	m := &RedisMirror{
		client:    client,
		prefix:    opts.Prefix,
		ttl:       opts.TTL,
		queue:     make(chan mirrorJob, opts.Buffer),
		fallback:  opts.Fallback,
		telemetry: opts.Telemetry,
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Mirror queues a copy of data for slot.
func (m *RedisMirror) Mirror(slot string, data []byte) {
	if m == nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	job := mirrorJob{slot: slot, data: append([]byte(nil), data...)}
	select {
	case m.queue <- job:
	default:
		m.dropped.Add(1)
		if m.telemetry != nil {
			m.telemetry.RecordJournalDrop(metricMirrorDropped)
		}
	}
}

func (m *RedisMirror) run() {
	defer m.wg.Done()
	for job := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := m.client.Set(ctx, m.prefix+job.slot, job.data, m.ttl).Err()
		cancel()
		if err != nil {
			m.failed.Add(1)
			m.fallback.Printf("mirror slot %s failed: %v", job.slot, err)
			continue
		}
		m.mirrored.Add(1)
	}
}

// Close stops accepting copies and waits for queued ones until ctx ends.
func (m *RedisMirror) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *RedisMirror) Stats() MirrorStats {
	return MirrorStats{
		Mirrored: m.mirrored.Load(),
		Dropped:  m.dropped.Load(),
		Failed:   m.failed.Load(),
	}
}
