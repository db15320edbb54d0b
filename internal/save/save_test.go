package save

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestSealOpenRoundTrip(t *testing.T) {
	data, env, err := Seal([]byte(`{ "gold": 10 }`), time.Unix(100, 0))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if env.Format != Format || env.Checksum != Checksum([]byte(`{"gold":10}`)) {
		t.Fatalf("unexpected envelope %+v", env)
	}
	run, legacy, err := Open(data)
	if err != nil || legacy {
		t.Fatalf("Open: legacy=%v err=%v", legacy, err)
	}
	if string(run) != `{"gold":10}` {
		t.Fatalf("unexpected run %s", run)
	}
}

func TestOpenDetectsTampering(t *testing.T) {
	data, _, err := Seal([]byte(`{"gold":10}`), time.Now())
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	tampered := []byte(string(data[:len(data)-3]) + "9}}")
	if _, _, err := Open(tampered); !errors.Is(err, ErrChecksumMismatch) && !errors.Is(err, ErrNoSavedRun) {
		t.Fatalf("expected tampering detected, got %v", err)
	}
}

func TestOpenAcceptsBareLegacyDocument(t *testing.T) {
	run, legacy, err := Open([]byte(` {"gold": 5} `))
	if err != nil || !legacy || string(run) != `{"gold": 5}` {
		t.Fatalf("unexpected legacy open: %s %v %v", run, legacy, err)
	}
	for _, bad := range []string{"", "garbage", "[1]"} {
		if _, _, err := Open([]byte(bad)); !errors.Is(err, ErrNoSavedRun) {
			t.Fatalf("%q: expected ErrNoSavedRun, got %v", bad, err)
		}
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Load(ctx, "main"); !errors.Is(err, ErrNoSavedRun) {
		t.Fatalf("expected empty slot, got %v", err)
	}
	if err := s.Save(ctx, "main", []byte("one")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "main", []byte("two")); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	if err := s.Save(ctx, "alt", []byte("three")); err != nil {
		t.Fatalf("Save alt: %v", err)
	}
	got, err := s.Load(ctx, "main")
	if err != nil || string(got) != "two" {
		t.Fatalf("Load: %q %v", got, err)
	}
	slots, err := s.List(ctx)
	if err != nil || len(slots) != 2 || slots[0] != "alt" || slots[1] != "main" {
		t.Fatalf("List: %v %v", slots, err)
	}
	if err := s.Delete(ctx, "main"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "main"); err != nil {
		t.Fatalf("Delete of empty slot: %v", err)
	}
	if _, err := s.Load(ctx, "main"); !errors.Is(err, ErrNoSavedRun) {
		t.Fatalf("expected deleted slot empty, got %v", err)
	}
	if err := s.Save(ctx, "../escape", []byte("x")); err == nil {
		t.Fatalf("expected invalid slot rejected")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	sets map[string]string
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets == nil {
		f.sets = map[string]string{}
	}
	f.sets[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type dropCounter struct {
	mu      sync.Mutex
	metrics []string
}

func (d *dropCounter) RecordJournalDrop(metric string) {
	d.mu.Lock()
	d.metrics = append(d.metrics, metric)
	d.mu.Unlock()
}

func TestRedisMirrorCopiesEnvelopes(t *testing.T) {
	client := &fakeRedis{}
	m := NewRedisMirror(client, MirrorOptions{Prefix: "test:"})
	m.Mirror("main", []byte("snapshot"))
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if client.sets["test:main"] != "snapshot" {
		t.Fatalf("expected mirrored snapshot, got %v", client.sets)
	}
	if stats := m.Stats(); stats.Mirrored != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	m.Mirror("main", []byte("late"))
	if client.sets["test:main"] != "snapshot" {
		t.Fatalf("closed mirror accepted a copy")
	}
}

func TestRedisMirrorDropsWhenFull(t *testing.T) {
	drops := &dropCounter{}
	m := &RedisMirror{queue: make(chan mirrorJob, 1), telemetry: drops}
	m.Mirror("a", []byte("1"))
	m.Mirror("b", []byte("2"))
	if m.Stats().Dropped != 1 || len(drops.metrics) != 1 || drops.metrics[0] != metricMirrorDropped {
		t.Fatalf("expected one drop, got %+v %v", m.Stats(), drops.metrics)
	}
}
