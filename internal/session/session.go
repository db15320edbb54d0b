// Package session owns the single live run of a process. It serialises
// every command against the run, persists a sealed snapshot after each
// state change and hands the snapshot to an optional mirror.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/virtu333/rogue-emblem-sub003/internal/meta"
	"github.com/virtu333/rogue-emblem-sub003/internal/run"
	"github.com/virtu333/rogue-emblem-sub003/internal/save"
	"github.com/virtu333/rogue-emblem-sub003/logging"
	"github.com/virtu333/rogue-emblem-sub003/logging/saves"
)

// ErrNoActiveRun is returned by commands issued before a run exists.
var ErrNoActiveRun = errors.New("session: no active run")

// DefaultSlot is used when Config.Slot is empty.
const DefaultSlot = "main"

// MetaSource provides start bonuses and receives end-of-run rewards.
type MetaSource interface {
	meta.Collaborator
	Effects() meta.Effects
}

type Config struct {
	Slot   string
	Store  save.Store
	Mirror save.Mirror
	Env    run.Env
	Meta   MetaSource
	Clock  func() time.Time
}

// Manager is safe for concurrent use; commands run one at a time.
type Manager struct {
	mu     sync.Mutex
	slot   string
	store  save.Store
	mirror save.Mirror
	env    run.Env
	meta   MetaSource
	clock  func() time.Time
	pub    logging.Publisher

	state *run.State
}

func New(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if cfg.Slot == "" {
		cfg.Slot = DefaultSlot
	}
	if !save.ValidSlot(cfg.Slot) {
		return nil, fmt.Errorf("session: invalid slot %q", cfg.Slot)
	}
	if cfg.Meta == nil {
		cfg.Meta = meta.NewLedger(meta.Effects{})
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Manager{
		slot:   cfg.Slot,
		store:  cfg.Store,
		mirror: cfg.Mirror,
		env:    cfg.Env,
		meta:   cfg.Meta,
		clock:  cfg.Clock,
		pub:    logging.OrNop(cfg.Env.Publisher),
	}, nil
}

// Start replaces any current run with a fresh one and persists it. Meta
// bonuses come from the session's MetaSource.
func (m *Manager) Start(ctx context.Context, opts run.StartOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	opts.Meta = m.meta.Effects()
	s, err := run.Start(ctx, m.env, opts)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	m.state = s
	return m.persistLocked(ctx, s)
}

// Resume loads the slot's run. Any failure to read it surfaces as
// save.ErrNoSavedRun so callers can fall back to a fresh run.
func (m *Manager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.store.Load(ctx, m.slot)
	if err != nil {
		if errors.Is(err, save.ErrNoSavedRun) {
			return err
		}
		return m.reject(ctx, err)
	}
	doc, _, err := save.Open(data)
	if err != nil {
		return m.reject(ctx, err)
	}
	s, report, err := run.FromJSON(ctx, doc, m.env)
	if err != nil {
		return m.reject(ctx, err)
	}
	m.state = s
	saves.SaveLoaded(ctx, m.pub, s.RunID, saves.SaveLoadedPayload{
		Slot:        m.slot,
		FromVersion: report.FromVersion,
		Dropped:     report.Dropped,
	})
	if report.FromVersion != report.ToVersion || report.Changed() {
		return m.persistLocked(ctx, s)
	}
	return nil
}

func (m *Manager) reject(ctx context.Context, err error) error {
	saves.SaveRejected(ctx, m.pub, saves.SaveRejectedPayload{Slot: m.slot, Reason: err.Error()})
	return fmt.Errorf("%w: %v", save.ErrNoSavedRun, err)
}

// Delete drops the current run and its save.
func (m *Manager) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return m.store.Delete(ctx, m.slot)
}

// Persist writes the current run to the store.
func (m *Manager) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return ErrNoActiveRun
	}
	return m.persistLocked(ctx, m.state)
}

func (m *Manager) persistLocked(ctx context.Context, s *run.State) error {
	doc, err := s.ToJSON()
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	data, env, err := save.Seal(doc, m.clock())
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, m.slot, data); err != nil {
		return err
	}
	if m.mirror != nil {
		m.mirror.Mirror(m.slot, data)
	}
	saves.SaveWritten(ctx, m.pub, s.RunID, saves.SaveWrittenPayload{Slot: m.slot, Bytes: len(data), Checksum: env.Checksum})
	return nil
}

// Snapshot returns the current run document.
func (m *Manager) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrNoActiveRun
	}
	return m.state.ToJSON()
}

// Active reports whether a run is loaded.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// View runs fn against a private copy of the current run.
func (m *Manager) View(fn func(*run.State)) error {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return ErrNoActiveRun
	}
	c := m.state.Clone()
	m.mu.Unlock()
	fn(c)
	return nil
}
