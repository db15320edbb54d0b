// Package meta is the cross-run progression boundary: the persistent
// currencies a run pays into when it ends and the bonuses a new run starts
// with.
package meta

import (
	"sort"
	"sync"
)

// Currencies earned at run end.
const (
	CurrencyValor  = "valor"
	CurrencySupply = "supply"
)

// Collaborator is the narrow contract the run engine settles rewards
// through.
type Collaborator interface {
	AddCurrency(currency string, amount int)
	IncrementRunsCompleted()
	RecordMilestone(id string)
}

// Effects are the unlocked bonuses applied when a run builds its founding
// roster.
type Effects struct {
	StatBonuses       map[string]int `json:"statBonuses,omitempty"`
	GrowthBonuses     map[string]int `json:"growthBonuses,omitempty"`
	StartingGold      int            `json:"startingGold,omitempty"`
	StartingWeapon    string         `json:"startingWeapon,omitempty"`
	StartingStaff     string         `json:"startingStaff,omitempty"`
	StartingAccessory string         `json:"startingAccessory,omitempty"`
	StartingSkill     string         `json:"startingSkill,omitempty"`
	VisionCharges     int            `json:"visionCharges,omitempty"`
}

// Clone returns a deep copy of e.
func (e Effects) Clone() Effects {
	e.StatBonuses = copyInts(e.StatBonuses)
	e.GrowthBonuses = copyInts(e.GrowthBonuses)
	return e
}

// Snapshot is a point-in-time view of a Ledger.
type Snapshot struct {
	Currencies    map[string]int `json:"currencies"`
	RunsCompleted int            `json:"runsCompleted"`
	Milestones    []string       `json:"milestones"`
	Effects       Effects        `json:"effects"`
}

// Ledger is an in-memory Collaborator.
type Ledger struct {
	mu            sync.RWMutex
	currencies    map[string]int
	runsCompleted int
	milestones    map[string]bool
	effects       Effects
}

func NewLedger(effects Effects) *Ledger {
	return &Ledger{
		currencies: make(map[string]int),
		milestones: make(map[string]bool),
		effects:    effects.Clone(),
	}
}

func (l *Ledger) AddCurrency(currency string, amount int) {
	if amount == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currencies[currency] += amount
}

func (l *Ledger) IncrementRunsCompleted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runsCompleted++
}

func (l *Ledger) RecordMilestone(id string) {
	if id == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.milestones[id] = true
}

// Effects returns the bonuses a new run starts with.
func (l *Ledger) Effects() Effects {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.effects.Clone()
}

func (l *Ledger) SetEffects(effects Effects) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.effects = effects.Clone()
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	milestones := make([]string, 0, len(l.milestones))
	for id := range l.milestones {
		milestones = append(milestones, id)
	}
	sort.Strings(milestones)
	return Snapshot{
		Currencies:    copyInts(l.currencies),
		RunsCompleted: l.runsCompleted,
		Milestones:    milestones,
		Effects:       l.effects.Clone(),
	}
}

func copyInts(src map[string]int) map[string]int {
	if src == nil {
		return nil
	}
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
