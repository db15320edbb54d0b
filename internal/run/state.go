// Package run owns a single playthrough: the run state aggregate, the
// operations that move it forward, the blessing interpreter that mutates it,
// and its versioned snapshot format.
//
// All mutation is synchronous. A *State is owned by one caller at a time;
// the session layer serialises access.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/virtu333/rogue-emblem-sub003/internal/blessings"
	"github.com/virtu333/rogue-emblem-sub003/internal/difficulty"
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/journal"
	"github.com/virtu333/rogue-emblem-sub003/internal/meta"
	"github.com/virtu333/rogue-emblem-sub003/internal/migrate"
	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
	"github.com/virtu333/rogue-emblem-sub003/logging"
)

// ErrUnparseable is returned by FromJSON when a document cannot be read at
// all. Callers treat it as "no saved run".
var ErrUnparseable = errors.New("run: unparseable document")

type Status string

const (
	StatusActive  Status = "active"
	StatusVictory Status = "victory"
	StatusDefeat  Status = "defeat"
)

func (s Status) valid() bool {
	return s == StatusActive || s == StatusVictory || s == StatusDefeat
}

// Interpreter stages recorded in the blessing history.
const (
	StageRunStart = "run_start"
	StageActEnter = "act_enter"
	StageActLeave = "act_leave"
)

// Convoy is the run's shared overflow storage.
type Convoy struct {
	Weapons     []units.Item `json:"weapons"`
	Consumables []units.Item `json:"consumables"`
}

func (c Convoy) clone() Convoy {
	return Convoy{Weapons: units.CloneItems(c.Weapons), Consumables: units.CloneItems(c.Consumables)}
}

// ActStatTracker is one act-scoped stat delta. Deltas records the amount
// actually applied per unit so reversion undoes exactly that.
type ActStatTracker struct {
	BlessingID string         `json:"blessingId"`
	Act        string         `json:"act"`
	Stat       string         `json:"stat"`
	Value      int            `json:"value"`
	Applied    bool           `json:"applied"`
	Reverted   bool           `json:"reverted"`
	Deltas     map[string]int `json:"deltas,omitempty"`
}

// SuppressedSkill is a personal skill held back from a unit.
type SuppressedSkill struct {
	Unit  string `json:"unit"`
	Skill string `json:"skill"`
}

// RuntimeModifiers is the live aggregate of every active blessing effect.
// It is updated incrementally by the interpreter and never rebuilt from
// history.
type RuntimeModifiers struct {
	BattleGoldMultiplierDelta     float64           `json:"battleGoldMultiplierDelta"`
	DeployCapDelta                int               `json:"deployCapDelta"`
	ActHitBonus                   map[string]int    `json:"actHitBonus"`
	ShopItemCountDelta            int               `json:"shopItemCountDelta"`
	SkipFirstShop                 bool              `json:"skipFirstShop"`
	GrowthDelta                   int               `json:"growthDelta"`
	ActStatDeltaAllUnits          []ActStatTracker  `json:"actStatDeltaAllUnits"`
	DisablePersonalSkillsUntilAct string            `json:"disablePersonalSkillsUntilAct,omitempty"`
	SuppressedPersonalSkills      []SuppressedSkill `json:"suppressedPersonalSkills"`
}

func newRuntimeModifiers() RuntimeModifiers {
	return RuntimeModifiers{
		ActHitBonus:              map[string]int{},
		ActStatDeltaAllUnits:     []ActStatTracker{},
		SuppressedPersonalSkills: []SuppressedSkill{},
	}
}

func (m RuntimeModifiers) clone() RuntimeModifiers {
	out := m
	out.ActHitBonus = make(map[string]int, len(m.ActHitBonus))
	for k, v := range m.ActHitBonus {
		out.ActHitBonus[k] = v
	}
	out.ActStatDeltaAllUnits = make([]ActStatTracker, len(m.ActStatDeltaAllUnits))
	for i, t := range m.ActStatDeltaAllUnits {
		if t.Deltas != nil {
			deltas := make(map[string]int, len(t.Deltas))
			for k, v := range t.Deltas {
				deltas[k] = v
			}
			t.Deltas = deltas
		}
		out.ActStatDeltaAllUnits[i] = t
	}
	out.SuppressedPersonalSkills = append([]SuppressedSkill{}, m.SuppressedPersonalSkills...)
	return out
}

// Rewards is the end-of-run currency computation, cached once the run ends.
type Rewards struct {
	Result             Status  `json:"result"`
	ActReached         int     `json:"actReached"`
	Battles            int     `json:"battles"`
	Valor              int     `json:"valor"`
	Supply             int     `json:"supply"`
	CurrencyMultiplier float64 `json:"currencyMultiplier"`
	AppliedToMeta      bool    `json:"appliedToMeta"`
}

// Env carries the shared, read-only collaborators a run works against.
type Env struct {
	Catalog   *gamedata.Catalog
	Config    Config
	Publisher logging.Publisher
	// Selector and Pipeline are built from Catalog when nil.
	Selector *blessings.Selector
	Pipeline *migrate.Pipeline
	// Telemetry receives history eviction metrics when HistoryCapacity is set.
	Telemetry journal.Telemetry
}

func (e Env) normalized() (Env, error) {
	if e.Catalog == nil {
		cat, err := gamedata.Default()
		if err != nil {
			return e, err
		}
		e.Catalog = cat
	}
	e.Config = e.Config.normalized()
	e.Publisher = logging.OrNop(e.Publisher)
	if e.Selector == nil {
		sel, err := blessings.NewSelector(e.Catalog)
		if err != nil {
			return e, fmt.Errorf("build blessing selector: %w", err)
		}
		e.Selector = sel
	}
	if e.Pipeline == nil {
		e.Pipeline = migrate.Default(e.Catalog)
	}
	return e, nil
}

func (e Env) newHistory() journal.History {
	if e.Config.HistoryCapacity > 0 {
		return journal.NewRing(e.Config.HistoryCapacity, e.Telemetry)
	}
	return journal.NewLog()
}

// State is the run aggregate. Exported fields are the persisted snapshot;
// change them only through State's methods.
type State struct {
	RunID            string       `json:"runId"`
	Status           Status       `json:"status"`
	ActIndex         int          `json:"actIndex"`
	ActSequence      []string     `json:"actSequence"`
	Roster           []units.Unit `json:"roster"`
	FallenUnits      []units.Unit `json:"fallenUnits"`
	NodeMap          *nodemap.Map `json:"nodeMap"`
	CurrentNodeID    string       `json:"currentNodeId"`
	CompletedBattles int          `json:"completedBattles"`
	Gold             int          `json:"gold"`

	Accessories []units.Accessory `json:"accessories"`
	Scrolls     []units.Item      `json:"scrolls"`
	Convoy      Convoy            `json:"convoy"`

	ActiveBlessings  []string         `json:"activeBlessings"`
	RuntimeModifiers RuntimeModifiers `json:"blessingRuntimeModifiers"`

	RunSeed int64 `json:"runSeed"`
	RNGSeed int64 `json:"rngSeed"`

	VisionChargesRemaining int `json:"visionChargesRemaining"`
	VisionCount            int `json:"visionCount"`

	UsedRecruitNames map[string][]string        `json:"usedRecruitNames"`
	BattleConfigs    map[string]json.RawMessage `json:"battleConfigsByNodeId"`
	ShopStock        map[string]*Shop           `json:"shopStockByNodeId"`

	DifficultyID        string               `json:"difficultyId"`
	DifficultyModifiers difficulty.Modifiers `json:"difficultyModifiers"`

	MetaEffects   meta.Effects `json:"metaEffects"`
	EndRunRewards *Rewards     `json:"endRunRewards"`

	env             Env
	history         journal.History
	runStartApplied bool
}

// History returns the blessing audit trail, oldest first.
func (s *State) History() []journal.Entry {
	return s.history.Entries()
}

// Catalog returns the game data the run is played against.
func (s *State) Catalog() *gamedata.Catalog {
	return s.env.Catalog
}

// CurrentAct returns the id of the act being played.
func (s *State) CurrentAct() string {
	if s.ActIndex < 0 || s.ActIndex >= len(s.ActSequence) {
		return ""
	}
	return s.ActSequence[s.ActIndex]
}

// actPosition returns id's index in the act sequence, or -1.
func (s *State) actPosition(id string) int {
	for i, act := range s.ActSequence {
		if act == id {
			return i
		}
	}
	return -1
}

func (s *State) knownAct(id string) bool {
	return s.actPosition(id) >= 0
}

func (s *State) findUnit(list []units.Unit, name string) int {
	for i := range list {
		if list[i].Name == name {
			return i
		}
	}
	return -1
}

// Unit returns a pointer to the named roster unit, or nil.
func (s *State) Unit(name string) *units.Unit {
	if i := s.findUnit(s.Roster, name); i >= 0 {
		return &s.Roster[i]
	}
	return nil
}

// draw returns a stream for label and advances the persisted rng seed, so a
// restored run continues the same sequence.
func (s *State) draw(label string) *rand.Rand {
	r := rng.New(s.RNGSeed, label)
	s.RNGSeed = r.Int63()
	return r
}

func (s *State) publisher() logging.Publisher {
	return s.env.Publisher
}

// Clone returns a deep copy sharing env but not history storage.
func (s *State) Clone() *State {
	out := *s
	out.ActSequence = append([]string(nil), s.ActSequence...)
	out.Roster = units.CloneAll(s.Roster)
	out.FallenUnits = units.CloneAll(s.FallenUnits)
	out.NodeMap = s.NodeMap.Clone()
	out.Accessories = units.CloneAccessories(s.Accessories)
	out.Scrolls = units.CloneItems(s.Scrolls)
	out.Convoy = s.Convoy.clone()
	out.ActiveBlessings = append([]string(nil), s.ActiveBlessings...)
	out.RuntimeModifiers = s.RuntimeModifiers.clone()
	out.UsedRecruitNames = make(map[string][]string, len(s.UsedRecruitNames))
	for k, v := range s.UsedRecruitNames {
		out.UsedRecruitNames[k] = append([]string(nil), v...)
	}
	out.BattleConfigs = make(map[string]json.RawMessage, len(s.BattleConfigs))
	for k, v := range s.BattleConfigs {
		out.BattleConfigs[k] = append(json.RawMessage(nil), v...)
	}
	out.ShopStock = make(map[string]*Shop, len(s.ShopStock))
	for k, v := range s.ShopStock {
		out.ShopStock[k] = v.clone()
	}
	out.DifficultyModifiers.ActsIncluded = append([]string(nil), s.DifficultyModifiers.ActsIncluded...)
	out.MetaEffects = s.MetaEffects.Clone()
	if s.EndRunRewards != nil {
		r := *s.EndRunRewards
		out.EndRunRewards = &r
	}
	h := s.env.newHistory()
	h.Restore(s.history.Entries())
	out.history = h
	return &out
}
