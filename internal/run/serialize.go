package run

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/virtu333/rogue-emblem-sub003/internal/difficulty"
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/journal"
	"github.com/virtu333/rogue-emblem-sub003/internal/migrate"
	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
	"github.com/virtu333/rogue-emblem-sub003/logging/saves"
)

type stateFields State

type snapshot struct {
	Version int `json:"version"`
	stateFields
	BlessingHistory []journal.Entry `json:"blessingHistory"`
}

// ToJSON encodes the run as a current-version document.
func (s *State) ToJSON() ([]byte, error) {
	c := s.Clone()
	c.Roster = units.SerializeAll(c.Roster)
	c.FallenUnits = units.SerializeAll(c.FallenUnits)
	return json.Marshal(snapshot{
		Version:         migrate.CurrentVersion,
		stateFields:     stateFields(*c),
		BlessingHistory: c.history.Entries(),
	})
}

// FromJSON reconstructs a run from any document an earlier build wrote.
// Only a document that is not a JSON object fails, with ErrUnparseable;
// anything else loads with per-field defaults and malformed units dropped.
func FromJSON(ctx context.Context, data []byte, env Env) (*State, migrate.Report, error) {
	env, err := env.normalized()
	if err != nil {
		return nil, migrate.Report{}, err
	}
	doc, err := migrate.Decode(data)
	if err != nil {
		return nil, migrate.Report{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	doc, report, err := env.Pipeline.Run(doc)
	if err != nil {
		return nil, report, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	s := &State{
		Roster:      doc.Roster,
		FallenUnits: doc.Fallen,
		Scrolls:     doc.Scrolls,
		Convoy:      Convoy{Weapons: doc.Convoy.Weapons, Consumables: doc.Convoy.Consumables},
		env:         env,
		history:     env.newHistory(),
	}
	l := loader{fields: doc.Fields, cat: env.Catalog}
	l.restore(s)
	s.runStartApplied = true
	s.restorePersonalSkillsIfReached(ctx)

	if report.Changed() || report.FromVersion != report.ToVersion {
		saves.SaveMigrated(ctx, s.publisher(), s.RunID, saves.SaveMigratedPayload{
			Steps:      report.Steps,
			MergePatch: string(report.MergePatch),
		})
	}
	return s, report, nil
}

// loader decodes each remaining field on its own so one bad value only
// costs that field.
type loader struct {
	fields map[string]json.RawMessage
	cat    *gamedata.Catalog
}

func (l loader) get(key string, target any) bool {
	raw, ok := l.fields[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

func (l loader) restore(s *State) {
	cfg := s.env.Config
	cat := l.cat

	if !l.get("runId", &s.RunID) || s.RunID == "" {
		s.RunID = ulid.Make().String()
	}
	if !l.get("status", &s.Status) || !s.Status.valid() {
		s.Status = StatusActive
	}

	var diffID string
	l.get("difficultyId", &diffID)
	resolved := difficulty.Resolve(cat, diffID)
	s.DifficultyID = resolved.ID
	s.DifficultyModifiers = resolved.Modifiers
	if diffID == resolved.ID {
		mods := resolved.Modifiers
		if l.get("difficultyModifiers", &mods) {
			s.DifficultyModifiers = sanitizeModifiers(mods, resolved.Modifiers)
		}
	}

	var seq []string
	l.get("actSequence", &seq)
	s.ActSequence = knownActs(cat, seq)
	if len(s.ActSequence) == 0 {
		s.ActSequence = s.DifficultyModifiers.ActSequence(cat)
	}
	l.get("actIndex", &s.ActIndex)
	if s.ActIndex < 0 {
		s.ActIndex = 0
	}
	if s.ActIndex >= len(s.ActSequence) {
		s.ActIndex = len(s.ActSequence) - 1
	}

	if !l.get("runSeed", &s.RunSeed) {
		s.RunSeed = rng.SeedValue(0, "legacy:"+s.RunID)
	}
	if !l.get("rngSeed", &s.RNGSeed) {
		s.RNGSeed = rng.SeedValue(s.RunSeed, "rng")
	}

	l.get("completedBattles", &s.CompletedBattles)
	if s.CompletedBattles < 0 {
		s.CompletedBattles = 0
	}
	l.get("gold", &s.Gold)
	if s.Gold < 0 {
		s.Gold = 0
	}
	l.get("metaEffects", &s.MetaEffects)
	if !l.get("visionChargesRemaining", &s.VisionChargesRemaining) || s.VisionChargesRemaining < 0 {
		s.VisionChargesRemaining = cfg.VisionCharges + s.MetaEffects.VisionCharges
	}
	l.get("visionCount", &s.VisionCount)

	l.get("accessories", &s.Accessories)
	if s.Accessories == nil {
		s.Accessories = []units.Accessory{}
	}
	if s.Scrolls == nil {
		s.Scrolls = []units.Item{}
	}

	var active []string
	l.get("activeBlessings", &active)
	s.ActiveBlessings = []string{}
	for _, id := range active {
		if _, ok := cat.Blessing(id); ok {
			s.ActiveBlessings = append(s.ActiveBlessings, id)
			break
		}
	}
	s.RuntimeModifiers = l.runtimeModifiers()

	s.restoreMap(l)

	l.get("usedRecruitNames", &s.UsedRecruitNames)
	if s.UsedRecruitNames == nil {
		s.UsedRecruitNames = map[string][]string{}
	}
	var rewards Rewards
	if l.get("endRunRewards", &rewards) {
		s.EndRunRewards = &rewards
	}

	var history []journal.Entry
	if l.get("blessingHistory", &history) {
		s.history.Restore(history)
	}
}

func (l loader) runtimeModifiers() RuntimeModifiers {
	m := newRuntimeModifiers()
	if !l.get("blessingRuntimeModifiers", &m) {
		return newRuntimeModifiers()
	}
	if m.ActHitBonus == nil {
		m.ActHitBonus = map[string]int{}
	}
	trackers := make([]ActStatTracker, 0, len(m.ActStatDeltaAllUnits))
	for _, t := range m.ActStatDeltaAllUnits {
		if gamedata.IsStat(t.Stat) && t.Act != "" {
			trackers = append(trackers, t)
		}
	}
	m.ActStatDeltaAllUnits = trackers
	if m.SuppressedPersonalSkills == nil {
		m.SuppressedPersonalSkills = []SuppressedSkill{}
	}
	return m
}

// restoreMap keeps the stored map only when it is well formed and belongs
// to the current act. References to nodes outside the kept map are dropped.
func (s *State) restoreMap(l loader) {
	var m nodemap.Map
	if l.get("nodeMap", &m) && m.Validate() == nil && m.ActID == s.CurrentAct() {
		s.NodeMap = &m
	} else {
		s.NodeMap = s.generateMap(s.CurrentAct())
	}

	l.get("currentNodeId", &s.CurrentNodeID)
	if !s.NodeMap.Contains(s.CurrentNodeID) {
		s.CurrentNodeID = ""
	}

	var configs map[string]json.RawMessage
	l.get("battleConfigsByNodeId", &configs)
	s.BattleConfigs = map[string]json.RawMessage{}
	for id, cfg := range configs {
		if s.NodeMap.Contains(id) && json.Valid(cfg) {
			s.BattleConfigs[id] = cfg
		}
	}

	var shops map[string]*Shop
	l.get("shopStockByNodeId", &shops)
	s.ShopStock = map[string]*Shop{}
	for id, shop := range shops {
		if shop != nil && s.NodeMap.Contains(id) {
			if shop.Offers == nil {
				shop.Offers = []Offer{}
			}
			s.ShopStock[id] = shop
		}
	}
}

func knownActs(cat *gamedata.Catalog, ids []string) []string {
	out := []string{}
	for _, id := range ids {
		if _, ok := cat.Act(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// sanitizeModifiers replaces non-positive multipliers with the resolved
// values so a damaged document cannot zero out the economy.
func sanitizeModifiers(m, resolved difficulty.Modifiers) difficulty.Modifiers {
	for _, p := range []struct{ v, def *float64 }{
		{&m.XPMultiplier, &resolved.XPMultiplier},
		{&m.GoldMultiplier, &resolved.GoldMultiplier},
		{&m.ShopPriceMultiplier, &resolved.ShopPriceMultiplier},
		{&m.CurrencyMultiplier, &resolved.CurrencyMultiplier},
	} {
		if *p.v <= 0 {
			*p.v = *p.def
		}
	}
	return m
}
