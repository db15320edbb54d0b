package run

import (
	"context"
	"fmt"

	"github.com/virtu333/rogue-emblem-sub003/internal/blessings"
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/journal"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
	blessinglog "github.com/virtu333/rogue-emblem-sub003/logging/blessings"
)

// applyRunStartEffects runs every boon then cost of def against the run.
func (s *State) applyRunStartEffects(ctx context.Context, def gamedata.BlessingDef) {
	for _, raw := range def.Effects() {
		s.applyEffect(ctx, def.ID, raw)
	}
}

// applyEffect dispatches one authored effect. Malformed params and unknown
// types are recorded as skipped and never abort the remaining effects.
func (s *State) applyEffect(ctx context.Context, blessingID string, raw gamedata.EffectDef) {
	rec := effectRecord{state: s, ctx: ctx, blessingID: blessingID, raw: raw, stage: StageRunStart}
	eff, err := blessings.Parse(raw, s.knownAct)
	if err != nil {
		rec.skip(err.Error(), nil)
		return
	}

	switch e := eff.(type) {
	case blessings.RunStartMaxHPBonus:
		affected := map[string]int{}
		for i := range s.Roster {
			u := &s.Roster[i]
			if e.Scope == blessings.ScopeLords && !u.IsLord {
				continue
			}
			affected[u.Name] = units.ApplyStatDelta(u, gamedata.StatHP, e.Value)
		}
		rec.apply(map[string]any{"units": affected, "scope": e.Scope})
	case blessings.GoldDelta:
		before := s.Gold
		s.Gold += e.Value
		if s.Gold < 0 {
			s.Gold = 0
		}
		rec.apply(map[string]any{"before": before, "after": s.Gold})
	case blessings.BattleGoldMultiplierDelta:
		s.RuntimeModifiers.BattleGoldMultiplierDelta += e.Value
		rec.apply(map[string]any{"total": s.RuntimeModifiers.BattleGoldMultiplierDelta})
	case blessings.DeployCapDelta:
		s.RuntimeModifiers.DeployCapDelta += e.Value
		rec.apply(map[string]any{"total": s.RuntimeModifiers.DeployCapDelta})
	case blessings.StartingWeaponTier:
		granted := s.grantStartingWeapons(e)
		if len(granted) == 0 {
			rec.skip(fmt.Sprintf("no unit can take a tier %d weapon", e.Tier), nil)
			return
		}
		rec.apply(map[string]any{"granted": granted})
	case blessings.ActStatDeltaAllUnits:
		s.RuntimeModifiers.ActStatDeltaAllUnits = append(s.RuntimeModifiers.ActStatDeltaAllUnits, ActStatTracker{
			BlessingID: blessingID,
			Act:        e.Act,
			Stat:       e.Stat,
			Value:      e.Value,
		})
		idx := len(s.RuntimeModifiers.ActStatDeltaAllUnits) - 1
		details := map[string]any{"act": e.Act, "pending": true}
		if e.Act == s.CurrentAct() {
			s.applyTracker(idx)
			details = map[string]any{"act": e.Act, "deltas": copyDeltas(s.RuntimeModifiers.ActStatDeltaAllUnits[idx].Deltas)}
		}
		rec.apply(details)
	case blessings.ActHitBonus:
		s.RuntimeModifiers.ActHitBonus[e.Act] += e.Value
		rec.apply(map[string]any{"act": e.Act, "total": s.RuntimeModifiers.ActHitBonus[e.Act]})
	case blessings.LordStatBonus:
		rec.apply(map[string]any{"units": s.applyStatToRoster(e.Stat, e.Value, true)})
	case blessings.AllUnitsStatDelta:
		rec.apply(map[string]any{"units": s.applyStatToRoster(e.Stat, e.Value, false)})
	case blessings.SkipFirstShop:
		s.RuntimeModifiers.SkipFirstShop = true
		rec.apply(nil)
	case blessings.ShopItemCountDelta:
		s.RuntimeModifiers.ShopItemCountDelta += e.Value
		rec.apply(map[string]any{"total": s.RuntimeModifiers.ShopItemCountDelta})
	case blessings.AllGrowthsDelta:
		for i := range s.Roster {
			for _, stat := range gamedata.GrowthNames {
				units.ApplyGrowthDelta(&s.Roster[i], stat, e.Value)
			}
		}
		s.RuntimeModifiers.GrowthDelta += e.Value
		rec.apply(map[string]any{"total": s.RuntimeModifiers.GrowthDelta})
	case blessings.DisablePersonalSkillsUntilAct:
		s.tightenSuppression(e.Act)
		target := s.RuntimeModifiers.DisablePersonalSkillsUntilAct
		if s.actPosition(target) <= s.ActIndex {
			s.RuntimeModifiers.DisablePersonalSkillsUntilAct = ""
			rec.apply(map[string]any{"act": target, "alreadyReached": true})
			return
		}
		removed := s.suppressPersonalSkills()
		rec.apply(map[string]any{"act": target, "suppressed": removed})
	case blessings.Unknown:
		rec.skip("unknown effect type", nil)
	default:
		rec.skip(fmt.Sprintf("unhandled effect %T", eff), nil)
	}
}

func (s *State) applyStatToRoster(stat string, value int, lordsOnly bool) map[string]int {
	out := map[string]int{}
	for i := range s.Roster {
		u := &s.Roster[i]
		if lordsOnly && !u.IsLord {
			continue
		}
		out[u.Name] = units.ApplyStatDelta(u, stat, value)
	}
	return out
}

// grantStartingWeapons gives up to e.Count distinct roster units the first
// catalog weapon of e.Tier they are proficient with. Staves never qualify.
func (s *State) grantStartingWeapons(e blessings.StartingWeaponTier) []map[string]string {
	granted := []map[string]string{}
	for i := range s.Roster {
		if len(granted) >= e.Count {
			break
		}
		u := &s.Roster[i]
		for _, def := range s.env.Catalog.Weapons {
			item := units.ItemFromWeapon(def)
			if def.Tier != e.Tier || !units.IsCombatWeapon(item) || !units.CanEquip(u, item) {
				continue
			}
			if !units.AddToInventory(u, item) {
				break
			}
			units.Equip(u, len(u.Inventory)-1)
			granted = append(granted, map[string]string{"unit": u.Name, "weapon": item.Name})
			break
		}
	}
	return granted
}

// applyTracker applies an act-scoped delta once.
func (s *State) applyTracker(idx int) bool {
	t := &s.RuntimeModifiers.ActStatDeltaAllUnits[idx]
	if t.Applied || t.Reverted {
		return false
	}
	t.Deltas = map[string]int{}
	for i := range s.Roster {
		u := &s.Roster[i]
		t.Deltas[u.Name] = units.ApplyStatDelta(u, t.Stat, t.Value)
	}
	t.Applied = true
	return true
}

// revertTracker undoes an applied delta once, on roster and fallen units
// alike.
func (s *State) revertTracker(idx int) bool {
	t := &s.RuntimeModifiers.ActStatDeltaAllUnits[idx]
	if !t.Applied || t.Reverted {
		return false
	}
	for name, delta := range t.Deltas {
		if i := s.findUnit(s.Roster, name); i >= 0 {
			units.ApplyStatDelta(&s.Roster[i], t.Stat, -delta)
		} else if i := s.findUnit(s.FallenUnits, name); i >= 0 {
			units.ApplyStatDelta(&s.FallenUnits[i], t.Stat, -delta)
		}
	}
	t.Reverted = true
	return true
}

// leaveAct reverts trackers targeting actID. Matching is by exact act id.
func (s *State) leaveAct(ctx context.Context, actID string) {
	for i, t := range s.RuntimeModifiers.ActStatDeltaAllUnits {
		if t.Act != actID || !s.revertTracker(i) {
			continue
		}
		s.record(ctx, journal.Entry{
			Stage:      StageActLeave,
			BlessingID: t.BlessingID,
			EffectType: blessings.TypeActStatDeltaAllUnits,
			Params:     map[string]any{"act": t.Act, "stat": t.Stat, "value": t.Value},
			Outcome:    journal.OutcomeReverted,
			Details:    map[string]any{"deltas": copyDeltas(t.Deltas)},
		})
	}
}

// enterAct applies pending trackers targeting actID.
func (s *State) enterAct(ctx context.Context, actID string) {
	for i, t := range s.RuntimeModifiers.ActStatDeltaAllUnits {
		if t.Act != actID || !s.applyTracker(i) {
			continue
		}
		s.record(ctx, journal.Entry{
			Stage:      StageActEnter,
			BlessingID: t.BlessingID,
			EffectType: blessings.TypeActStatDeltaAllUnits,
			Params:     map[string]any{"act": t.Act, "stat": t.Stat, "value": t.Value},
			Outcome:    journal.OutcomeApplied,
			Details:    map[string]any{"deltas": copyDeltas(s.RuntimeModifiers.ActStatDeltaAllUnits[i].Deltas)},
		})
	}
}

// tightenSuppression keeps the later of the existing and requested target
// acts, by position in the act sequence.
func (s *State) tightenSuppression(act string) {
	current := s.RuntimeModifiers.DisablePersonalSkillsUntilAct
	if current == "" || s.actPosition(act) > s.actPosition(current) {
		s.RuntimeModifiers.DisablePersonalSkillsUntilAct = act
	}
}

// suppressPersonalSkills strips personal skills from every roster unit while
// a suppression target is pending, remembering what it took.
func (s *State) suppressPersonalSkills() []string {
	if s.RuntimeModifiers.DisablePersonalSkillsUntilAct == "" {
		return nil
	}
	removed := []string{}
	for i := range s.Roster {
		u := &s.Roster[i]
		for _, skill := range append([]string(nil), u.Skills...) {
			if !s.env.Catalog.IsPersonalSkill(skill) {
				continue
			}
			u.RemoveSkill(skill)
			if !s.isSuppressed(u.Name, skill) {
				s.RuntimeModifiers.SuppressedPersonalSkills = append(s.RuntimeModifiers.SuppressedPersonalSkills, SuppressedSkill{Unit: u.Name, Skill: skill})
			}
			removed = append(removed, u.Name+":"+skill)
		}
	}
	return removed
}

func (s *State) suppressedCount(unit string) int {
	n := 0
	for _, sk := range s.RuntimeModifiers.SuppressedPersonalSkills {
		if sk.Unit == unit {
			n++
		}
	}
	return n
}

func (s *State) isSuppressed(unit, skill string) bool {
	for _, sk := range s.RuntimeModifiers.SuppressedPersonalSkills {
		if sk.Unit == unit && sk.Skill == skill {
			return true
		}
	}
	return false
}

// restorePersonalSkillsIfReached gives suppressed skills back once the
// target act has begun. A skill that no longer fits under units.MaxSkills
// stays lost and is listed as dropped. Safe to call any number of times.
func (s *State) restorePersonalSkillsIfReached(ctx context.Context) bool {
	target := s.RuntimeModifiers.DisablePersonalSkillsUntilAct
	if target == "" {
		if len(s.RuntimeModifiers.SuppressedPersonalSkills) == 0 {
			return false
		}
	} else if pos := s.actPosition(target); pos >= 0 && s.ActIndex < pos {
		return false
	}
	restored, dropped := []string{}, []string{}
	for _, sk := range s.RuntimeModifiers.SuppressedPersonalSkills {
		var u *units.Unit
		if i := s.findUnit(s.Roster, sk.Unit); i >= 0 {
			u = &s.Roster[i]
		} else if i := s.findUnit(s.FallenUnits, sk.Unit); i >= 0 {
			u = &s.FallenUnits[i]
		}
		if u == nil || u.HasSkill(sk.Skill) {
			continue
		}
		if !units.AddSkill(u, sk.Skill) {
			dropped = append(dropped, sk.Unit+":"+sk.Skill)
			continue
		}
		restored = append(restored, sk.Unit+":"+sk.Skill)
	}
	details := map[string]any{"restored": restored}
	if len(dropped) > 0 {
		details["dropped"] = dropped
	}
	s.RuntimeModifiers.DisablePersonalSkillsUntilAct = ""
	s.RuntimeModifiers.SuppressedPersonalSkills = []SuppressedSkill{}
	s.record(ctx, journal.Entry{
		Stage:      StageActEnter,
		EffectType: blessings.TypeDisablePersonalSkillsUntilAct,
		Params:     map[string]any{"act": target},
		Outcome:    journal.OutcomeReverted,
		Details:    details,
	})
	blessinglog.PersonalSkillsRestored(ctx, s.publisher(), s.RunID, blessinglog.SkillsRestoredPayload{Act: target, Skills: restored})
	return true
}

// record appends to history and mirrors the entry to the event log.
func (s *State) record(ctx context.Context, e journal.Entry) journal.Entry {
	e.ActIndex = s.ActIndex
	stored := s.history.Append(e)
	payload := blessinglog.EffectPayload{Stage: e.Stage, EffectType: e.EffectType, Reason: e.Reason}
	switch e.Outcome {
	case journal.OutcomeApplied:
		blessinglog.EffectApplied(ctx, s.publisher(), s.RunID, e.BlessingID, payload)
	case journal.OutcomeReverted:
		blessinglog.EffectReverted(ctx, s.publisher(), s.RunID, e.BlessingID, payload)
	default:
		blessinglog.EffectSkipped(ctx, s.publisher(), s.RunID, e.BlessingID, payload)
	}
	return stored
}

type effectRecord struct {
	state      *State
	ctx        context.Context
	blessingID string
	raw        gamedata.EffectDef
	stage      string
}

func (r effectRecord) entry(outcome, reason string, details map[string]any) journal.Entry {
	return journal.Entry{
		Stage:      r.stage,
		BlessingID: r.blessingID,
		EffectType: r.raw.Type,
		Params:     copyParams(r.raw.Params),
		Outcome:    outcome,
		Reason:     reason,
		Details:    details,
	}
}

func (r effectRecord) apply(details map[string]any) {
	r.state.record(r.ctx, r.entry(journal.OutcomeApplied, "", details))
}

func (r effectRecord) skip(reason string, details map[string]any) {
	r.state.record(r.ctx, r.entry(journal.OutcomeSkipped, reason, details))
}

func copyParams(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func copyDeltas(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
