package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/virtu333/rogue-emblem-sub003/internal/difficulty"
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/meta"
	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
	"github.com/virtu333/rogue-emblem-sub003/logging/lifecycle"
)

// StartOptions configures a fresh run.
type StartOptions struct {
	// Seed fixes run randomness. Nil seeds from the clock.
	Seed         *int64
	DifficultyID string
	// BlessingID is a blessing picked before the run began. It is applied
	// immediately when ApplyBlessingsAtStart is set; otherwise it is recorded
	// and its run-start effects wait for ApplyRunStartBlessings.
	BlessingID            string
	ApplyBlessingsAtStart bool
	Meta                  meta.Effects
}

// Start creates a fresh run: difficulty resolved, the founding lords built
// with meta bonuses, rng seeded and the first act's map generated.
func Start(ctx context.Context, env Env, opts StartOptions) (*State, error) {
	env, err := env.normalized()
	if err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	resolved := difficulty.Resolve(env.Catalog, opts.DifficultyID)
	cfg := env.Config

	s := &State{
		RunID:                  ulid.Make().String(),
		Status:                 StatusActive,
		ActSequence:            resolved.Modifiers.ActSequence(env.Catalog),
		Roster:                 []units.Unit{},
		FallenUnits:            []units.Unit{},
		Accessories:            []units.Accessory{},
		Scrolls:                []units.Item{},
		Convoy:                 Convoy{Weapons: []units.Item{}, Consumables: []units.Item{}},
		ActiveBlessings:        []string{},
		RuntimeModifiers:       newRuntimeModifiers(),
		RunSeed:                seed,
		RNGSeed:                rng.SeedValue(seed, "rng"),
		VisionChargesRemaining: cfg.VisionCharges + opts.Meta.VisionCharges,
		UsedRecruitNames:       map[string][]string{},
		BattleConfigs:          map[string]json.RawMessage{},
		ShopStock:              map[string]*Shop{},
		DifficultyID:           resolved.ID,
		DifficultyModifiers:    resolved.Modifiers,
		MetaEffects:            opts.Meta.Clone(),
		Gold:                   cfg.StartingGold + opts.Meta.StartingGold,
		env:                    env,
		history:                env.newHistory(),
	}
	if s.Gold < 0 {
		s.Gold = 0
	}
	if err := s.buildRoster(); err != nil {
		return nil, err
	}
	s.NodeMap = s.generateMap(s.CurrentAct())

	lifecycle.RunStarted(ctx, s.publisher(), s.RunID, lifecycle.RunStartedPayload{
		Seed:        seed,
		Difficulty:  s.DifficultyID,
		ActSequence: append([]string(nil), s.ActSequence...),
		Roster:      s.rosterNames(),
		Gold:        s.Gold,
	})

	switch {
	case opts.ApplyBlessingsAtStart:
		if opts.BlessingID != "" && !s.ChooseBlessing(ctx, opts.BlessingID) {
			return nil, fmt.Errorf("run: blessing %q cannot be applied", opts.BlessingID)
		}
		s.runStartApplied = true
	case opts.BlessingID != "":
		if !s.commitBlessing(ctx, opts.BlessingID) {
			return nil, fmt.Errorf("run: blessing %q cannot be chosen", opts.BlessingID)
		}
	}
	return s, nil
}

// buildRoster creates the founding lords and applies meta bonuses and grants.
func (s *State) buildRoster() error {
	cat := s.env.Catalog
	m := s.MetaEffects
	for _, def := range cat.Lords {
		u, err := units.FromLord(cat, def)
		if err != nil {
			return err
		}
		for stat, v := range m.StatBonuses {
			units.ApplyStatDelta(&u, stat, v)
		}
		for stat, v := range m.GrowthBonuses {
			units.ApplyGrowthDelta(&u, stat, v)
		}
		if m.StartingWeapon != "" {
			if w, ok := cat.Weapon(m.StartingWeapon); ok {
				item := units.ItemFromWeapon(w)
				if units.CanEquip(&u, item) && units.AddToInventory(&u, item) {
					units.Equip(&u, len(u.Inventory)-1)
				}
			}
		}
		if m.StartingSkill != "" {
			if _, ok := cat.Skill(m.StartingSkill); ok {
				units.AddSkill(&u, m.StartingSkill)
			}
		}
		units.HealFull(&u)
		s.Roster = append(s.Roster, u)
	}
	if m.StartingStaff != "" {
		if w, ok := cat.Weapon(m.StartingStaff); ok && w.Type == gamedata.WeaponStaff {
			s.Convoy.Weapons = append(s.Convoy.Weapons, units.ItemFromWeapon(w))
		}
	}
	if m.StartingAccessory != "" && len(s.Roster) > 0 {
		if a, ok := cat.Accessory(m.StartingAccessory); ok {
			units.EquipAccessory(&s.Roster[0], units.AccessoryFromDef(a))
		}
	}
	return nil
}

func (s *State) generateMap(actID string) *nodemap.Map {
	act, _ := s.env.Catalog.Act(actID)
	mods := s.DifficultyModifiers
	return nodemap.Generate(actID, act, nil, nodemap.Options{
		Rand:            rng.New(s.RunSeed, "map:"+actID),
		EnemyStatBonus:  mods.EnemyStatBonus,
		EnemyCountBonus: mods.EnemyCountBonus,
		FogChanceBonus:  mods.FogChanceBonus,
	})
}

func (s *State) rosterNames() []string {
	out := make([]string, 0, len(s.Roster))
	for _, u := range s.Roster {
		out = append(out, u.Name)
	}
	return out
}
