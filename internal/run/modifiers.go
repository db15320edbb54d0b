package run

import (
	"math"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
)

// DeployCap is how many units may enter a battle.
func (s *State) DeployCap() int {
	n := s.env.Config.BaseDeployCap + s.RuntimeModifiers.DeployCapDelta
	if n < 1 {
		return 1
	}
	return n
}

// HitBonus is the current act's blessing hit bonus. Only player units get it.
func (s *State) HitBonus(faction string) int {
	if faction != units.FactionPlayer {
		return 0
	}
	return s.RuntimeModifiers.ActHitBonus[s.CurrentAct()]
}

// BattleGoldMultiplier is the blessing multiplier on battle payouts.
func (s *State) BattleGoldMultiplier() float64 {
	return math.Max(0, 1+s.RuntimeModifiers.BattleGoldMultiplierDelta)
}

// ShopItemCount applies the blessing delta to a base shop size.
func (s *State) ShopItemCount(base int) int {
	n := base + s.RuntimeModifiers.ShopItemCountDelta
	if n < s.env.Config.ShopMinItemCount {
		return s.env.Config.ShopMinItemCount
	}
	return n
}

// MetaGrowthBonuses merges the run's persisted growth delta into base, for
// units created after the run began.
func (s *State) MetaGrowthBonuses(base map[string]int) map[string]int {
	out := make(map[string]int, len(gamedata.GrowthNames))
	for k, v := range base {
		out[k] = v
	}
	if d := s.RuntimeModifiers.GrowthDelta; d != 0 {
		for _, stat := range gamedata.GrowthNames {
			out[stat] += d
		}
	}
	return out
}
