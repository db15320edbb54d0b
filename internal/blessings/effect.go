// Package blessings turns authored blessing effects into a closed set of
// typed variants and selects which blessings a run is offered.
package blessings

// Effect type tags as authored in the catalog.
const (
	TypeRunStartMaxHPBonus            = "run_start_max_hp_bonus"
	TypeGoldDelta                     = "gold_delta"
	TypeBattleGoldMultiplierDelta     = "battle_gold_multiplier_delta"
	TypeDeployCapDelta                = "deploy_cap_delta"
	TypeStartingWeaponTier            = "starting_weapon_tier"
	TypeActStatDeltaAllUnits          = "act_stat_delta_all_units"
	TypeActHitBonus                   = "act_hit_bonus"
	TypeLordStatBonus                 = "lord_stat_bonus"
	TypeAllUnitsStatDelta             = "all_units_stat_delta"
	TypeSkipFirstShop                 = "skip_first_shop"
	TypeShopItemCountDelta            = "shop_item_count_delta"
	TypeAllGrowthsDelta               = "all_growths_delta"
	TypeDisablePersonalSkillsUntilAct = "disable_personal_skills_until_act"
)

// KnownTypes lists every effect type the interpreter understands.
var KnownTypes = []string{
	TypeRunStartMaxHPBonus,
	TypeGoldDelta,
	TypeBattleGoldMultiplierDelta,
	TypeDeployCapDelta,
	TypeStartingWeaponTier,
	TypeActStatDeltaAllUnits,
	TypeActHitBonus,
	TypeLordStatBonus,
	TypeAllUnitsStatDelta,
	TypeSkipFirstShop,
	TypeShopItemCountDelta,
	TypeAllGrowthsDelta,
	TypeDisablePersonalSkillsUntilAct,
}

// Scope values for max-HP bonuses.
const (
	ScopeAll   = "all"
	ScopeLords = "lords"
)

// Effect is one parsed blessing effect. The set of implementations is
// closed; callers switch over the concrete types and route Unknown to a
// single skipped branch.
type Effect interface {
	// Type returns the authored type tag.
	Type() string
	effect()
}

type RunStartMaxHPBonus struct {
	Value int
	Scope string
}

type GoldDelta struct{ Value int }

type BattleGoldMultiplierDelta struct{ Value float64 }

type DeployCapDelta struct{ Value int }

// StartingWeaponTier grants up to Count weapons of Tier to distinct units.
type StartingWeaponTier struct {
	Tier  int
	Count int
}

type ActStatDeltaAllUnits struct {
	Act   string
	Stat  string
	Value int
}

type ActHitBonus struct {
	Act   string
	Value int
}

type LordStatBonus struct {
	Stat  string
	Value int
}

type AllUnitsStatDelta struct {
	Stat  string
	Value int
}

type SkipFirstShop struct{}

type ShopItemCountDelta struct{ Value int }

type AllGrowthsDelta struct{ Value int }

type DisablePersonalSkillsUntilAct struct{ Act string }

// Unknown carries an unrecognised type tag through to the audit trail.
type Unknown struct{ Tag string }

func (RunStartMaxHPBonus) Type() string            { return TypeRunStartMaxHPBonus }
func (GoldDelta) Type() string                     { return TypeGoldDelta }
func (BattleGoldMultiplierDelta) Type() string     { return TypeBattleGoldMultiplierDelta }
func (DeployCapDelta) Type() string                { return TypeDeployCapDelta }
func (StartingWeaponTier) Type() string            { return TypeStartingWeaponTier }
func (ActStatDeltaAllUnits) Type() string          { return TypeActStatDeltaAllUnits }
func (ActHitBonus) Type() string                   { return TypeActHitBonus }
func (LordStatBonus) Type() string                 { return TypeLordStatBonus }
func (AllUnitsStatDelta) Type() string             { return TypeAllUnitsStatDelta }
func (SkipFirstShop) Type() string                 { return TypeSkipFirstShop }
func (ShopItemCountDelta) Type() string            { return TypeShopItemCountDelta }
func (AllGrowthsDelta) Type() string               { return TypeAllGrowthsDelta }
func (DisablePersonalSkillsUntilAct) Type() string { return TypeDisablePersonalSkillsUntilAct }
func (u Unknown) Type() string                     { return u.Tag }

func (RunStartMaxHPBonus) effect()            {}
func (GoldDelta) effect()                     {}
func (BattleGoldMultiplierDelta) effect()     {}
func (DeployCapDelta) effect()                {}
func (StartingWeaponTier) effect()            {}
func (ActStatDeltaAllUnits) effect()          {}
func (ActHitBonus) effect()                   {}
func (LordStatBonus) effect()                 {}
func (AllUnitsStatDelta) effect()             {}
func (SkipFirstShop) effect()                 {}
func (ShopItemCountDelta) effect()            {}
func (AllGrowthsDelta) effect()               {}
func (DisablePersonalSkillsUntilAct) effect() {}
func (Unknown) effect()                       {}
