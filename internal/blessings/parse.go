package blessings

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

// ParamError explains why an effect's params were rejected.
type ParamError struct {
	Type   string
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("blessings: %s.%s %s", e.Type, e.Param, e.Reason)
}

// ActChecker reports whether an act id is playable in the current run.
type ActChecker func(actID string) bool

// Parse converts an authored effect into its typed variant. Unrecognised
// types come back as Unknown with a nil error; malformed params return a
// *ParamError and must be skipped by the caller.
func Parse(def gamedata.EffectDef, knownAct ActChecker) (Effect, error) {
	p := params{typ: def.Type, raw: def.Params, knownAct: knownAct}
	switch def.Type {
	case TypeRunStartMaxHPBonus:
		scope := p.optionalString("scope", ScopeAll)
		if scope != ScopeAll && scope != ScopeLords {
			return nil, p.fail("scope", fmt.Sprintf("must be %q or %q", ScopeAll, ScopeLords))
		}
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return RunStartMaxHPBonus{Value: v, Scope: scope}, nil
	case TypeGoldDelta:
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return GoldDelta{Value: v}, nil
	case TypeBattleGoldMultiplierDelta:
		v, err := p.number("value")
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return nil, p.fail("value", "must be non-zero")
		}
		return BattleGoldMultiplierDelta{Value: v}, nil
	case TypeDeployCapDelta:
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return DeployCapDelta{Value: v}, nil
	case TypeStartingWeaponTier:
		tier, err := p.integer("tier")
		if err != nil {
			return nil, err
		}
		if tier < 1 {
			return nil, p.fail("tier", "must be at least 1")
		}
		count := 1
		if _, ok := p.raw["count"]; ok {
			if count, err = p.integer("count"); err != nil {
				return nil, err
			}
		}
		if count < 1 {
			return nil, p.fail("count", "must be at least 1")
		}
		return StartingWeaponTier{Tier: tier, Count: count}, nil
	case TypeActStatDeltaAllUnits:
		act, err := p.act("act")
		if err != nil {
			return nil, err
		}
		stat, err := p.stat("stat")
		if err != nil {
			return nil, err
		}
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return ActStatDeltaAllUnits{Act: act, Stat: stat, Value: v}, nil
	case TypeActHitBonus:
		act, err := p.act("act")
		if err != nil {
			return nil, err
		}
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return ActHitBonus{Act: act, Value: v}, nil
	case TypeLordStatBonus, TypeAllUnitsStatDelta:
		stat, err := p.stat("stat")
		if err != nil {
			return nil, err
		}
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		if def.Type == TypeLordStatBonus {
			return LordStatBonus{Stat: stat, Value: v}, nil
		}
		return AllUnitsStatDelta{Stat: stat, Value: v}, nil
	case TypeSkipFirstShop:
		return SkipFirstShop{}, nil
	case TypeShopItemCountDelta:
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return ShopItemCountDelta{Value: v}, nil
	case TypeAllGrowthsDelta:
		v, err := p.nonZeroInt("value")
		if err != nil {
			return nil, err
		}
		return AllGrowthsDelta{Value: v}, nil
	case TypeDisablePersonalSkillsUntilAct:
		act, err := p.act("act")
		if err != nil {
			return nil, err
		}
		return DisablePersonalSkillsUntilAct{Act: act}, nil
	default:
		return Unknown{Tag: def.Type}, nil
	}
}

type params struct {
	typ      string
	raw      map[string]any
	knownAct ActChecker
}

func (p params) fail(name, reason string) error {
	return &ParamError{Type: p.typ, Param: name, Reason: reason}
}

func (p params) number(name string) (float64, error) {
	v, ok := p.raw[name]
	if !ok || v == nil {
		return 0, p.fail(name, "is missing")
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, p.fail(name, "is not a number")
		}
		f = parsed
	default:
		return 0, p.fail(name, "is not a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, p.fail(name, "is not finite")
	}
	return f, nil
}

func (p params) integer(name string) (int, error) {
	f, err := p.number(name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, p.fail(name, "must be an integer")
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, p.fail(name, "is out of range")
	}
	return int(f), nil
}

func (p params) nonZeroInt(name string) (int, error) {
	v, err := p.integer(name)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, p.fail(name, "must be non-zero")
	}
	return v, nil
}

func (p params) str(name string) (string, error) {
	v, ok := p.raw[name].(string)
	if !ok || v == "" {
		return "", p.fail(name, "must be a non-empty string")
	}
	return v, nil
}

func (p params) optionalString(name, fallback string) string {
	if v, ok := p.raw[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

func (p params) stat(name string) (string, error) {
	s, err := p.str(name)
	if err != nil {
		return "", err
	}
	if !gamedata.IsStat(s) {
		return "", p.fail(name, fmt.Sprintf("unknown stat %q", s))
	}
	return s, nil
}

func (p params) act(name string) (string, error) {
	s, err := p.str(name)
	if err != nil {
		return "", err
	}
	if p.knownAct != nil && !p.knownAct(s) {
		return "", p.fail(name, fmt.Sprintf("unknown act %q", s))
	}
	return s, nil
}
