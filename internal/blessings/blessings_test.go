package blessings

import (
	"errors"
	"math"
	"testing"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
)

func knownActs(ids ...string) ActChecker {
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}

func TestParseEveryCatalogEffect(t *testing.T) {
	cat := gamedata.MustDefault()
	check := knownActs(cat.ActIDs()...)
	seen := map[string]bool{}
	for _, b := range cat.Blessings {
		for _, def := range b.Effects() {
			eff, err := Parse(def, check)
			if err != nil {
				t.Fatalf("%s/%s: %v", b.ID, def.Type, err)
			}
			if _, unknown := eff.(Unknown); unknown {
				t.Fatalf("%s/%s parsed as unknown", b.ID, def.Type)
			}
			seen[eff.Type()] = true
		}
	}
	for _, typ := range KnownTypes {
		if !seen[typ] {
			t.Fatalf("catalog never exercises %s", typ)
		}
	}
}

func TestParseRejectsMalformedParams(t *testing.T) {
	check := knownActs("act1")
	cases := []struct {
		name string
		def  gamedata.EffectDef
	}{
		{"non-finite", gamedata.EffectDef{Type: TypeGoldDelta, Params: map[string]any{"value": math.Inf(1)}}},
		{"zero delta", gamedata.EffectDef{Type: TypeDeployCapDelta, Params: map[string]any{"value": 0}}},
		{"missing value", gamedata.EffectDef{Type: TypeShopItemCountDelta}},
		{"empty stat", gamedata.EffectDef{Type: TypeAllUnitsStatDelta, Params: map[string]any{"stat": "", "value": 1}}},
		{"unknown stat", gamedata.EffectDef{Type: TypeLordStatBonus, Params: map[string]any{"stat": "CHA", "value": 1}}},
		{"unknown act", gamedata.EffectDef{Type: TypeActHitBonus, Params: map[string]any{"act": "act9", "value": 5}}},
		{"fractional", gamedata.EffectDef{Type: TypeGoldDelta, Params: map[string]any{"value": 1.5}}},
		{"bad scope", gamedata.EffectDef{Type: TypeRunStartMaxHPBonus, Params: map[string]any{"value": 2, "scope": "enemies"}}},
		{"huge gold", gamedata.EffectDef{Type: TypeGoldDelta, Params: map[string]any{"value": 1e300}}},
		{"huge negative", gamedata.EffectDef{Type: TypeAllUnitsStatDelta, Params: map[string]any{"stat": "DEF", "value": -1e19}}},
		{"above int32", gamedata.EffectDef{Type: TypeDeployCapDelta, Params: map[string]any{"value": int64(math.MaxInt32) + 1}}},
	}
	for _, tc := range cases {
		_, err := Parse(tc.def, check)
		var perr *ParamError
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected ParamError, got %v", tc.name, err)
		}
	}
}

func TestParseUnknownTypeIsNotAnError(t *testing.T) {
	eff, err := Parse(gamedata.EffectDef{Type: "summon_dragon"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, ok := eff.(Unknown); !ok || u.Type() != "summon_dragon" {
		t.Fatalf("expected Unknown carrying the tag, got %#v", eff)
	}
}

func TestSelectorHonoursTierAndConditions(t *testing.T) {
	cat := gamedata.MustDefault()
	sel, err := NewSelector(cat)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	story := ConditionContext{Difficulty: "story", Acts: []string{"act1", "act2", "finalBoss"}}
	got := sel.Select(rng.New(1, "blessings"), SelectOptions{Count: 20, AllowTier4: true, Context: story})
	for _, id := range got.Telemetry.ChosenIDs {
		if id == "keen_eye" || id == "crown_of_ash" {
			t.Fatalf("%s should fail its condition on story", id)
		}
	}
	if len(got.Telemetry.CandidatePoolIDs) != len(got.Selected) {
		t.Fatalf("count above pool size should return the whole pool")
	}

	normal := ConditionContext{Difficulty: "normal", Acts: cat.ActIDs()}
	locked := sel.Select(rng.New(1, "blessings"), SelectOptions{Count: 20, Context: normal})
	for _, id := range locked.Telemetry.ChosenIDs {
		if id == "crown_of_ash" {
			t.Fatalf("tier 4 offered without AllowTier4")
		}
	}
	if !sel.Eligible("keen_eye", SelectOptions{Context: normal}) {
		t.Fatalf("keen_eye should be eligible with four acts")
	}
}

func TestSelectorForceTier1(t *testing.T) {
	cat := gamedata.MustDefault()
	sel, _ := NewSelector(cat)
	ctx := ConditionContext{Difficulty: "normal", Acts: cat.ActIDs()}
	for seed := int64(0); seed < 20; seed++ {
		got := sel.Select(rng.New(seed, "blessings"), SelectOptions{Count: 3, ForceTier1: true, Context: ctx})
		if len(got.Selected) != 3 {
			t.Fatalf("seed %d: expected 3 options, got %d", seed, len(got.Selected))
		}
		if got.Selected[0].Tier != 1 {
			t.Fatalf("seed %d: expected tier-1 first option, got %s", seed, got.Selected[0].ID)
		}
	}
}

func TestConditionsRejectNonBoolean(t *testing.T) {
	c, err := NewConditions()
	if err != nil {
		t.Fatalf("NewConditions: %v", err)
	}
	if _, err := c.Eval("tier + 1", 1, ConditionContext{}); err == nil {
		t.Fatalf("expected non-boolean result to error")
	}
	ok, err := c.Eval(`"act3" in acts`, 1, ConditionContext{Acts: []string{"act3"}})
	if err != nil || !ok {
		t.Fatalf("expected membership to hold, got %v %v", ok, err)
	}
}
