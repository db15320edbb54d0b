package run

import (
	"context"
	"testing"

	"github.com/virtu333/rogue-emblem-sub003/internal/blessings"
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/journal"
	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
)

func effect(typ string, params map[string]any) gamedata.EffectDef {
	return gamedata.EffectDef{Type: typ, Params: params}
}

func addUnit(t *testing.T, s *State, className, name string) *units.Unit {
	t.Helper()
	u, err := units.Create(s.Catalog(), className, name, 1)
	if err != nil {
		t.Fatalf("Create %s: %v", className, err)
	}
	s.Roster = append(s.Roster, u)
	return &s.Roster[len(s.Roster)-1]
}

func entriesFor(s *State, blessingID string) []journal.Entry {
	var out []journal.Entry
	for _, e := range s.History() {
		if e.BlessingID == blessingID {
			out = append(out, e)
		}
	}
	return out
}

func TestDeferredStartBlessingAppliesOnce(t *testing.T) {
	ctx := context.Background()
	seed := int64(42)
	s, err := Start(ctx, Env{Catalog: gamedata.MustDefault()}, StartOptions{
		Seed:         &seed,
		DifficultyID: "normal",
		BlessingID:   "gilded_path",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := DefaultConfig().StartingGold
	if len(s.ActiveBlessings) != 1 || s.ActiveBlessings[0] != "gilded_path" {
		t.Fatalf("expected deferred blessing recorded, got %v", s.ActiveBlessings)
	}
	if s.Gold != start || s.RunStartBlessingsApplied() {
		t.Fatalf("deferred blessing applied early: gold=%d", s.Gold)
	}
	if s.ChooseBlessing(ctx, "war_chest") {
		t.Fatalf("expected a second blessing refused")
	}
	if !s.ApplyRunStartBlessings(ctx) {
		t.Fatalf("expected deferred effects to apply")
	}
	if s.Gold != start+500 {
		t.Fatalf("expected gold %d, got %d", start+500, s.Gold)
	}
	if s.ApplyRunStartBlessings(ctx) || s.Gold != start+500 {
		t.Fatalf("run-start effects applied twice, gold=%d", s.Gold)
	}

	data, err := s.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, _, err := FromJSON(ctx, data, Env{Catalog: s.Catalog()})
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.ApplyRunStartBlessings(ctx) || got.Gold != start+500 {
		t.Fatalf("reloaded run re-applied effects, gold=%d", got.Gold)
	}
}

func TestStartRejectsUnknownDeferredBlessing(t *testing.T) {
	seed := int64(42)
	_, err := Start(context.Background(), Env{Catalog: gamedata.MustDefault()}, StartOptions{
		Seed:         &seed,
		DifficultyID: "normal",
		BlessingID:   "no_such_blessing",
	})
	if err == nil {
		t.Fatalf("expected unknown deferred blessing to fail Start")
	}
}

func TestStartingWeaponTierGrantsDistinctProficientUnits(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	s.applyEffect(ctx, "test", effect(blessings.TypeStartingWeaponTier, map[string]any{"tier": 2, "count": 5}))
	for _, u := range s.Roster {
		w := u.EquippedWeapon()
		if w == nil || w.Tier != 2 || !units.IsCombatWeapon(*w) || !units.CanEquip(&u, *w) {
			t.Fatalf("%s: expected an equipped tier 2 combat weapon, got %+v", u.Name, w)
		}
	}
	e := s.History()[0]
	granted, _ := e.Details["granted"].([]map[string]string)
	if e.Outcome != journal.OutcomeApplied || len(granted) != len(s.Roster) {
		t.Fatalf("expected one grant per roster unit, got %+v", e)
	}
	seen := map[string]bool{}
	for _, g := range granted {
		if seen[g["unit"]] {
			t.Fatalf("unit %s granted twice", g["unit"])
		}
		seen[g["unit"]] = true
	}
}

func TestStartingWeaponTierSkipsStaffUsers(t *testing.T) {
	s := startRun(t, "normal")
	s.Roster = nil
	cleric := addUnit(t, s, "Cleric", "Mira")
	before := len(cleric.Inventory)
	s.applyEffect(context.Background(), "test", effect(blessings.TypeStartingWeaponTier, map[string]any{"tier": 2, "count": 1}))
	if len(s.Roster[0].Inventory) != before {
		t.Fatalf("staff user was granted %+v", s.Roster[0].Inventory)
	}
	if e := s.History()[0]; e.Outcome != journal.OutcomeSkipped || e.Reason == "" {
		t.Fatalf("expected skipped entry, got %+v", e)
	}
}

func TestAllGrowthsDeltaFeedsLaterUnits(t *testing.T) {
	s := startRun(t, "normal")
	before := s.Roster[0].Growths.Clone()
	s.applyEffect(context.Background(), "test", effect(blessings.TypeAllGrowthsDelta, map[string]any{"value": 5}))
	for _, stat := range gamedata.GrowthNames {
		if got := s.Roster[0].Growths[stat]; got != before[stat]+5 {
			t.Fatalf("%s growth: expected %d, got %d", stat, before[stat]+5, got)
		}
	}
	if s.RuntimeModifiers.GrowthDelta != 5 {
		t.Fatalf("expected growth delta tracked, got %d", s.RuntimeModifiers.GrowthDelta)
	}
	merged := s.MetaGrowthBonuses(map[string]int{gamedata.StatSTR: 10})
	if merged[gamedata.StatSTR] != 15 || merged[gamedata.StatHP] != 5 {
		t.Fatalf("unexpected merged bonuses %v", merged)
	}
}

func TestDeployCapAndShopCountDeltasClamp(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	cfg := DefaultConfig()
	s.applyEffect(ctx, "test", effect(blessings.TypeDeployCapDelta, map[string]any{"value": 1}))
	s.applyEffect(ctx, "test", effect(blessings.TypeShopItemCountDelta, map[string]any{"value": -1}))
	if s.DeployCap() != cfg.BaseDeployCap+1 {
		t.Fatalf("expected deploy cap %d, got %d", cfg.BaseDeployCap+1, s.DeployCap())
	}
	if s.ShopItemCount(cfg.ShopItemCount) != cfg.ShopItemCount-1 {
		t.Fatalf("expected shop size %d, got %d", cfg.ShopItemCount-1, s.ShopItemCount(cfg.ShopItemCount))
	}
	s.applyEffect(ctx, "test", effect(blessings.TypeDeployCapDelta, map[string]any{"value": -50}))
	s.applyEffect(ctx, "test", effect(blessings.TypeShopItemCountDelta, map[string]any{"value": -50}))
	if s.DeployCap() != 1 || s.ShopItemCount(cfg.ShopItemCount) != cfg.ShopMinItemCount {
		t.Fatalf("expected floors, got cap %d shop %d", s.DeployCap(), s.ShopItemCount(cfg.ShopItemCount))
	}
}

func TestAllUnitsStatDeltaRecordsAppliedAmounts(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	def := s.Unit("Sera").Stats[gamedata.StatDEF]
	s.applyEffect(ctx, "test", effect(blessings.TypeAllUnitsStatDelta, map[string]any{"stat": "DEF", "value": -100}))
	if got := s.Unit("Sera").Stats[gamedata.StatDEF]; got != 0 {
		t.Fatalf("expected DEF floored at 0, got %d", got)
	}
	applied, _ := s.History()[0].Details["units"].(map[string]int)
	if applied["Sera"] != -def {
		t.Fatalf("expected recorded delta %d, got %v", -def, applied)
	}
}

func TestRunStartMaxHPBonusScopes(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	recruit := addUnit(t, s, "Myrmidon", "Tess")
	recruit.CurrentHP = recruit.MaxHP() - 3
	recruitMax, recruitCur := recruit.MaxHP(), recruit.CurrentHP
	edricMax := s.Unit("Edric").MaxHP()

	s.applyEffect(ctx, "test", effect(blessings.TypeRunStartMaxHPBonus, map[string]any{"value": 3, "scope": "lords"}))
	edric, tess := s.Unit("Edric"), s.Unit("Tess")
	if edric.MaxHP() != edricMax+3 || edric.CurrentHP != edricMax+3 {
		t.Fatalf("lord HP: expected %d/%d, got %d/%d", edricMax+3, edricMax+3, edric.CurrentHP, edric.MaxHP())
	}
	if tess.MaxHP() != recruitMax || tess.CurrentHP != recruitCur {
		t.Fatalf("non-lord touched by lords scope: %d/%d", tess.CurrentHP, tess.MaxHP())
	}

	s.applyEffect(ctx, "test", effect(blessings.TypeRunStartMaxHPBonus, map[string]any{"value": -2, "scope": "all"}))
	edric, tess = s.Unit("Edric"), s.Unit("Tess")
	if edric.MaxHP() != edricMax+1 || edric.CurrentHP != edricMax+1 {
		t.Fatalf("expected lord capped at %d, got %d/%d", edricMax+1, edric.CurrentHP, edric.MaxHP())
	}
	if tess.MaxHP() != recruitMax-2 || tess.CurrentHP != recruitCur {
		t.Fatalf("expected wounded recruit %d/%d, got %d/%d", recruitCur, recruitMax-2, tess.CurrentHP, tess.MaxHP())
	}
}

func TestVanguardOath(t *testing.T) {
	s := startRun(t, "normal")
	hp := s.Unit("Sera").MaxHP()
	if !s.ChooseBlessing(context.Background(), "vanguard_oath") {
		t.Fatalf("ChooseBlessing refused")
	}
	if s.DeployCap() != DefaultConfig().BaseDeployCap+1 || s.Unit("Sera").MaxHP() != hp-2 {
		t.Fatalf("unexpected cap %d hp %d", s.DeployCap(), s.Unit("Sera").MaxHP())
	}
	entries := entriesFor(s, "vanguard_oath")
	if len(entries) != 2 || entries[0].EffectType != blessings.TypeDeployCapDelta || entries[1].EffectType != blessings.TypeRunStartMaxHPBonus {
		t.Fatalf("expected boon then cost entries, got %+v", entries)
	}
}

func TestArmoryKey(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	if !s.ChooseBlessing(ctx, "armory_key") {
		t.Fatalf("ChooseBlessing refused")
	}
	for _, u := range s.Roster {
		if w := u.EquippedWeapon(); w == nil || w.Tier != 2 {
			t.Fatalf("%s: expected tier 2 weapon equipped, got %+v", u.Name, w)
		}
	}
	shop, ok := s.VisitShop(ctx, nodeOfType(t, s, nodemap.TypeShop))
	if !ok || len(shop.Offers) != DefaultConfig().ShopItemCount-1 {
		t.Fatalf("expected %d offers, got %+v", DefaultConfig().ShopItemCount-1, shop)
	}
	for _, e := range entriesFor(s, "armory_key") {
		if e.Outcome != journal.OutcomeApplied || e.Stage != StageRunStart {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
}

func TestTemperedBlood(t *testing.T) {
	s := startRun(t, "normal")
	def := s.Unit("Edric").Stats[gamedata.StatDEF]
	spd := s.Unit("Edric").Growths[gamedata.StatSPD]
	if !s.ChooseBlessing(context.Background(), "tempered_blood") {
		t.Fatalf("ChooseBlessing refused")
	}
	edric := s.Unit("Edric")
	if edric.Stats[gamedata.StatDEF] != def+1 || edric.Growths[gamedata.StatSPD] != spd+5 {
		t.Fatalf("unexpected DEF %d SPD growth %d", edric.Stats[gamedata.StatDEF], edric.Growths[gamedata.StatSPD])
	}
	if s.Gold != DefaultConfig().StartingGold-200 {
		t.Fatalf("expected gold cost, got %d", s.Gold)
	}
	if n := len(entriesFor(s, "tempered_blood")); n != 3 {
		t.Fatalf("expected three entries, got %d", n)
	}
}

func TestSecondWindAppliesOnlyInAct2(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	str := s.Unit("Edric").Stats[gamedata.StatSTR]
	if !s.ChooseBlessing(ctx, "second_wind") {
		t.Fatalf("ChooseBlessing refused")
	}
	if s.DeployCap() != DefaultConfig().BaseDeployCap-1 || s.Unit("Edric").Stats[gamedata.StatSTR] != str {
		t.Fatalf("unexpected act1 state cap %d STR %d", s.DeployCap(), s.Unit("Edric").Stats[gamedata.StatSTR])
	}
	s.AdvanceAct(ctx)
	if got := s.Unit("Edric").Stats[gamedata.StatSTR]; got != str+2 {
		t.Fatalf("expected STR %d in act2, got %d", str+2, got)
	}
	s.AdvanceAct(ctx)
	if got := s.Unit("Edric").Stats[gamedata.StatSTR]; got != str {
		t.Fatalf("expected STR reverted to %d, got %d", str, got)
	}
	stages := map[string]bool{}
	for _, e := range entriesFor(s, "second_wind") {
		stages[e.Stage] = true
	}
	if !stages[StageRunStart] || !stages[StageActEnter] || !stages[StageActLeave] {
		t.Fatalf("expected run start, enter and leave entries, got %v", stages)
	}
}

func TestCrownOfAsh(t *testing.T) {
	s := startRun(t, "normal")
	hp := s.Unit("Sera").Growths[gamedata.StatHP]
	if !s.ChooseBlessing(context.Background(), "crown_of_ash") {
		t.Fatalf("ChooseBlessing refused")
	}
	if s.Gold != DefaultConfig().StartingGold+1000 {
		t.Fatalf("expected gold bonus, got %d", s.Gold)
	}
	tier3 := 0
	for _, u := range s.Roster {
		if w := u.EquippedWeapon(); w != nil && w.Tier == 3 {
			tier3++
		}
	}
	if tier3 != 1 {
		t.Fatalf("expected exactly one tier 3 weapon, got %d", tier3)
	}
	if s.Unit("Edric").HasSkill("leadership") || s.RuntimeModifiers.DisablePersonalSkillsUntilAct != "finalBoss" {
		t.Fatalf("expected personal skills suppressed until finalBoss")
	}
	if got := s.Unit("Sera").Growths[gamedata.StatHP]; got != hp-10 {
		t.Fatalf("expected HP growth %d, got %d", hp-10, got)
	}
	for _, e := range entriesFor(s, "crown_of_ash") {
		if e.Outcome != journal.OutcomeApplied {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
}

func TestRestoredSkillsRespectSkillCap(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	if !s.ChooseBlessing(ctx, "keen_eye") {
		t.Fatalf("ChooseBlessing refused")
	}
	edric := s.Unit("Edric")
	edric.Skills = []string{"charisma", "sol", "aegis", "astra", "vantage", "focus"}
	s.AdvanceAct(ctx)
	s.AdvanceAct(ctx)
	edric = s.Unit("Edric")
	if len(edric.Skills) > units.MaxSkills || edric.HasSkill("leadership") {
		t.Fatalf("restore broke the skill cap: %v", edric.Skills)
	}
	if !s.Unit("Sera").HasSkill("tactical_insight") {
		t.Fatalf("expected Sera's skill restored")
	}
	var restore journal.Entry
	for _, e := range s.History() {
		if e.EffectType == blessings.TypeDisablePersonalSkillsUntilAct && e.Outcome == journal.OutcomeReverted {
			restore = e
		}
	}
	dropped, _ := restore.Details["dropped"].([]string)
	if len(dropped) != 1 || dropped[0] != "Edric:leadership" {
		t.Fatalf("expected leadership reported dropped, got %+v", restore.Details)
	}
}

func TestTeachScrollKeepsSuppressedSlots(t *testing.T) {
	s := startRun(t, "normal")
	if !s.ChooseBlessing(context.Background(), "keen_eye") {
		t.Fatalf("ChooseBlessing refused")
	}
	edric := s.Unit("Edric")
	edric.Skills = []string{"charisma", "sol", "aegis", "astra", "focus"}
	s.Scrolls = append(s.Scrolls, units.Item{Name: "Vantage Scroll", SkillID: "vantage"})
	if s.TeachScroll("Edric", 0) {
		t.Fatalf("scroll took the slot reserved for a suppressed skill")
	}
	if len(s.Scrolls) != 1 || !s.TeachScroll("Sera", 0) {
		t.Fatalf("expected Sera to learn the scroll")
	}
}

func TestOversizedParamsAreSkipped(t *testing.T) {
	s := startRun(t, "normal")
	before := s.Gold
	s.applyEffect(context.Background(), "test", effect(blessings.TypeGoldDelta, map[string]any{"value": 1e300}))
	if s.Gold != before {
		t.Fatalf("oversized delta changed gold to %d", s.Gold)
	}
	if e := s.History()[0]; e.Outcome != journal.OutcomeSkipped {
		t.Fatalf("expected skipped entry, got %+v", e)
	}
}

func TestRewardsPreviewWhileActiveIsNotCached(t *testing.T) {
	s := startRun(t, "normal")
	ctx := context.Background()
	m := &countingMeta{}
	preview := s.SettleEndRunRewards(ctx, m, StatusVictory)
	if preview.Result != StatusVictory || s.EndRunRewards != nil || m.calls != 0 || m.runs != 0 {
		t.Fatalf("active run cached or granted rewards: %+v", preview)
	}
	s.FailRun(ctx)
	got := s.SettleEndRunRewards(ctx, m, "")
	if got.Result != StatusDefeat || !got.AppliedToMeta || m.runs != 1 {
		t.Fatalf("expected defeat settlement, got %+v runs=%d", got, m.runs)
	}
}
