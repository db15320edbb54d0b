package units

import (
	"encoding/json"
	"testing"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

func mustCatalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	cat, err := gamedata.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestFromLordEquipsStartingWeapon(t *testing.T) {
	cat := mustCatalog(t)
	u, err := FromLord(cat, cat.Lords[0])
	if err != nil {
		t.Fatalf("FromLord: %v", err)
	}
	if !u.IsLord {
		t.Fatalf("expected lord flag")
	}
	w := u.EquippedWeapon()
	if w == nil || w.Name != "Iron Sword" {
		t.Fatalf("expected Iron Sword equipped, got %+v", w)
	}
	if !u.HasSkill("leadership") || !u.HasSkill("charisma") {
		t.Fatalf("expected innate and personal skills, got %v", u.Skills)
	}
	if u.CurrentHP != u.MaxHP() {
		t.Fatalf("expected full HP, got %d/%d", u.CurrentHP, u.MaxHP())
	}
}

func TestCreateAppliesAverageGrowth(t *testing.T) {
	cat := mustCatalog(t)
	u, err := Create(cat, "Fighter", "Borin", 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// 22 base + 4 levels at 85%.
	if got := u.MaxHP(); got != 25 {
		t.Fatalf("expected HP 25, got %d", got)
	}
	if w := u.EquippedWeapon(); w == nil || w.Type != gamedata.WeaponAxe {
		t.Fatalf("expected an axe equipped, got %+v", w)
	}
	if _, err := Create(cat, "Warrior", "X", 1); err == nil {
		t.Fatalf("expected promoted class to be refused")
	}
}

func TestCloneIsDeep(t *testing.T) {
	cat := mustCatalog(t)
	u, _ := FromLord(cat, cat.Lords[0])
	c := Clone(u)
	c.Stats[gamedata.StatSTR] = 99
	c.Inventory[0].Name = "Changed"
	c.Skills[0] = "changed"
	if u.Stats[gamedata.StatSTR] == 99 || u.Inventory[0].Name == "Changed" || u.Skills[0] == "changed" {
		t.Fatalf("clone shares storage with original")
	}
}

func TestJSONRoundTripRelinksWeapon(t *testing.T) {
	cat := mustCatalog(t)
	u, _ := Create(cat, "Myrmidon", "Kael", 1)
	steel, _ := cat.Weapon("Steel Sword")
	AddToInventory(&u, ItemFromWeapon(steel))
	if !Equip(&u, 1) {
		t.Fatalf("equip steel sword")
	}
	u.Presentation = map[string]any{"sprite": "kael.png"}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["Presentation"]; ok {
		t.Fatalf("presentation leaked into JSON")
	}

	var back Unit
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Equipped != 1 || back.EquippedWeapon().Name != "Steel Sword" {
		t.Fatalf("expected steel sword relinked at slot 1, got %d", back.Equipped)
	}
}

func TestRelinkFallsBackToProficientWeapon(t *testing.T) {
	doc := []byte(`{
		"name": "Osric", "className": "Knight", "stats": {"HP": 20},
		"proficiencies": [{"type": "Lance", "rank": "Prof"}],
		"inventory": [
			{"name": "Silver Lance", "type": "Lance", "rank": "Mast"},
			{"name": "Iron Lance", "type": "Lance", "rank": "Prof"}
		],
		"weapon": {"name": "Silver Lance", "type": "Lance", "rank": "Mast"}
	}`)
	u, ok := DecodeLenient(doc)
	if !ok {
		t.Fatalf("decode failed")
	}
	RelinkWeapon(&u)
	if u.Equipped != 1 {
		t.Fatalf("expected fallback to Iron Lance at slot 1, got %d", u.Equipped)
	}
}

func TestRelinkWithoutProficientWeaponEquipsNothing(t *testing.T) {
	doc := []byte(`{
		"name": "Iona", "stats": {"HP": 15},
		"proficiencies": [{"type": "Tome", "rank": "Prof"}],
		"inventory": [{"name": "Iron Axe", "type": "Axe", "rank": "Prof"}],
		"weapon": {"name": "Iron Axe", "type": "Axe", "rank": "Prof"}
	}`)
	u, _ := DecodeLenient(doc)
	RelinkWeapon(&u)
	if u.EquippedWeapon() != nil {
		t.Fatalf("expected no equipped weapon")
	}
}

func TestDecodeListDropsMalformed(t *testing.T) {
	list, dropped := DecodeList(json.RawMessage(`[
		{"name": "A", "stats": {"HP": 10}},
		{"name": "", "stats": {"HP": 10}},
		{"name": "C"},
		"garbage"
	]`))
	if len(list) != 1 || dropped != 3 {
		t.Fatalf("expected 1 kept and 3 dropped, got %d and %d", len(list), dropped)
	}
	if list[0].CurrentHP != 10 || list[0].Level != 1 {
		t.Fatalf("expected defaults, got hp=%d level=%d", list[0].CurrentHP, list[0].Level)
	}
}

func TestIsLastCombatWeaponIgnoresStaves(t *testing.T) {
	u := Unit{
		Name:          "Anselm",
		Stats:         Stats{gamedata.StatHP: 10},
		Proficiencies: []Proficiency{{Type: gamedata.WeaponStaff, Rank: gamedata.RankProf}, {Type: gamedata.WeaponLight, Rank: gamedata.RankProf}},
		Inventory: []Item{
			{Name: "Heal", Type: gamedata.WeaponStaff},
			{Name: "Lightning", Type: gamedata.WeaponLight},
		},
		Equipped: 1,
	}
	if IsLastCombatWeapon(&u, 0) {
		t.Fatalf("staff is never a combat weapon")
	}
	if !IsLastCombatWeapon(&u, 1) {
		t.Fatalf("expected Lightning to be the last combat weapon")
	}
	if _, ok := RemoveFromInventory(&u, 0); !ok || u.Equipped != 0 {
		t.Fatalf("expected equipped index to shift down, got %d", u.Equipped)
	}
}

func TestApplyStatDeltaClampsHP(t *testing.T) {
	u := Unit{Stats: Stats{gamedata.StatHP: 10}, CurrentHP: 6}
	if got := ApplyStatDelta(&u, gamedata.StatHP, 5); got != 5 || u.CurrentHP != 11 {
		t.Fatalf("expected +5 applied and current 11, got %d and %d", got, u.CurrentHP)
	}
	if got := ApplyStatDelta(&u, gamedata.StatHP, -40); got != -14 || u.MaxHP() != 1 || u.CurrentHP != 1 {
		t.Fatalf("expected clamp to 1, got applied=%d max=%d cur=%d", got, u.MaxHP(), u.CurrentHP)
	}
}

func TestAccessorySwapMovesBonuses(t *testing.T) {
	u := Unit{Stats: Stats{gamedata.StatSTR: 5, gamedata.StatSPD: 5}}
	EquipAccessory(&u, Accessory{Name: "Power Ring", Stats: Stats{gamedata.StatSTR: 2}})
	prev := EquipAccessory(&u, Accessory{Name: "Speed Ring", Stats: Stats{gamedata.StatSPD: 2}})
	if prev == nil || prev.Name != "Power Ring" {
		t.Fatalf("expected previous ring returned")
	}
	if u.Stats[gamedata.StatSTR] != 5 || u.Stats[gamedata.StatSPD] != 7 {
		t.Fatalf("unexpected stats %v", u.Stats)
	}
}

func TestForgeCapsPerStat(t *testing.T) {
	item := Item{Name: "Iron Sword", Type: gamedata.WeaponSword, Might: 5}
	for i := 0; i < 2; i++ {
		if !Forge(&item, ForgeMight, 2) {
			t.Fatalf("forge %d refused", i)
		}
	}
	if Forge(&item, ForgeMight, 2) {
		t.Fatalf("expected cap to refuse third forge")
	}
	if item.Might != 7 || item.Forges[ForgeMight] != 2 {
		t.Fatalf("unexpected forged item %+v", item)
	}
	staff := Item{Name: "Heal", Type: gamedata.WeaponStaff}
	if Forge(&staff, ForgeHit, 3) {
		t.Fatalf("staves cannot be forged")
	}
}
