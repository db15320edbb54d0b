package migrate

import (
	"encoding/json"
	"testing"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

const legacyDoc = `{
	"gold": 640,
	"actIndex": 1,
	"roster": [
		{
			"name": "Edric", "className": "Lord", "tier": "base", "level": 4,
			"stats": {"HP": 22, "STR": 7},
			"proficiencies": [{"type": "Sword", "rank": "Prof"}],
			"inventory": [
				{"name": "Vulnerary", "type": "Consumable", "uses": 3, "heal": 10},
				{"name": "Iron Sword", "type": "Sword", "rank": "Prof", "might": 5},
				{"name": "Sol Scroll", "type": "Scroll", "skillId": "sol"}
			],
			"weapon": {"name": "Vulnerary", "type": "Consumable", "uses": 3, "heal": 10},
			"skills": ["Sol: chance to heal on hit", "Charisma", "charisma", "Made Up Skill"]
		},
		{"name": "Ghost"}
	],
	"mystery": {"kept": true}
}`

func mustCatalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	cat, err := gamedata.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestLegacyDocumentMigrates(t *testing.T) {
	cat := mustCatalog(t)
	doc, err := Decode([]byte(legacyDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != 0 || doc.Dropped != 1 {
		t.Fatalf("expected version 0 with one dropped unit, got v%d dropped %d", doc.Version, doc.Dropped)
	}
	out, report, err := Default(cat).Run(doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	edric := out.Roster[0]
	if len(edric.Consumables) != 1 || edric.Consumables[0].Name != "Vulnerary" {
		t.Fatalf("expected vulnerary in consumables, got %+v", edric.Consumables)
	}
	for _, item := range edric.Inventory {
		if item.Type == gamedata.ItemConsumable || item.Type == gamedata.ItemScroll {
			t.Fatalf("inventory still holds %s", item.Name)
		}
	}
	if len(out.Scrolls) != 1 || out.Scrolls[0].Name != "Sol Scroll" {
		t.Fatalf("expected scroll moved to team pool, got %+v", out.Scrolls)
	}
	if !edric.HasSkill("sol") || !edric.HasSkill("charisma") {
		t.Fatalf("expected canonical skills, got %v", edric.Skills)
	}
	count := 0
	for _, s := range edric.Skills {
		if s == "charisma" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected duplicate charisma dropped, got %v", edric.Skills)
	}
	if w := edric.EquippedWeapon(); w == nil || w.Name != "Iron Sword" {
		t.Fatalf("expected relink fallback to Iron Sword, got %+v", w)
	}
	if out.Version != CurrentVersion || len(report.MergePatch) == 0 {
		t.Fatalf("expected version stamp and merge patch, got v%d patch %q", out.Version, report.MergePatch)
	}
	if string(out.Fields["mystery"]) != `{"kept": true}` {
		t.Fatalf("unknown fields must pass through, got %s", out.Fields["mystery"])
	}
	if doc.Roster[0].Inventory[0].Name != "Vulnerary" {
		t.Fatalf("Run mutated its input document")
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	cat := mustCatalog(t)
	doc, _ := Decode([]byte(legacyDoc))
	first, _, err := Default(cat).Run(doc)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	encoded, err := first.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	second, report, err := Default(cat).Run(again)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Changed() {
		t.Fatalf("second run changed the document: %v", report.Steps)
	}
	if len(report.MergePatch) != 0 {
		t.Fatalf("expected no merge patch, got %s", report.MergePatch)
	}
	reencoded, _ := second.Encode()
	if canonicalJSON(t, encoded) != canonicalJSON(t, reencoded) {
		t.Fatalf("document drifted between runs")
	}
}

func canonicalJSON(t *testing.T, data []byte) string {
	t.Helper()
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, _ := json.Marshal(v)
	return string(out)
}

func TestPromotedBackfill(t *testing.T) {
	cat := mustCatalog(t)
	doc, err := Decode([]byte(`{"version": 4, "roster": [{
		"name": "Kael", "className": "Swordmaster", "tier": "promoted", "level": 12,
		"stats": {"HP": 30}, "skills": []
	}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, report, _ := Default(cat).Run(doc)
	kael := out.Roster[0]
	for _, want := range []string{"crit_plus_10", "astra", "vantage"} {
		if !kael.HasSkill(want) {
			t.Fatalf("expected %s backfilled, got %v", want, kael.Skills)
		}
	}
	if report.Steps[StepClassInnateBackfill] != 1 || report.Steps[StepClassLearnableBackfill] != 2 {
		t.Fatalf("unexpected step counts %v", report.Steps)
	}
}

func TestNewRejectsMisorderedSteps(t *testing.T) {
	steps := DefaultSteps()
	steps[0], steps[len(steps)-1] = steps[len(steps)-1], steps[0]
	if _, err := New(mustCatalog(t), steps...); err == nil {
		t.Fatalf("expected weapon relink before inventory split to be refused")
	}
}

func TestNormalizeSkillID(t *testing.T) {
	cases := map[string]string{
		"Sol":              "sol",
		"  Great   Shield": "great_shield",
		"Crit +10":         "crit_10",
		"Sól":              "sol",
		"healing-light!!":  "healing_light",
	}
	for in, want := range cases {
		if got := NormalizeSkillID(in); got != want {
			t.Fatalf("NormalizeSkillID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"run"`, `{broken`, `null`} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}
