package gamedata

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("expected embedded catalog to load, got %v", err)
	}
	if got := c.ActIDs(); len(got) != 4 || got[0] != "act1" || got[3] != "finalBoss" {
		t.Fatalf("unexpected act sequence %v", got)
	}
	if len(c.Lords) != 2 {
		t.Fatalf("expected two founding lords, got %d", len(c.Lords))
	}
	if !c.IsPersonalSkill("leadership") {
		t.Fatalf("expected leadership to be a personal skill")
	}
	if c.IsPersonalSkill("sol") {
		t.Fatalf("expected sol not to be personal")
	}
	if _, ok := c.Blessing("gilded_path"); !ok {
		t.Fatalf("expected gilded_path blessing")
	}
}

func TestBlessingEffectsOrderBoonsBeforeCosts(t *testing.T) {
	b := BlessingDef{
		Boons: []EffectDef{{Type: "gold_delta"}},
		Costs: []EffectDef{{Type: "skip_first_shop"}},
	}
	effects := b.Effects()
	if len(effects) != 2 || effects[0].Type != "gold_delta" || effects[1].Type != "skip_first_shop" {
		t.Fatalf("unexpected effect order %+v", effects)
	}
}

func TestLoadRejectsBlessingWithoutBoons(t *testing.T) {
	fsys := embeddedCopy(t)
	fsys["blessings.yaml"] = &fstest.MapFile{Data: []byte("blessings:\n  - id: broken\n    name: Broken\n    tier: 1\n")}
	_, err := Load(fsys)
	if err == nil {
		t.Fatalf("expected schema validation to reject blessing without boons")
	}
	if !strings.Contains(err.Error(), "blessings.yaml") {
		t.Fatalf("expected error to name the file, got %v", err)
	}
}

func TestLoadRejectsOutOfRangeTier(t *testing.T) {
	fsys := embeddedCopy(t)
	fsys["blessings.yaml"] = &fstest.MapFile{Data: []byte("blessings:\n  - id: greedy\n    name: Greedy\n    tier: 9\n    boons: []\n")}
	if _, err := Load(fsys); err == nil {
		t.Fatalf("expected tier 9 to fail validation")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	fsys := embeddedCopy(t)
	fsys["skills.yaml"] = &fstest.MapFile{Data: []byte("skills:\n  - {id: sol, name: Sol, colour: red}\n")}
	if _, err := Load(fsys); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestLoadRejectsDanglingClassSkill(t *testing.T) {
	fsys := embeddedCopy(t)
	fsys["skills.yaml"] = &fstest.MapFile{Data: []byte("skills:\n  - {id: sol, name: Sol}\n")}
	if _, err := Load(fsys); err == nil {
		t.Fatalf("expected classes referencing removed skills to fail")
	}
}

func embeddedCopy(t *testing.T) fstest.MapFS {
	t.Helper()
	out := fstest.MapFS{}
	entries, err := embedded.ReadDir("data")
	if err != nil {
		t.Fatalf("read embedded data: %v", err)
	}
	for _, entry := range entries {
		data, err := embedded.ReadFile("data/" + entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		out[entry.Name()] = &fstest.MapFile{Data: data}
	}
	return out
}
