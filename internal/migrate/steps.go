package migrate

import (
	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
)

// Step names, in the order Default runs them.
const (
	StepInventorySplit         = "inventory_split"
	StepSkillCanonicalization  = "skill_canonicalization"
	StepClassInnateBackfill    = "class_innate_backfill"
	StepClassLearnableBackfill = "class_learnable_backfill"
	StepWeaponRelink           = "weapon_relink"
)

// promotedLearnableLevel is the promoted-tier level at which base-class
// learnables are granted.
const promotedLearnableLevel = 10

// splitInventory moves consumables out of unit inventories into the unit's
// consumable list (overflowing to the convoy) and scrolls into the team pool.
func splitInventory(_ *gamedata.Catalog, doc *Document) int {
	changes := 0
	for _, u := range doc.Units() {
		kept := u.Inventory[:0:0]
		for _, item := range u.Inventory {
			switch item.Type {
			case gamedata.ItemConsumable:
				if !units.AddConsumable(u, item) {
					doc.Convoy.Consumables = append(doc.Convoy.Consumables, item.Clone())
				}
				changes++
			case gamedata.ItemScroll:
				doc.Scrolls = append(doc.Scrolls, item.Clone())
				changes++
			default:
				kept = append(kept, item)
			}
		}
		u.Inventory = kept
	}
	return changes
}

func canonicalizeSkills(cat *gamedata.Catalog, doc *Document) int {
	idx := newSkillIndex(cat)
	changes := 0
	for _, u := range doc.Units() {
		seen := make(map[string]bool, len(u.Skills))
		out := make([]string, 0, len(u.Skills))
		for _, raw := range u.Skills {
			id, ok := idx.Canonical(raw)
			if !ok || seen[id] {
				changes++
				continue
			}
			if id != raw {
				changes++
			}
			seen[id] = true
			out = append(out, id)
		}
		u.Skills = out
	}
	return changes
}

// backfillInnates makes sure every unit carries its class innates and, when
// promoted, the innates of the class it promoted from. Innates ignore the
// skill cap.
func backfillInnates(cat *gamedata.Catalog, doc *Document) int {
	changes := 0
	for _, u := range doc.Units() {
		class, ok := cat.Class(u.ClassName)
		if !ok {
			continue
		}
		want := append([]string(nil), class.InnateSkills...)
		if class.Tier == gamedata.TierPromoted {
			if base, ok := cat.Class(class.PromotesFrom); ok {
				want = append(want, base.InnateSkills...)
			}
		}
		for _, id := range want {
			if !u.HasSkill(id) {
				u.Skills = append(u.Skills, id)
				changes++
			}
		}
	}
	return changes
}

func backfillLearnables(cat *gamedata.Catalog, doc *Document) int {
	changes := 0
	for _, u := range doc.Units() {
		class, ok := cat.Class(u.ClassName)
		if !ok {
			continue
		}
		var want []string
		for _, l := range class.Learnable {
			if u.Level >= l.Level {
				want = append(want, l.Skill)
			}
		}
		if class.Tier == gamedata.TierPromoted && u.Level >= promotedLearnableLevel {
			if base, ok := cat.Class(class.PromotesFrom); ok {
				for _, l := range base.Learnable {
					want = append(want, l.Skill)
				}
			}
		}
		for _, id := range want {
			if units.AddSkill(u, id) {
				changes++
			}
		}
	}
	return changes
}

// relinkWeapons re-establishes each unit's equipped weapon. It counts the
// units whose recorded weapon could not be kept.
func relinkWeapons(_ *gamedata.Catalog, doc *Document) int {
	changes := 0
	for _, u := range doc.Units() {
		before, _ := u.MarshalJSON()
		units.RelinkWeapon(u)
		after, _ := u.MarshalJSON()
		if string(before) != string(after) {
			changes++
		}
	}
	return changes
}
