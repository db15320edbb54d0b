package units

import (
	"fmt"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

// MaxSkills caps how many skills a unit may carry.
const MaxSkills = 6

func ItemFromWeapon(def gamedata.WeaponDef) Item {
	return Item{
		Name:     def.Name,
		Type:     def.Type,
		Tier:     def.Tier,
		Rank:     def.Rank,
		Might:    def.Might,
		Hit:      def.Hit,
		Crit:     def.Crit,
		Weight:   def.Weight,
		MinRange: def.MinRange,
		MaxRange: def.MaxRange,
		Uses:     def.Uses,
		MaxUses:  def.Uses,
		Price:    def.Price,
	}
}

func ItemFromConsumable(def gamedata.ConsumableDef) Item {
	return Item{
		Name:    def.Name,
		Type:    gamedata.ItemConsumable,
		Heal:    def.Heal,
		Uses:    def.Uses,
		MaxUses: def.Uses,
		Price:   def.Price,
	}
}

func ItemFromScroll(def gamedata.ScrollDef) Item {
	return Item{
		Name:    def.Name,
		Type:    gamedata.ItemScroll,
		SkillID: def.Skill,
		Price:   def.Price,
	}
}

func AccessoryFromDef(def gamedata.AccessoryDef) Accessory {
	return Accessory{Name: def.Name, Stats: Stats(def.Stats).Clone(), Price: def.Price}
}

// LearnedSkills returns the innate skills of class plus every learnable
// skill whose level threshold level satisfies, in class order.
func LearnedSkills(class gamedata.ClassDef, level int) []string {
	out := append([]string(nil), class.InnateSkills...)
	for _, l := range class.Learnable {
		if level >= l.Level {
			out = append(out, l.Skill)
		}
	}
	return out
}

// AddSkill appends id unless already known or the unit is at MaxSkills.
func AddSkill(u *Unit, id string) bool {
	if id == "" || u.HasSkill(id) || len(u.Skills) >= MaxSkills {
		return false
	}
	u.Skills = append(u.Skills, id)
	return true
}

func proficienciesOf(class gamedata.ClassDef) []Proficiency {
	out := make([]Proficiency, 0, len(class.Proficiencies))
	for _, p := range class.Proficiencies {
		out = append(out, Proficiency{Type: p.Type, Rank: p.Rank})
	}
	return out
}

// FromLord builds a founding lord from its template.
func FromLord(cat *gamedata.Catalog, def gamedata.LordDef) (Unit, error) {
	class, ok := cat.Class(def.Class)
	if !ok {
		return Unit{}, fmt.Errorf("units: lord %s has unknown class %q", def.Name, def.Class)
	}
	level := def.Level
	if level < 1 {
		level = 1
	}
	u := Unit{
		Name:          def.Name,
		ClassName:     class.Name,
		Tier:          class.Tier,
		Level:         level,
		Stats:         Stats(def.Stats).Clone(),
		Growths:       Stats(def.Growths).Clone(),
		Proficiencies: proficienciesOf(class),
		Inventory:     []Item{},
		Consumables:   []Item{},
		IsLord:        true,
		Faction:       FactionPlayer,
		Equipped:      -1,
	}
	for _, skill := range LearnedSkills(class, level) {
		AddSkill(&u, skill)
	}
	AddSkill(&u, def.PersonalSkill)
	if def.Weapon != "" {
		w, ok := cat.Weapon(def.Weapon)
		if !ok {
			return Unit{}, fmt.Errorf("units: lord %s has unknown weapon %q", def.Name, def.Weapon)
		}
		AddToInventory(&u, ItemFromWeapon(w))
	}
	u.CurrentHP = u.MaxHP()
	return u, nil
}

// Create builds a unit of a base class at level, with stats raised by the
// class's average growth for each level gained.
func Create(cat *gamedata.Catalog, className, name string, level int) (Unit, error) {
	class, ok := cat.Class(className)
	if !ok {
		return Unit{}, fmt.Errorf("units: unknown class %q", className)
	}
	if class.Tier != gamedata.TierBase {
		return Unit{}, fmt.Errorf("units: class %q is not a base class", className)
	}
	if level < 1 {
		level = 1
	}
	u := Unit{
		Name:          name,
		ClassName:     class.Name,
		Tier:          class.Tier,
		Level:         level,
		Stats:         Stats(class.BaseStats).Clone(),
		Growths:       Stats(class.Growths).Clone(),
		Proficiencies: proficienciesOf(class),
		Inventory:     []Item{},
		Consumables:   []Item{},
		Faction:       FactionPlayer,
		Equipped:      -1,
	}
	for stat, growth := range class.Growths {
		u.Stats[stat] += (level - 1) * growth / 100
	}
	for _, skill := range LearnedSkills(class, level) {
		AddSkill(&u, skill)
	}
	if w, ok := starterWeapon(cat, u.Proficiencies); ok {
		AddToInventory(&u, ItemFromWeapon(w))
	}
	u.CurrentHP = u.MaxHP()
	return u, nil
}

func starterWeapon(cat *gamedata.Catalog, profs []Proficiency) (gamedata.WeaponDef, bool) {
	for _, p := range profs {
		for _, w := range cat.Weapons {
			if w.Type == p.Type && w.Tier == 1 {
				return w, true
			}
		}
	}
	return gamedata.WeaponDef{}, false
}
