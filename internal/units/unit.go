// Package units holds the plain-data unit and item records the run engine
// stores in its roster, together with the small pure helpers the engine is
// allowed to call on them: proficiency checks, inventory edits, forging and
// equipped-weapon relinking.
package units

import (
	"encoding/json"
	"fmt"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

const (
	// MaxInventory is the per-unit carry limit for weapons and staves.
	MaxInventory = 5
	// MaxConsumables is the per-unit carry limit for consumables.
	MaxConsumables = 3
)

const FactionPlayer = "player"

// Stats maps stat keys (gamedata.StatHP...) to values.
type Stats map[string]int

func (s Stats) Clone() Stats {
	if s == nil {
		return nil
	}
	out := make(Stats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type Proficiency struct {
	Type string `json:"type"`
	Rank string `json:"rank"`
}

// Item is a weapon, staff, consumable or scroll. Which fields matter depends
// on Type.
type Item struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Tier     int            `json:"tier,omitempty"`
	Rank     string         `json:"rank,omitempty"`
	Might    int            `json:"might,omitempty"`
	Hit      int            `json:"hit,omitempty"`
	Crit     int            `json:"crit,omitempty"`
	Weight   int            `json:"weight,omitempty"`
	MinRange int            `json:"minRange,omitempty"`
	MaxRange int            `json:"maxRange,omitempty"`
	Uses     int            `json:"uses,omitempty"`
	MaxUses  int            `json:"maxUses,omitempty"`
	Price    int            `json:"price,omitempty"`
	Heal     int            `json:"heal,omitempty"`
	SkillID  string         `json:"skillId,omitempty"`
	Forges   map[string]int `json:"forges,omitempty"`
}

func (i Item) Clone() Item {
	out := i
	if len(i.Forges) > 0 {
		out.Forges = make(map[string]int, len(i.Forges))
		for k, v := range i.Forges {
			out.Forges[k] = v
		}
	} else {
		out.Forges = nil
	}
	return out
}

// Equal compares items by value. A nil and an empty forge map are equal.
func (i Item) Equal(o Item) bool {
	a, b := i, o
	a.Forges, b.Forges = nil, nil
	if a != b {
		return false
	}
	if len(i.Forges) != len(o.Forges) {
		return false
	}
	for k, v := range i.Forges {
		if o.Forges[k] != v {
			return false
		}
	}
	return true
}

type Accessory struct {
	Name  string `json:"name"`
	Stats Stats  `json:"stats,omitempty"`
	Price int    `json:"price,omitempty"`
}

func (a Accessory) Clone() Accessory {
	a.Stats = a.Stats.Clone()
	return a
}

// Unit is the serialisable roster record. Equipped indexes into Inventory
// (-1 when nothing is equipped); on the wire it is written as a copy of the
// equipped item under "weapon" and re-established by value on load.
type Unit struct {
	Name          string        `json:"name"`
	ClassName     string        `json:"className"`
	Tier          string        `json:"tier"`
	Level         int           `json:"level"`
	XP            int           `json:"xp"`
	Stats         Stats         `json:"stats"`
	Growths       Stats         `json:"growths"`
	CurrentHP     int           `json:"currentHP"`
	Proficiencies []Proficiency `json:"proficiencies"`
	Inventory     []Item        `json:"inventory"`
	Consumables   []Item        `json:"consumables"`
	Skills        []string      `json:"skills"`
	Accessory     *Accessory    `json:"accessory,omitempty"`
	IsLord        bool          `json:"isLord,omitempty"`
	Faction       string        `json:"faction"`

	Equipped int `json:"-"`

	// Presentation carries sprite and animation state owned by the battle
	// scene. It never reaches a save.
	Presentation map[string]any `json:"-"`

	pendingWeapon *Item
}

// MaxHP is the HP stat.
func (u *Unit) MaxHP() int {
	return u.Stats[gamedata.StatHP]
}

// EquippedWeapon returns the equipped inventory item or nil.
func (u *Unit) EquippedWeapon() *Item {
	if u == nil || u.Equipped < 0 || u.Equipped >= len(u.Inventory) {
		return nil
	}
	return &u.Inventory[u.Equipped]
}

func (u *Unit) HasSkill(id string) bool {
	for _, s := range u.Skills {
		if s == id {
			return true
		}
	}
	return false
}

// RemoveSkill drops id from the unit's skills and reports whether it was present.
func (u *Unit) RemoveSkill(id string) bool {
	for i, s := range u.Skills {
		if s == id {
			u.Skills = append(u.Skills[:i:i], u.Skills[i+1:]...)
			return true
		}
	}
	return false
}

type unitAlias Unit

type unitWire struct {
	unitAlias
	Weapon *Item `json:"weapon"`
}

func (u Unit) MarshalJSON() ([]byte, error) {
	wire := unitWire{unitAlias: unitAlias(u)}
	if w := u.EquippedWeapon(); w != nil {
		c := w.Clone()
		wire.Weapon = &c
	} else if u.pendingWeapon != nil {
		c := u.pendingWeapon.Clone()
		wire.Weapon = &c
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes leniently and relinks the equipped weapon straight
// away. Save loading goes through DecodeLenient instead so migrations can run
// before relinking.
func (u *Unit) UnmarshalJSON(data []byte) error {
	decoded, ok := DecodeLenient(data)
	if !ok {
		return fmt.Errorf("units: malformed unit record")
	}
	RelinkWeapon(&decoded)
	*u = decoded
	return nil
}
