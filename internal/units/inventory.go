package units

import "github.com/virtu333/rogue-emblem-sub003/internal/gamedata"

// AddToInventory appends item when there is room. A unit with nothing
// equipped picks the new item up if it is proficient.
func AddToInventory(u *Unit, item Item) bool {
	if len(u.Inventory) >= MaxInventory {
		return false
	}
	u.Inventory = append(u.Inventory, item.Clone())
	if u.EquippedWeapon() == nil && CanEquip(u, item) {
		u.Equipped = len(u.Inventory) - 1
	}
	return true
}

// RemoveFromInventory takes the item at idx out of the inventory and keeps
// Equipped pointing at the same item, or at the first proficient weapon when
// the equipped item itself was removed.
func RemoveFromInventory(u *Unit, idx int) (Item, bool) {
	if idx < 0 || idx >= len(u.Inventory) {
		return Item{}, false
	}
	item := u.Inventory[idx]
	u.Inventory = append(u.Inventory[:idx:idx], u.Inventory[idx+1:]...)
	switch {
	case u.Equipped == idx:
		u.Equipped = FirstProficient(u)
	case u.Equipped > idx:
		u.Equipped--
	}
	return item, true
}

// Equip sets the equipped slot when u is proficient with the item there.
func Equip(u *Unit, idx int) bool {
	if idx < 0 || idx >= len(u.Inventory) || !CanEquip(u, u.Inventory[idx]) {
		return false
	}
	u.Equipped = idx
	return true
}

// IsLastCombatWeapon reports whether removing inventory slot idx would leave
// u without any usable combat weapon.
func IsLastCombatWeapon(u *Unit, idx int) bool {
	if idx < 0 || idx >= len(u.Inventory) {
		return false
	}
	if !IsCombatWeapon(u.Inventory[idx]) || !CanEquip(u, u.Inventory[idx]) {
		return false
	}
	for i, item := range u.Inventory {
		if i != idx && IsCombatWeapon(item) && CanEquip(u, item) {
			return false
		}
	}
	return true
}

func AddConsumable(u *Unit, item Item) bool {
	if len(u.Consumables) >= MaxConsumables {
		return false
	}
	u.Consumables = append(u.Consumables, item.Clone())
	return true
}

func RemoveConsumable(u *Unit, idx int) (Item, bool) {
	if idx < 0 || idx >= len(u.Consumables) {
		return Item{}, false
	}
	item := u.Consumables[idx]
	u.Consumables = append(u.Consumables[:idx:idx], u.Consumables[idx+1:]...)
	return item, true
}

// EquipAccessory swaps in acc, moving stat bonuses from the previous
// accessory (returned, if any) onto the new one.
func EquipAccessory(u *Unit, acc Accessory) *Accessory {
	prev := UnequipAccessory(u)
	acc = acc.Clone()
	for stat, v := range acc.Stats {
		ApplyStatDelta(u, stat, v)
	}
	u.Accessory = &acc
	return prev
}

func UnequipAccessory(u *Unit) *Accessory {
	if u.Accessory == nil {
		return nil
	}
	prev := u.Accessory
	for stat, v := range prev.Stats {
		ApplyStatDelta(u, stat, -v)
	}
	u.Accessory = nil
	return prev
}

// ApplyStatDelta shifts a stat and returns the change actually made after
// clamping. HP never drops below 1; a positive HP change also raises current
// HP, and current HP is kept within the new maximum.
func ApplyStatDelta(u *Unit, stat string, delta int) int {
	if u.Stats == nil {
		u.Stats = Stats{}
	}
	floor := 0
	if stat == gamedata.StatHP {
		floor = 1
	}
	before := u.Stats[stat]
	after := before + delta
	if after < floor {
		after = floor
	}
	u.Stats[stat] = after
	applied := after - before
	if stat == gamedata.StatHP {
		if applied > 0 {
			u.CurrentHP += applied
		}
		if u.CurrentHP > after {
			u.CurrentHP = after
		}
		if u.CurrentHP < 1 {
			u.CurrentHP = 1
		}
	}
	return applied
}

// ApplyGrowthDelta shifts a growth rate, never below zero.
func ApplyGrowthDelta(u *Unit, stat string, delta int) int {
	if u.Growths == nil {
		u.Growths = Stats{}
	}
	before := u.Growths[stat]
	after := before + delta
	if after < 0 {
		after = 0
	}
	u.Growths[stat] = after
	return after - before
}

func HealFull(u *Unit) {
	u.CurrentHP = u.MaxHP()
}

// Forge stats and what one forge level adds to each.
const (
	ForgeMight = "might"
	ForgeHit   = "hit"
	ForgeCrit  = "crit"
)

var forgeStep = map[string]int{
	ForgeMight: 1,
	ForgeHit:   5,
	ForgeCrit:  3,
}

// IsForgeStat reports whether stat can be forged.
func IsForgeStat(stat string) bool {
	_, ok := forgeStep[stat]
	return ok
}

// Forge raises one stat of a combat weapon by a single level, refusing once
// the stat reaches maxLevel.
func Forge(item *Item, stat string, maxLevel int) bool {
	step, ok := forgeStep[stat]
	if !ok || item == nil || !IsCombatWeapon(*item) {
		return false
	}
	if item.Forges[stat] >= maxLevel {
		return false
	}
	if item.Forges == nil {
		item.Forges = map[string]int{}
	}
	item.Forges[stat]++
	switch stat {
	case ForgeMight:
		item.Might += step
	case ForgeHit:
		item.Hit += step
	case ForgeCrit:
		item.Crit += step
	}
	return true
}
