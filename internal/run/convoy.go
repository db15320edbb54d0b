package run

import "github.com/virtu333/rogue-emblem-sub003/internal/units"

// DepositToConvoy moves a unit's inventory item into the convoy. Weapons
// and staves go to the weapon store; anything else is refused.
func (s *State) DepositToConvoy(unitName string, index int) bool {
	u := s.Unit(unitName)
	if u == nil || index < 0 || index >= len(u.Inventory) {
		return false
	}
	if !units.IsWeapon(u.Inventory[index]) || units.IsLastCombatWeapon(u, index) {
		return false
	}
	if len(s.Convoy.Weapons) >= s.env.Config.ConvoyWeaponCap {
		return false
	}
	item, _ := units.RemoveFromInventory(u, index)
	s.Convoy.Weapons = append(s.Convoy.Weapons, item)
	return true
}

// DepositConsumable moves a unit's consumable into the convoy.
func (s *State) DepositConsumable(unitName string, index int) bool {
	u := s.Unit(unitName)
	if u == nil || len(s.Convoy.Consumables) >= s.env.Config.ConvoyConsumableCap {
		return false
	}
	item, ok := units.RemoveConsumable(u, index)
	if !ok {
		return false
	}
	s.Convoy.Consumables = append(s.Convoy.Consumables, item)
	return true
}

// WithdrawFromConvoy hands a convoy weapon (consumable when consumable is
// set) to a unit with room for it.
func (s *State) WithdrawFromConvoy(unitName string, index int, consumable bool) bool {
	u := s.Unit(unitName)
	if u == nil {
		return false
	}
	store := &s.Convoy.Weapons
	add := units.AddToInventory
	if consumable {
		store = &s.Convoy.Consumables
		add = units.AddConsumable
	}
	if index < 0 || index >= len(*store) {
		return false
	}
	if !add(u, (*store)[index]) {
		return false
	}
	*store = append((*store)[:index], (*store)[index+1:]...)
	return true
}

// EquipAccessory moves a pooled accessory onto a unit. Whatever the unit
// wore before returns to the pool.
func (s *State) EquipAccessory(unitName string, index int) bool {
	u := s.Unit(unitName)
	if u == nil || index < 0 || index >= len(s.Accessories) {
		return false
	}
	acc := s.Accessories[index]
	s.Accessories = append(s.Accessories[:index], s.Accessories[index+1:]...)
	if prev := units.EquipAccessory(u, acc); prev != nil {
		s.Accessories = append(s.Accessories, *prev)
	}
	return true
}

// UnequipAccessory returns a unit's accessory to the pool.
func (s *State) UnequipAccessory(unitName string) bool {
	u := s.Unit(unitName)
	if u == nil {
		return false
	}
	prev := units.UnequipAccessory(u)
	if prev == nil {
		return false
	}
	s.Accessories = append(s.Accessories, *prev)
	return true
}

// TeachScroll consumes a pooled scroll to teach its skill. Units that
// already know the skill or are at the skill cap are refused and keep the
// scroll in the pool.
func (s *State) TeachScroll(unitName string, index int) bool {
	u := s.Unit(unitName)
	if u == nil || index < 0 || index >= len(s.Scrolls) {
		return false
	}
	skill := s.Scrolls[index].SkillID
	if skill == "" || s.isSuppressed(unitName, skill) {
		return false
	}
	// Suppressed personal skills keep their slots.
	if len(u.Skills)+s.suppressedCount(unitName) >= units.MaxSkills {
		return false
	}
	if !units.AddSkill(u, skill) {
		return false
	}
	s.Scrolls = append(s.Scrolls[:index], s.Scrolls[index+1:]...)
	return true
}
