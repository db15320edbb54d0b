package units

import "github.com/virtu333/rogue-emblem-sub003/internal/gamedata"

// IsWeapon reports whether item can occupy the equipped slot. Staves count;
// consumables and scrolls never do.
func IsWeapon(item Item) bool {
	switch item.Type {
	case gamedata.WeaponSword, gamedata.WeaponLance, gamedata.WeaponAxe,
		gamedata.WeaponBow, gamedata.WeaponTome, gamedata.WeaponLight,
		gamedata.WeaponStaff:
		return true
	}
	return false
}

// IsCombatWeapon reports whether item can attack.
func IsCombatWeapon(item Item) bool {
	return IsWeapon(item) && item.Type != gamedata.WeaponStaff
}

func (u *Unit) proficiency(weaponType string) (Proficiency, bool) {
	for _, p := range u.Proficiencies {
		if p.Type == weaponType {
			return p, true
		}
	}
	return Proficiency{}, false
}

// CanEquip reports whether u is proficient with item. Mastery-rank items
// need a mastery-rank proficiency.
func CanEquip(u *Unit, item Item) bool {
	if u == nil || !IsWeapon(item) {
		return false
	}
	p, ok := u.proficiency(item.Type)
	if !ok {
		return false
	}
	if item.Rank == gamedata.RankMast {
		return p.Rank == gamedata.RankMast
	}
	return true
}

// FirstProficient returns the index of the first inventory weapon u can
// equip, or -1.
func FirstProficient(u *Unit) int {
	for i, item := range u.Inventory {
		if CanEquip(u, item) {
			return i
		}
	}
	return -1
}

// RelinkWeapon re-establishes Equipped after decoding. The recorded weapon
// is matched by value against the unit's own inventory; a missing or
// non-proficient match falls back to the first proficient weapon, or none.
// Units decoded without a recorded weapon keep whatever valid slot they
// already have.
func RelinkWeapon(u *Unit) {
	if u.pendingWeapon != nil {
		want := *u.pendingWeapon
		u.pendingWeapon = nil
		u.Equipped = -1
		for i, item := range u.Inventory {
			if item.Equal(want) {
				u.Equipped = i
				break
			}
		}
		if u.Equipped < 0 {
			u.Equipped = FirstProficient(u)
			return
		}
	}
	if u.Equipped >= len(u.Inventory) {
		u.Equipped = -1
	}
	if u.Equipped >= 0 && !CanEquip(u, u.Inventory[u.Equipped]) {
		u.Equipped = FirstProficient(u)
	}
}
