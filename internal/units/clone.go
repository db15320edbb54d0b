package units

// Clone returns a deep copy of u. Every "give me a safe copy" need in the
// engine (snapshots, deploy copies, battle survivors) routes through here.
func Clone(u Unit) Unit {
	out := u
	out.Stats = u.Stats.Clone()
	out.Growths = u.Growths.Clone()
	out.Proficiencies = append([]Proficiency(nil), u.Proficiencies...)
	out.Inventory = CloneItems(u.Inventory)
	out.Consumables = CloneItems(u.Consumables)
	out.Skills = append([]string(nil), u.Skills...)
	if u.Accessory != nil {
		acc := u.Accessory.Clone()
		out.Accessory = &acc
	}
	if u.Presentation != nil {
		out.Presentation = make(map[string]any, len(u.Presentation))
		for k, v := range u.Presentation {
			out.Presentation[k] = v
		}
	}
	if u.pendingWeapon != nil {
		w := u.pendingWeapon.Clone()
		out.pendingWeapon = &w
	}
	return out
}

// Serialize returns the storable form of u: a deep copy with presentation
// state stripped.
func Serialize(u Unit) Unit {
	out := Clone(u)
	out.Presentation = nil
	return out
}

func CloneAll(list []Unit) []Unit {
	if list == nil {
		return nil
	}
	out := make([]Unit, len(list))
	for i, u := range list {
		out[i] = Clone(u)
	}
	return out
}

func SerializeAll(list []Unit) []Unit {
	out := make([]Unit, 0, len(list))
	for _, u := range list {
		out = append(out, Serialize(u))
	}
	return out
}

func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func CloneAccessories(list []Accessory) []Accessory {
	if list == nil {
		return nil
	}
	out := make([]Accessory, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}
