package units

import (
	"encoding/json"
	"math"
)

// DecodeLenient decodes a persisted unit record. It reports false when the
// record lacks a name or a stats object; every other field falls back to its
// zero value when absent or malformed. The recorded "weapon" is kept aside
// until RelinkWeapon runs.
func DecodeLenient(data []byte) (Unit, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Unit{}, false
	}
	var name string
	if err := json.Unmarshal(fields["name"], &name); err != nil || name == "" {
		return Unit{}, false
	}
	stats, ok := decodeStats(fields["stats"])
	if !ok {
		return Unit{}, false
	}

	u := Unit{
		Name:     name,
		Stats:    stats,
		Equipped: -1,
	}
	decodeField(fields["className"], &u.ClassName)
	decodeField(fields["tier"], &u.Tier)
	u.Level = decodeInt(fields["level"], 1)
	u.XP = decodeInt(fields["xp"], 0)
	if growths, ok := decodeStats(fields["growths"]); ok {
		u.Growths = growths
	} else {
		u.Growths = Stats{}
	}
	u.CurrentHP = decodeInt(fields["currentHP"], u.MaxHP())
	decodeField(fields["proficiencies"], &u.Proficiencies)
	u.Inventory = decodeItems(fields["inventory"])
	u.Consumables = decodeItems(fields["consumables"])
	u.Skills = decodeStrings(fields["skills"])
	decodeField(fields["isLord"], &u.IsLord)
	decodeField(fields["faction"], &u.Faction)
	if u.Faction == "" {
		u.Faction = FactionPlayer
	}
	if raw, ok := fields["accessory"]; ok {
		var acc Accessory
		if err := json.Unmarshal(raw, &acc); err == nil && acc.Name != "" {
			u.Accessory = &acc
		}
	}
	if raw, ok := fields["weapon"]; ok {
		var w Item
		if err := json.Unmarshal(raw, &w); err == nil && w.Name != "" {
			w = w.Clone()
			u.pendingWeapon = &w
		}
	}
	if u.Level < 1 {
		u.Level = 1
	}
	if u.CurrentHP > u.MaxHP() || u.CurrentHP < 0 {
		u.CurrentHP = u.MaxHP()
	}
	return u, true
}

// DecodeList decodes a JSON array of unit records, dropping malformed entries.
// It returns the number of entries dropped.
func DecodeList(data json.RawMessage) ([]Unit, int) {
	var raws []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &raws) != nil {
		return []Unit{}, 0
	}
	out := make([]Unit, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		u, ok := DecodeLenient(raw)
		if !ok {
			dropped++
			continue
		}
		out = append(out, u)
	}
	return out, dropped
}

func decodeField(raw json.RawMessage, target any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, target)
}

func decodeInt(raw json.RawMessage, fallback int) int {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return int(math.Floor(f))
}

func decodeStats(raw json.RawMessage) (Stats, bool) {
	var values map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil || values == nil {
		return nil, false
	}
	out := make(Stats, len(values))
	for k, v := range values {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[k] = int(math.Floor(f))
	}
	return out, true
}

func decodeItems(raw json.RawMessage) []Item {
	var raws []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &raws) != nil {
		return []Item{}
	}
	out := make([]Item, 0, len(raws))
	for _, r := range raws {
		var item Item
		if err := json.Unmarshal(r, &item); err != nil || item.Name == "" {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}

func decodeStrings(raw json.RawMessage) []string {
	var values []any
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil {
		return []string{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
