// Package difficulty resolves a difficulty id against the catalog into the
// modifier set a run carries for its whole lifetime.
package difficulty

import "github.com/virtu333/rogue-emblem-sub003/internal/gamedata"

// Modifiers is the persisted difficulty modifier set.
type Modifiers struct {
	ActsIncluded        []string `json:"actsIncluded"`
	EnemyStatBonus      int      `json:"enemyStatBonus"`
	EnemyCountBonus     int      `json:"enemyCountBonus"`
	XPMultiplier        float64  `json:"xpMultiplier"`
	GoldMultiplier      float64  `json:"goldMultiplier"`
	FogChanceBonus      float64  `json:"fogChanceBonus"`
	ShopPriceMultiplier float64  `json:"shopPriceMultiplier"`
	CurrencyMultiplier  float64  `json:"currencyMultiplier"`
	Label               string   `json:"label"`
	Color               string   `json:"color"`
}

// Resolved pairs the id actually used with its modifiers.
type Resolved struct {
	ID        string    `json:"id"`
	Modifiers Modifiers `json:"modifiers"`
}

// Neutral returns the identity modifier set used when nothing resolves.
func Neutral(actIDs []string) Modifiers {
	return Modifiers{
		ActsIncluded:        append([]string(nil), actIDs...),
		XPMultiplier:        1,
		GoldMultiplier:      1,
		ShopPriceMultiplier: 1,
		CurrencyMultiplier:  1,
		Label:               "Normal",
	}
}

// Resolve looks id up in cat. Unknown or empty ids resolve to the catalog
// default; a catalog without difficulties yields neutral modifiers.
func Resolve(cat *gamedata.Catalog, id string) Resolved {
	def, ok := cat.Difficulty(id)
	if !ok {
		def, ok = cat.Difficulty(cat.DefaultDifficulty)
	}
	if !ok {
		return Resolved{ID: cat.DefaultDifficulty, Modifiers: Neutral(cat.ActIDs())}
	}
	return Resolved{ID: def.ID, Modifiers: fromDef(cat, def)}
}

func fromDef(cat *gamedata.Catalog, def gamedata.DifficultyDef) Modifiers {
	acts := filterActs(cat.ActIDs(), def.ActsIncluded)
	return Modifiers{
		ActsIncluded:        acts,
		EnemyStatBonus:      def.EnemyStatBonus,
		EnemyCountBonus:     def.EnemyCountBonus,
		XPMultiplier:        positiveOr(def.XPMultiplier, 1),
		GoldMultiplier:      positiveOr(def.GoldMultiplier, 1),
		FogChanceBonus:      def.FogChanceBonus,
		ShopPriceMultiplier: positiveOr(def.ShopPriceMultiplier, 1),
		CurrencyMultiplier:  positiveOr(def.CurrencyMultiplier, 1),
		Label:               def.Label,
		Color:               def.Color,
	}
}

// ActSequence returns the acts a run at these modifiers plays through, in
// catalog order.
func (m Modifiers) ActSequence(cat *gamedata.Catalog) []string {
	return filterActs(cat.ActIDs(), m.ActsIncluded)
}

// filterActs keeps catalog order and drops ids the catalog doesn't know.
// An empty include list means every act.
func filterActs(all, include []string) []string {
	if len(include) == 0 {
		return append([]string(nil), all...)
	}
	wanted := make(map[string]bool, len(include))
	for _, id := range include {
		wanted[id] = true
	}
	out := make([]string, 0, len(include))
	for _, id := range all {
		if wanted[id] {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), all...)
	}
	return out
}

func positiveOr(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
