package run

import (
	"context"
	"math"

	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
	"github.com/virtu333/rogue-emblem-sub003/logging"
	"github.com/virtu333/rogue-emblem-sub003/logging/economy"
)

// Offer kinds.
const (
	OfferWeapon     = "weapon"
	OfferConsumable = "consumable"
	OfferScroll     = "scroll"
	OfferAccessory  = "accessory"
)

type Offer struct {
	Kind      string           `json:"kind"`
	Item      *units.Item      `json:"item,omitempty"`
	Accessory *units.Accessory `json:"accessory,omitempty"`
	Price     int              `json:"price"`
	Sold      bool             `json:"sold"`
}

func (o Offer) name() string {
	if o.Item != nil {
		return o.Item.Name
	}
	if o.Accessory != nil {
		return o.Accessory.Name
	}
	return ""
}

// Shop is a node's generated stock, locked once generated.
type Shop struct {
	NodeID string  `json:"nodeId"`
	Closed bool    `json:"closed"`
	Offers []Offer `json:"offers"`
}

func (sh *Shop) clone() *Shop {
	if sh == nil {
		return nil
	}
	out := &Shop{NodeID: sh.NodeID, Closed: sh.Closed, Offers: make([]Offer, len(sh.Offers))}
	for i, o := range sh.Offers {
		if o.Item != nil {
			item := o.Item.Clone()
			o.Item = &item
		}
		if o.Accessory != nil {
			acc := o.Accessory.Clone()
			o.Accessory = &acc
		}
		out.Offers[i] = o
	}
	return out
}

// VisitShop returns the stock at a shop node. The first visit of a run with
// a pending skip-first-shop flag consumes the flag and finds the shop
// closed. Stock is generated once per node and replayed afterwards.
func (s *State) VisitShop(ctx context.Context, nodeID string) (*Shop, bool) {
	if s.Status != StatusActive || s.NodeMap == nil {
		return nil, false
	}
	node := s.NodeMap.Node(nodeID)
	if node == nil || node.Type != nodemap.TypeShop {
		return nil, false
	}
	if shop, ok := s.ShopStock[nodeID]; ok {
		return shop.clone(), true
	}
	shop := &Shop{NodeID: nodeID, Offers: []Offer{}}
	if s.RuntimeModifiers.SkipFirstShop {
		s.RuntimeModifiers.SkipFirstShop = false
		shop.Closed = true
		economy.TransactionRejected(ctx, s.publisher(), s.RunID, logging.RunRef(s.RunID), economy.TransactionRejectedPayload{Action: "shop", Reason: "skip_first_shop"})
	} else {
		shop.Offers = s.generateOffers()
	}
	s.ShopStock[nodeID] = shop
	if !node.Completed {
		s.MarkNodeComplete(nodeID)
	}
	return shop.clone(), true
}

func (s *State) generateOffers() []Offer {
	cat := s.env.Catalog
	tier := 1
	if act, ok := cat.Act(s.CurrentAct()); ok && act.ShopTier > 0 {
		tier = act.ShopTier
	}
	pool := []Offer{}
	for _, w := range cat.Weapons {
		if w.Tier <= tier {
			item := units.ItemFromWeapon(w)
			pool = append(pool, Offer{Kind: OfferWeapon, Item: &item, Price: w.Price})
		}
	}
	for _, c := range cat.Consumables {
		item := units.ItemFromConsumable(c)
		pool = append(pool, Offer{Kind: OfferConsumable, Item: &item, Price: c.Price})
	}
	if tier >= 2 {
		for _, sc := range cat.Scrolls {
			item := units.ItemFromScroll(sc)
			pool = append(pool, Offer{Kind: OfferScroll, Item: &item, Price: sc.Price})
		}
		for _, a := range cat.Accessories {
			acc := units.AccessoryFromDef(a)
			pool = append(pool, Offer{Kind: OfferAccessory, Accessory: &acc, Price: a.Price})
		}
	}
	r := s.draw("shop")
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	count := s.ShopItemCount(s.env.Config.ShopItemCount)
	if count > len(pool) {
		count = len(pool)
	}
	offers := pool[:count]
	mult := s.DifficultyModifiers.ShopPriceMultiplier
	for i := range offers {
		offers[i].Price = int(math.Ceil(float64(offers[i].Price) * mult))
	}
	return offers
}

// BuyItem purchases offer index at nodeID. Weapons and consumables go to
// unitName when it has room and to the convoy otherwise; scrolls and
// accessories go to the team pools.
func (s *State) BuyItem(ctx context.Context, nodeID string, index int, unitName string) bool {
	shop, ok := s.ShopStock[nodeID]
	reject := func(reason, item string) bool {
		economy.TransactionRejected(ctx, s.publisher(), s.RunID, logging.UnitRef(unitName), economy.TransactionRejectedPayload{Action: "buy", Reason: reason, Item: item})
		return false
	}
	if !ok || shop.Closed || index < 0 || index >= len(shop.Offers) {
		return reject("no_such_offer", "")
	}
	offer := &shop.Offers[index]
	if offer.Sold {
		return reject("sold_out", offer.name())
	}
	if s.Gold < offer.Price {
		return reject("insufficient_gold", offer.name())
	}
	u := s.Unit(unitName)
	switch offer.Kind {
	case OfferWeapon:
		if u == nil || !units.AddToInventory(u, *offer.Item) {
			if len(s.Convoy.Weapons) >= s.env.Config.ConvoyWeaponCap {
				return reject("no_room", offer.name())
			}
			s.Convoy.Weapons = append(s.Convoy.Weapons, offer.Item.Clone())
		}
	case OfferConsumable:
		if u == nil || !units.AddConsumable(u, *offer.Item) {
			if len(s.Convoy.Consumables) >= s.env.Config.ConvoyConsumableCap {
				return reject("no_room", offer.name())
			}
			s.Convoy.Consumables = append(s.Convoy.Consumables, offer.Item.Clone())
		}
	case OfferScroll:
		s.Scrolls = append(s.Scrolls, offer.Item.Clone())
	case OfferAccessory:
		s.Accessories = append(s.Accessories, offer.Accessory.Clone())
	default:
		return reject("unknown_offer", offer.name())
	}
	offer.Sold = true
	s.Gold -= offer.Price
	economy.GoldSpent(ctx, s.publisher(), s.RunID, logging.UnitRef(unitName), economy.GoldSpentPayload{Reason: "shop", Amount: offer.Price, Item: offer.name(), Balance: s.Gold})
	return true
}

// SellItem sells a unit's inventory item. A unit's last usable combat weapon
// cannot be sold.
func (s *State) SellItem(ctx context.Context, unitName string, index int) (int, bool) {
	u := s.Unit(unitName)
	if u == nil || index < 0 || index >= len(u.Inventory) {
		return 0, false
	}
	if units.IsLastCombatWeapon(u, index) {
		economy.TransactionRejected(ctx, s.publisher(), s.RunID, logging.UnitRef(unitName), economy.TransactionRejectedPayload{Action: "sell", Reason: "last_combat_weapon", Item: u.Inventory[index].Name})
		return 0, false
	}
	item, _ := units.RemoveFromInventory(u, index)
	price := s.sellPrice(item)
	s.Gold += price
	economy.ItemSold(ctx, s.publisher(), s.RunID, logging.UnitRef(unitName), economy.ItemSoldPayload{Item: item.Name, Price: price, Balance: s.Gold})
	return price, true
}

// sellPrice scales by remaining uses for items that wear out.
func (s *State) sellPrice(item units.Item) int {
	value := float64(item.Price) * s.env.Config.SellRatio
	if item.MaxUses > 0 && item.Uses < item.MaxUses {
		value *= float64(item.Uses) / float64(item.MaxUses)
	}
	return int(math.Floor(value))
}

// ForgeCost is the price of the next forge level on stat for item.
func (s *State) ForgeCost(item units.Item, stat string) int {
	return s.env.Config.ForgeBaseCost * (item.Forges[stat] + 1)
}

// ForgeWeapon raises one forge stat on a unit's weapon. Staves, unknown
// stats, capped stats and short gold are refused.
func (s *State) ForgeWeapon(ctx context.Context, unitName string, index int, stat string) bool {
	u := s.Unit(unitName)
	if u == nil || index < 0 || index >= len(u.Inventory) || !units.IsForgeStat(stat) {
		return false
	}
	item := &u.Inventory[index]
	reject := func(reason string) bool {
		economy.TransactionRejected(ctx, s.publisher(), s.RunID, logging.UnitRef(unitName), economy.TransactionRejectedPayload{Action: "forge", Reason: reason, Item: item.Name})
		return false
	}
	if !units.IsCombatWeapon(*item) {
		return reject("not_forgeable")
	}
	if item.Forges[stat] >= s.env.Config.ForgeMaxLevel {
		return reject("forge_cap")
	}
	cost := s.ForgeCost(*item, stat)
	if s.Gold < cost {
		return reject("insufficient_gold")
	}
	if !units.Forge(item, stat, s.env.Config.ForgeMaxLevel) {
		return reject("not_forgeable")
	}
	s.Gold -= cost
	economy.GoldSpent(ctx, s.publisher(), s.RunID, logging.UnitRef(unitName), economy.GoldSpentPayload{Reason: "forge", Amount: cost, Item: item.Name, Balance: s.Gold})
	return true
}
