package run

// Config holds the economy and capacity rules a run is played under.
type Config struct {
	StartingGold        int     `json:"startingGold" toml:"starting_gold"`
	RosterCap           int     `json:"rosterCap" toml:"roster_cap"`
	BaseDeployCap       int     `json:"baseDeployCap" toml:"base_deploy_cap"`
	VisionCharges       int     `json:"visionCharges" toml:"vision_charges"`
	EliteGoldMultiplier float64 `json:"eliteGoldMultiplier" toml:"elite_gold_multiplier"`
	ReviveCost          int     `json:"reviveCost" toml:"revive_cost"`

	ValorPerAct        int `json:"valorPerAct" toml:"valor_per_act"`
	ValorPerBattle     int `json:"valorPerBattle" toml:"valor_per_battle"`
	VictoryValorBonus  int `json:"victoryValorBonus" toml:"victory_valor_bonus"`
	SupplyPerAct       int `json:"supplyPerAct" toml:"supply_per_act"`
	SupplyPerBattle    int `json:"supplyPerBattle" toml:"supply_per_battle"`
	VictorySupplyBonus int `json:"victorySupplyBonus" toml:"victory_supply_bonus"`

	ShopItemCount    int     `json:"shopItemCount" toml:"shop_item_count"`
	ShopMinItemCount int     `json:"shopMinItemCount" toml:"shop_min_item_count"`
	SellRatio        float64 `json:"sellRatio" toml:"sell_ratio"`
	ForgeBaseCost    int     `json:"forgeBaseCost" toml:"forge_base_cost"`
	ForgeMaxLevel    int     `json:"forgeMaxLevel" toml:"forge_max_level"`

	ConvoyWeaponCap     int `json:"convoyWeaponCap" toml:"convoy_weapon_cap"`
	ConvoyConsumableCap int `json:"convoyConsumableCap" toml:"convoy_consumable_cap"`

	BlessingOptionCount int `json:"blessingOptionCount" toml:"blessing_option_count"`
	// HistoryCapacity bounds the blessing audit trail. Zero keeps everything.
	HistoryCapacity int `json:"historyCapacity" toml:"history_capacity"`
}

func (cfg Config) normalized() Config {
	def := DefaultConfig()
	n := cfg
	if n.StartingGold < 0 {
		n.StartingGold = 0
	}
	if n.RosterCap <= 0 {
		n.RosterCap = def.RosterCap
	}
	if n.BaseDeployCap <= 0 {
		n.BaseDeployCap = def.BaseDeployCap
	}
	if n.VisionCharges < 0 {
		n.VisionCharges = 0
	}
	if n.EliteGoldMultiplier <= 0 {
		n.EliteGoldMultiplier = def.EliteGoldMultiplier
	}
	if n.ReviveCost < 0 {
		n.ReviveCost = 0
	}
	for _, v := range []*int{&n.ValorPerAct, &n.ValorPerBattle, &n.VictoryValorBonus, &n.SupplyPerAct, &n.SupplyPerBattle, &n.VictorySupplyBonus} {
		if *v < 0 {
			*v = 0
		}
	}
	if n.ShopItemCount <= 0 {
		n.ShopItemCount = def.ShopItemCount
	}
	if n.ShopMinItemCount <= 0 {
		n.ShopMinItemCount = def.ShopMinItemCount
	}
	if n.SellRatio <= 0 || n.SellRatio > 1 {
		n.SellRatio = def.SellRatio
	}
	if n.ForgeBaseCost < 0 {
		n.ForgeBaseCost = 0
	}
	if n.ForgeMaxLevel <= 0 {
		n.ForgeMaxLevel = def.ForgeMaxLevel
	}
	if n.ConvoyWeaponCap <= 0 {
		n.ConvoyWeaponCap = def.ConvoyWeaponCap
	}
	if n.ConvoyConsumableCap <= 0 {
		n.ConvoyConsumableCap = def.ConvoyConsumableCap
	}
	if n.BlessingOptionCount <= 0 {
		n.BlessingOptionCount = def.BlessingOptionCount
	}
	if n.HistoryCapacity < 0 {
		n.HistoryCapacity = 0
	}
	return n
}

// Normalized returns cfg with out-of-range values replaced by defaults.
func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		StartingGold:        1000,
		RosterCap:           12,
		BaseDeployCap:       6,
		VisionCharges:       2,
		EliteGoldMultiplier: 1.5,
		ReviveCost:          1000,
		ValorPerAct:         40,
		ValorPerBattle:      5,
		VictoryValorBonus:   100,
		SupplyPerAct:        20,
		SupplyPerBattle:     10,
		VictorySupplyBonus:  50,
		ShopItemCount:       5,
		ShopMinItemCount:    1,
		SellRatio:           0.5,
		ForgeBaseCost:       400,
		ForgeMaxLevel:       3,
		ConvoyWeaponCap:     20,
		ConvoyConsumableCap: 20,
		BlessingOptionCount: 3,
		HistoryCapacity:     0,
	}
}
