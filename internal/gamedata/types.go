package gamedata

// Stat keys shared by units, growths and stat-delta effects.
const (
	StatHP  = "HP"
	StatSTR = "STR"
	StatMAG = "MAG"
	StatSKL = "SKL"
	StatSPD = "SPD"
	StatDEF = "DEF"
	StatRES = "RES"
	StatLCK = "LCK"
	StatMOV = "MOV"
)

// StatNames lists every unit stat in display order.
var StatNames = []string{StatHP, StatSTR, StatMAG, StatSKL, StatSPD, StatDEF, StatRES, StatLCK, StatMOV}

// GrowthNames lists the stats that carry a growth rate. MOV never grows.
var GrowthNames = []string{StatHP, StatSTR, StatMAG, StatSKL, StatSPD, StatDEF, StatRES, StatLCK}

// IsStat reports whether name is a known unit stat.
func IsStat(name string) bool {
	for _, s := range StatNames {
		if s == name {
			return true
		}
	}
	return false
}

type ActDef struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Rows        int            `yaml:"rows"`
	Columns     int            `yaml:"columns"`
	EnemyLevel  []int          `yaml:"enemyLevel"`
	ShopTier    int            `yaml:"shopTier"`
	NodeWeights map[string]int `yaml:"nodeWeights"`
	EliteChance float64        `yaml:"eliteChance"`
}

type DifficultyDef struct {
	ID                  string   `yaml:"id"`
	Label               string   `yaml:"label"`
	Color               string   `yaml:"color"`
	ActsIncluded        []string `yaml:"actsIncluded"`
	EnemyStatBonus      int      `yaml:"enemyStatBonus"`
	EnemyCountBonus     int      `yaml:"enemyCountBonus"`
	XPMultiplier        float64  `yaml:"xpMultiplier"`
	GoldMultiplier      float64  `yaml:"goldMultiplier"`
	FogChanceBonus      float64  `yaml:"fogChanceBonus"`
	ShopPriceMultiplier float64  `yaml:"shopPriceMultiplier"`
	CurrencyMultiplier  float64  `yaml:"currencyMultiplier"`
}

type SkillDef struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Personal bool   `yaml:"personal"`
}

type ProficiencyDef struct {
	Type string `yaml:"type" json:"type"`
	Rank string `yaml:"rank" json:"rank"`
}

type LearnableSkill struct {
	Skill string `yaml:"skill"`
	Level int    `yaml:"level"`
}

const (
	TierBase     = "base"
	TierPromoted = "promoted"
)

type ClassDef struct {
	Name          string           `yaml:"name"`
	Tier          string           `yaml:"tier"`
	PromotesFrom  string           `yaml:"promotesFrom"`
	PromotesTo    string           `yaml:"promotesTo"`
	Proficiencies []ProficiencyDef `yaml:"proficiencies"`
	InnateSkills  []string         `yaml:"innateSkills"`
	Learnable     []LearnableSkill `yaml:"learnable"`
	BaseStats     map[string]int   `yaml:"baseStats"`
	Growths       map[string]int   `yaml:"growths"`
}

type LordDef struct {
	Name          string         `yaml:"name"`
	Class         string         `yaml:"class"`
	Level         int            `yaml:"level"`
	Weapon        string         `yaml:"weapon"`
	PersonalSkill string         `yaml:"personalSkill"`
	Stats         map[string]int `yaml:"stats"`
	Growths       map[string]int `yaml:"growths"`
}

// Weapon types. Staff, Consumable and Scroll never count as combat weapons.
const (
	WeaponSword = "Sword"
	WeaponLance = "Lance"
	WeaponAxe   = "Axe"
	WeaponBow   = "Bow"
	WeaponTome  = "Tome"
	WeaponLight = "Light"
	WeaponStaff = "Staff"

	ItemConsumable = "Consumable"
	ItemScroll     = "Scroll"
)

const (
	RankProf = "Prof"
	RankMast = "Mast"
)

type WeaponDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Tier     int    `yaml:"tier"`
	Rank     string `yaml:"rank"`
	Might    int    `yaml:"might"`
	Hit      int    `yaml:"hit"`
	Crit     int    `yaml:"crit"`
	Weight   int    `yaml:"weight"`
	MinRange int    `yaml:"minRange"`
	MaxRange int    `yaml:"maxRange"`
	Uses     int    `yaml:"uses"`
	Price    int    `yaml:"price"`
}

type ConsumableDef struct {
	Name  string `yaml:"name"`
	Heal  int    `yaml:"heal"`
	Uses  int    `yaml:"uses"`
	Price int    `yaml:"price"`
}

type ScrollDef struct {
	Name  string `yaml:"name"`
	Skill string `yaml:"skill"`
	Price int    `yaml:"price"`
}

type AccessoryDef struct {
	Name  string         `yaml:"name"`
	Stats map[string]int `yaml:"stats"`
	Price int            `yaml:"price"`
}

// EffectDef is one declarative blessing effect as authored in data.
type EffectDef struct {
	Type   string         `yaml:"type" json:"type" jsonschema:"required,minLength=1,description=Effect type tag"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"description=Type-specific parameters"`
}

// BlessingDef is a named bundle of boon and cost effects.
type BlessingDef struct {
	ID          string      `yaml:"id" json:"id" jsonschema:"required,pattern=^[a-z0-9_]+$,description=Stable blessing identifier"`
	Name        string      `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Tier        int         `yaml:"tier" json:"tier" jsonschema:"required,minimum=1,maximum=4"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Condition   string      `yaml:"condition,omitempty" json:"condition,omitempty" jsonschema:"description=CEL expression gating selection"`
	Boons       []EffectDef `yaml:"boons" json:"boons" jsonschema:"required"`
	Costs       []EffectDef `yaml:"costs,omitempty" json:"costs,omitempty"`
}

// Effects returns boons followed by costs, the order they are applied in.
func (b BlessingDef) Effects() []EffectDef {
	out := make([]EffectDef, 0, len(b.Boons)+len(b.Costs))
	out = append(out, b.Boons...)
	return append(out, b.Costs...)
}

// BlessingFile is the on-disk shape of blessings.yaml.
type BlessingFile struct {
	Blessings []BlessingDef `yaml:"blessings" json:"blessings" jsonschema:"required"`
}
