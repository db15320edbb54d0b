package gamedata

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

// Catalog is the read-only game data the run engine consults. It is loaded
// once and shared between runs; nothing in the engine mutates it.
type Catalog struct {
	Acts              []ActDef
	DefaultDifficulty string
	Difficulties      []DifficultyDef
	Classes           map[string]ClassDef
	Lords             []LordDef
	Skills            map[string]SkillDef
	Weapons           []WeaponDef
	Consumables       []ConsumableDef
	Scrolls           []ScrollDef
	Accessories       []AccessoryDef
	Blessings         []BlessingDef
	RecruitNames      map[string][]string

	skillOrder []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultCatalog, defaultErr = Load(sub)
	})
	return defaultCatalog, defaultErr
}

// MustDefault returns the embedded catalog and panics if it is invalid.
// Useful for tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

type actsFile struct {
	Acts []ActDef `yaml:"acts"`
}

type difficultiesFile struct {
	Default      string          `yaml:"default"`
	Difficulties []DifficultyDef `yaml:"difficulties"`
}

type classesFile struct {
	Classes []ClassDef `yaml:"classes"`
}

type lordsFile struct {
	Lords []LordDef `yaml:"lords"`
}

type skillsFile struct {
	Skills []SkillDef `yaml:"skills"`
}

type itemsFile struct {
	Weapons     []WeaponDef     `yaml:"weapons"`
	Consumables []ConsumableDef `yaml:"consumables"`
	Scrolls     []ScrollDef     `yaml:"scrolls"`
	Accessories []AccessoryDef  `yaml:"accessories"`
}

type recruitsFile struct {
	Recruits map[string][]string `yaml:"recruits"`
}

// Load reads every catalog file from fsys, validates blessings against the
// reflected schema and cross-checks references between files.
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		acts         actsFile
		difficulties difficultiesFile
		classes      classesFile
		lords        lordsFile
		skills       skillsFile
		items        itemsFile
		recruits     recruitsFile
		blessings    BlessingFile
	)
	files := []struct {
		name   string
		target any
	}{
		{"acts.yaml", &acts},
		{"difficulties.yaml", &difficulties},
		{"classes.yaml", &classes},
		{"lords.yaml", &lords},
		{"skills.yaml", &skills},
		{"items.yaml", &items},
		{"recruits.yaml", &recruits},
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("gamedata: read %s: %w", f.name, err)
		}
		if err := decodeYAMLStrict(data, f.target); err != nil {
			return nil, fmt.Errorf("gamedata: decode %s: %w", f.name, err)
		}
	}

	blessingData, err := fs.ReadFile(fsys, "blessings.yaml")
	if err != nil {
		return nil, fmt.Errorf("gamedata: read blessings.yaml: %w", err)
	}
	schema, err := compileBlessingSchema()
	if err != nil {
		return nil, fmt.Errorf("gamedata: %w", err)
	}
	if err := validateYAML(schema, blessingData); err != nil {
		return nil, fmt.Errorf("gamedata: blessings.yaml: %w", err)
	}
	if err := decodeYAMLStrict(blessingData, &blessings); err != nil {
		return nil, fmt.Errorf("gamedata: decode blessings.yaml: %w", err)
	}

	c := &Catalog{
		Acts:              acts.Acts,
		DefaultDifficulty: strings.TrimSpace(difficulties.Default),
		Difficulties:      difficulties.Difficulties,
		Classes:           make(map[string]ClassDef, len(classes.Classes)),
		Lords:             lords.Lords,
		Skills:            make(map[string]SkillDef, len(skills.Skills)),
		Weapons:           items.Weapons,
		Consumables:       items.Consumables,
		Scrolls:           items.Scrolls,
		Accessories:       items.Accessories,
		Blessings:         blessings.Blessings,
		RecruitNames:      recruits.Recruits,
	}
	for _, class := range classes.Classes {
		if _, dup := c.Classes[class.Name]; dup {
			return nil, fmt.Errorf("gamedata: duplicate class %q", class.Name)
		}
		c.Classes[class.Name] = class
	}
	for _, skill := range skills.Skills {
		if _, dup := c.Skills[skill.ID]; dup {
			return nil, fmt.Errorf("gamedata: duplicate skill %q", skill.ID)
		}
		c.Skills[skill.ID] = skill
		c.skillOrder = append(c.skillOrder, skill.ID)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("gamedata: %w", err)
	}
	return c, nil
}

func decodeYAMLStrict(data []byte, target any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return err
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("yaml: multiple documents are not allowed")
		}
		return err
	}
	return nil
}

func (c *Catalog) validate() error {
	if len(c.Acts) == 0 {
		return fmt.Errorf("no acts defined")
	}
	if len(c.Lords) == 0 {
		return fmt.Errorf("no lords defined")
	}
	if _, ok := c.Difficulty(c.DefaultDifficulty); !ok {
		return fmt.Errorf("default difficulty %q is not defined", c.DefaultDifficulty)
	}
	for _, d := range c.Difficulties {
		for _, act := range d.ActsIncluded {
			if _, ok := c.Act(act); !ok {
				return fmt.Errorf("difficulty %q includes unknown act %q", d.ID, act)
			}
		}
	}
	for name, class := range c.Classes {
		for _, id := range class.InnateSkills {
			if _, ok := c.Skills[id]; !ok {
				return fmt.Errorf("class %q references unknown innate skill %q", name, id)
			}
		}
		for _, l := range class.Learnable {
			if _, ok := c.Skills[l.Skill]; !ok {
				return fmt.Errorf("class %q references unknown learnable skill %q", name, l.Skill)
			}
		}
		if class.PromotesFrom != "" {
			if _, ok := c.Classes[class.PromotesFrom]; !ok {
				return fmt.Errorf("class %q promotes from unknown class %q", name, class.PromotesFrom)
			}
		}
	}
	for _, lord := range c.Lords {
		if _, ok := c.Classes[lord.Class]; !ok {
			return fmt.Errorf("lord %q has unknown class %q", lord.Name, lord.Class)
		}
		if lord.Weapon != "" {
			if _, ok := c.Weapon(lord.Weapon); !ok {
				return fmt.Errorf("lord %q starts with unknown weapon %q", lord.Name, lord.Weapon)
			}
		}
	}
	seen := make(map[string]struct{}, len(c.Blessings))
	for _, b := range c.Blessings {
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate blessing %q", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	for class := range c.RecruitNames {
		if _, ok := c.Classes[class]; !ok {
			return fmt.Errorf("recruit names reference unknown class %q", class)
		}
	}
	return nil
}

// ActIDs returns the full default act sequence.
func (c *Catalog) ActIDs() []string {
	ids := make([]string, 0, len(c.Acts))
	for _, act := range c.Acts {
		ids = append(ids, act.ID)
	}
	return ids
}

func (c *Catalog) Act(id string) (ActDef, bool) {
	for _, act := range c.Acts {
		if act.ID == id {
			return act, true
		}
	}
	return ActDef{}, false
}

func (c *Catalog) Difficulty(id string) (DifficultyDef, bool) {
	for _, d := range c.Difficulties {
		if d.ID == id {
			return d, true
		}
	}
	return DifficultyDef{}, false
}

func (c *Catalog) Class(name string) (ClassDef, bool) {
	class, ok := c.Classes[name]
	return class, ok
}

func (c *Catalog) Skill(id string) (SkillDef, bool) {
	skill, ok := c.Skills[id]
	return skill, ok
}

// SkillIDs returns skill ids in catalog order.
func (c *Catalog) SkillIDs() []string {
	return append([]string(nil), c.skillOrder...)
}

// IsPersonalSkill reports whether id is a lord-bound personal skill.
func (c *Catalog) IsPersonalSkill(id string) bool {
	skill, ok := c.Skills[id]
	return ok && skill.Personal
}

func (c *Catalog) Weapon(name string) (WeaponDef, bool) {
	for _, w := range c.Weapons {
		if w.Name == name {
			return w, true
		}
	}
	return WeaponDef{}, false
}

func (c *Catalog) Blessing(id string) (BlessingDef, bool) {
	for _, b := range c.Blessings {
		if b.ID == id {
			return b, true
		}
	}
	return BlessingDef{}, false
}

func (c *Catalog) Accessory(name string) (AccessoryDef, bool) {
	for _, a := range c.Accessories {
		if a.Name == name {
			return a, true
		}
	}
	return AccessoryDef{}, false
}

func (c *Catalog) Consumable(name string) (ConsumableDef, bool) {
	for _, item := range c.Consumables {
		if item.Name == name {
			return item, true
		}
	}
	return ConsumableDef{}, false
}
