package blessings

import (
	"fmt"
	"math/rand"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

// SelectOptions tunes one draw of blessing candidates.
type SelectOptions struct {
	Count      int
	ForceTier1 bool
	AllowTier4 bool
	Context    ConditionContext
}

// Telemetry explains how a selection was made.
type Telemetry struct {
	CandidatePoolIDs []string `json:"candidatePoolIds"`
	ChosenIDs        []string `json:"chosenIds"`
	RejectionReasons []string `json:"rejectionReasons"`
}

type Selection struct {
	Selected  []gamedata.BlessingDef
	Telemetry Telemetry
}

// Selector draws blessing options from a catalog.
type Selector struct {
	catalog    *gamedata.Catalog
	conditions *Conditions
}

func NewSelector(cat *gamedata.Catalog) (*Selector, error) {
	conds, err := NewConditions()
	if err != nil {
		return nil, err
	}
	for _, b := range cat.Blessings {
		if b.Condition == "" {
			continue
		}
		if err := conds.Compile(b.Condition); err != nil {
			return nil, fmt.Errorf("blessing %s condition: %w", b.ID, err)
		}
	}
	return &Selector{catalog: cat, conditions: conds}, nil
}

// Select draws up to opts.Count distinct blessings using r. When ForceTier1
// is set and any tier-1 blessing is eligible, the first option is tier 1.
func (s *Selector) Select(r *rand.Rand, opts SelectOptions) Selection {
	tel := Telemetry{
		CandidatePoolIDs: []string{},
		ChosenIDs:        []string{},
		RejectionReasons: []string{},
	}
	pool := make([]gamedata.BlessingDef, 0, len(s.catalog.Blessings))
	for _, b := range s.catalog.Blessings {
		if b.Tier >= 4 && !opts.AllowTier4 {
			tel.RejectionReasons = append(tel.RejectionReasons, "tier4_locked:"+b.ID)
			continue
		}
		ok, err := s.conditions.Eval(b.Condition, b.Tier, opts.Context)
		if err != nil {
			tel.RejectionReasons = append(tel.RejectionReasons, "condition_error:"+b.ID)
			continue
		}
		if !ok {
			tel.RejectionReasons = append(tel.RejectionReasons, "condition_false:"+b.ID)
			continue
		}
		pool = append(pool, b)
		tel.CandidatePoolIDs = append(tel.CandidatePoolIDs, b.ID)
	}

	count := opts.Count
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}
	if r != nil {
		r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	if opts.ForceTier1 {
		idx := -1
		for i, b := range pool {
			if b.Tier == 1 {
				idx = i
				break
			}
		}
		if idx < 0 {
			tel.RejectionReasons = append(tel.RejectionReasons, "no_tier1_candidate")
		} else {
			pool[0], pool[idx] = pool[idx], pool[0]
		}
	}

	selected := append([]gamedata.BlessingDef(nil), pool[:count]...)
	for _, b := range selected {
		tel.ChosenIDs = append(tel.ChosenIDs, b.ID)
	}
	return Selection{Selected: selected, Telemetry: tel}
}

// Eligible reports whether id would pass the tier and condition gates.
func (s *Selector) Eligible(id string, opts SelectOptions) bool {
	b, ok := s.catalog.Blessing(id)
	if !ok {
		return false
	}
	if b.Tier >= 4 && !opts.AllowTier4 {
		return false
	}
	pass, err := s.conditions.Eval(b.Condition, b.Tier, opts.Context)
	return err == nil && pass
}
