package run

import (
	"context"

	"github.com/virtu333/rogue-emblem-sub003/internal/blessings"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
	"github.com/virtu333/rogue-emblem-sub003/logging/lifecycle"
)

// BlessingOptions draws the run's blessing choices. The draw depends only on
// the run seed, so asking again returns the same options.
func (s *State) BlessingOptions(count int, allowTier4 bool) blessings.Selection {
	if count <= 0 {
		count = s.env.Config.BlessingOptionCount
	}
	return s.env.Selector.Select(rng.New(s.RunSeed, "blessings"), s.selectOptions(count, allowTier4))
}

func (s *State) selectOptions(count int, allowTier4 bool) blessings.SelectOptions {
	return blessings.SelectOptions{
		Count:      count,
		ForceTier1: true,
		AllowTier4: allowTier4,
		Context: blessings.ConditionContext{
			Difficulty: s.DifficultyID,
			Acts:       append([]string(nil), s.ActSequence...),
		},
	}
}

// ChooseBlessing commits the run to blessing id and applies its run-start
// effects. A run holds at most one blessing; a second call is refused.
func (s *State) ChooseBlessing(ctx context.Context, id string) bool {
	if !s.commitBlessing(ctx, id) {
		return false
	}
	def, _ := s.env.Catalog.Blessing(id)
	s.applyRunStartEffects(ctx, def)
	s.runStartApplied = true
	return true
}

// commitBlessing records id as the run's blessing without applying it.
func (s *State) commitBlessing(ctx context.Context, id string) bool {
	if s.Status != StatusActive || len(s.ActiveBlessings) > 0 {
		return false
	}
	def, ok := s.env.Catalog.Blessing(id)
	if !ok || !s.env.Selector.Eligible(id, s.selectOptions(0, true)) {
		return false
	}
	s.ActiveBlessings = append(s.ActiveBlessings, id)
	lifecycle.BlessingChosen(ctx, s.publisher(), s.RunID, lifecycle.BlessingChosenPayload{BlessingID: id, Tier: def.Tier})
	return true
}

// ApplyRunStartBlessings applies run-start effects of the active blessings
// if that has not happened yet. Later calls, and calls on a restored run,
// do nothing.
func (s *State) ApplyRunStartBlessings(ctx context.Context) bool {
	if s.runStartApplied {
		return false
	}
	s.runStartApplied = true
	for _, id := range s.ActiveBlessings {
		if def, ok := s.env.Catalog.Blessing(id); ok {
			s.applyRunStartEffects(ctx, def)
		}
	}
	return true
}

// RunStartBlessingsApplied reports whether run-start effects have been
// applied.
func (s *State) RunStartBlessingsApplied() bool {
	return s.runStartApplied
}
