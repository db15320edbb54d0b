package run

import (
	"context"
	"math"

	"github.com/virtu333/rogue-emblem-sub003/internal/meta"
	"github.com/virtu333/rogue-emblem-sub003/logging/lifecycle"
)

// SettleEndRunRewards computes the end-of-run currency once and grants it
// to collab at most once. Later calls return the cached computation. A nil
// collab computes without granting; a later call with a collaborator still
// grants. While the run is active the result is a preview: nothing is
// cached or granted.
func (s *State) SettleEndRunRewards(ctx context.Context, collab meta.Collaborator, result Status) Rewards {
	if s.Status == StatusActive {
		if !result.valid() || result == StatusActive {
			result = StatusDefeat
		}
		return *s.computeRewards(result)
	}
	if s.EndRunRewards == nil {
		if !result.valid() || result == StatusActive {
			result = s.Status
		}
		s.EndRunRewards = s.computeRewards(result)
	}
	r := s.EndRunRewards
	if collab == nil || r.AppliedToMeta {
		if r.AppliedToMeta {
			lifecycle.RewardsSettled(ctx, s.publisher(), s.RunID, lifecycle.RewardsSettledPayload{Valor: r.Valor, Supply: r.Supply, Repeat: true})
		}
		return *r
	}
	collab.AddCurrency(meta.CurrencyValor, r.Valor)
	collab.AddCurrency(meta.CurrencySupply, r.Supply)
	collab.IncrementRunsCompleted()
	if r.Result == StatusVictory {
		collab.RecordMilestone("victory_" + s.DifficultyID)
	}
	r.AppliedToMeta = true
	lifecycle.RewardsSettled(ctx, s.publisher(), s.RunID, lifecycle.RewardsSettledPayload{Valor: r.Valor, Supply: r.Supply})
	return *r
}

func (s *State) computeRewards(result Status) *Rewards {
	cfg := s.env.Config
	acts := s.ActIndex + 1
	mult := s.DifficultyModifiers.CurrencyMultiplier
	if mult <= 0 {
		mult = 1
	}
	valor := acts*cfg.ValorPerAct + s.CompletedBattles*cfg.ValorPerBattle
	supply := acts*cfg.SupplyPerAct + s.CompletedBattles*cfg.SupplyPerBattle
	if result == StatusVictory {
		valor += cfg.VictoryValorBonus
		supply += cfg.VictorySupplyBonus
	}
	return &Rewards{
		Result:             result,
		ActReached:         acts,
		Battles:            s.CompletedBattles,
		Valor:              int(math.Floor(float64(valor) * mult)),
		Supply:             int(math.Floor(float64(supply) * mult)),
		CurrencyMultiplier: mult,
	}
}
