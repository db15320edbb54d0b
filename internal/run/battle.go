package run

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/internal/units"
	"github.com/virtu333/rogue-emblem-sub003/logging"
	"github.com/virtu333/rogue-emblem-sub003/logging/economy"
	"github.com/virtu333/rogue-emblem-sub003/logging/lifecycle"
)

// BattleResult summarises a settled battle.
type BattleResult struct {
	NewlyFallen []string `json:"newlyFallen"`
	GoldEarned  int      `json:"goldEarned"`
	RunComplete bool     `json:"runComplete"`
}

// CompleteBattle settles a battle at nodeID. Prior roster members missing
// from survivors move to the fallen list, survivors replace the roster, and
// gold is paid as floor(base × elite × blessing × difficulty).
func (s *State) CompleteBattle(ctx context.Context, survivors []units.Unit, nodeID string, goldEarned int) (BattleResult, bool) {
	if s.Status != StatusActive || s.NodeMap == nil {
		return BattleResult{}, false
	}
	node := s.NodeMap.Node(nodeID)
	if node == nil || node.Completed {
		return BattleResult{}, false
	}

	alive := make(map[string]bool, len(survivors))
	for _, u := range survivors {
		alive[u.Name] = true
	}
	result := BattleResult{NewlyFallen: []string{}}
	for _, prior := range s.Roster {
		if alive[prior.Name] || s.findUnit(s.FallenUnits, prior.Name) >= 0 {
			continue
		}
		s.FallenUnits = append(s.FallenUnits, units.Serialize(prior))
		result.NewlyFallen = append(result.NewlyFallen, prior.Name)
	}
	s.Roster = units.SerializeAll(survivors)
	s.suppressPersonalSkills()
	s.CompletedBattles++
	s.MarkNodeComplete(nodeID)

	elite := 1.0
	if node.BattleParams != nil && node.BattleParams.Elite {
		elite = s.env.Config.EliteGoldMultiplier
	}
	blessing := s.BattleGoldMultiplier()
	diff := s.DifficultyModifiers.GoldMultiplier
	base := goldEarned
	if base < 0 {
		base = 0
	}
	final := int(math.Floor(float64(base) * elite * blessing * diff))
	s.Gold += final
	result.GoldEarned = final

	economy.GoldEarned(ctx, s.publisher(), s.RunID, economy.GoldEarnedPayload{
		Base:                 base,
		EliteMultiplier:      elite,
		BlessingMultiplier:   blessing,
		DifficultyMultiplier: diff,
		Final:                final,
		Balance:              s.Gold,
	})
	lifecycle.BattleCompleted(ctx, s.publisher(), s.RunID, lifecycle.BattleCompletedPayload{
		NodeID:      nodeID,
		Survivors:   len(s.Roster),
		NewlyFallen: result.NewlyFallen,
		GoldEarned:  final,
	})
	if s.IsRunComplete() {
		s.end(ctx, StatusVictory)
		result.RunComplete = true
	}
	return result, true
}

// Rest heals the roster to full and completes nodeID.
func (s *State) Rest(nodeID string) bool {
	if s.Status != StatusActive || s.NodeMap == nil || !s.NodeMap.Contains(nodeID) {
		return false
	}
	for i := range s.Roster {
		units.HealFull(&s.Roster[i])
	}
	return s.MarkNodeComplete(nodeID)
}

// ReviveFallenUnit spends cost to return name to the roster at 1 HP. It
// refuses without side effects when the roster is full or gold is short.
func (s *State) ReviveFallenUnit(ctx context.Context, name string, cost int) bool {
	idx := s.findUnit(s.FallenUnits, name)
	reason := ""
	switch {
	case idx < 0:
		reason = "unit_not_fallen"
	case len(s.Roster) >= s.env.Config.RosterCap:
		reason = "roster_full"
	case cost < 0 || s.Gold < cost:
		reason = "insufficient_gold"
	}
	if reason != "" {
		economy.TransactionRejected(ctx, s.publisher(), s.RunID, logging.UnitRef(name), economy.TransactionRejectedPayload{Action: "revive", Reason: reason})
		return false
	}
	u := s.FallenUnits[idx]
	s.FallenUnits = append(s.FallenUnits[:idx:idx], s.FallenUnits[idx+1:]...)
	u.CurrentHP = 1
	s.Gold -= cost
	s.Roster = append(s.Roster, u)
	s.suppressPersonalSkills()
	economy.GoldSpent(ctx, s.publisher(), s.RunID, logging.UnitRef(name), economy.GoldSpentPayload{Reason: "revive", Amount: cost, Balance: s.Gold})
	return true
}

// Recruit adds a new unit of className at a recruit node, picking a name no
// earlier recruit of that class has used.
func (s *State) Recruit(ctx context.Context, nodeID, className string) (units.Unit, bool) {
	if s.Status != StatusActive || s.NodeMap == nil {
		return units.Unit{}, false
	}
	node := s.NodeMap.Node(nodeID)
	if node == nil || node.Type != nodemap.TypeRecruit || node.Completed {
		return units.Unit{}, false
	}
	if len(s.Roster) >= s.env.Config.RosterCap {
		economy.TransactionRejected(ctx, s.publisher(), s.RunID, logging.RunRef(s.RunID), economy.TransactionRejectedPayload{Action: "recruit", Reason: "roster_full"})
		return units.Unit{}, false
	}
	level := 1
	if act, ok := s.env.Catalog.Act(s.CurrentAct()); ok && len(act.EnemyLevel) > 0 {
		level = act.EnemyLevel[0]
	}
	u, err := units.Create(s.env.Catalog, className, s.recruitName(className), level)
	if err != nil {
		return units.Unit{}, false
	}
	for stat, v := range s.MetaGrowthBonuses(s.MetaEffects.GrowthBonuses) {
		units.ApplyGrowthDelta(&u, stat, v)
	}
	s.Roster = append(s.Roster, u)
	s.suppressPersonalSkills()
	s.MarkNodeComplete(nodeID)
	return units.Clone(u), true
}

func (s *State) recruitName(className string) string {
	used := make(map[string]bool)
	for _, n := range s.UsedRecruitNames[className] {
		used[n] = true
	}
	for _, u := range s.Roster {
		used[u.Name] = true
	}
	for _, u := range s.FallenUnits {
		used[u.Name] = true
	}
	var free []string
	for _, n := range s.env.Catalog.RecruitNames[className] {
		if !used[n] {
			free = append(free, n)
		}
	}
	var name string
	if len(free) > 0 {
		name = free[s.draw("recruit:"+className).Intn(len(free))]
	} else {
		for i := len(s.UsedRecruitNames[className]) + 1; ; i++ {
			name = fmt.Sprintf("%s %d", className, i)
			if !used[name] {
				break
			}
		}
	}
	s.UsedRecruitNames[className] = append(s.UsedRecruitNames[className], name)
	return name
}

// LockBattleConfig returns the frozen encounter for nodeID, calling generate
// only the first time. Later calls, including after a restore, replay the
// stored configuration.
func (s *State) LockBattleConfig(nodeID string, generate func() (json.RawMessage, error)) (json.RawMessage, error) {
	if cfg, ok := s.BattleConfigs[nodeID]; ok {
		return append(json.RawMessage(nil), cfg...), nil
	}
	if s.NodeMap == nil || !s.NodeMap.Contains(nodeID) {
		return nil, fmt.Errorf("run: node %q is not on the current map", nodeID)
	}
	cfg, err := generate()
	if err != nil {
		return nil, fmt.Errorf("generate battle config: %w", err)
	}
	if !json.Valid(cfg) {
		return nil, fmt.Errorf("run: battle config for %q is not valid JSON", nodeID)
	}
	s.BattleConfigs[nodeID] = append(json.RawMessage(nil), cfg...)
	return append(json.RawMessage(nil), cfg...), nil
}

// UseVision spends one vision charge.
func (s *State) UseVision() bool {
	if s.VisionChargesRemaining <= 0 {
		return false
	}
	s.VisionChargesRemaining--
	s.VisionCount++
	return true
}
