package run

import (
	"context"
	"encoding/json"

	"github.com/virtu333/rogue-emblem-sub003/internal/nodemap"
	"github.com/virtu333/rogue-emblem-sub003/logging/lifecycle"
)

// GetAvailableNodes returns the start node before anything is completed,
// otherwise the uncompleted targets of the current node's edges. It never
// returns a node outside the current map.
func (s *State) GetAvailableNodes() []nodemap.Node {
	m := s.NodeMap
	if m == nil {
		return nil
	}
	if s.CurrentNodeID == "" {
		start := m.Node(m.StartNodeID)
		if start == nil || start.Completed {
			return []nodemap.Node{}
		}
		return []nodemap.Node{cloneNode(*start)}
	}
	current := m.Node(s.CurrentNodeID)
	if current == nil {
		return []nodemap.Node{}
	}
	out := make([]nodemap.Node, 0, len(current.Edges))
	for _, id := range current.Edges {
		n := m.Node(id)
		if n == nil || n.Completed {
			continue
		}
		out = append(out, cloneNode(*n))
	}
	return out
}

// SelectNode checks that id is currently available and returns it. It does
// not move the frontier.
func (s *State) SelectNode(id string) (nodemap.Node, bool) {
	for _, n := range s.GetAvailableNodes() {
		if n.ID == id {
			return n, true
		}
	}
	return nodemap.Node{}, false
}

// MarkNodeComplete flags id complete and makes it the current node.
func (s *State) MarkNodeComplete(id string) bool {
	if s.NodeMap == nil || !s.NodeMap.MarkComplete(id) {
		return false
	}
	s.CurrentNodeID = id
	return true
}

// IsActComplete reports whether the current act's boss is done.
func (s *State) IsActComplete() bool {
	return s.NodeMap != nil && s.NodeMap.BossCompleted()
}

// IsRunComplete reports whether the final act's boss is done.
func (s *State) IsRunComplete() bool {
	return s.ActIndex == len(s.ActSequence)-1 && s.IsActComplete()
}

// AdvanceAct leaves the current act, reverting its act-scoped deltas, and
// enters the next one with a fresh map. It refuses on the last act.
func (s *State) AdvanceAct(ctx context.Context) bool {
	if s.Status != StatusActive || s.ActIndex >= len(s.ActSequence)-1 {
		return false
	}
	leaving := s.CurrentAct()
	s.leaveAct(ctx, leaving)
	s.ActIndex++
	entering := s.CurrentAct()
	s.restorePersonalSkillsIfReached(ctx)
	s.NodeMap = s.generateMap(entering)
	s.CurrentNodeID = ""
	s.BattleConfigs = map[string]json.RawMessage{}
	s.ShopStock = map[string]*Shop{}
	s.enterAct(ctx, entering)
	lifecycle.ActAdvanced(ctx, s.publisher(), s.RunID, lifecycle.ActAdvancedPayload{From: leaving, To: entering, ActIndex: s.ActIndex})
	return true
}

// FailRun ends an active run in defeat.
func (s *State) FailRun(ctx context.Context) bool {
	if s.Status != StatusActive {
		return false
	}
	s.end(ctx, StatusDefeat)
	return true
}

func (s *State) end(ctx context.Context, status Status) {
	s.Status = status
	lifecycle.RunEnded(ctx, s.publisher(), s.RunID, lifecycle.RunEndedPayload{
		Status:           string(status),
		ActIndex:         s.ActIndex,
		CompletedBattles: s.CompletedBattles,
	})
}

func cloneNode(n nodemap.Node) nodemap.Node {
	n.Edges = append([]string(nil), n.Edges...)
	if n.BattleParams != nil {
		bp := *n.BattleParams
		n.BattleParams = &bp
	}
	return n
}
