// Package nodemap holds an act's node graph and the seeded generator that
// lays one out. The run engine stores the result as opaque data and only
// walks edges and completion flags.
package nodemap

import "fmt"

// Node types.
const (
	TypeBattle  = "battle"
	TypeBoss    = "boss"
	TypeShop    = "shop"
	TypeRecruit = "recruit"
	TypeChurch  = "church"
)

// BattleParams describes a battle or boss encounter.
type BattleParams struct {
	Elite           bool `json:"elite"`
	Boss            bool `json:"boss,omitempty"`
	EnemyLevel      int  `json:"enemyLevel"`
	EnemyStatBonus  int  `json:"enemyStatBonus,omitempty"`
	EnemyCountBonus int  `json:"enemyCountBonus,omitempty"`
	Fog             bool `json:"fog,omitempty"`
}

type Node struct {
	ID           string        `json:"id"`
	Row          int           `json:"row"`
	Col          int           `json:"col"`
	Edges        []string      `json:"edges"`
	Type         string        `json:"type"`
	Completed    bool          `json:"completed"`
	BattleParams *BattleParams `json:"battleParams,omitempty"`
}

// IsBattle reports whether the node resolves through combat.
func (n Node) IsBattle() bool {
	return n.Type == TypeBattle || n.Type == TypeBoss
}

type Map struct {
	ActID       string `json:"actId"`
	Nodes       []Node `json:"nodes"`
	StartNodeID string `json:"startNodeId"`
	BossNodeID  string `json:"bossNodeId"`
}

// Node returns a pointer into m for id, or nil.
func (m *Map) Node(id string) *Node {
	if m == nil {
		return nil
	}
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}

func (m *Map) Contains(id string) bool {
	return m.Node(id) != nil
}

// MarkComplete flags id as completed and reports whether it exists.
func (m *Map) MarkComplete(id string) bool {
	n := m.Node(id)
	if n == nil {
		return false
	}
	n.Completed = true
	return true
}

// BossCompleted reports whether the act's boss node is done.
func (m *Map) BossCompleted() bool {
	n := m.Node(m.BossNodeID)
	return n != nil && n.Completed
}

// Validate checks that the start and boss ids and every edge resolve.
func (m *Map) Validate() error {
	if m == nil || len(m.Nodes) == 0 {
		return fmt.Errorf("nodemap: empty map")
	}
	ids := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.ID == "" {
			return fmt.Errorf("nodemap: node with empty id")
		}
		if ids[n.ID] {
			return fmt.Errorf("nodemap: duplicate node %q", n.ID)
		}
		ids[n.ID] = true
	}
	if !ids[m.StartNodeID] {
		return fmt.Errorf("nodemap: start node %q missing", m.StartNodeID)
	}
	if !ids[m.BossNodeID] {
		return fmt.Errorf("nodemap: boss node %q missing", m.BossNodeID)
	}
	for _, n := range m.Nodes {
		for _, edge := range n.Edges {
			if !ids[edge] {
				return fmt.Errorf("nodemap: node %q has dangling edge %q", n.ID, edge)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{ActID: m.ActID, StartNodeID: m.StartNodeID, BossNodeID: m.BossNodeID}
	out.Nodes = make([]Node, len(m.Nodes))
	for i, n := range m.Nodes {
		n.Edges = append([]string(nil), n.Edges...)
		if n.BattleParams != nil {
			bp := *n.BattleParams
			n.BattleParams = &bp
		}
		out.Nodes[i] = n
	}
	return out
}
