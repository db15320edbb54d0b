package nodemap

import (
	"reflect"
	"testing"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
)

func generateAct(t *testing.T, actID string, seed int64) *Map {
	t.Helper()
	cat := gamedata.MustDefault()
	act, ok := cat.Act(actID)
	if !ok {
		t.Fatalf("unknown act %s", actID)
	}
	return Generate(actID, act, nil, Options{Rand: rng.New(seed, "map:"+actID)})
}

func TestGenerateProducesValidReachableGraph(t *testing.T) {
	for _, actID := range []string{"act1", "act2", "act3", "finalBoss"} {
		m := generateAct(t, actID, 7)
		if err := m.Validate(); err != nil {
			t.Fatalf("%s: %v", actID, err)
		}
		seen := map[string]bool{m.StartNodeID: true}
		queue := []string{m.StartNodeID}
		for len(queue) > 0 {
			n := m.Node(queue[0])
			queue = queue[1:]
			for _, e := range n.Edges {
				if !seen[e] {
					seen[e] = true
					queue = append(queue, e)
				}
			}
		}
		if len(seen) != len(m.Nodes) {
			t.Fatalf("%s: %d of %d nodes reachable", actID, len(seen), len(m.Nodes))
		}
		if boss := m.Node(m.BossNodeID); boss.Type != TypeBoss || len(boss.Edges) != 0 {
			t.Fatalf("%s: malformed boss node %+v", actID, boss)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := generateAct(t, "act2", 99)
	b := generateAct(t, "act2", 99)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different maps")
	}
}

func TestFinalBossStartsAtChurch(t *testing.T) {
	m := generateAct(t, "finalBoss", 1)
	if len(m.Nodes) != 2 {
		t.Fatalf("expected start and boss only, got %d nodes", len(m.Nodes))
	}
	if start := m.Node(m.StartNodeID); start.Type != TypeChurch {
		t.Fatalf("expected church start, got %s", start.Type)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := generateAct(t, "act1", 3)
	c := m.Clone()
	c.Nodes[0].Edges[0] = "changed"
	c.MarkComplete(c.StartNodeID)
	if m.Nodes[0].Edges[0] == "changed" || m.Node(m.StartNodeID).Completed {
		t.Fatalf("clone shares storage with original")
	}
}
