package nodemap

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
	"github.com/virtu333/rogue-emblem-sub003/internal/rng"
)

// Templates weights the node types a generated row may roll. Empty falls
// back to the act's own weights.
type Templates map[string]int

// Options carries the run-level inputs to generation.
type Options struct {
	Rand            *rand.Rand
	EnemyStatBonus  int
	EnemyCountBonus int
	FogChanceBonus  float64
}

// Generate lays out a layered graph for act: one start node, act.Rows-2
// middle rows of up to act.Columns nodes, and a single boss node. Every node
// is reachable from the start and reaches the boss.
func Generate(actID string, act gamedata.ActDef, templates Templates, opts Options) *Map {
	r := opts.Rand
	if r == nil {
		r = rng.New(0, "map:"+actID)
	}
	weights := templates
	if len(weights) == 0 {
		weights = Templates(act.NodeWeights)
	}
	rows := act.Rows
	if rows < 2 {
		rows = 2
	}
	columns := act.Columns
	if columns < 1 {
		columns = 1
	}

	g := generator{actID: actID, act: act, opts: opts, rand: r, weights: weights, rows: rows}
	layers := make([][]Node, rows)
	startType := TypeBattle
	if weights[TypeBattle] <= 0 {
		startType = g.rollType(false)
	}
	layers[0] = []Node{g.node(0, 0, startType)}
	for row := 1; row < rows-1; row++ {
		count := columns
		if columns > 1 && r.Intn(3) == 0 {
			count--
		}
		layer := make([]Node, 0, count)
		for col := 0; col < count; col++ {
			layer = append(layer, g.node(row, col, g.rollType(row > 1)))
		}
		layers[row] = layer
	}
	boss := g.node(rows-1, 0, TypeBoss)
	boss.ID = fmt.Sprintf("%s-boss", actID)
	layers[rows-1] = []Node{boss}

	for row := 0; row < rows-1; row++ {
		connect(layers[row], layers[row+1], r)
	}

	m := &Map{ActID: actID, StartNodeID: layers[0][0].ID, BossNodeID: boss.ID}
	for _, layer := range layers {
		m.Nodes = append(m.Nodes, layer...)
	}
	return m
}

type generator struct {
	actID   string
	act     gamedata.ActDef
	opts    Options
	rand    *rand.Rand
	weights Templates
	rows    int
}

func (g generator) node(row, col int, nodeType string) Node {
	n := Node{
		ID:    fmt.Sprintf("%s-r%dc%d", g.actID, row, col),
		Row:   row,
		Col:   col,
		Edges: []string{},
		Type:  nodeType,
	}
	if n.IsBattle() {
		n.BattleParams = g.battleParams(row, nodeType == TypeBoss)
	}
	return n
}

func (g generator) battleParams(row int, boss bool) *BattleParams {
	lo, hi := 1, 1
	if len(g.act.EnemyLevel) > 0 {
		lo, hi = g.act.EnemyLevel[0], g.act.EnemyLevel[len(g.act.EnemyLevel)-1]
	}
	level := lo
	if g.rows > 1 {
		level = lo + (hi-lo)*row/(g.rows-1)
	}
	bp := &BattleParams{
		Boss:            boss,
		EnemyLevel:      level,
		EnemyStatBonus:  g.opts.EnemyStatBonus,
		EnemyCountBonus: g.opts.EnemyCountBonus,
	}
	if !boss {
		bp.Elite = g.rand.Float64() < g.act.EliteChance
	}
	bp.Fog = g.rand.Float64() < g.opts.FogChanceBonus
	return bp
}

// rollType picks a weighted node type. Recruits never appear on the first
// middle row.
func (g generator) rollType(allowRecruit bool) string {
	keys := make([]string, 0, len(g.weights))
	total := 0
	for k, w := range g.weights {
		if w <= 0 || k == TypeBoss || (k == TypeRecruit && !allowRecruit) {
			continue
		}
		keys = append(keys, k)
		total += w
	}
	if total == 0 {
		return TypeBattle
	}
	sort.Strings(keys)
	pick := g.rand.Intn(total)
	for _, k := range keys {
		pick -= g.weights[k]
		if pick < 0 {
			return k
		}
	}
	return keys[len(keys)-1]
}

// connect wires every node in from to one or two nodes in to, then gives any
// unreached node in to an incoming edge.
func connect(from, to []Node, r *rand.Rand) {
	n, m := len(from), len(to)
	incoming := make([]bool, m)
	for i := range from {
		j := i * m / n
		if n == 1 {
			j = r.Intn(m)
		}
		from[i].Edges = appendEdge(from[i].Edges, to[j].ID)
		incoming[j] = true
		if j+1 < m && r.Intn(2) == 0 {
			from[i].Edges = appendEdge(from[i].Edges, to[j+1].ID)
			incoming[j+1] = true
		}
	}
	for j := range to {
		if incoming[j] {
			continue
		}
		i := j * n / m
		from[i].Edges = appendEdge(from[i].Edges, to[j].ID)
	}
}

func appendEdge(edges []string, id string) []string {
	for _, e := range edges {
		if e == id {
			return edges
		}
	}
	return append(edges, id)
}
