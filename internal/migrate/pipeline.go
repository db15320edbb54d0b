package migrate

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

// Step is one named document transform. It mutates the document it is given
// and returns how many changes it made. After names the steps that must run
// before it.
type Step struct {
	Name  string
	After []string
	Apply func(cat *gamedata.Catalog, doc *Document) int
}

// Report describes what a pipeline run did.
type Report struct {
	FromVersion int            `json:"fromVersion"`
	ToVersion   int            `json:"toVersion"`
	Steps       map[string]int `json:"steps"`
	Dropped     int            `json:"droppedUnits"`
	// MergePatch is an RFC 7386 merge patch from the input document to the
	// output, empty when nothing changed.
	MergePatch []byte `json:"mergePatch,omitempty"`
}

// Changed reports whether any step rewrote the document.
func (r Report) Changed() bool {
	for _, n := range r.Steps {
		if n > 0 {
			return true
		}
	}
	return false
}

// Pipeline runs steps in a fixed declared order.
type Pipeline struct {
	catalog *gamedata.Catalog
	steps   []Step
}

// New validates that every step's prerequisites appear earlier in steps.
func New(cat *gamedata.Catalog, steps ...Step) (*Pipeline, error) {
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Name == "" || s.Apply == nil {
			return nil, fmt.Errorf("migrate: step %q is incomplete", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("migrate: duplicate step %q", s.Name)
		}
		for _, dep := range s.After {
			if !seen[dep] {
				return nil, fmt.Errorf("migrate: step %q must run after %q", s.Name, dep)
			}
		}
		seen[s.Name] = true
	}
	return &Pipeline{catalog: cat, steps: append([]Step(nil), steps...)}, nil
}

// DefaultSteps is the load pipeline. Inventory split precedes weapon relink
// so relinking's fallback never lands on a consumable or scroll.
func DefaultSteps() []Step {
	return []Step{
		{Name: StepInventorySplit, Apply: splitInventory},
		{Name: StepSkillCanonicalization, Apply: canonicalizeSkills},
		{Name: StepClassInnateBackfill, After: []string{StepSkillCanonicalization}, Apply: backfillInnates},
		{Name: StepClassLearnableBackfill, After: []string{StepClassInnateBackfill}, Apply: backfillLearnables},
		{Name: StepWeaponRelink, After: []string{StepInventorySplit}, Apply: relinkWeapons},
	}
}

// Default returns the standard pipeline over cat.
func Default(cat *gamedata.Catalog) *Pipeline {
	p, err := New(cat, DefaultSteps()...)
	if err != nil {
		panic(err)
	}
	return p
}

// StepNames lists the pipeline's steps in run order.
func (p *Pipeline) StepNames() []string {
	out := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		out = append(out, s.Name)
	}
	return out
}

// Run applies every step to a copy of doc and stamps CurrentVersion. The
// input document is left untouched.
func (p *Pipeline) Run(doc *Document) (*Document, Report, error) {
	out := doc.Clone()
	report := Report{
		FromVersion: doc.Version,
		ToVersion:   CurrentVersion,
		Steps:       make(map[string]int, len(p.steps)),
		Dropped:     doc.Dropped,
	}
	for _, s := range p.steps {
		report.Steps[s.Name] = s.Apply(p.catalog, out)
	}
	out.Version = CurrentVersion

	if report.Changed() || doc.Version != CurrentVersion {
		before, err := doc.Encode()
		if err != nil {
			return nil, report, fmt.Errorf("encode input document: %w", err)
		}
		after, err := out.Encode()
		if err != nil {
			return nil, report, fmt.Errorf("encode migrated document: %w", err)
		}
		patch, err := jsonpatch.CreateMergePatch(before, after)
		if err != nil {
			return nil, report, fmt.Errorf("diff migrated document: %w", err)
		}
		report.MergePatch = patch
	}
	return out, report, nil
}
