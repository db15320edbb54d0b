package migrate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/virtu333/rogue-emblem-sub003/internal/gamedata"
)

// NormalizeSkillID folds a free-text skill label to id shape: diacritics
// stripped, lower-cased, runs of anything but letters and digits collapsed
// to a single underscore.
func NormalizeSkillID(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// skillIndex maps normalised ids and display names to canonical ids.
type skillIndex map[string]string

func newSkillIndex(cat *gamedata.Catalog) skillIndex {
	idx := make(skillIndex, len(cat.Skills)*2)
	for _, id := range cat.SkillIDs() {
		skill, _ := cat.Skill(id)
		if n := NormalizeSkillID(skill.Name); n != "" {
			if _, taken := idx[n]; !taken {
				idx[n] = id
			}
		}
	}
	// Ids win over names that happen to normalise the same way.
	for _, id := range cat.SkillIDs() {
		idx[NormalizeSkillID(id)] = id
	}
	return idx
}

// Canonical resolves a stored skill string. Legacy labels like
// "Sol: chance to heal" are tried whole and then by the text before the
// first colon.
func (idx skillIndex) Canonical(raw string) (string, bool) {
	candidates := []string{raw}
	if head, _, found := strings.Cut(raw, ":"); found {
		candidates = append(candidates, head)
	}
	for _, c := range candidates {
		if id, ok := idx[NormalizeSkillID(c)]; ok {
			return id, true
		}
	}
	return "", false
}
