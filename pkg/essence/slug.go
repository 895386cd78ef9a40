package essence

import (
	"fmt"
	"strings"

	"github.com/mektycoon/mekforge/pkg/domain"
)

// TripleQuestion is the file stem used for names that slug to nothing, such
// as "???".
const TripleQuestion = "triple-question"

var slugReplacer = strings.NewReplacer(
	" ", "-",
	"&", "and",
	"?", "q",
	"'", "",
	".", "-",
)

// Slug turns a variation name into a file stem.
func Slug(name string) string {
	s := strings.ToLower(slugReplacer.Replace(name))
	if s == "" || s == "qqq" {
		return TripleQuestion
	}
	return s
}

// FileStems assigns a unique file stem to every variation; stems[i] belongs
// to vars[i]. When a name is shared by variations of different slots each of
// them gets its slot appended ("rust-body", "rust-head"); a clash within a
// slot also gets the variation ID. Catalog IDs are not unique across slots,
// so nothing here is keyed by ID.
func FileStems(vars []domain.Variation) []string {
	bySlug := make(map[string][]int, len(vars))
	for i, v := range vars {
		s := Slug(v.Name)
		bySlug[s] = append(bySlug[s], i)
	}

	out := make([]string, len(vars))
	for i, v := range vars {
		s := Slug(v.Name)
		group := bySlug[s]
		if len(group) == 1 {
			out[i] = s
			continue
		}
		sameType := 0
		for _, j := range group {
			if vars[j].Type == v.Type {
				sameType++
			}
		}
		stem := s + "-" + string(v.Type)
		if sameType > 1 {
			stem = fmt.Sprintf("%s-%d", stem, v.ID)
		}
		out[i] = stem
	}

	// A suffixed stem can still meet another name ("rust-body" as a real
	// name) or a repeated ID; number the later ones.
	used := make(map[string]bool, len(out))
	for i, stem := range out {
		cand := stem
		for n := 2; used[cand]; n++ {
			cand = fmt.Sprintf("%s-%d", stem, n)
		}
		used[cand] = true
		out[i] = cand
	}
	return out
}
