package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/mektycoon/mekforge/pkg/domain"
)

// Confidence grades a proposed source key.
type Confidence string

const (
	ConfidenceHigh          Confidence = "HIGH"
	ConfidenceHighUnchanged Confidence = "HIGH_UNCHANGED"
	ConfidenceMedium        Confidence = "MEDIUM"
	ConfidenceLow           Confidence = "LOW"
	ConfidenceNone          Confidence = "NONE"
)

// Match types recorded alongside the confidence.
const (
	MatchUnique         = "unique_count_match"
	MatchAmbiguousValid = "ambiguous_current_valid"
	MatchAmbiguousBad   = "ambiguous_current_invalid"
	MatchNone           = "no_count_match"
	ActionKeepUnchanged = "KEEP_UNCHANGED"
)

// FreqTable maps source codes to how many Meks carry them. Codes keep the
// order in which they were decoded.
type FreqTable struct {
	codes  []string
	counts map[string]int
}

// FreqEntry is one code of a frequency table.
type FreqEntry struct {
	Code  string
	Count int
}

// NewFreqTable builds a table from entries in order.
func NewFreqTable(entries ...FreqEntry) FreqTable {
	t := FreqTable{counts: make(map[string]int, len(entries))}
	for _, e := range entries {
		t.add(e.Code, e.Count)
	}
	return t
}

func (t *FreqTable) add(code string, n int) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, dup := t.counts[code]; !dup {
		t.codes = append(t.codes, code)
	}
	t.counts[code] = n
}

// Len returns the number of codes.
func (t FreqTable) Len() int { return len(t.codes) }

// CodesWithCount returns the codes whose count equals n, in table order.
func (t FreqTable) CodesWithCount(n int) []string {
	var out []string
	for _, c := range t.codes {
		if t.counts[c] == n {
			out = append(out, c)
		}
	}
	return out
}

// UnmarshalJSON decodes a JSON object of code -> count, keeping member order.
func (t *FreqTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("frequency table must be an object")
	}
	*t = FreqTable{counts: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		code := tok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("count of %q: %w", code, err)
		}
		t.add(code, n)
	}
	_, err = dec.Token()
	return err
}

// Frequencies holds the per-slot frequency tables of a collection snapshot.
type Frequencies struct {
	Body  FreqTable `json:"body_frequencies"`
	Head  FreqTable `json:"head_frequencies"`
	Trait FreqTable `json:"trait_frequencies"`
}

// For returns the table of a slot. Unknown slots read the trait table.
func (f *Frequencies) For(t domain.VariationType) FreqTable {
	switch t {
	case domain.VariationBody:
		return f.Body
	case domain.VariationHead:
		return f.Head
	}
	return f.Trait
}

// LoadFrequencies reads a frequency snapshot from path.
func LoadFrequencies(path string) (*Frequencies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frequencies: %w", err)
	}
	var f Frequencies
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &f, nil
}

// KeyMatch is the verdict for one variation.
type KeyMatch struct {
	ID          int                  `json:"id"`
	Name        string               `json:"name"`
	Type        domain.VariationType `json:"type"`
	Count       int                  `json:"count"`
	CurrentKey  string               `json:"current_key"`
	ProposedKey string               `json:"proposed_key,omitempty"`
	Candidates  []string             `json:"candidates,omitempty"`
	Confidence  Confidence           `json:"confidence,omitempty"`
	MatchType   string               `json:"match_type,omitempty"`
	Action      string               `json:"action,omitempty"`
}

// KeyMatches groups verdicts by outcome.
type KeyMatches struct {
	HighConfidence   []KeyMatch `json:"high_confidence"`
	MediumConfidence []KeyMatch `json:"medium_confidence"`
	LowConfidence    []KeyMatch `json:"low_confidence"`
	NoMatch          []KeyMatch `json:"no_match"`
	SpecialNumeric   []KeyMatch `json:"special_numeric"`
}

// KeySummary counts the verdicts.
type KeySummary struct {
	Total                   int `json:"total"`
	HighConfidenceChanges   int `json:"high_confidence_changes"`
	HighConfidenceUnchanged int `json:"high_confidence_unchanged"`
	MediumConfidence        int `json:"medium_confidence"`
	LowConfidence           int `json:"low_confidence"`
	NoMatch                 int `json:"no_match"`
	SpecialNumeric          int `json:"special_numeric"`
}

// NeedsReview counts the ambiguous verdicts.
func (s KeySummary) NeedsReview() int { return s.MediumConfidence + s.LowConfidence }

// KeyAnalysis is the result of AnalyzeSourceKeys.
type KeyAnalysis struct {
	Summary KeySummary `json:"summary"`
	Matches KeyMatches `json:"matches"`
}

// AnalyzeSourceKeys proposes a source key for every variation by matching
// its count against the frequency table of its slot. Reserved numeric keys
// are left alone.
func AnalyzeSourceKeys(vars []domain.Variation, freq *Frequencies) *KeyAnalysis {
	m := KeyMatches{
		HighConfidence:   []KeyMatch{},
		MediumConfidence: []KeyMatch{},
		LowConfidence:    []KeyMatch{},
		NoMatch:          []KeyMatch{},
		SpecialNumeric:   []KeyMatch{},
	}
	for _, v := range vars {
		base := KeyMatch{ID: v.ID, Name: v.Name, Type: v.Type, Count: v.Count, CurrentKey: v.SourceKey}
		if domain.IsSpecialSourceKey(v.SourceKey) {
			base.Action = ActionKeepUnchanged
			m.SpecialNumeric = append(m.SpecialNumeric, base)
			continue
		}

		candidates := freq.For(v.Type).CodesWithCount(v.Count)
		current := domain.BaseSourceKey(v.SourceKey)
		switch {
		case len(candidates) == 1:
			base.ProposedKey = candidates[0]
			base.Confidence = ConfidenceHigh
			if candidates[0] == current {
				base.Confidence = ConfidenceHighUnchanged
			}
			base.MatchType = MatchUnique
			m.HighConfidence = append(m.HighConfidence, base)
		case len(candidates) > 1:
			base.Candidates = candidates
			if slices.Contains(candidates, current) {
				base.Confidence, base.MatchType = ConfidenceMedium, MatchAmbiguousValid
				m.MediumConfidence = append(m.MediumConfidence, base)
			} else {
				base.Confidence, base.MatchType = ConfidenceLow, MatchAmbiguousBad
				m.LowConfidence = append(m.LowConfidence, base)
			}
		default:
			base.Confidence, base.MatchType = ConfidenceNone, MatchNone
			m.NoMatch = append(m.NoMatch, base)
		}
	}

	s := KeySummary{
		Total:            len(vars),
		MediumConfidence: len(m.MediumConfidence),
		LowConfidence:    len(m.LowConfidence),
		NoMatch:          len(m.NoMatch),
		SpecialNumeric:   len(m.SpecialNumeric),
	}
	for _, h := range m.HighConfidence {
		if h.Confidence == ConfidenceHigh {
			s.HighConfidenceChanges++
		} else {
			s.HighConfidenceUnchanged++
		}
	}
	return &KeyAnalysis{Summary: s, Matches: m}
}

// Changes returns the HIGH verdicts, the ones safe to apply.
func (a *KeyAnalysis) Changes() []KeyMatch {
	var out []KeyMatch
	for _, h := range a.Matches.HighConfidence {
		if h.Confidence == ConfidenceHigh {
			out = append(out, h)
		}
	}
	return out
}

// WriteJSON writes the analysis indented by two spaces.
func (a *KeyAnalysis) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
