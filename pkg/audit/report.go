package audit

import (
	"fmt"
	"strings"
)

// Markdown renders the comparison as a short report.
func (c *DirComparison) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Folder comparison\n\n")
	fmt.Fprintf(&b, "| Folder | Files |\n|---|---|\n| `%s` | %d |\n| `%s` | %d |\n\n", c.A, c.CountA, c.B, c.CountB)
	fmt.Fprintf(&b, "Matched: **%d**\n\n", c.Common)
	if c.Balanced() {
		b.WriteString("Both folders hold the same assets.\n")
		return b.String()
	}
	writeList(&b, fmt.Sprintf("Only in `%s`", c.A), c.OnlyInA)
	writeList(&b, fmt.Sprintf("Only in `%s`", c.B), c.OnlyInB)
	return b.String()
}

// Markdown renders the manifest check as a short report.
func (m *ManifestCheck) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Manifest check\n\n")
	fmt.Fprintf(&b, "Manifest `%s` lists **%d** entries; `%s` holds **%d** files.\n\n", m.Manifest, m.Listed, m.Dir, m.OnDisk)
	if m.Complete() {
		b.WriteString("Every listed asset is present and nothing else is.\n")
		return b.String()
	}
	writeList(&b, "Missing on disk", m.Missing)
	writeList(&b, "Not in manifest", m.Extra)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// Markdown renders the analysis grouped by verdict.
func (a *KeyAnalysis) Markdown() string {
	var b strings.Builder
	s := a.Summary
	b.WriteString("# Source key analysis\n\n")
	fmt.Fprintf(&b, "| Verdict | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", s.Total)
	fmt.Fprintf(&b, "| High confidence changes | %d |\n", s.HighConfidenceChanges)
	fmt.Fprintf(&b, "| High confidence, already correct | %d |\n", s.HighConfidenceUnchanged)
	fmt.Fprintf(&b, "| Medium confidence | %d |\n", s.MediumConfidence)
	fmt.Fprintf(&b, "| Low confidence | %d |\n", s.LowConfidence)
	fmt.Fprintf(&b, "| No match | %d |\n", s.NoMatch)
	fmt.Fprintf(&b, "| Special numeric | %d |\n\n", s.SpecialNumeric)

	if changes := a.Changes(); len(changes) > 0 {
		b.WriteString("## Changes\n\n| Name | Type | Count | Current | Proposed |\n|---|---|---|---|---|\n")
		for _, m := range changes {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", m.Name, m.Type, m.Count, m.CurrentKey, m.ProposedKey)
		}
		b.WriteString("\n")
	}
	ambiguous := func(title string, ms []KeyMatch) {
		if len(ms) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n| Name | Type | Count | Current | Candidates |\n|---|---|---|---|---|\n", title)
		for _, m := range ms {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", m.Name, m.Type, m.Count, m.CurrentKey, strings.Join(m.Candidates, ", "))
		}
		b.WriteString("\n")
	}
	ambiguous("Medium confidence (current key is a candidate)", a.Matches.MediumConfidence)
	ambiguous("Low confidence (current key is not a candidate)", a.Matches.LowConfidence)

	if len(a.Matches.NoMatch) > 0 {
		b.WriteString("## No match\n\n")
		for _, m := range a.Matches.NoMatch {
			fmt.Fprintf(&b, "- %s (%s) count=%d current=%s\n", m.Name, m.Type, m.Count, m.CurrentKey)
		}
		b.WriteString("\n")
	}
	return b.String()
}
