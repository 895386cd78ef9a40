package audit_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mektycoon/mekforge/pkg/audit"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func TestCompareDirs(t *testing.T) {
	root := t.TempDir()
	src, out := filepath.Join(root, "src"), filepath.Join(root, "out")
	touch(t, src, "AA1-BB2-CC3.webp", "aa1-bb2-cc4.webp", "zz9.webp", "notes.txt")
	touch(t, out, "aa1-bb2-cc3-blueprint.png", "aa1-bb2-cc4-blueprint.png", "orphan-blueprint.png")
	require.NoError(t, os.Mkdir(filepath.Join(out, "sub.png"), 0o755))

	got, err := audit.CompareDirs(src, out, audit.DefaultDirOptions())
	require.NoError(t, err)

	want := &audit.DirComparison{
		A: src, B: out,
		CountA: 3, CountB: 3, Common: 2,
		OnlyInA: []string{"zz9"},
		OnlyInB: []string{"orphan"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CompareDirs mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.Balanced())
	assert.Contains(t, got.Markdown(), "zz9")
}

func TestCompareDirs_Pattern(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.webp", "b.png")
	got, err := audit.CompareDirs(root, root, audit.DirOptions{Pattern: "*.webp"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.CountA)
	assert.True(t, got.Balanced())
	assert.Contains(t, got.Markdown(), "same assets")

	_, err = audit.CompareDirs(root, root, audit.DirOptions{Pattern: "["})
	assert.Error(t, err)

	_, err = audit.CompareDirs(filepath.Join(root, "missing"), root, audit.DirOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseManifest(t *testing.T) {
	cases := []struct {
		name string
		data string
		key  string
		want []string
	}{
		{"strings", `["a.png", "b.png"]`, "", []string{"a.png", "b.png"}},
		{"objects", `[{"name": "Rust", "id": 1}, {"name": "Aztec"}]`, "", []string{"Rust", "Aztec"}},
		{"custom key", `[{"file": "x"}, {"file": 7}]`, "file", []string{"x", "7"}},
		{"object", `{"only": {}}`, "", []string{"only"}},
		{"object members not values", `{"Rust": ["x.png", "y.png"]}`, "", []string{"Rust"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := audit.ParseManifest([]byte(tc.data), tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{``, `42`, `[true]`, `[{"id": 1}]`, `[{"name": true}]`} {
		_, err := audit.ParseManifest([]byte(bad), "")
		assert.Error(t, err, bad)
	}
}

func TestCheckManifest(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "icons")
	touch(t, dir, "rock-and-roll.webp", "triple-question.webp", "stray.webp")
	manifest := filepath.Join(root, "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`[{"name":"Rock & Roll"},{"name":"???"},{"name":"Derelict"}]`), 0o644))

	got, err := audit.CheckManifest(dir, manifest, audit.ManifestOptions{Slug: true})
	require.NoError(t, err)
	want := &audit.ManifestCheck{
		Manifest: manifest,
		Dir:      dir,
		Listed:   3,
		OnDisk:   3,
		Missing:  []string{"derelict"},
		Extra:    []string{"stray"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CheckManifest mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, got.Complete())
	md := got.Markdown()
	assert.Contains(t, md, "Missing on disk (1)")
	assert.Contains(t, md, "Not in manifest (1)")
}

func TestCheckManifest_SharedNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "icons")
	touch(t, dir, "rust-body.webp", "rust-head.webp", "aztec-body.webp", "aztec-head.webp", "derelict.webp")

	cases := []struct {
		name     string
		manifest string
		missing  []string
		extra    []string
	}{
		{
			name:     "display names",
			manifest: `["Rust", "Rust", "Aztec", "Aztec", "Derelict"]`,
			missing:  []string{},
			extra:    []string{},
		},
		{
			name: "typed entries",
			manifest: `[{"name":"Rust","type":"body"},{"name":"Rust","type":"head"},
				{"name":"Aztec","type":"body"},{"name":"Aztec","type":"head"},{"name":"Derelict","type":"head"}]`,
			missing: []string{},
			extra:   []string{},
		},
		{
			name:     "typed entries with a missing file",
			manifest: `[{"name":"Rust","type":"body"},{"name":"Rust","type":"head"},{"name":"Rust","type":"trait"}]`,
			missing:  []string{"rust-trait"},
			extra:    []string{"aztec-body", "aztec-head", "derelict"},
		},
		{
			name:     "one of a shared name",
			manifest: `[{"name":"Aztec","type":"body"}]`,
			missing:  []string{},
			extra:    []string{"derelict", "rust-body", "rust-head"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manifest := filepath.Join(t.TempDir(), "manifest.json")
			require.NoError(t, os.WriteFile(manifest, []byte(tc.manifest), 0o644))

			got, err := audit.CheckManifest(dir, manifest, audit.ManifestOptions{Slug: true})
			require.NoError(t, err)
			assert.Equal(t, tc.missing, got.Missing)
			assert.Equal(t, tc.extra, got.Extra)
		})
	}
}

func TestFreqTable_KeepsOrder(t *testing.T) {
	var f audit.Frequencies
	require.NoError(t, json.Unmarshal([]byte(`{
		"head_frequencies": {"ZZ1": 3, "AA1": 3, "MM1": 5},
		"body_frequencies": {},
		"trait_frequencies": {"EY1": 11}
	}`), &f))
	assert.Equal(t, []string{"ZZ1", "AA1"}, f.Head.CodesWithCount(3))
	assert.Equal(t, 3, f.Head.Len())
	assert.Equal(t, []string{"EY1"}, f.For("other").CodesWithCount(11))

	assert.Error(t, json.Unmarshal([]byte(`{"head_frequencies": [1]}`), &f))
}

func TestAnalyzeSourceKeys(t *testing.T) {
	freq := &audit.Frequencies{
		Head: audit.NewFreqTable(
			audit.FreqEntry{Code: "AA1", Count: 3},
			audit.FreqEntry{Code: "HB2", Count: 11},
			audit.FreqEntry{Code: "AE1", Count: 11},
			audit.FreqEntry{Code: "CF3", Count: 12},
		),
		Body: audit.NewFreqTable(audit.FreqEntry{Code: "DC4", Count: 2}),
	}
	vars := []domain.Variation{
		{ID: 2, Name: "Derelict", Type: domain.VariationHead, Count: 1, SourceKey: "000H"},
		{ID: 13, Name: "Gold", Type: domain.VariationHead, Count: 3, SourceKey: "IV1"},
		{ID: 35, Name: "Bubblegum", Type: domain.VariationHead, Count: 12, SourceKey: "CF3H"},
		{ID: 33, Name: "Arcade", Type: domain.VariationHead, Count: 11, SourceKey: "HB2"},
		{ID: 34, Name: "Mint", Type: domain.VariationHead, Count: 11, SourceKey: "ZZ9"},
		{ID: 118, Name: "Majesty", Type: domain.VariationBody, Count: 7, SourceKey: "DC4"},
	}

	got := audit.AnalyzeSourceKeys(vars, freq)

	want := audit.KeyMatches{
		HighConfidence: []audit.KeyMatch{
			{ID: 13, Name: "Gold", Type: "head", Count: 3, CurrentKey: "IV1", ProposedKey: "AA1", Confidence: audit.ConfidenceHigh, MatchType: audit.MatchUnique},
			{ID: 35, Name: "Bubblegum", Type: "head", Count: 12, CurrentKey: "CF3H", ProposedKey: "CF3", Confidence: audit.ConfidenceHighUnchanged, MatchType: audit.MatchUnique},
		},
		MediumConfidence: []audit.KeyMatch{
			{ID: 33, Name: "Arcade", Type: "head", Count: 11, CurrentKey: "HB2", Candidates: []string{"HB2", "AE1"}, Confidence: audit.ConfidenceMedium, MatchType: audit.MatchAmbiguousValid},
		},
		LowConfidence: []audit.KeyMatch{
			{ID: 34, Name: "Mint", Type: "head", Count: 11, CurrentKey: "ZZ9", Candidates: []string{"HB2", "AE1"}, Confidence: audit.ConfidenceLow, MatchType: audit.MatchAmbiguousBad},
		},
		NoMatch: []audit.KeyMatch{
			{ID: 118, Name: "Majesty", Type: "body", Count: 7, CurrentKey: "DC4", Confidence: audit.ConfidenceNone, MatchType: audit.MatchNone},
		},
		SpecialNumeric: []audit.KeyMatch{
			{ID: 2, Name: "Derelict", Type: "head", Count: 1, CurrentKey: "000H", Action: audit.ActionKeepUnchanged},
		},
	}
	if diff := cmp.Diff(want, got.Matches); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, audit.KeySummary{
		Total:                   6,
		HighConfidenceChanges:   1,
		HighConfidenceUnchanged: 1,
		MediumConfidence:        1,
		LowConfidence:           1,
		NoMatch:                 1,
		SpecialNumeric:          1,
	}, got.Summary)
	assert.Equal(t, 2, got.Summary.NeedsReview())
	assert.Len(t, got.Changes(), 1)

	md := got.Markdown()
	assert.Contains(t, md, "| Gold | head | 3 | IV1 | AA1 |")
	assert.Contains(t, md, "HB2, AE1")
}

func TestKeyAnalysis_WriteJSON(t *testing.T) {
	got := audit.AnalyzeSourceKeys(nil, &audit.Frequencies{})
	var buf bytes.Buffer
	require.NoError(t, got.WriteJSON(&buf))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(0), decoded["summary"]["total"])
	assert.Equal(t, []any{}, decoded["matches"]["no_match"], "empty groups encode as arrays")
}

func TestLoadFrequencies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freq.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"body_frequencies":{"BF1":30}}`), 0o644))
	f, err := audit.LoadFrequencies(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BF1"}, f.Body.CodesWithCount(30))

	_, err = audit.LoadFrequencies(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
