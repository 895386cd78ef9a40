package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mektycoon/mekforge/pkg/domain"
)

// DirOptions select and normalise the files compared by CompareDirs.
type DirOptions struct {
	// Extensions restricts the listing (".png", ".webp"). Empty keeps every
	// regular file.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" mapstructure:"extensions"`
	// Pattern is an optional glob matched against base names.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`
	// StripSuffixes are removed from stems before comparison, so that
	// "mek-blueprint.png" pairs with "mek.webp".
	StripSuffixes []string `json:"strip_suffixes,omitempty" yaml:"strip_suffixes,omitempty" mapstructure:"strip_suffixes"`
}

// DefaultDirOptions compare image files and ignore the blueprint suffix.
func DefaultDirOptions() DirOptions {
	return DirOptions{
		Extensions:    []string{".png", ".webp", ".jpg", ".jpeg"},
		StripSuffixes: []string{domain.BlueprintSuffix},
	}
}

// Normalize maps a file name to the key used for comparison: lower case,
// no extension, no configured suffix.
func (o DirOptions) Normalize(name string) string {
	s := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	for _, suf := range o.StripSuffixes {
		s = strings.TrimSuffix(s, strings.ToLower(suf))
	}
	return s
}

func (o DirOptions) accept(name string) (bool, error) {
	if o.Pattern != "" {
		ok, err := filepath.Match(o.Pattern, name)
		if err != nil {
			return false, fmt.Errorf("bad pattern %q: %w", o.Pattern, err)
		}
		if !ok {
			return false, nil
		}
	}
	if len(o.Extensions) == 0 {
		return true, nil
	}
	ext := filepath.Ext(name)
	return slices.ContainsFunc(o.Extensions, func(e string) bool { return strings.EqualFold(e, ext) }), nil
}

// ListKeys returns the normalised keys of the files in dir mapped to the
// file name they came from. Subdirectories are not descended.
func ListKeys(dir string, opts DirOptions) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ok, err := opts.accept(e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			keys[opts.Normalize(e.Name())] = e.Name()
		}
	}
	return keys, nil
}

// DirComparison is the result of CompareDirs.
type DirComparison struct {
	A       string   `json:"a"`
	B       string   `json:"b"`
	CountA  int      `json:"count_a"`
	CountB  int      `json:"count_b"`
	Common  int      `json:"common"`
	OnlyInA []string `json:"only_in_a"`
	OnlyInB []string `json:"only_in_b"`
}

// Balanced reports whether both folders hold exactly the same keys.
func (c *DirComparison) Balanced() bool {
	return len(c.OnlyInA) == 0 && len(c.OnlyInB) == 0
}

// CompareDirs lists both folders and returns the set differences of their
// normalised keys, sorted.
func CompareDirs(a, b string, opts DirOptions) (*DirComparison, error) {
	ka, err := ListKeys(a, opts)
	if err != nil {
		return nil, err
	}
	kb, err := ListKeys(b, opts)
	if err != nil {
		return nil, err
	}
	onlyA, onlyB := difference(ka, kb), difference(kb, ka)
	return &DirComparison{
		A:       a,
		B:       b,
		CountA:  len(ka),
		CountB:  len(kb),
		Common:  len(ka) - len(onlyA),
		OnlyInA: onlyA,
		OnlyInB: onlyB,
	}, nil
}

// difference returns the keys of x absent from y, sorted.
func difference[A, B any](x map[string]A, y map[string]B) []string {
	out := make([]string, 0)
	for k := range x {
		if _, ok := y[k]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
