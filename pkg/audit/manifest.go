package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"slices"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/essence"
)

// DefaultManifestKey is the object field read when a manifest lists objects.
const DefaultManifestKey = "name"

// ManifestOptions control how manifest entries are turned into keys.
type ManifestOptions struct {
	// Key is the field read from object entries.
	Key string `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	// Slug applies the essence file name rules to entries, for manifests
	// that hold display names rather than file names.
	Slug bool       `json:"slug,omitempty" yaml:"slug,omitempty" mapstructure:"slug"`
	Dir  DirOptions `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// ManifestCheck is the result of CheckManifest.
type ManifestCheck struct {
	Manifest string   `json:"manifest"`
	Dir      string   `json:"dir"`
	Listed   int      `json:"listed"`
	OnDisk   int      `json:"on_disk"`
	Missing  []string `json:"missing"`
	Extra    []string `json:"extra"`
}

// Complete reports whether every listed entry exists and nothing else does.
func (m *ManifestCheck) Complete() bool {
	return len(m.Missing) == 0 && len(m.Extra) == 0
}

// ParseManifest extracts entry names from a JSON manifest. Three shapes are
// accepted: an array of strings, an array of objects carrying key, and an
// object whose member names are the entries.
func ParseManifest(data []byte, key string) ([]string, error) {
	entries, err := parseEntries(data, key)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

// parseEntries is ParseManifest keeping the optional "type" and "id" of
// object entries, which slugging needs to tell same-named variations apart.
func parseEntries(data []byte, key string) ([]domain.Variation, error) {
	if key == "" {
		key = DefaultManifestKey
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty manifest")
	}
	switch data[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("decode manifest object: %w", err)
		}
		entries := make([]domain.Variation, 0, len(obj))
		for name, raw := range obj {
			v := entryDetails(raw)
			v.Name = name
			entries = append(entries, v)
		}
		return entries, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode manifest array: %w", err)
		}
		entries := make([]domain.Variation, 0, len(items))
		for i, raw := range items {
			name, err := entryName(raw, key)
			if err != nil {
				return nil, fmt.Errorf("manifest entry %d: %w", i, err)
			}
			v := entryDetails(raw)
			v.Name = name
			entries = append(entries, v)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("manifest must be a JSON array or object")
}

// entryDetails reads the optional slot and ID of an object entry. Anything
// else yields the zero Variation.
func entryDetails(raw json.RawMessage) domain.Variation {
	var d struct {
		ID   int    `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Variation{}
	}
	t, err := domain.ParseVariationType(d.Type)
	if err != nil {
		return domain.Variation{ID: d.ID}
	}
	return domain.Variation{ID: d.ID, Type: t}
}

func entryName(raw json.RawMessage, key string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("expected string or object")
	}
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%g", v), nil
	}
	return "", fmt.Errorf("field %q is %T, want string or number", key, v)
}

// CheckManifest compares the entries of the manifest at manifestPath with
// the files in dir.
func CheckManifest(dir, manifestPath string, opts ManifestOptions) (*ManifestCheck, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	entries, err := parseEntries(data, opts.Key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	listed, loose := manifestKeys(entries, opts)
	onDisk, err := ListKeys(dir, opts.Dir)
	if err != nil {
		return nil, err
	}
	return &ManifestCheck{
		Manifest: manifestPath,
		Dir:      dir,
		Listed:   len(listed),
		OnDisk:   len(onDisk),
		Missing:  missingKeys(listed, loose, onDisk),
		Extra:    extraKeys(onDisk, listed, loose),
	}, nil
}

// manifestKeys turns entries into the keys expected on disk. With slugging,
// entries carrying a type get the same stems GenerateAll writes; the others
// are plain slugs. Keys in loose also match on-disk keys that carry a slot
// suffix.
func manifestKeys(entries []domain.Variation, opts ManifestOptions) (listed, loose map[string]struct{}) {
	listed = make(map[string]struct{}, len(entries))
	loose = make(map[string]struct{})
	if !opts.Slug {
		for _, e := range entries {
			listed[opts.Dir.Normalize(e.Name)] = struct{}{}
		}
		return listed, loose
	}

	var typed []domain.Variation
	for _, e := range entries {
		if e.Type == "" {
			k := opts.Dir.Normalize(essence.Slug(e.Name))
			listed[k] = struct{}{}
			loose[k] = struct{}{}
			continue
		}
		typed = append(typed, e)
	}
	for i, stem := range essence.FileStems(typed) {
		k := opts.Dir.Normalize(stem)
		listed[k] = struct{}{}
		// A manifest listing one of several same-named variations cannot
		// know that the folder holds the suffixed stem.
		if stem == essence.Slug(typed[i].Name) {
			loose[k] = struct{}{}
		}
	}
	return listed, loose
}

// slotSuffix matches the disambiguation FileStems appends: "-<type>" with an
// optional "-<id>" or "-<n>".
var slotSuffix = regexp.MustCompile(`-(head|body|trait)(-\d+)*$`)

// baseKey strips a slot suffix from an on-disk key, or returns "".
func baseKey(k string) string {
	loc := slotSuffix.FindStringIndex(k)
	if loc == nil || loc[0] == 0 {
		return ""
	}
	return k[:loc[0]]
}

func missingKeys(listed, loose map[string]struct{}, onDisk map[string]string) []string {
	bases := make(map[string]struct{}, len(onDisk))
	for k := range onDisk {
		if b := baseKey(k); b != "" {
			bases[b] = struct{}{}
		}
	}
	out := make([]string, 0)
	for k := range listed {
		if _, ok := onDisk[k]; ok {
			continue
		}
		if _, ok := loose[k]; ok {
			if _, ok := bases[k]; ok {
				continue
			}
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func extraKeys(onDisk map[string]string, listed, loose map[string]struct{}) []string {
	out := make([]string, 0)
	for k := range onDisk {
		if _, ok := listed[k]; ok {
			continue
		}
		if _, ok := loose[baseKey(k)]; ok {
			continue
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
