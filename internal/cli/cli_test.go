package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/internal/config"
	"github.com/mektycoon/mekforge/internal/logging"
	"github.com/mektycoon/mekforge/pkg/adapters/memory"
	"github.com/mektycoon/mekforge/pkg/adapters/redis"
	"github.com/mektycoon/mekforge/pkg/audit"
	"github.com/mektycoon/mekforge/pkg/imageio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	env := NewEnv(config.Default(), &out, false, false)
	env.Logger = logging.NewNop()
	return env, &out
}

func writeMek(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.NRGBA{250, 250, 250, 255}
			if x > 8 && x < 24 && y > 8 && y < 24 {
				c = color.NRGBA{10, 10, 10, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, imageio.Save(path, img))
}

func TestRunBlueprint_Single(t *testing.T) {
	env, out := testEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "mek.png")
	writeMek(t, in)

	o := BlueprintOptionsFromConfig(env, mekforge.ModeClassic)
	o.Input = in
	require.NoError(t, RunBlueprint(context.Background(), env, o))

	_, err := os.Stat(filepath.Join(dir, "mek-blueprint.png"))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Blueprint saved to")
}

func TestRunBlueprint_MissingInputAborts(t *testing.T) {
	env, _ := testEnv(t)
	o := BlueprintOptionsFromConfig(env, mekforge.ModeTechnical)
	o.Input = filepath.Join(t.TempDir(), "absent.webp")

	err := RunBlueprint(context.Background(), env, o)
	assert.ErrorIs(t, err, os.ErrNotExist)

	o.Input = ""
	assert.Error(t, RunBlueprint(context.Background(), env, o))
}

func TestRunBlueprint_Batch(t *testing.T) {
	env, out := testEnv(t)
	in := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeMek(t, filepath.Join(in, "a.png"))
	writeMek(t, filepath.Join(in, "b.png"))

	o := BlueprintOptionsFromConfig(env, mekforge.ModeClassic)
	o.BatchDir = in
	o.OutputDir = outDir
	o.Pattern = "*.png"
	o.Workers = 2
	require.NoError(t, RunBlueprint(context.Background(), env, o))

	assert.Contains(t, out.String(), "OK a.png")
	assert.Contains(t, out.String(), "OK b.png")
	assert.Contains(t, out.String(), "Processed 2 of 2 images: 2 ok, 0 failed")
	for _, name := range []string{"a-blueprint.png", "b-blueprint.png"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	o.OutputDir = ""
	assert.Error(t, RunBlueprint(context.Background(), env, o))
}

func TestWatchDir(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchDir(ctx, dir, "*.png", 50*time.Millisecond, logging.NewNop(), func(_ context.Context, path string) {
			seen <- filepath.Base(path)
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mek.png"), []byte("x"), 0o644))

	select {
	case name := <-seen:
		assert.Equal(t, "mek.png", name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the new file")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchDir_Errors(t *testing.T) {
	ctx := context.Background()
	err := WatchDir(ctx, t.TempDir(), "[", time.Millisecond, logging.NewNop(), nil)
	assert.Error(t, err)

	err = WatchDir(ctx, filepath.Join(t.TempDir(), "missing"), "*.png", time.Millisecond, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestRunAuditDirs(t *testing.T) {
	env, out := testEnv(t)
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(a, "aa1.webp"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(a, "bb2.webp"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b, "aa1-blueprint.png"), nil, 0o644))

	require.NoError(t, RunAuditDirs(env, a, b, audit.DefaultDirOptions(), ReportOptions{Format: FormatJSON}))
	var res audit.DirComparison
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, []string{"bb2"}, res.OnlyInA)
	assert.Equal(t, 1, res.Common)

	err := RunAuditDirs(env, a, b, audit.DefaultDirOptions(), ReportOptions{Strict: true})
	assert.ErrorIs(t, err, ErrAuditMismatch)

	err = RunAuditDirs(env, a, b, audit.DefaultDirOptions(), ReportOptions{Format: "xml"})
	assert.Error(t, err)
}

func TestRunAuditManifest_WritesFile(t *testing.T) {
	env, _ := testEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aa1.webp"), nil, 0o644))
	manifest := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`["aa1", "cc3"]`), 0o644))
	report := filepath.Join(t.TempDir(), "reports", "manifest.md")

	mo := audit.ManifestOptions{Key: audit.DefaultManifestKey, Dir: audit.DefaultDirOptions()}
	require.NoError(t, RunAuditManifest(env, dir, manifest, mo, ReportOptions{Out: report}))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cc3")
}

func TestRunSourceKeys(t *testing.T) {
	env, out := testEnv(t)
	tmp := t.TempDir()
	cat := filepath.Join(tmp, "vars.yaml")
	require.NoError(t, os.WriteFile(cat, []byte(`variations:
  - {id: 1, name: "Chrome", type: head, count: 4, source_key: "ZZ9"}
`), 0o644))
	freq := filepath.Join(tmp, "freq.json")
	require.NoError(t, os.WriteFile(freq, []byte(`{"head_frequencies":{"AA1":4},"body_frequencies":{},"trait_frequencies":{}}`), 0o644))
	dump := filepath.Join(tmp, "analysis.json")

	require.NoError(t, RunSourceKeys(env, freq, cat, ReportOptions{Out: dump}))

	var res audit.KeyAnalysis
	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &res))
	require.Len(t, res.Matches.HighConfidence, 1)
	assert.Equal(t, "AA1", res.Matches.HighConfidence[0].ProposedKey)
	assert.NotEmpty(t, out.String(), "summary is printed")
}

func TestRunSourceKeys_Strict(t *testing.T) {
	env, _ := testEnv(t)
	tmp := t.TempDir()
	freq := filepath.Join(tmp, "freq.json")
	require.NoError(t, os.WriteFile(freq, []byte(`{"head_frequencies":{"AA1":4},"body_frequencies":{},"trait_frequencies":{}}`), 0o644))

	clean := filepath.Join(tmp, "clean.yaml")
	require.NoError(t, os.WriteFile(clean, []byte(`variations:
  - {id: 1, name: "Chrome", type: head, count: 4, source_key: "AA1"}
`), 0o644))
	assert.NoError(t, RunSourceKeys(env, freq, clean, ReportOptions{Format: FormatJSON, Strict: true}))

	unmatched := filepath.Join(tmp, "unmatched.yaml")
	require.NoError(t, os.WriteFile(unmatched, []byte(`variations:
  - {id: 1, name: "Chrome", type: head, count: 4, source_key: "AA1"}
  - {id: 2, name: "Gold", type: head, count: 9, source_key: "ZZ8"}
`), 0o644))
	assert.ErrorIs(t, RunSourceKeys(env, freq, unmatched, ReportOptions{Format: FormatJSON, Strict: true}), ErrAuditMismatch)
	assert.NoError(t, RunSourceKeys(env, freq, unmatched, ReportOptions{Format: FormatJSON}))
}

func TestRunEssence(t *testing.T) {
	env, out := testEnv(t)
	tmp := t.TempDir()
	cat := filepath.Join(tmp, "vars.json")
	require.NoError(t, os.WriteFile(cat, []byte(`[{"id":1,"name":"Jolly","type":"trait","count":2,"source_key":"CC3"}]`), 0o644))
	dir := filepath.Join(tmp, "icons")

	require.NoError(t, RunEssence(context.Background(), env, EssenceOptions{OutputDir: dir, Format: "png", Size: 40, CatalogPath: cat}))
	_, err := os.Stat(filepath.Join(dir, "jolly.png"))
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Done: 1 icons")

	err = RunEssence(context.Background(), env, EssenceOptions{OutputDir: dir, Format: "gif", Size: 40})
	assert.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	env, _ := testEnv(t)
	ctx := context.Background()

	cache, locker, closeFn, err := openCache(ctx, env, "")
	require.NoError(t, err)
	assert.IsType(t, &memory.Cache{}, cache)
	assert.IsType(t, &memory.Locker{}, locker)
	closeFn()

	mr := miniredis.RunT(t)
	cache, locker, closeFn, err = openCache(ctx, env, mr.Addr())
	require.NoError(t, err)
	assert.IsType(t, &redis.Cache{}, cache)
	assert.IsType(t, &redis.Locker{}, locker)
	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 0))
	assert.True(t, mr.Exists(env.Config.Server.RedisPrefix+"cache:k"))
	closeFn()

	mr.Close()
	_, _, _, err = openCache(ctx, env, mr.Addr())
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(nil))
	assert.NoError(t, HandleExecutionError(context.Canceled))
	boom := errors.New("boom")
	assert.Equal(t, boom, HandleExecutionError(boom))
}
