package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/internal/batch"
	"github.com/mektycoon/mekforge/pkg/blueprint"
)

// BlueprintOptions contains the configuration of the blueprint commands.
type BlueprintOptions struct {
	Mode mekforge.Mode

	// Single file mode.
	Input  string
	Output string

	// Batch mode, selected by BatchDir.
	BatchDir  string
	OutputDir string
	Pattern   string
	Workers   int
	Suffix    string
	Watch     bool

	Classic   blueprint.ClassicOptions
	Technical blueprint.TechnicalOptions
}

// BlueprintOptionsFromConfig seeds the options with the config file values.
func BlueprintOptionsFromConfig(env *Env, mode mekforge.Mode) BlueprintOptions {
	c := env.Config
	return BlueprintOptions{
		Mode:      mode,
		Pattern:   c.Blueprint.Pattern,
		Workers:   c.Blueprint.Workers,
		Suffix:    c.Blueprint.Suffix,
		Classic:   c.Blueprint.ClassicOptions,
		Technical: c.Technical,
	}
}

func (o BlueprintOptions) toolkit(env *Env, progress batch.ProgressFunc) (*mekforge.Toolkit, error) {
	opts := []mekforge.Option{
		mekforge.WithLogger(env.Logger),
		mekforge.WithWorkers(o.Workers),
		mekforge.WithClassicOptions(o.Classic),
		mekforge.WithTechnicalOptions(o.Technical),
		mekforge.WithOutputSuffix(o.Suffix),
	}
	if progress != nil {
		opts = append(opts, mekforge.WithProgress(progress))
	}
	return mekforge.New(opts...)
}

// RunBlueprint converts one file, or a whole folder when BatchDir is set.
func RunBlueprint(ctx context.Context, env *Env, o BlueprintOptions) error {
	if o.BatchDir == "" {
		return runSingle(ctx, env, o)
	}
	if o.OutputDir == "" {
		return fmt.Errorf("--output-dir is required with --batch")
	}

	var progress batch.ProgressFunc
	if !env.Quiet {
		progress = func(done, total int, r batch.Result) {
			env.Printer.Printf("%s\n", env.Printer.Status(batch.FormatProgress(done, total, r), r.OK()))
		}
	}
	kit, err := o.toolkit(env, progress)
	if err != nil {
		return err
	}

	env.printSystemMessage("Converting %s -> %s (%s, %d workers)", o.BatchDir, o.OutputDir, o.Mode, o.Workers)
	sum, err := kit.ConvertDir(ctx, o.Mode, o.BatchDir, o.OutputDir, o.Pattern)
	if sum != nil {
		printSummary(env, sum)
	}
	if err != nil {
		return err
	}

	if o.Watch {
		return watchBlueprints(ctx, env, kit, o)
	}
	return nil
}

func runSingle(ctx context.Context, env *Env, o BlueprintOptions) error {
	if o.Input == "" {
		return fmt.Errorf("an input file or --batch is required")
	}
	out := o.Output
	if out == "" {
		out = blueprint.OutputPathSuffix(filepath.Dir(o.Input), o.Input, o.Suffix)
	}
	kit, err := o.toolkit(env, nil)
	if err != nil {
		return err
	}
	if err := kit.ConvertFile(ctx, o.Mode, o.Input, out); err != nil {
		return err
	}
	env.printSystemMessage("Blueprint saved to %s", out)
	return nil
}

func printSummary(env *Env, sum *mekforge.BatchSummary) {
	if env.Quiet {
		return
	}
	env.Printer.Printf("\nProcessed %d of %d images: %d ok, %d failed in %s",
		sum.OK+sum.Failed, sum.Total, sum.OK, sum.Failed, sum.Elapsed.Round(time.Millisecond))
	if sum.AvgPerItem > 0 {
		env.Printer.Printf(" (%.2fs per image)", sum.AvgPerItem.Seconds())
	}
	env.Printer.Printf("\n")
	for _, f := range sum.Failures() {
		env.Printer.Printf("%s\n", env.Printer.Status(fmt.Sprintf("  %s: %v", f.Job.Name, f.Err), false))
	}
}

// watchBlueprints keeps converting files that appear in the batch folder.
func watchBlueprints(ctx context.Context, env *Env, kit *mekforge.Toolkit, o BlueprintOptions) error {
	env.printSystemMessage("Watching %s for new images (Ctrl-C to stop)", o.BatchDir)
	return WatchDir(ctx, o.BatchDir, o.Pattern, DefaultDebounce, env.Logger, func(ctx context.Context, path string) {
		out := blueprint.OutputPathSuffix(o.OutputDir, path, o.Suffix)
		if err := kit.ConvertFile(ctx, o.Mode, path, out); err != nil {
			env.Logger.Warn("item failed", "file", path, "err", err)
			return
		}
		env.printSystemMessage("Converted %s", filepath.Base(path))
	})
}
