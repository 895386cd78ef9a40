package main

import (
	"fmt"

	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/internal/cli"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint [input] [output]",
	Short: "Convert renders into classic blueprints",
	Long: `Converts a single render, or with --batch every matching file of a folder,
into a blueprint drawing: edges extracted and drawn in white over a
coloured paper with an optional grid.

Without an explicit output the result is written next to the input with
the configured suffix (default "-blueprint").`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := blueprintOptions(cmd, args, mekforge.ModeClassic)
		if err != nil {
			return err
		}
		fs := cmd.Flags()
		setString(fs, "style", &o.Classic.Style)
		setInt(fs, "grid-size", &o.Classic.GridSize)
		setString(fs, "engine", &o.Classic.Engine)
		setUint64(fs, "seed", &o.Classic.Seed)
		if fs.Changed("no-grid") {
			noGrid, _ := fs.GetBool("no-grid")
			o.Classic.Grid = !noGrid
		}
		if fs.Changed("detail") {
			s, _ := fs.GetString("detail")
			if o.Classic.Detail, err = domain.ParseDetailLevel(s); err != nil {
				return err
			}
		}
		if err := o.Classic.Validate(); err != nil {
			return err
		}
		return runWithSignals(cmd, func(ctx *cli.SignalContext) error {
			return cli.RunBlueprint(ctx, env, o)
		})
	},
}

var technicalCmd = &cobra.Command{
	Use:   "technical [input] [output]",
	Short: "Convert renders into annotated technical drawings",
	Long: `Produces the technical style: multi-threshold edges traced as sketchy
gold strokes with overshoot on a black sheet, a faint grid and optional
leader line annotations naming the head, body, item, rank and Mek number.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := blueprintOptions(cmd, args, mekforge.ModeTechnical)
		if err != nil {
			return err
		}
		fs := cmd.Flags()
		t := &o.Technical
		for name, dst := range map[string]*int{
			"canny-low":            &t.CannyLow,
			"canny-mid":            &t.CannyMid,
			"canny-high":           &t.CannyHigh,
			"output-size":          &t.OutputSize,
			"line-thickness":       &t.LineThickness,
			"overshoot":            &t.Overshoot,
			"grid-opacity":         &t.GridOpacity,
			"smoothness":           &t.Smoothness,
			"curviness":            &t.Curviness,
			"sketchiness":          &t.Sketchiness,
			"detail-density":       &t.DetailDensity,
			"annotation-font-size": &t.FontSize,
			"label-margin":         &t.LabelMargin,
		} {
			setInt(fs, name, dst)
		}
		for name, dst := range map[string]*string{
			"annotation-style": &t.AnnotationStyle,
			"mek-code":         &t.MekCode,
			"head-name":        &t.HeadName,
			"body-name":        &t.BodyName,
			"item-name":        &t.ItemName,
			"mek-rank":         &t.MekRank,
		} {
			setString(fs, name, dst)
		}
		setBool(fs, "annotations", &t.Annotations)
		setUint64(fs, "seed", &t.Seed)
		for name, dst := range map[string]*domain.Position{
			"head-position":       &t.HeadPosition,
			"body-position":       &t.BodyPosition,
			"item-position":       &t.ItemPosition,
			"rank-position":       &t.RankPosition,
			"mek-number-position": &t.MekPosition,
		} {
			if !fs.Changed(name) {
				continue
			}
			s, _ := fs.GetString(name)
			if *dst, err = domain.ParsePosition(s); err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
		}
		if err := t.Validate(); err != nil {
			return err
		}
		return runWithSignals(cmd, func(ctx *cli.SignalContext) error {
			return cli.RunBlueprint(ctx, env, o)
		})
	},
}

func init() {
	rootCmd.AddCommand(blueprintCmd)
	blueprintCmd.AddCommand(technicalCmd)

	// Batch flags are persistent so that "blueprint technical" shares them.
	pf := blueprintCmd.PersistentFlags()
	pf.StringP("batch", "b", "", "Convert every matching file in this folder")
	pf.StringP("output-dir", "o", "", "Destination folder for --batch")
	pf.String("pattern", "", "Glob selecting batch inputs (default from config, *.webp)")
	pf.IntP("threads", "t", 0, "Number of parallel workers (default from config)")
	pf.String("suffix", "", "Suffix appended to output names (default -blueprint)")
	pf.BoolP("watch", "w", false, "Keep converting new files after the batch")

	f := blueprintCmd.Flags()
	f.String("style", "blue", "Paper colour scheme: blue, dark_blue or navy")
	f.Int("grid-size", 30, "Grid spacing in pixels")
	f.Bool("no-grid", false, "Do not draw the grid")
	f.String("detail", "high", "Edge detail: low, medium or high")
	f.String("engine", "", "Edge extractor (empty for the built-in one)")
	f.Uint64("seed", 0, "Fix the paper grain (0 for random)")

	tf := technicalCmd.Flags()
	tf.Int("canny-low", 20, "Low edge threshold")
	tf.Int("canny-mid", 40, "Medium edge threshold")
	tf.Int("canny-high", 60, "High edge threshold")
	tf.Int("output-size", 2000, "Edge length of the square output")
	tf.Int("line-thickness", 1, "Stroke width")
	tf.Int("overshoot", 8, "Maximum stroke overshoot in pixels")
	tf.Int("grid-opacity", 15, "Grid opacity level (0-255)")
	tf.Int("smoothness", 3, "Edge-preserving smoothing strength (0-50)")
	tf.Int("curviness", 5, "Curve tension")
	tf.Int("sketchiness", 0, "Hand-drawn wobble")
	tf.Int("detail-density", 50, "Local contrast boost for fine detail (0-100)")
	tf.Bool("annotations", true, "Draw leader line annotations")
	tf.String("annotation-style", "angled", "Leader style: angled or straight")
	tf.Int("annotation-font-size", 24, "Annotation font size")
	tf.Int("label-margin", 150, "Distance of labels from the canvas edge")
	tf.String("mek-code", "", "Mek number label")
	tf.String("head-name", "", "Head variation label")
	tf.String("body-name", "", "Body variation label")
	tf.String("item-name", "", "Item/trait label")
	tf.String("mek-rank", "", "Rank label")
	tf.String("head-position", "", "Head label anchor (top-left, top-right, bottom-left, bottom-right)")
	tf.String("body-position", "", "Body label anchor")
	tf.String("item-position", "", "Item label anchor")
	tf.String("rank-position", "", "Rank label anchor")
	tf.String("mek-number-position", "", "Mek number label anchor")
	tf.Uint64("seed", 0, "Fix the sketch noise (0 for random)")
	tf.SetNormalizeFunc(technicalAliases)
}

// technicalAliases keeps the short spellings of renamed flags working.
func technicalAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "font-size":
		name = "annotation-font-size"
	case "number-position":
		name = "mek-number-position"
	}
	return pflag.NormalizedName(name)
}

// blueprintOptions merges the config file with the shared batch flags.
func blueprintOptions(cmd *cobra.Command, args []string, mode mekforge.Mode) (cli.BlueprintOptions, error) {
	o := cli.BlueprintOptionsFromConfig(env, mode)
	if len(args) > 0 {
		o.Input = args[0]
	}
	if len(args) > 1 {
		o.Output = args[1]
	}
	fs := cmd.Flags()
	setString(fs, "batch", &o.BatchDir)
	setString(fs, "output-dir", &o.OutputDir)
	setString(fs, "pattern", &o.Pattern)
	setInt(fs, "threads", &o.Workers)
	setString(fs, "suffix", &o.Suffix)
	setBool(fs, "watch", &o.Watch)

	if o.BatchDir != "" && o.Input != "" {
		return o, fmt.Errorf("use either an input file or --batch, not both")
	}
	if o.Watch && o.BatchDir == "" {
		return o, fmt.Errorf("--watch requires --batch")
	}
	if o.Workers < 1 {
		return o, fmt.Errorf("--threads must be at least 1, got %d", o.Workers)
	}
	return o, nil
}

// Flags override the config file only when set on the command line.

func setString(fs *pflag.FlagSet, name string, dst *string) {
	if fs.Changed(name) {
		*dst, _ = fs.GetString(name)
	}
}

func setInt(fs *pflag.FlagSet, name string, dst *int) {
	if fs.Changed(name) {
		*dst, _ = fs.GetInt(name)
	}
}

func setBool(fs *pflag.FlagSet, name string, dst *bool) {
	if fs.Changed(name) {
		*dst, _ = fs.GetBool(name)
	}
}

func setUint64(fs *pflag.FlagSet, name string, dst *uint64) {
	if fs.Changed(name) {
		*dst, _ = fs.GetUint64(name)
	}
}
