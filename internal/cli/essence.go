package cli

import (
	"context"
	"fmt"

	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/internal/catalog"
	"github.com/mektycoon/mekforge/pkg/imageio"
)

// EssenceOptions contains the configuration of the essence command.
type EssenceOptions struct {
	OutputDir   string
	Format      string
	Size        int
	CatalogPath string
}

// RunEssence writes one placeholder icon per catalog variation.
func RunEssence(ctx context.Context, env *Env, o EssenceOptions) error {
	if o.OutputDir == "" {
		return fmt.Errorf("--output-dir is required")
	}
	format, err := imageio.ParseFormat(o.Format)
	if err != nil {
		return err
	}
	vars, err := catalog.Load(o.CatalogPath)
	if err != nil {
		return err
	}
	kit, err := mekforge.New(
		mekforge.WithLogger(env.Logger),
		mekforge.WithVariations(vars),
		mekforge.WithEssenceIcons(o.Size, format),
	)
	if err != nil {
		return err
	}

	env.printSystemMessage("Generating %d essence icons into %s", len(vars), o.OutputDir)
	res, err := kit.GenerateEssences(ctx, o.OutputDir, func(done, total int) {
		env.printSystemMessage("Generated %d/%d essence images...", done, total)
	})
	if err != nil {
		return err
	}
	env.printSystemMessage("Done: %d icons written to %s", len(res.Files), res.Dir)
	return nil
}
