package blueprint

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/imageio"
)

// Renderer turns a source image into a blueprint.
type Renderer interface {
	Render(ctx context.Context, img image.Image) (image.Image, error)
}

// ConvertFile renders the image at in and writes the result to out. The
// output encoding follows the extension of out.
func ConvertFile(ctx context.Context, in, out string, r Renderer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := imageio.Load(in)
	if err != nil {
		return err
	}
	res, err := r.Render(ctx, img)
	if err != nil {
		return fmt.Errorf("render %s: %w", in, err)
	}
	if err := imageio.Save(out, res); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// OutputPath names the batch output for in inside dir: the input stem plus
// the blueprint suffix, as PNG.
func OutputPath(dir, in string) string {
	return OutputPathSuffix(dir, in, domain.BlueprintSuffix)
}

// OutputPathSuffix is OutputPath with a custom stem suffix.
func OutputPathSuffix(dir, in, suffix string) string {
	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+suffix+imageio.FormatPNG.Ext())
}
