package essence

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/mektycoon/mekforge/internal/typeface"
	"github.com/mektycoon/mekforge/pkg/domain"
)

// DefaultSize is the edge length of an icon in pixels.
const DefaultSize = 120

// Geometry of a DefaultSize icon; other sizes scale linearly.
const (
	supersample = 4
	discInset   = 10
	outlineW    = 2
	fontSize    = 10
	lineHeight  = 12
	wrapWidth   = 100
	discAlpha   = 180
)

var (
	typeColors = map[domain.VariationType]color.NRGBA{
		domain.VariationHead:  {255, 195, 77, discAlpha},
		domain.VariationBody:  {77, 150, 255, discAlpha},
		domain.VariationTrait: {255, 77, 150, discAlpha},
	}
	otherColor  = color.NRGBA{200, 200, 200, discAlpha}
	shadowColor = color.NRGBA{0, 0, 0, 150}
)

// TypeColor returns the disc colour for a slot.
func TypeColor(t domain.VariationType) color.NRGBA {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return otherColor
}

// Generator draws icons of a fixed size.
type Generator struct {
	size  int
	scale float64
}

// NewGenerator returns a generator for size x size icons. A non-positive
// size selects DefaultSize.
func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{size: size, scale: float64(size) / DefaultSize}
}

// Size returns the icon edge length.
func (g *Generator) Size() int { return g.size }

func (g *Generator) px(v float64) float64 { return v * g.scale }

// Render draws the icon for a variation.
func (g *Generator) Render(name string, t domain.VariationType) (*image.NRGBA, error) {
	disc := g.disc(TypeColor(t))

	face, err := typeface.Face(typeface.Regular, g.px(fontSize))
	if err != nil {
		return nil, fmt.Errorf("essence font: %w", err)
	}
	defer face.Close()

	dc := gg.NewContextForImage(disc)
	dc.SetFontFace(face)
	ascent := float64(face.Metrics().Ascent.Ceil())
	lines := wrap(dc, name, g.px(wrapWidth))

	centre := g.size / 2
	step := int(g.px(lineHeight))
	top := centre - len(lines)*step/2
	for i, line := range lines {
		w, _ := dc.MeasureString(line)
		x := float64(centre - int(w)/2)
		y := float64(top+i*step) + ascent
		dc.SetColor(shadowColor)
		dc.DrawString(line, x+1, y+1)
		dc.SetColor(color.White)
		dc.DrawString(line, x, y)
	}
	return imaging.Clone(dc.Image()), nil
}

// disc draws the tinted circle at supersample scale and reduces it.
func (g *Generator) disc(c color.NRGBA) *image.NRGBA {
	big := g.size * supersample
	s := g.scale * supersample
	dc := gg.NewContext(big, big)
	radius := float64(big)/2 - discInset*s
	cx := float64(big) / 2

	dc.DrawCircle(cx, cx, radius)
	dc.SetColor(c)
	dc.Fill()

	w := outlineW * s
	dc.DrawCircle(cx, cx, radius-w/2)
	dc.SetLineWidth(w)
	dc.SetColor(color.White)
	dc.Stroke()

	return imaging.Resize(dc.Image(), g.size, g.size, imaging.Lanczos)
}

// wrap splits text into lines no wider than width, breaking at spaces. A
// single word wider than width gets a line of its own.
func wrap(dc *gg.Context, text string, width float64) []string {
	var lines, cur []string
	for _, word := range strings.Fields(text) {
		candidate := strings.Join(append(cur, word), " ")
		if w, _ := dc.MeasureString(candidate); w > width && len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
			cur = []string{word}
			continue
		}
		cur = append(cur, word)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}
