package blueprint

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/mektycoon/mekforge/pkg/domain"
)

// Scheme is a blueprint colour set.
type Scheme struct {
	Name       string
	Background color.NRGBA
	Lines      color.NRGBA
	Grid       color.NRGBA
}

var white = color.NRGBA{255, 255, 255, 255}

var schemes = map[string]Scheme{
	"blue": {
		Name:       "blue",
		Background: color.NRGBA{15, 100, 180, 255},
		Lines:      white,
		Grid:       color.NRGBA{18, 85, 100, 255},
	},
	"dark_blue": {
		Name:       "dark_blue",
		Background: color.NRGBA{12, 75, 140, 255},
		Lines:      white,
		Grid:       color.NRGBA{15, 60, 90, 255},
	},
	"navy": {
		Name:       "navy",
		Background: color.NRGBA{8, 50, 100, 255},
		Lines:      white,
		Grid:       color.NRGBA{10, 40, 80, 255},
	},
}

// LookupScheme returns the named scheme.
func LookupScheme(name string) (Scheme, error) {
	s, ok := schemes[name]
	if !ok {
		return Scheme{}, fmt.Errorf("%w: %q", domain.ErrUnknownStyle, name)
	}
	return s, nil
}

// SchemeNames lists the registered schemes alphabetically.
func SchemeNames() []string {
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// major brightens a grid colour for the major lines.
func major(c color.NRGBA) color.NRGBA {
	scale := func(v uint8) uint8 { return uint8(min(255, int(float64(v)*1.3))) }
	return color.NRGBA{scale(c.R), scale(c.G), scale(c.B), c.A}
}
