// Package typeface loads the embedded Go fonts as font.Face values.
package typeface

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family selects one of the bundled fonts.
type Family int

const (
	Regular Family = iota
	MonoBold
)

var (
	once   sync.Once
	parsed map[Family]*opentype.Font
	errs   error
)

func load() {
	parsed = make(map[Family]*opentype.Font, 2)
	for fam, ttf := range map[Family][]byte{Regular: goregular.TTF, MonoBold: gomonobold.TTF} {
		f, err := opentype.Parse(ttf)
		if err != nil {
			errs = fmt.Errorf("parse font %d: %w", fam, err)
			return
		}
		parsed[fam] = f
	}
}

// Face returns a face of the given family at size points (72 DPI, so one
// point is one pixel). Faces are not safe for concurrent use; callers create
// one per render.
func Face(fam Family, size float64) (font.Face, error) {
	once.Do(load)
	if errs != nil {
		return nil, errs
	}
	f, ok := parsed[fam]
	if !ok {
		return nil, fmt.Errorf("unknown font family %d", fam)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}
