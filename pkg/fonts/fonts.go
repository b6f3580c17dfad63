// Package fonts provides the embedded font faces used to measure and draw
// table text.
//
// The Go Mono family ships inside golang.org/x/image, so no font files are
// read at runtime. Parsed fonts are cached for the life of the process; faces
// are cheap to create but not safe for concurrent use, so callers get a fresh
// face per [NewFace] call.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family used by vector output.
const FontFamily = "Go Mono"

// FallbackFontFamily lists fallbacks for viewers without Go Mono installed.
const FallbackFontFamily = `'Go Mono', 'DejaVu Sans Mono', Menlo, Consolas, monospace`

var (
	regular, bold         *opentype.Font
	regularErr, boldErr   error
	regularOnce, boldOnce sync.Once
)

// Regular returns the parsed Go Mono font.
func Regular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(gomono.TTF)
	})
	return regular, regularErr
}

// Bold returns the parsed Go Mono Bold font.
func Bold() (*opentype.Font, error) {
	boldOnce.Do(func() {
		bold, boldErr = opentype.Parse(gomonobold.TTF)
	})
	return bold, boldErr
}

// NewFace returns a face at the given pixel size. Sizes are in pixels at
// 72 DPI, so one point equals one pixel, matching canvas font sizes.
func NewFace(size float64, isBold bool) (font.Face, error) {
	load := Regular
	if isBold {
		load = Bold
	}
	f, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}
