package measure

import (
	"math"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/fonts"
)

// PKPrefix is drawn before primary-key column names.
const PKPrefix = "\U0001F511 "

// ColumnGap separates a column name from its type.
const ColumnGap = 8.0

// Font selects a size and weight.
type Font struct {
	Size float64
	Bold bool
}

// Body is the column row font.
var Body = Font{Size: erd.FontSize}

// Header is the table name font.
var Header = Font{Size: erd.HeaderFontSize, Bold: true}

// TextMeasurer returns the rendered width of text in pixels.
type TextMeasurer interface {
	Measure(text string, f Font) float64
}

// ComputeWidths sets the width of every table in d. It overwrites previous
// values, so repeated calls are idempotent.
func ComputeWidths(d *erd.Diagram, m TextMeasurer) {
	for i := range d.Tables {
		d.Tables[i].SetWidth(TableWidth(&d.Tables[i], m))
	}
}

// TableWidth returns the content width of t, clamped to [erd.MinTableWidth].
func TableWidth(t *erd.Table, m TextMeasurer) float64 {
	var content float64
	for _, c := range t.Columns {
		name := c.Name
		if c.IsPK {
			name = PKPrefix + name
		}
		row := m.Measure(name, Body) + ColumnGap + m.Measure(c.TypeRaw, Body)
		content = math.Max(content, row)
	}
	content = math.Max(content, m.Measure(t.ID.Name, Header))
	return math.Max(erd.MinTableWidth, content+2*erd.PaddingX)
}

// =============================================================================
// Fixed-advance measurer
// =============================================================================

// FixedMeasurer assumes every rune advances CharWidth × font size.
// A CharWidth of 0.6 approximates common monospace fonts.
type FixedMeasurer struct {
	CharWidth float64
}

// Measure implements TextMeasurer.
func (m FixedMeasurer) Measure(text string, f Font) float64 {
	return float64(utf8.RuneCountInString(text)) * f.Size * m.CharWidth
}

// =============================================================================
// Font face measurer
// =============================================================================

// FaceMeasurer measures text with the embedded Go Mono faces. Faces are
// created lazily per Font and cached. It is safe for concurrent use.
type FaceMeasurer struct {
	mu    sync.Mutex
	faces map[Font]font.Face
}

// NewFaceMeasurer returns a measurer with the body and header faces loaded.
func NewFaceMeasurer() (*FaceMeasurer, error) {
	m := &FaceMeasurer{faces: make(map[Font]font.Face)}
	for _, f := range []Font{Body, Header} {
		if _, err := m.face(f); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Measure implements TextMeasurer. If a face cannot be created for f the
// measurement falls back to a fixed 0.6 advance.
func (m *FaceMeasurer) Measure(text string, f Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(f)
	if err != nil {
		return FixedMeasurer{CharWidth: 0.6}.Measure(text, f)
	}
	return fixedToFloat(font.MeasureString(face, text))
}

// Close releases the cached faces.
func (m *FaceMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, face := range m.faces {
		face.Close()
		delete(m.faces, k)
	}
	return nil
}

func (m *FaceMeasurer) face(f Font) (font.Face, error) {
	if face, ok := m.faces[f]; ok {
		return face, nil
	}
	face, err := fonts.NewFace(f.Size, f.Bold)
	if err != nil {
		return nil, err
	}
	m.faces[f] = face
	return face, nil
}

var _ TextMeasurer = (*FaceMeasurer)(nil)
var _ TextMeasurer = FixedMeasurer{}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
