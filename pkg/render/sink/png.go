package sink

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/fonts"
	"github.com/matzehuels/erdraw/pkg/marker"
	"github.com/matzehuels/erdraw/pkg/measure"
	"github.com/matzehuels/erdraw/pkg/render"
	"github.com/matzehuels/erdraw/pkg/scene"
)

// Rasterizer selects how PNG output is produced.
type Rasterizer string

const (
	// RasterNative draws directly with the embedded fonts.
	RasterNative Rasterizer = "native"
	// RasterRSVG renders SVG and converts it with rsvg-convert.
	RasterRSVG Rasterizer = "rsvg"
)

// DefaultScale is the export resolution multiplier.
const DefaultScale = 2.0

// PNGOption configures RenderPNG.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	theme      Theme
	scale      float64
	rasterizer Rasterizer
	svgOpts    []SVGOption
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPNGTheme overrides the default colours.
func WithPNGTheme(t Theme) PNGOption { return func(r *pngRenderer) { r.theme = t } }

// WithRasterizer selects the PNG backend.
func WithRasterizer(k Rasterizer) PNGOption { return func(r *pngRenderer) { r.rasterizer = k } }

// WithPNGSVGOptions passes options to the SVG renderer when the rsvg
// rasterizer is used.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) { r.svgOpts = opts }
}

// RenderPNG draws s as a PNG image covering the padded scene canvas.
func RenderPNG(ctx context.Context, s *scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{theme: DefaultTheme, scale: DefaultScale, rasterizer: RasterNative}
	for _, opt := range opts {
		opt(&r)
	}

	if r.rasterizer == RasterRSVG {
		return render.ToPNG(ctx, RenderSVG(s, r.svgOpts...), r.scale)
	}

	body, err := fonts.NewFace(erd.FontSize, false)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	header, err := fonts.NewFace(erd.HeaderFontSize, true)
	if err != nil {
		return nil, err
	}
	defer header.Close()

	c := s.Canvas()
	w := int(math.Ceil(c.W * r.scale))
	h := int(math.Ceil(c.H * r.scale))
	dc := gg.NewContext(w, h)
	dc.Scale(r.scale, r.scale)
	dc.Translate(-c.X, -c.Y)

	dc.SetHexColor(r.theme.Background)
	dc.DrawRectangle(c.X, c.Y, c.W, c.H)
	dc.Fill()

	for _, e := range s.Edges {
		r.drawEdge(dc, e)
	}
	for _, t := range s.Tables {
		r.drawTable(dc, t, body, header)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r pngRenderer) drawEdge(dc *gg.Context, e scene.Edge) {
	cv := e.Curve
	dc.SetHexColor(r.theme.RelationStroke)
	dc.SetLineWidth(r.theme.RelationWidth)
	dc.MoveTo(cv.Start.X, cv.Start.Y)
	dc.LineTo(cv.Out0.X, cv.Out0.Y)
	dc.CubicTo(cv.C1.X, cv.C1.Y, cv.C2.X, cv.C2.Y, cv.Out1.X, cv.Out1.Y)
	dc.LineTo(cv.End.X, cv.End.Y)
	dc.Stroke()

	r.drawMarker(dc, cv.Start, cv.StartAngle, e.FromKind)
	r.drawMarker(dc, cv.End, cv.EndAngle, e.ToKind)
}

func (r pngRenderer) drawMarker(dc *gg.Context, at erd.Point, angle float64, k marker.Kind) {
	g := marker.GlyphFor(k)
	dc.Push()
	defer dc.Pop()
	dc.Translate(at.X, at.Y)
	dc.Rotate(angle)

	dc.SetHexColor(r.theme.RelationStroke)
	dc.SetLineWidth(r.theme.RelationWidth)
	for _, s := range g.Segments() {
		dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
		dc.Stroke()
	}
	if g.Circle != 0 {
		dc.DrawCircle(g.Circle, 0, marker.CircleRadius)
		dc.SetHexColor("#ffffff")
		dc.FillPreserve()
		dc.SetHexColor(r.theme.RelationStroke)
		dc.Stroke()
	}
}

func (r pngRenderer) drawTable(dc *gg.Context, t scene.Table, body, header font.Face) {
	b := t.Box
	rad := erd.BorderRadius

	// Shadow
	dc.SetRGBA(0, 0, 0, 0.08)
	dc.DrawRoundedRectangle(b.X, b.Y+2, b.W, b.H, rad)
	dc.Fill()

	dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, rad)
	dc.SetHexColor(r.theme.TableBG)
	dc.FillPreserve()
	dc.SetHexColor(r.theme.TableBorder)
	dc.SetLineWidth(1)
	dc.Stroke()

	// Header: rounded rectangle with its lower corners squared off.
	dc.SetHexColor(r.theme.HeaderBG)
	dc.DrawRoundedRectangle(b.X, b.Y, b.W, erd.HeaderHeight, rad)
	dc.Fill()
	dc.DrawRectangle(b.X, b.Y+erd.HeaderHeight-rad, b.W, rad)
	dc.Fill()

	dc.SetFontFace(header)
	dc.SetHexColor(r.theme.HeaderText)
	dc.DrawStringAnchored(t.ID.Name, b.X+erd.PaddingX, b.Y+erd.HeaderHeight/2, 0, 0.5)

	dc.SetHexColor(r.theme.TableBorder)
	dc.DrawLine(b.X, b.Y+erd.HeaderHeight, b.Right(), b.Y+erd.HeaderHeight)
	dc.Stroke()

	dc.SetFontFace(body)
	prefix, _ := dc.MeasureString(measure.PKPrefix)
	for i, col := range t.Columns {
		cy := b.Y + erd.HeaderHeight + float64(i)*erd.RowHeight + erd.RowHeight/2
		x := b.X + erd.PaddingX
		if col.IsPK {
			// Go Mono has no key glyph; draw a dot in its place.
			dc.SetHexColor(r.theme.PKColor)
			dc.DrawCircle(x+prefix/4, cy, 3)
			dc.Fill()
			x += prefix
		} else {
			dc.SetHexColor(r.theme.ColumnText)
		}
		dc.DrawStringAnchored(col.Name, x, cy, 0, 0.5)

		dc.SetHexColor(r.theme.TypeText)
		dc.DrawStringAnchored(col.TypeRaw, b.Right()-erd.PaddingX, cy, 1, 0.5)
	}
}
