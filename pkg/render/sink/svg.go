package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/fonts"
	"github.com/matzehuels/erdraw/pkg/marker"
	"github.com/matzehuels/erdraw/pkg/measure"
	"github.com/matzehuels/erdraw/pkg/scene"
)

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme      Theme
	fontFamily string
	background bool
	shadows    bool
}

// WithTheme overrides the default colours.
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithFontFamily sets the CSS font-family for all text.
func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.fontFamily = f } }

// WithoutBackground leaves the canvas transparent.
func WithoutBackground() SVGOption { return func(r *svgRenderer) { r.background = false } }

// WithoutShadows drops the table drop shadows.
func WithoutShadows() SVGOption { return func(r *svgRenderer) { r.shadows = false } }

func newSVGRenderer(opts []SVGOption) svgRenderer {
	r := svgRenderer{
		theme:      DefaultTheme,
		fontFamily: fonts.FallbackFontFamily,
		background: true,
		shadows:    true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws s as a standalone SVG document. The view box is the padded
// scene canvas, so world coordinates are used unchanged. Relationships are
// drawn before tables so boxes sit on top of lines.
func RenderSVG(s *scene.Scene, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts)
	c := s.Canvas()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(c.X), num(c.Y), num(c.W), num(c.H), c.W, c.H)

	r.renderDefs(&buf)
	if r.background {
		fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(c.X), num(c.Y), num(c.W), num(c.H), r.theme.Background)
	}

	buf.WriteString(`  <g class="relationships">` + "\n")
	for _, e := range s.Edges {
		r.renderEdge(&buf, e)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="tables">` + "\n")
	for _, t := range s.Tables {
		r.renderTable(&buf, t)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) renderDefs(buf *bytes.Buffer) {
	if !r.shadows {
		return
	}
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <filter id="table-shadow" x="-10%" y="-10%" width="120%" height="130%">` + "\n")
	buf.WriteString(`      <feDropShadow dx="0" dy="2" stdDeviation="3" flood-color="#000000" flood-opacity="0.1"/>` + "\n")
	buf.WriteString("    </filter>\n")
	buf.WriteString("  </defs>\n")
}

func (r svgRenderer) renderEdge(buf *bytes.Buffer, e scene.Edge) {
	fmt.Fprintf(buf, `    <g class="relationship" data-rel="%d" data-type="%s">`+"\n", e.Rel, e.Type)
	fmt.Fprintf(buf, `      <path d="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
		e.Curve.SVGPath(), r.theme.RelationStroke, num(r.theme.RelationWidth))
	r.renderMarker(buf, e.Curve.Start, e.Curve.StartAngle, e.FromKind, marker.Start)
	r.renderMarker(buf, e.Curve.End, e.Curve.EndAngle, e.ToKind, marker.Finish)
	buf.WriteString("    </g>\n")
}

func (r svgRenderer) renderMarker(buf *bytes.Buffer, at erd.Point, angle float64, k marker.Kind, end marker.End) {
	g := marker.GlyphFor(k)
	fmt.Fprintf(buf, `      <g class="marker %s" transform="translate(%s %s) rotate(%s)" stroke="%s" stroke-width="%s">`+"\n",
		marker.ID(k, end), num(at.X), num(at.Y), num(angle*180/math.Pi), r.theme.RelationStroke, num(r.theme.RelationWidth))
	for _, s := range g.Segments() {
		fmt.Fprintf(buf, `        <line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n", num(s.X1), num(s.Y1), num(s.X2), num(s.Y2))
	}
	if g.Circle != 0 {
		fmt.Fprintf(buf, `        <circle cx="%s" cy="0" r="%s" fill="white"/>`+"\n", num(g.Circle), num(marker.CircleRadius))
	}
	buf.WriteString("      </g>\n")
}

func (r svgRenderer) renderTable(buf *bytes.Buffer, t scene.Table) {
	b := t.Box
	rad := erd.BorderRadius
	fmt.Fprintf(buf, `    <g class="table" id="table-%s" transform="translate(%s %s)">`+"\n", escape(t.ID.FullName()), num(b.X), num(b.Y))

	filter := ""
	if r.shadows {
		filter = ` filter="url(#table-shadow)"`
	}
	fmt.Fprintf(buf, `      <rect width="%s" height="%s" rx="%s" fill="%s" stroke="%s" stroke-width="1"%s/>`+"\n",
		num(b.W), num(b.H), num(rad), r.theme.TableBG, r.theme.TableBorder, filter)

	// Header: rounded top corners, square bottom.
	fmt.Fprintf(buf, `      <path d="M 0 %s A %s %s 0 0 1 %s 0 L %s 0 A %s %s 0 0 1 %s %s L %s %s L 0 %s Z" fill="%s"/>`+"\n",
		num(rad), num(rad), num(rad), num(rad),
		num(b.W-rad), num(rad), num(rad), num(b.W), num(rad),
		num(b.W), num(erd.HeaderHeight), num(erd.HeaderHeight),
		r.theme.HeaderBG)

	fmt.Fprintf(buf, `      <text x="%s" y="%s" font-family="%s" font-size="%s" font-weight="bold" fill="%s">%s</text>`+"\n",
		num(erd.PaddingX), num(erd.HeaderHeight/2+erd.HeaderFontSize/3),
		escape(r.fontFamily), num(erd.HeaderFontSize), r.theme.HeaderText, escape(t.ID.Name))

	fmt.Fprintf(buf, `      <line x1="0" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
		num(erd.HeaderHeight), num(b.W), num(erd.HeaderHeight), r.theme.TableBorder)

	for i, col := range t.Columns {
		y := erd.HeaderHeight + float64(i)*erd.RowHeight + erd.RowHeight/2 + erd.FontSize/3
		name, fill := col.Name, r.theme.ColumnText
		if col.IsPK {
			name, fill = measure.PKPrefix+col.Name, r.theme.PKColor
		}
		fmt.Fprintf(buf, `      <text x="%s" y="%s" font-family="%s" font-size="%s" fill="%s">%s</text>`+"\n",
			num(erd.PaddingX), num(y), escape(r.fontFamily), num(erd.FontSize), fill, escape(name))
		fmt.Fprintf(buf, `      <text x="%s" y="%s" font-family="%s" font-size="%s" fill="%s" text-anchor="end">%s</text>`+"\n",
			num(b.W-erd.PaddingX), num(y), escape(r.fontFamily), num(erd.FontSize), r.theme.TypeText, escape(col.TypeRaw))
	}
	buf.WriteString("    </g>\n")
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "-0" {
		return "0"
	}
	return s
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
