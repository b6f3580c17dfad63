package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/marker"
	"github.com/matzehuels/erdraw/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes column types and key flags in table labels.
	// When false, only column names are shown.
	Detailed bool
}

// arrowNames maps marker kinds to Graphviz arrow shapes.
var arrowNames = map[marker.Kind]string{
	marker.OneMandatory:  "teetee",
	marker.OneOptional:   "teeodot",
	marker.ManyMandatory: "crowtee",
	marker.ManyOptional:  "crowodot",
}

// ToDOT converts a diagram to Graphviz DOT format. Each table becomes an
// HTML-like label with one port per column, and each relationship an edge
// between column ports carrying crow's-foot arrowheads.
//
// Saved positions are ignored; Graphviz computes its own layout.
// Relationships naming unknown tables are skipped.
func ToDOT(d *erd.Diagram, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=plaintext, fontname=\"monospace\", fontsize=14];\n")
	buf.WriteString("  edge [dir=both, color=\"#5b6b7f\", penwidth=1.5];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("\n")

	for i := range d.Tables {
		t := &d.Tables[i]
		fmt.Fprintf(&buf, "  %q [label=<%s>];\n", t.ID.FullName(), fmtLabel(t, opts.Detailed))
	}

	buf.WriteString("\n")
	idx := erd.NewIndex(d)
	for _, rel := range d.Relationships {
		fi, okF := idx.Lookup(rel.From.TableID)
		ti, okT := idx.Lookup(rel.To.TableID)
		if !okF || !okT {
			continue
		}
		from, to := &d.Tables[fi], &d.Tables[ti]
		fk, tk := marker.Resolve(rel, from, to)
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n",
			endpoint(from, rel.From), endpoint(to, rel.To), strings.Join(fmtEdgeAttrs(rel, fk, tk), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// endpoint returns the node reference for an edge end, including the column
// port when the column exists.
func endpoint(t *erd.Table, ep erd.EndPoint) string {
	node := strconv.Quote(t.ID.FullName())
	col := ep.FirstColumn()
	if col == "" || t.ColumnIndex(col) < 0 {
		return node
	}
	return node + ":" + strconv.Quote(col)
}

func fmtEdgeAttrs(rel erd.Relationship, from, to marker.Kind) []string {
	return []string{
		fmt.Sprintf("arrowtail=%s", arrowNames[from]),
		fmt.Sprintf("arrowhead=%s", arrowNames[to]),
		fmt.Sprintf("tooltip=%q", rel.Type.String()),
	}
}

func fmtLabel(t *erd.Table, detailed bool) string {
	var b strings.Builder
	b.WriteString(`<TABLE BORDER="1" CELLBORDER="0" CELLSPACING="0" CELLPADDING="4" BGCOLOR="white">`)
	fmt.Fprintf(&b, `<TR><TD BGCOLOR="#3b4a5a"><FONT COLOR="white"><B>%s</B></FONT></TD></TR>`, html.EscapeString(t.ID.FullName()))
	for _, c := range t.Columns {
		fmt.Fprintf(&b, `<TR><TD PORT="%s" ALIGN="LEFT">%s</TD></TR>`, html.EscapeString(c.Name), html.EscapeString(fmtColumn(c, detailed)))
	}
	b.WriteString(`</TABLE>`)
	return b.String()
}

func fmtColumn(c erd.Column, detailed bool) string {
	if !detailed {
		return c.Name
	}
	var flags []string
	if c.IsPK {
		flags = append(flags, "pk")
	}
	if !c.IsNullable {
		flags = append(flags, "not null")
	}
	s := c.Name + " " + c.TypeRaw
	if len(flags) > 0 {
		s += " [" + strings.Join(flags, ", ") + "]"
	}
	return s
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// unitless one anchored at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
