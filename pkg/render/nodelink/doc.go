// Package nodelink exports ER diagrams as Graphviz graphs.
//
// # Overview
//
// This package is an alternative to the positioned scene renderers in
// [github.com/matzehuels/erdraw/pkg/render/sink]. It ignores saved table
// positions and lets Graphviz lay the diagram out, which is useful for a
// quick overview of a large schema or for feeding external tooling.
//
// # Usage
//
// Convert a diagram to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(d, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Tables are drawn as HTML-like labels with one port per column, so edges
// attach to the referencing and referenced columns. Cardinality is shown with
// Graphviz's crow, tee and odot arrow shapes.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
