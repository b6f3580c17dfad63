// Package sink provides output format renderers for diagram scenes.
//
// # Overview
//
// A "sink" transforms a computed [scene.Scene] into a final output format:
//
//   - SVG: standalone vector document
//   - PNG: raster image drawn natively with [github.com/fogleman/gg]
//   - PDF: print-ready output (requires rsvg-convert)
//   - JSON: computed geometry for external tools
//
// Every sink draws the padded scene canvas ([scene.Padding] around the table
// bounds) in world coordinates, relationships first and tables on top.
//
// # SVG Output
//
//	svg := sink.RenderSVG(s,
//	    sink.WithTheme(sink.DefaultTheme),
//	    sink.WithoutShadows(),
//	)
//
// # PNG Output
//
// [RenderPNG] rasterizes at [DefaultScale] (2x) unless [WithScale] is given.
// The native rasterizer needs no external tools; [WithRasterizer]([RasterRSVG])
// renders the SVG and converts it with librsvg instead, which matches the
// vector output exactly (including emoji in primary-key labels).
//
//	png, err := sink.RenderPNG(ctx, s, sink.WithScale(1))
//
// # PDF Output
//
// [RenderPDF] converts the SVG output via [render.ToPDF]:
//
//	pdf, err := sink.RenderPDF(ctx, s)
//
// This requires librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
package sink
