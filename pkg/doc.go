// Package pkg provides the core libraries for erdraw entity-relationship
// diagrams.
//
// # Overview
//
// erdraw reads a database schema, places each table on a grid, routes every
// relationship as an orthogonal connector between column rows and draws
// crow's foot markers at both ends. The pkg directory is organized into
// four areas:
//
//  1. Model: [erd], [dbml], [io] (diagram types, schema parsing, file formats)
//  2. Geometry: [measure], [layout], [route], [marker], [scene] (sizing,
//     placement, connector routing and the frame that ties them together)
//  3. Output: [render], [render/sink], [render/nodelink] (SVG, PNG, PDF,
//     JSON and Graphviz DOT)
//  4. Orchestration: [pipeline], [layoutfile], [cache], [editor]
//     (load → layout → render, saved positions, result caching and the
//     interactive editing session)
//
// # Architecture
//
// The typical data flow through erdraw:
//
//	schema.dbml / .json / .yaml
//	         ↓
//	    [io] package (parse into an erd.Diagram)
//	         ↓
//	    [layoutfile] package (apply saved positions)
//	         ↓
//	    [measure] + [layout] packages (size boxes, place unplaced tables)
//	         ↓
//	    [scene] package (route connectors, resolve markers)
//	         ↓
//	    [render/sink] package (SVG/PNG/PDF/JSON output)
//
// # Quick Start
//
//	d, _ := erdio.Import("schema.dbml")
//	measure.ComputeWidths(d, measure.FixedMeasurer{CharWidth: 0.6})
//	layout.AutoLayout(d)
//	svg := sink.RenderSVG(scene.Build(d, scene.Options{}))
//
// Or run the whole pipeline with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    Input:   "schema.dbml",
//	    Formats: []string{"svg", "png"},
//	})
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/route/...    # Specific package
//	go test -run Example       # Examples only
//
// [erd]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/erd
// [dbml]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/dbml
// [io]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/io
// [measure]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/measure
// [layout]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/layout
// [route]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/route
// [marker]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/marker
// [scene]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/pipeline
// [layoutfile]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/layoutfile
// [cache]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/cache
// [editor]: https://pkg.go.dev/github.com/matzehuels/erdraw/pkg/editor
package pkg
