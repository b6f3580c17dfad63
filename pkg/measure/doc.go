// Package measure estimates table box widths from their text content.
//
// # Overview
//
// A table is as wide as its widest line: either the header (table name in the
// bold header font) or a column row (optional primary-key prefix, column name,
// a fixed gap, then the type). Horizontal padding is added on both sides and
// the result is clamped to [erd.MinTableWidth].
//
// Text metrics come from a [TextMeasurer]. Two are provided:
//
//   - [FaceMeasurer] measures real glyph advances of the embedded Go Mono fonts
//   - [FixedMeasurer] assumes a constant advance per rune, useful for tests and
//     for headless output where font availability is unknown
//
// # Usage
//
//	m, err := measure.NewFaceMeasurer()
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	measure.ComputeWidths(d, m)
package measure
