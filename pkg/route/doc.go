// Package route decides where relationship lines attach to tables and what
// curve connects them.
//
// A frame is computed in three passes, all pure functions of the diagram:
//
//  1. [Compute] picks a [Side] on each table and the raw attachment point.
//     Tables whose horizontal extents overlap are joined top-to-bottom;
//     otherwise the left table attaches on its right side and vice versa.
//     Left and right attachments sit on the row of the first referenced
//     column.
//  2. [Distribute] spreads endpoints that share a table side so lines do not
//     stack on top of each other.
//  3. [BuildCurve] offsets each endpoint outward by the marker clearance and
//     returns the cubic Bézier between the offset points.
//
// Relationships whose tables cannot be resolved produce a nil [Route] and are
// skipped by every later stage.
package route
