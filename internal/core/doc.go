// Package core implements the CSV exploration pipeline.
//
// It has no knowledge of HTTP or HTML; the web package and tests drive it
// through [Service].
//
// # Pipeline
//
// Every request re-runs the pipeline as a function of the input bytes and the
// caller's explicit [Selections]:
//
//  1. [SelectSource] picks the upload, the demo dataset, or halts with [ErrNoData]
//  2. [Service.Load] parses the bytes into a [Table], memoized by content hash
//  3. [ApplyFilter] keeps the rows matching a [FilterSpec]
//  4. [Project] keeps the selected columns, in the caller's order
//  5. [Service.Export] serializes the result as CSV or XLSX, memoized by table fingerprint
//
// [ResolveSelections] runs before the filter and projection stages. Any
// selection naming a column the current table lacks is reset to its default
// and reported as a warning.
//
// # Tables
//
// A [Table] is immutable. Columns keep the original cell text next to the
// inferred type, so [ExportCSV] reproduces its input and
// ParseCSV(ExportCSV(t)) equals t. A column is numeric when every non-null
// cell parses as a number; null cells are empty or one of the usual
// missing-value markers (NA, N/A, NULL, NaN, ...).
//
// # Exploration
//
// [Describe], [Profile], [Histogram], [Scatter], [BoxPlot], [Correlation],
// [GroupMean] and [Affine] compute the data behind the dashboard charts.
// They return plain structs ready for JSON.
//
// # Errors
//
// Failures are typed: [*ParseError], [*SchemaError], [*TypeError] and the
// sentinel errors in errors.go. [MapError] turns any of them into a coded
// [UserMessage].
package core
