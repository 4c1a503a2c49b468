// Package dataprocessing turns uploaded grade files into cleaned,
// ranked grade rows.
//
// The package covers three stages of the ingestion pipeline:
//
//   - loading: reading an .xlsx workbook or .csv file into a
//     row-oriented GradeReport with normalized headers (loader.go)
//   - column resolution: heuristically picking the identifier and grade
//     columns from the header set (columns.go)
//   - statistics: cleaning the rows and computing class mean, standard
//     deviation, per-row rank and percentile (stats.go)
//
// No schema is assumed beyond "a table with named columns"; files whose
// columns cannot be resolved are rejected for a human to fix.
package dataprocessing
