// Package exporter renders correlation reports as downloadable files.
//
// Two formats are supported:
//
// CSVWriter: the correlation matrix followed by a statistics section, with an
// optional UTF-8 BOM so spreadsheet programs pick the right encoding.
//
// XLSXWriter: a workbook with Correlations, Statistics and Report sheets,
// built with excelize.
//
// Example usage:
//
//	report, err := stockService.Correlations(ctx, services.CorrelationRequest{})
//	...
//	format, _ := exporter.ParseFormat("xlsx")
//	err = exporter.Export(w, report, format)
package exporter
