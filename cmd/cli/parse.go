package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pharmstock/inventory-service/internal/importer"
	"github.com/pharmstock/inventory-service/internal/types"
)

var parseOutput string

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse and validate a file without touching the database",
	Long: `Dry-run the parse, normalize, and validate stages on a local inventory
file. No database connection is needed and nothing is persisted. The output
shows row counts, validation errors, warnings, and a sample of the normalized
records, which makes this the quickest way to check a supplier file before a
real import.`,
	Example: `  inventory-service parse ./stock.csv
  inventory-service parse ./stock.xlsx --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseOutput, "output", "table", "Output format: table or json")
}

// parseReport is the dry-run outcome for one file
type parseReport struct {
	TotalRows   int                   `json:"totalRows"`
	SkippedRows int                   `json:"skippedRows"`
	ValidRows   int                   `json:"validRows"`
	Errors      []string              `json:"errors,omitempty"`
	Warnings    []types.ImportWarning `json:"warnings,omitempty"`
	Records     []types.ImportRecord  `json:"records,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	logger.Info().Str("file", filePath).Msg("Reading file")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	logger.Info().Str("file", filePath).Msgf("Read %d bytes", len(content))

	tok, err := tokenizerForFile(filePath).Parse(content)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	records := importer.NewNormalizer().NormalizeAll(tok.Rows)
	valid, rowErrors, warnings := importer.NewValidator().Validate(records)

	report := parseReport{
		TotalRows:   len(tok.Rows) + tok.SkippedRows,
		SkippedRows: tok.SkippedRows,
		ValidRows:   len(valid),
		Errors:      rowErrors,
		Warnings:    warnings,
		Records:     valid,
	}

	switch strings.ToLower(parseOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "table":
		outputParseTable(filePath, report)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", parseOutput)
	}

	return nil
}

func outputParseTable(filePath string, report parseReport) {
	fmt.Printf("\nParse Results for %s\n", filePath)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	fmt.Fprintf(w, "Total Rows\t%d\n", report.TotalRows)
	fmt.Fprintf(w, "Skipped Rows\t%d\n", report.SkippedRows)
	fmt.Fprintf(w, "Valid Rows\t%d\n", report.ValidRows)
	fmt.Fprintf(w, "Errors\t%d\n", len(report.Errors))
	fmt.Fprintf(w, "Warnings\t%d\n", len(report.Warnings))
	w.Flush()

	if len(report.Errors) > 0 {
		fmt.Printf("\nFirst %d Errors:\n", min(len(report.Errors), 10))
		fmt.Println(strings.Repeat("-", 60))
		for i, e := range report.Errors {
			if i >= 10 {
				break
			}
			fmt.Println(e)
		}
		if len(report.Errors) > 10 {
			fmt.Printf("... and %d more errors\n", len(report.Errors)-10)
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		fmt.Println(strings.Repeat("-", 60))
		for _, warn := range report.Warnings {
			fmt.Printf("Row %d: %s\n", warn.RowNumber, warn.Message)
		}
	}

	if len(report.Records) > 0 {
		fmt.Printf("\nSample Records (first %d):\n", min(len(report.Records), 5))
		fmt.Println(strings.Repeat("-", 60))
		for i, rec := range report.Records {
			if i >= 5 {
				break
			}
			fmt.Printf("%d. %s [%s] (Price: %.2f, Stock: %d)\n",
				i+1, rec.DisplayName(), rec.CategoryName, rec.PricePerPiece, rec.StockInPieces)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
