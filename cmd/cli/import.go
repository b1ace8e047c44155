package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pharmstock/inventory-service/internal/database"
	"github.com/pharmstock/inventory-service/internal/importer"
	csvparser "github.com/pharmstock/inventory-service/internal/parsers/csv"
	xlsxparser "github.com/pharmstock/inventory-service/internal/parsers/xlsx"
	"github.com/pharmstock/inventory-service/internal/storage"
	"github.com/pharmstock/inventory-service/internal/types"
)

var (
	importAutoApprove bool
	importConcurrency int
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import inventory files into the product database",
	Long: `Run the complete import pipeline (parse, normalize, validate, reconcile
categories, persist) for one or more local inventory files. Category names that
do not match the existing catalog are presented for approval; use --auto-approve
to create them without prompting.

Multiple files are imported concurrently when --auto-approve is set; interactive
approval forces sequential processing.`,
	Example: `  inventory-service import ./stock.csv
  inventory-service import ./stock.xlsx --auto-approve
  inventory-service import ./a.csv ./b.csv --auto-approve --concurrency 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importAutoApprove, "auto-approve", false, "Create unmatched categories without prompting")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 2, "Concurrent file imports (only with --auto-approve)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var approver importer.Approver = importer.AutoApprover{}
	concurrency := importConcurrency
	if !importAutoApprove {
		// Interactive prompts cannot interleave
		approver = &consoleApprover{in: bufio.NewReader(os.Stdin)}
		concurrency = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]importFileResult, len(args))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, filePath := range args {
		g.Go(func() error {
			results[i] = importOneFile(gctx, filePath, approver)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	displayImportResults(results)

	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("some imports failed")
		}
	}
	return nil
}

type importFileResult struct {
	File          string
	Success       bool
	RunID         string
	TotalRows     int
	Persisted     int
	ErrorCount    int
	NewCategories int
	Error         string
}

func importOneFile(ctx context.Context, filePath string, approver importer.Approver) importFileResult {
	res := importFileResult{File: filepath.Base(filePath)}

	content, err := os.ReadFile(filePath)
	if err != nil {
		res.Error = fmt.Sprintf("failed to read file: %v", err)
		return res
	}

	pool := database.Pool()
	runStore := database.NewImportRunStore(pool)

	runID, err := runStore.CreateRun(ctx, types.SourceCLI, filepath.Base(filePath), storage.ComputeChecksum(content))
	if err != nil {
		res.Error = fmt.Sprintf("failed to create run: %v", err)
		return res
	}
	res.RunID = runID

	orch := importer.New(
		tokenizerForFile(filePath),
		database.NewCategoryStore(pool),
		approver,
		importer.Options{SimilarityThreshold: cfg.Import.SimilarityThreshold},
	)

	result, runErr := orch.Run(ctx, content)
	if runErr != nil {
		var created []types.CategoryRef
		if result != nil {
			created = result.CreatedCategories
			res.TotalRows = result.TotalRows
			res.ErrorCount = len(result.Errors)
		}
		res.Error = runErr.Error()
		if err := runStore.MarkFailed(ctx, runID, runErr.Error(), created); err != nil {
			logger.Error().Str("runId", runID).Err(err).Msg("Failed to mark run failed")
		}
		return res
	}

	res.TotalRows = result.TotalRows
	res.ErrorCount = len(result.Errors)
	res.NewCategories = len(result.CreatedCategories)

	persisted, err := database.NewProductStore(pool).BulkInsert(ctx, result.ValidRecords)
	res.Persisted = persisted
	if err != nil {
		res.Error = fmt.Sprintf("persist failed after %d products: %v", persisted, err)
		if markErr := runStore.MarkFailed(ctx, runID, res.Error, result.CreatedCategories); markErr != nil {
			logger.Error().Str("runId", runID).Err(markErr).Msg("Failed to mark run failed")
		}
		return res
	}

	if err := runStore.MarkCompleted(ctx, runID, result); err != nil {
		logger.Error().Str("runId", runID).Err(err).Msg("Failed to mark run completed")
	}

	for _, e := range result.Errors {
		logger.Warn().Str("file", res.File).Msg(e)
	}
	for _, w := range result.Warnings {
		logger.Warn().Str("file", res.File).Int("row", w.RowNumber).Msg(w.Message)
	}

	res.Success = true
	return res
}

// tokenizerForFile selects the parser by file extension.
func tokenizerForFile(filePath string) importer.Tokenizer {
	if strings.ToLower(filepath.Ext(filePath)) == ".xlsx" {
		return xlsxparser.NewParser(xlsxparser.DefaultOptions())
	}
	return csvparser.NewParser(csvparser.DefaultOptions())
}

func displayImportResults(results []importFileResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tRUN ID\tROWS\tPERSISTED\tNEW CATEGORIES\tERRORS")
	fmt.Fprintln(w, "----\t------\t------\t----\t---------\t--------------\t------")

	for _, r := range results {
		status := "SUCCESS"
		if !r.Success {
			status = "FAILED"
		}
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.File, status, runID, r.TotalRows, r.Persisted, r.NewCategories, r.ErrorCount)
	}

	w.Flush()

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("\n%s: %s\n", r.File, r.Error)
		}
	}
}

// consoleApprover prompts on stdin for each proposed category. A mutex
// serializes prompting in case two imports reach approval at once.
type consoleApprover struct {
	mu sync.Mutex
	in *bufio.Reader
}

func (a *consoleApprover) Decide(ctx context.Context, candidates []types.CategoryCandidate) (map[string]types.CandidateDecision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	decisions := make(map[string]types.CandidateDecision, len(candidates))

	fmt.Printf("\n%d categories need approval:\n\n", len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fmt.Printf("  %q (%d rows)", cand.NormalizedName, cand.MemberRowCount)
		if cand.SimilarTo != nil {
			fmt.Printf(" - closest existing: %q (%.0f%%)", cand.SimilarTo.Name, cand.SimilarityScore*100)
		}
		fmt.Println()

		decision, err := a.promptOne(cand)
		if err != nil {
			return nil, err
		}
		decisions[importer.DecisionKey(cand)] = decision
	}

	return decisions, nil
}

func (a *consoleApprover) promptOne(cand types.CategoryCandidate) (types.CandidateDecision, error) {
	for {
		prompt := "  [a]pprove new / [r]eject"
		if cand.SimilarTo != nil {
			prompt += " / [m]ap to " + strconv.Quote(cand.SimilarTo.Name)
		}
		fmt.Printf("%s: ", prompt)

		line, err := a.in.ReadString('\n')
		if err != nil {
			return types.CandidateDecision{}, fmt.Errorf("read approval input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			return types.CandidateDecision{Kind: types.DecisionApproveNew}, nil
		case "r", "reject":
			return types.CandidateDecision{Kind: types.DecisionReject}, nil
		case "m", "map":
			if cand.SimilarTo == nil {
				fmt.Println("  no similar category to map to")
				continue
			}
			return types.CandidateDecision{Kind: types.DecisionMapTo, MapTo: cand.SimilarTo}, nil
		default:
			fmt.Println("  unrecognized choice")
		}
	}
}
