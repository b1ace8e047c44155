package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pharmstock/inventory-service/internal/database"
	"github.com/pharmstock/inventory-service/internal/importer"
	"github.com/pharmstock/inventory-service/internal/ingestion/zip"
	"github.com/pharmstock/inventory-service/internal/matching"
	csvparser "github.com/pharmstock/inventory-service/internal/parsers/csv"
	xlsxparser "github.com/pharmstock/inventory-service/internal/parsers/xlsx"
	"github.com/pharmstock/inventory-service/internal/storage"
	"github.com/pharmstock/inventory-service/internal/types"
)

// importSem limits concurrent import goroutines to prevent resource exhaustion
var importSem = make(chan struct{}, 4)

// maxUploadBytes caps multipart upload size; overridable via Configure
var maxUploadBytes int64 = 50 * 1024 * 1024

// similarityThreshold for category matching; overridable via Configure
var similarityThreshold float64

// uploadStore archives raw uploads when set
var uploadStore storage.Storage

// Configure wires handler-level settings from the loaded config.
func Configure(store storage.Storage, maxUploadMB int, threshold float64) {
	uploadStore = store
	if maxUploadMB > 0 {
		maxUploadBytes = int64(maxUploadMB) * 1024 * 1024
	}
	similarityThreshold = threshold
}

// importSession holds the live state of an in-flight import run. The
// approver is the resume handle for runs suspended on category approval;
// cancel aborts the run's context so a suspended orchestrator unblocks
// and releases its semaphore slot.
type importSession struct {
	runID     string
	filename  string
	orch      *importer.Orchestrator
	approver  *importer.ChannelApprover
	cancel    context.CancelFunc
	startedAt time.Time
}

var (
	sessionsMu sync.RWMutex
	sessions   = make(map[string]*importSession)
)

func getSession(runID string) *importSession {
	sessionsMu.RLock()
	defer sessionsMu.RUnlock()
	return sessions[runID]
}

func putSession(s *importSession) {
	sessionsMu.Lock()
	sessions[s.runID] = s
	sessionsMu.Unlock()
}

func dropSession(runID string) {
	sessionsMu.Lock()
	delete(sessions, runID)
	sessionsMu.Unlock()
}

// ExpireSessions cancels in-flight sessions older than maxAge and returns
// how many were cancelled. Called by the sweeper so runs abandoned on
// category approval do not hold their semaphore slots forever.
func ExpireSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	sessionsMu.RLock()
	var stale []*importSession
	for _, s := range sessions {
		if s.cancel != nil && s.startedAt.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	sessionsMu.RUnlock()

	for _, s := range stale {
		log.Info().Str("runId", s.runID).Msg("Cancelling expired import session")
		s.cancel()
	}
	return len(stale)
}

// UploadImportStartedResponse represents the 202 response when an import is accepted
type UploadImportStartedResponse struct {
	RunID   string `json:"runId"`
	Status  string `json:"status"`
	PollURL string `json:"pollUrl"`
	Message string `json:"message,omitempty"`
}

// UploadImport accepts an inventory file and starts an import run
// @Summary Upload inventory file
// @Description Accepts a CSV, XLSX or ZIP upload and starts an asynchronous import run. Poll the returned URL for progress; runs proposing new categories suspend until approval.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Inventory file (.csv, .xlsx or .zip)"
// @Success 202 {object} UploadImportStartedResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/imports [post]
func UploadImport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to open upload: %v", err)})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read upload: %v", err)})
		return
	}

	filename := fileHeader.Filename
	content, filename, err = resolveUpload(c.Request.Context(), content, filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	runStore := database.NewImportRunStore(database.Pool())

	runID, err := runStore.CreateRun(ctx, types.SourceAPI, filename, storage.ComputeChecksum(content))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to create import run: %v", err),
		})
		return
	}

	archiveUpload(ctx, runID, filename, content)

	approver := importer.NewChannelApprover()
	orch := importer.New(
		tokenizerFor(filename),
		database.NewCategoryStore(database.Pool()),
		&persistingApprover{runID: runID, runs: runStore, inner: approver},
		importer.Options{SimilarityThreshold: similarityThreshold},
	)

	runCtx, cancelRun := context.WithCancel(context.Background())
	putSession(&importSession{
		runID:     runID,
		filename:  filename,
		orch:      orch,
		approver:  approver,
		cancel:    cancelRun,
		startedAt: time.Now(),
	})

	go func() {
		// Acquire semaphore slot (blocks if max concurrent reached)
		importSem <- struct{}{}
		defer func() { <-importSem }()
		defer dropSession(runID)
		defer cancelRun()

		processImport(runCtx, runStore, runID, orch, content)
	}()

	c.JSON(http.StatusAccepted, UploadImportStartedResponse{
		RunID:   runID,
		Status:  "started",
		PollURL: fmt.Sprintf("/internal/imports/runs/%s", runID),
		Message: fmt.Sprintf("Import started for %s", filename),
	})
}

// resolveUpload unwraps ZIP archives down to the contained inventory file.
func resolveUpload(ctx context.Context, content []byte, filename string) ([]byte, string, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".zip" {
		return content, filename, nil
	}

	expanded, err := zip.ExpandInMemory(content, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to expand ZIP: %v", err)
	}
	if len(expanded) == 0 {
		return nil, "", fmt.Errorf("ZIP contains no CSV or XLSX files")
	}
	if len(expanded) > 1 {
		log.Warn().
			Str("filename", filename).
			Int("entries", len(expanded)).
			Msg("ZIP contains multiple files, importing the first")
	}
	return expanded[0].Content, expanded[0].InnerFilename, nil
}

// tokenizerFor selects the parser by file extension. Anything that is not
// XLSX goes through the CSV parser, which handles delimiter detection.
func tokenizerFor(filename string) importer.Tokenizer {
	if strings.ToLower(filepath.Ext(filename)) == ".xlsx" {
		return xlsxparser.NewParser(xlsxparser.DefaultOptions())
	}
	return csvparser.NewParser(csvparser.DefaultOptions())
}

// archiveUpload stores the raw upload for later inspection. Best effort:
// a storage failure never blocks the import.
func archiveUpload(ctx context.Context, runID, filename string, content []byte) {
	if uploadStore == nil {
		return
	}
	key := storage.BuildUploadKey(runID, time.Now(), filename)
	meta := &storage.Metadata{
		OriginalName: filename,
		RunID:        runID,
		Source:       string(types.SourceAPI),
		UploadedAt:   time.Now(),
	}
	if err := uploadStore.Put(ctx, key, content, meta); err != nil {
		log.Warn().Str("runId", runID).Err(err).Msg("Failed to archive upload")
	}
}

// processImport runs the orchestrator and records the outcome.
func processImport(ctx context.Context, runStore *database.ImportRunStore, runID string, orch *importer.Orchestrator, content []byte) {
	result, runErr := orch.Run(ctx, content)

	if runErr != nil {
		var created []types.CategoryRef
		if result != nil {
			created = result.CreatedCategories
		}
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			// The run context is dead; record the outcome on a fresh one.
			if err := runStore.MarkCancelled(context.Background(), runID, "import cancelled"); err != nil {
				log.Error().Str("runId", runID).Err(err).Msg("Failed to mark run cancelled")
			}
			return
		}
		if err := runStore.MarkFailed(ctx, runID, runErr.Error(), created); err != nil {
			log.Error().Str("runId", runID).Err(err).Msg("Failed to mark run failed")
		}
		return
	}

	products := database.NewProductStore(database.Pool())
	inserted, err := products.BulkInsert(ctx, result.ValidRecords)
	if err != nil {
		reason := fmt.Sprintf("persisted %d of %d products: %v", inserted, len(result.ValidRecords), err)
		if markErr := runStore.MarkFailed(ctx, runID, reason, result.CreatedCategories); markErr != nil {
			log.Error().Str("runId", runID).Err(markErr).Msg("Failed to mark run failed")
		}
		return
	}

	if err := runStore.MarkCompleted(ctx, runID, result); err != nil {
		log.Error().Str("runId", runID).Err(err).Msg("Failed to mark run completed")
	}

	log.Info().
		Str("runId", runID).
		Int("products", inserted).
		Int("errors", len(result.Errors)).
		Msg("Import run finished")
}

// persistingApprover mirrors the suspension into the run record before
// blocking on the wrapped approver, so polling clients see
// awaiting_category_approval while the orchestrator is parked.
type persistingApprover struct {
	runID string
	runs  *database.ImportRunStore
	inner *importer.ChannelApprover
}

func (a *persistingApprover) Decide(ctx context.Context, candidates []types.CategoryCandidate) (map[string]types.CandidateDecision, error) {
	if err := a.runs.UpdateState(ctx, a.runID, types.StateAwaitingCategoryApproval); err != nil {
		log.Warn().Str("runId", a.runID).Err(err).Msg("Failed to persist awaiting state")
	}
	return a.inner.Decide(ctx, candidates)
}

// GetImportRun returns the status of an import run
// @Summary Get import run
// @Description Returns one import run with its current status and counts
// @Tags imports
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} database.ImportRun
// @Failure 404 {object} map[string]string "Run not found"
// @Router /internal/imports/runs/{runId} [get]
func GetImportRun(c *gin.Context) {
	runID := c.Param("runId")

	runStore := database.NewImportRunStore(database.Pool())
	run, err := runStore.GetRun(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	// Live in-memory state is fresher than the persisted row
	if session := getSession(runID); session != nil {
		run.Status = string(session.orch.State())
	}

	c.JSON(http.StatusOK, run)
}

// ListImportRuns returns recent import runs
// @Summary List import runs
// @Description Returns recent import runs, newest first
// @Tags imports
// @Produce json
// @Param limit query int false "Number of items to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/imports/runs [get]
func ListImportRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runStore := database.NewImportRunStore(database.Pool())
	runs, err := runStore.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to lookup runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// ListPendingCandidates returns the categories awaiting approval for a run
// @Summary List pending category candidates
// @Description Returns the proposed categories a suspended run is waiting on
// @Tags imports
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "No suspended run"
// @Router /internal/imports/runs/{runId}/candidates [get]
func ListPendingCandidates(c *gin.Context) {
	runID := c.Param("runId")

	session := getSession(runID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active run with this id"})
		return
	}

	candidates := session.approver.Pending()
	c.JSON(http.StatusOK, gin.H{
		"runId":      runID,
		"state":      session.orch.State(),
		"candidates": candidates,
	})
}

// CandidateDecisionRequest is one approval decision in the request body
type CandidateDecisionRequest struct {
	NormalizedName string             `json:"normalizedName" binding:"required"`
	Action         types.DecisionKind `json:"action" binding:"required"`
	MapTo          *types.CategoryRef `json:"mapTo,omitempty"`
}

// ApproveRequest is the request body for resolving pending candidates
type ApproveRequest struct {
	Decisions []CandidateDecisionRequest `json:"decisions" binding:"required"`
}

// ApproveCategories resumes a suspended run with category decisions
// @Summary Approve category candidates
// @Description Delivers approval decisions for a run suspended on category approval, resuming the import
// @Tags imports
// @Accept json
// @Produce json
// @Param runId path string true "Run ID"
// @Param request body ApproveRequest true "Decisions per candidate"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "No suspended run"
// @Failure 409 {object} map[string]string "Decision already submitted"
// @Router /internal/imports/runs/{runId}/approve [post]
func ApproveCategories(c *gin.Context) {
	runID := c.Param("runId")

	session := getSession(runID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active run with this id"})
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decisions := make(map[string]types.CandidateDecision, len(req.Decisions))
	for _, d := range req.Decisions {
		switch d.Action {
		case types.DecisionApproveNew, types.DecisionMapTo, types.DecisionReject:
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("unknown action %q for %q", d.Action, d.NormalizedName),
			})
			return
		}
		if d.Action == types.DecisionMapTo && d.MapTo == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("map-to decision for %q requires mapTo", d.NormalizedName),
			})
			return
		}
		decisions[matching.NormalizeName(d.NormalizedName)] = types.CandidateDecision{
			Kind:  d.Action,
			MapTo: d.MapTo,
		}
	}

	if !session.approver.Submit(decisions) {
		c.JSON(http.StatusConflict, gin.H{"error": "decision already submitted for this run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runId":  runID,
		"status": "resumed",
	})
}

// CancelImport aborts an in-flight import run
// @Summary Cancel import run
// @Description Cancels an in-flight run. A run suspended on category approval unblocks and ends in the cancelled state; categories already created stay (creation is idempotent on retry).
// @Tags imports
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "No active run"
// @Router /internal/imports/runs/{runId}/cancel [post]
func CancelImport(c *gin.Context) {
	runID := c.Param("runId")

	session := getSession(runID)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active run with this id"})
		return
	}
	if session.cancel == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "run is not cancellable"})
		return
	}

	session.cancel()
	log.Info().Str("runId", runID).Msg("Import run cancelled by request")

	c.JSON(http.StatusOK, gin.H{
		"runId":  runID,
		"status": "cancelling",
	})
}
