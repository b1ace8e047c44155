package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pharmstock/inventory-service/internal/matching"
	"github.com/pharmstock/inventory-service/internal/types"
	"github.com/rs/zerolog/log"
)

// Tokenizer turns raw file content into header-keyed rows.
// internal/parsers/csv and internal/parsers/xlsx both satisfy this.
type Tokenizer interface {
	Parse(content []byte) (*types.TokenizeResult, error)
}

// CategoryStore is the external category collaborator. CreateCategories
// must be idempotent: creating a name that already exists returns the
// existing ref rather than erroring, so a retry after a partial failure
// never duplicates categories.
type CategoryStore interface {
	List(ctx context.Context) ([]types.CategoryRef, error)
	CreateCategories(ctx context.Context, names []string) (map[string]types.CategoryRef, error)
}

// Approver supplies the human decision for proposed categories. Decide
// blocks until a decision arrives or the context is cancelled; the
// orchestrator imposes no timeout of its own.
type Approver interface {
	Decide(ctx context.Context, candidates []types.CategoryCandidate) (map[string]types.CandidateDecision, error)
}

// DependencyError reports a category-store failure during the Mapping
// phase. Created lists the categories committed before the failure so a
// retry can skip re-approval for them.
type DependencyError struct {
	Created []types.CategoryRef
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("category store failure after creating %d categories: %v", len(e.Created), e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Options configures one import run.
type Options struct {
	// SimilarityThreshold for fuzzy category binding; zero selects the
	// matcher default (0.70).
	SimilarityThreshold float64
	// Now overrides the clock for generated batch numbers and expiry
	// warnings. Nil uses time.Now.
	Now func() time.Time
}

// Orchestrator drives one import batch through the state machine
// Parsing -> Validating -> AwaitingCategoryApproval -> Mapping -> Complete.
// AwaitingCategoryApproval is skipped when no candidates need approval.
// Instantiate fresh per import; an Orchestrator is not reusable.
type Orchestrator struct {
	tokenizer  Tokenizer
	categories CategoryStore
	approver   Approver
	matcher    *matching.Matcher
	normalizer *Normalizer
	validator  *Validator

	mu    sync.Mutex
	state types.RunState
}

// New creates an orchestrator for a single import run.
func New(tokenizer Tokenizer, categories CategoryStore, approver Approver, opts Options) *Orchestrator {
	normalizer := NewNormalizer()
	validator := NewValidator()
	if opts.Now != nil {
		normalizer = NewNormalizerAt(opts.Now())
		validator = NewValidatorAt(opts.Now())
	}

	return &Orchestrator{
		tokenizer:  tokenizer,
		categories: categories,
		approver:   approver,
		matcher:    matching.NewMatcher(opts.SimilarityThreshold),
		normalizer: normalizer,
		validator:  validator,
		state:      types.StateParsing,
	}
}

// State returns the current state machine position. Safe for concurrent
// reads while Run is in flight.
func (o *Orchestrator) State() types.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s types.RunState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run executes the import. Row-scoped problems degrade gracefully into the
// result's error list; only parse failure, cancellation, or a category
// store failure abort the batch. On DependencyError the returned result
// carries the partial category-creation report.
func (o *Orchestrator) Run(ctx context.Context, content []byte) (*types.ImportBatchResult, error) {
	start := time.Now()

	// Parsing
	o.setState(types.StateParsing)
	tok, err := o.tokenizer.Parse(content)
	if err != nil {
		o.setState(types.StateFailed)
		return nil, fmt.Errorf("parse failure: %w", err)
	}

	// Validating
	o.setState(types.StateValidating)
	records := o.normalizer.NormalizeAll(tok.Rows)
	valid, rowErrors, warnings := o.validator.Validate(records)

	result := &types.ImportBatchResult{
		ValidRecords:  valid,
		Errors:        rowErrors,
		Warnings:      warnings,
		TotalRows:     len(tok.Rows) + tok.SkippedRows,
		ValidRowCount: len(valid),
	}
	observeValidation(len(valid), len(rowErrors), len(warnings))

	if err := ctx.Err(); err != nil {
		o.setState(types.StateCancelled)
		return result, err
	}

	existing, err := o.categories.List(ctx)
	if err != nil {
		o.setState(types.StateFailed)
		return result, &DependencyError{Err: fmt.Errorf("list categories: %w", err)}
	}

	matched, candidates := o.matcher.Reconcile(valid, existing)
	result.NewCategories = candidates
	observeCandidates(len(candidates))

	// AwaitingCategoryApproval, skipped entirely when nothing needs approval
	decisions := map[string]types.CandidateDecision{}
	if len(candidates) > 0 {
		o.setState(types.StateAwaitingCategoryApproval)
		decisions, err = o.approver.Decide(ctx, candidates)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				o.setState(types.StateCancelled)
			} else {
				o.setState(types.StateFailed)
			}
			return result, fmt.Errorf("category approval: %w", err)
		}
	}

	// Mapping
	o.setState(types.StateMapping)
	if err := o.mapCategories(ctx, result, matched, candidates, decisions); err != nil {
		o.setState(types.StateFailed)
		return result, err
	}

	o.setState(types.StateComplete)
	observeRunDuration(time.Since(start))
	log.Info().
		Int("totalRows", result.TotalRows).
		Int("valid", result.ValidRowCount).
		Int("errors", len(result.Errors)).
		Int("newCategories", len(result.NewCategories)).
		Msg("Import batch complete")
	return result, nil
}

// mapCategories creates approved categories, then resolves every surviving
// record's category to an id. Records whose candidate was rejected are
// retroactively converted to row errors.
func (o *Orchestrator) mapCategories(
	ctx context.Context,
	result *types.ImportBatchResult,
	matched map[int]types.CategoryRef,
	candidates []types.CategoryCandidate,
	decisions map[string]types.CandidateDecision,
) error {
	resolved := make(map[string]types.CategoryRef) // candidate key -> ref
	rejected := make(map[string]bool)

	var toCreate []string
	for _, cand := range candidates {
		key := matching.NormalizeName(cand.NormalizedName)
		decision, ok := decisions[key]
		if !ok {
			// No decision means no approval
			rejected[key] = true
			continue
		}
		switch decision.Kind {
		case types.DecisionApproveNew:
			toCreate = append(toCreate, cand.NormalizedName)
		case types.DecisionMapTo:
			if decision.MapTo == nil {
				rejected[key] = true
				continue
			}
			resolved[key] = *decision.MapTo
		default:
			rejected[key] = true
		}
	}

	// Create one at a time so a mid-batch store failure leaves an exact
	// partial-creation report for idempotent retry.
	created := make([]types.CategoryRef, 0, len(toCreate))
	for _, name := range toCreate {
		refs, err := o.categories.CreateCategories(ctx, []string{name})
		if err != nil {
			result.CreatedCategories = created
			return &DependencyError{Created: created, Err: err}
		}
		ref, ok := refs[name]
		if !ok {
			result.CreatedCategories = created
			return &DependencyError{Created: created, Err: fmt.Errorf("store returned no ref for category %q", name)}
		}
		created = append(created, ref)
		resolved[matching.NormalizeName(name)] = ref
	}
	result.CreatedCategories = created

	// Resolve every record; drop the ones whose category was rejected
	final := make([]types.ImportRecord, 0, len(result.ValidRecords))
	for i, rec := range result.ValidRecords {
		if ref, ok := matched[i]; ok {
			rec.CategoryID = types.StringPtr(ref.ID)
			rec.CategoryName = ref.Name
			final = append(final, rec)
			continue
		}

		key := matching.NormalizeName(matching.CanonicalName(rec.CategoryName))
		if rejected[key] {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Row %d (%s): category %q not approved", rec.RowNumber, rec.DisplayName(), rec.CategoryName))
			continue
		}
		ref, ok := resolved[key]
		if !ok {
			// Should not happen: every candidate is either resolved or rejected
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Row %d (%s): category %q could not be resolved", rec.RowNumber, rec.DisplayName(), rec.CategoryName))
			continue
		}
		rec.CategoryID = types.StringPtr(ref.ID)
		rec.CategoryName = ref.Name
		final = append(final, rec)
	}

	result.ValidRecords = final
	result.ValidRowCount = len(final)
	return nil
}

// DecisionKey is the key under which a candidate's decision is expected in
// the Approver's decision map.
func DecisionKey(cand types.CategoryCandidate) string {
	return matching.NormalizeName(cand.NormalizedName)
}

// AutoApprover approves every proposed category as new. Used by the CLI's
// --auto-approve flag and by tests.
type AutoApprover struct{}

// Decide implements Approver.
func (AutoApprover) Decide(_ context.Context, candidates []types.CategoryCandidate) (map[string]types.CandidateDecision, error) {
	decisions := make(map[string]types.CandidateDecision, len(candidates))
	for _, cand := range candidates {
		decisions[matching.NormalizeName(cand.NormalizedName)] = types.CandidateDecision{Kind: types.DecisionApproveNew}
	}
	return decisions, nil
}

// ChannelApprover suspends the run until a decision map arrives on its
// channel. The HTTP layer holds the send side; POST .../approve resumes the
// orchestrator. Candidates are exposed for the pending-approval endpoint.
type ChannelApprover struct {
	mu         sync.Mutex
	candidates []types.CategoryCandidate
	decisionCh chan map[string]types.CandidateDecision
}

// NewChannelApprover creates an approver with a one-shot decision channel.
func NewChannelApprover() *ChannelApprover {
	return &ChannelApprover{
		decisionCh: make(chan map[string]types.CandidateDecision, 1),
	}
}

// Decide implements Approver: it records the pending candidates and blocks
// until Submit is called or the context is cancelled.
func (a *ChannelApprover) Decide(ctx context.Context, candidates []types.CategoryCandidate) (map[string]types.CandidateDecision, error) {
	a.mu.Lock()
	a.candidates = candidates
	a.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case decisions := <-a.decisionCh:
		return decisions, nil
	}
}

// Pending returns the candidates currently awaiting a decision.
func (a *ChannelApprover) Pending() []types.CategoryCandidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.candidates
}

// Submit delivers the decision map, unblocking Decide. Returns false if a
// decision was already submitted.
func (a *ChannelApprover) Submit(decisions map[string]types.CandidateDecision) bool {
	select {
	case a.decisionCh <- decisions:
		return true
	default:
		return false
	}
}
