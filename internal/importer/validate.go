package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pharmstock/inventory-service/internal/types"
)

// Validator enforces required-field and range constraints per record.
// All violations for a row are collected into one aggregated error message
// so the user sees every problem at once.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator using the wall clock.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt creates a validator with a fixed clock for tests.
func NewValidatorAt(now time.Time) *Validator {
	return &Validator{now: func() time.Time { return now }}
}

// Validate partitions records into valid and rejected. Every record lands in
// exactly one bucket: zero violations -> valid, otherwise one aggregated
// error string. Expired stock produces a warning, not a rejection, since
// pharmacies import historical stock for record-keeping.
func (v *Validator) Validate(records []types.ImportRecord) (valid []types.ImportRecord, errs []string, warnings []types.ImportWarning) {
	valid = make([]types.ImportRecord, 0, len(records))
	errs = make([]string, 0)
	warnings = make([]types.ImportWarning, 0)

	for _, rec := range records {
		issues := v.checkRecord(rec)
		if len(issues) > 0 {
			errs = append(errs, formatRowError(rec, issues))
			continue
		}

		if rec.ExpiryDate != nil && rec.ExpiryDate.Before(v.now()) {
			warnings = append(warnings, types.ImportWarning{
				RowNumber: rec.RowNumber,
				Field:     "expiry_date",
				Message: fmt.Sprintf("%s expired on %s",
					rec.DisplayName(), rec.ExpiryDate.Format("2006-01-02")),
			})
		}

		valid = append(valid, rec)
	}

	return valid, errs, warnings
}

// checkRecord returns every constraint violation for one record.
// Defaults applied by the normalizer already satisfy the constraints; the
// checks against Raw catch explicit user input the normalizer deliberately
// did not clamp.
func (v *Validator) checkRecord(rec types.ImportRecord) []string {
	var issues []string

	if rec.GenericName == "" {
		issues = append(issues, "generic_name is required")
	}

	if raw, ok := rec.Raw["price_per_piece"]; ok {
		if parsed, err := parseDecimal(raw); err != nil {
			issues = append(issues, fmt.Sprintf("price_per_piece must be a number, got %q", raw))
		} else if parsed <= 0 {
			issues = append(issues, fmt.Sprintf("price_per_piece must be greater than 0, got %s", raw))
		}
	}

	if raw, ok := rec.Raw["cost_price"]; ok {
		if parsed, err := parseDecimal(raw); err == nil && parsed < 0 {
			issues = append(issues, fmt.Sprintf("cost_price must not be negative, got %s", raw))
		}
	}

	if issue := checkRawInt(rec.Raw, "stock_in_pieces", 0); issue != "" {
		issues = append(issues, issue)
	}
	for _, field := range []string{"pieces_per_sheet", "sheets_per_box", "reorder_level"} {
		if issue := checkRawInt(rec.Raw, field, 1); issue != "" {
			issues = append(issues, issue)
		}
	}

	return issues
}

// checkRawInt validates an explicitly supplied integer field against its
// minimum. Absent fields pass; the normalizer's default covers them.
func checkRawInt(raw map[string]string, field string, min int) string {
	val, ok := raw[field]
	if !ok {
		return ""
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fmt.Sprintf("%s must be an integer, got %q", field, val)
	}
	if parsed < min {
		if min == 0 {
			return fmt.Sprintf("%s must not be negative, got %s", field, val)
		}
		return fmt.Sprintf("%s must be at least %d, got %s", field, min, val)
	}
	return ""
}

// formatRowError renders "Row {n} ({name}): {issue}; {issue}".
func formatRowError(rec types.ImportRecord, issues []string) string {
	return fmt.Sprintf("Row %d (%s): %s", rec.RowNumber, rec.DisplayName(), strings.Join(issues, "; "))
}
