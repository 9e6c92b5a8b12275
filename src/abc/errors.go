package abc

import "errors"

// Structural failures propagate to the caller as one of these sentinels.
// Bad data in a single row is never one of them: cell-level parse failures
// normalize to zero and are removed by the filter instead of aborting the
// whole dataset.
var (
	// ErrEmptyInput means the input table has zero rows.
	ErrEmptyInput = errors.New("input table has no rows")

	// ErrNoPositiveAmounts means every normalized amount was zero or
	// negative, e.g. all cells were unparseable.
	ErrNoPositiveAmounts = errors.New("no valid monetary values found")

	// ErrMissingField means the monetary column is absent from the input
	// schema. It is detected at the ingestion boundary but belongs to the
	// engine's error taxonomy.
	ErrMissingField = errors.New("required monetary column is missing")

	// ErrDegenerateTotal means the grand total was zero at the
	// percentage-computation stage. Unreachable once the positive-amount
	// filter has run.
	ErrDegenerateTotal = errors.New("grand total of amounts is zero")
)
