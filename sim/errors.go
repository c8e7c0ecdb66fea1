package sim

import "errors"

// Error conditions returned by the engine. All three are fatal to the run that
// produced them; callers match them with errors.Is and start a new run.
var (
	// ErrInvalidConfiguration reports bad inputs detected before or while building a run:
	// non-positive counts, non-positive bandwidth, unknown policy names, distances <= 0.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidState reports API misuse, such as stepping a completed run.
	ErrInvalidState = errors.New("invalid state")

	// ErrNumericDegeneracy reports a non-finite SNR, weight, or latency.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)
