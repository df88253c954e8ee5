package walker

import "errors"

// ErrFailureBudget is returned when the traversal aborts because too
// many consecutive chapters failed.
var ErrFailureBudget = errors.New("walker: consecutive failure budget exhausted")
