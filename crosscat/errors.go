package crosscat

import "errors"

// Fatal conditions surfaced by the engine and sampler. Callers match them
// with errors.Is; every returned error wraps exactly one of these.
var (
	ErrSchemaMismatch           = errors.New("crosscat: schema mismatch")
	ErrEmptyDomain              = errors.New("crosscat: empty domain")
	ErrOutOfRangeHyperparameter = errors.New("crosscat: hyperparameter out of range")
	ErrBadAssignment            = errors.New("crosscat: bad assignment")
	ErrNumeric                  = errors.New("crosscat: numeric error")
)
