package progression

import "errors"

// ErrInvalidAward is returned when a negative point amount is supplied to an
// award operation. The state is left untouched.
var ErrInvalidAward = errors.New("invalid award amount")

// ErrNotInitialized is returned when any operation other than Initialize is
// invoked for a user with no progression state. Callers are expected to
// initialize lazily and retry.
var ErrNotInitialized = errors.New("progression not initialized")

// ErrUnknownCategory is returned when a claim names a bonus-pool category
// outside the fixed enumeration.
var ErrUnknownCategory = errors.New("unknown bonus pool category")

// ErrMalformedDefinition is returned at catalogue-load time for an achievement
// definition with no requirements or a requirement against an unknown
// statistic. Bad authoring data fails fast rather than silently never
// unlocking.
var ErrMalformedDefinition = errors.New("malformed achievement definition")
