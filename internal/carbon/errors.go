package carbon

import "errors"

// ErrInvalidParameter is returned when a caller supplies an out-of-range
// input (negative duration, non-positive lifetime, negative embodied mass,
// PUE below 1.0, and so on). Invalid inputs always fail fast; they are never
// clamped to zero or defaulted silently.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrPostconditionViolated indicates a model bug: the power cap was exceeded
// or the total did not equal operational + embodied within tolerance. These
// checks always execute; they are correctness guards, not debug aids. A
// caller seeing this error should treat it as fatal.
var ErrPostconditionViolated = errors.New("postcondition violated")
