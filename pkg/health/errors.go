package health

import "errors"

// ErrCheckTimeout wraps a check error when the shared check deadline expired.
var ErrCheckTimeout = errors.New("health: check timeout")
