package usage

import "errors"

var (
	ErrNoWindow = errors.New("frequency has no report window")
	ErrQuery    = errors.New("usage: query failed")
)
