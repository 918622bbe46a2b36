package sendlog

import "errors"

var (
	ErrNotFound     = errors.New("sendlog: no matching email log")
	ErrPairMismatch = errors.New("sendlog: entries and provider ids differ in length")
	ErrQuery        = errors.New("sendlog: query failed")
	ErrWrite        = errors.New("sendlog: write failed")
)
