package preferences

import "errors"

var (
	ErrQuery = errors.New("preferences: query failed")
	ErrWrite = errors.New("preferences: write failed")
)
