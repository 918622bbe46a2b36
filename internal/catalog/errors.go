package catalog

import "errors"

var (
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrUnknownEmailType = errors.New("unknown email type")
	ErrNotBroadcast     = errors.New("email type is not a broadcast type")
)
