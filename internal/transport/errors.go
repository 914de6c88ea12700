package transport

import "errors"

var (
	ErrClosed       = errors.New("transport closed")
	ErrInvalidFrame = errors.New("invalid frame")
)
