package hub

import "errors"

var (
	ErrTransportNotConfigured = errors.New("push transport not configured")
	ErrAlreadyConfigured      = errors.New("push transport already configured")
	ErrPendingQueueFull       = errors.New("pending subscription queue full")
	ErrNilTransport           = errors.New("nil push transport")
)
