package reconcile

import "errors"

// ErrNilEntity is returned when a deserializer yields no entity.
var ErrNilEntity = errors.New("deserializer returned nil entity")
