package registry

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-sync-cache/internal/endpoint"
)

var (
	ErrDuplicateCollection = fmt.Errorf("%w: collection already registered", endpoint.ErrConfiguration)
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrClosed              = errors.New("registry closed")
)
