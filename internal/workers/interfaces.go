// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// starting and stopping multiple workers in a unified way.
package workers

import (
	"context"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
)

// Worker is the interface that must be implemented by any background worker.
//
// Start launches the worker in the background and returns immediately; the
// worker runs until ctx is cancelled or Stop is called. Stop blocks until
// the worker has fully exited and is safe to call on a worker that is not
// running.
//
// Example implementation:
//
//	type MyWorker struct{ cancel context.CancelFunc }
//
//	func (w *MyWorker) Start(ctx context.Context) {
//	    ctx, w.cancel = context.WithCancel(ctx)
//	    go process(ctx)
//	}
//
//	func (w *MyWorker) Stop() { w.cancel() }
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// Reloadable is a collection that can be refreshed from the server.
type Reloadable interface {
	Name() string
	EnsureLoaded(ctx context.Context, force bool) (*cache.Collection, error)
}
