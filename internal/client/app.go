package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-sync-cache/internal/adapter"
	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/endpoint"
	"github.com/MKhiriev/go-sync-cache/internal/events"
	"github.com/MKhiriev/go-sync-cache/internal/hub"
	"github.com/MKhiriev/go-sync-cache/internal/loader"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/registry"
	"github.com/MKhiriev/go-sync-cache/internal/transport"
	"github.com/MKhiriev/go-sync-cache/internal/workers"
	"golang.org/x/sync/errgroup"
)

// ErrPushChannelClosed is returned by Run when the push socket drops.
var ErrPushChannelClosed = errors.New("push channel closed")

// Backoff of the initial load. A failed fetch leaves the collection not
// loaded; waiting again after the delay starts a new fetch.
var (
	loadRetryMin = 500 * time.Millisecond
	loadRetryMax = 30 * time.Second
)

type App struct {
	cfg *config.ClientConfig

	hub      *hub.Hub
	bus      *events.Bus
	registry *registry.Registry

	logger *logger.Logger
}

var _ Client = (*App)(nil)

// NewApp builds the client from cfg. Nothing is dialled or loaded until Run.
func NewApp(cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	rest, err := adapter.NewHTTPAdapter(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create rest adapter: %w", err)
	}

	pushHub := hub.New(cfg.Transport.MaxPending, log)
	bus := events.NewBus()
	reg := registry.New(endpoint.Deps{REST: rest, Hub: pushHub, Events: bus, Logger: log})
	if err = reg.RegisterCollections(cfg.Collections, cfg.Sync.EagerUpdate); err != nil {
		return nil, fmt.Errorf("register collections: %w", err)
	}

	return &App{
		cfg:      cfg,
		hub:      pushHub,
		bus:      bus,
		registry: reg,
		logger:   log,
	}, nil
}

// Registry returns the endpoints of the configured collections.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Events returns the lifecycle event bus.
func (a *App) Events() *events.Bus {
	return a.bus
}

// Run subscribes every collection, connects the push channel, loads all
// collections and keeps them in sync until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.registry.Close()

	unsubscribe := a.bus.SubscribeAll(a.logEvent)
	defer unsubscribe()

	for _, name := range a.registry.Names() {
		if _, err := a.registry.Get(name); err != nil {
			return fmt.Errorf("create endpoint %s: %w", name, err)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, a.cfg.Transport.DialTimeout)
	socket, err := transport.Dial(dialCtx, a.cfg.Transport.PushAddress, a.logger,
		transport.WithReadLimit(a.cfg.Transport.MaxMessageBytes))
	cancel()
	if err != nil {
		return fmt.Errorf("connect push channel: %w", err)
	}
	defer socket.Close()

	if err = a.hub.Configure(socket); err != nil {
		return fmt.Errorf("configure push hub: %w", err)
	}

	if err = a.loadAll(ctx, socket); err != nil {
		select {
		case <-socket.Done():
			return pushClosed(socket)
		default:
		}
		if ctx.Err() != nil {
			a.logger.Info().Msg("client stopped before the initial load")
			return nil
		}
		return err
	}

	var ws []workers.Worker
	if a.cfg.Sync.ReloadInterval > 0 {
		ws = append(ws, workers.NewReloadJob(a.reloadables, a.cfg.Sync.ReloadInterval, a.logger))
	}
	background := workers.NewWorkers(ws...)
	background.Start(ctx)
	defer background.Stop()

	a.logger.Info().Strs("collections", a.registry.Names()).Msg("client in sync")

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("client stopped")
		return nil
	case <-socket.Done():
		return pushClosed(socket)
	}
}

func pushClosed(socket *transport.Socket) error {
	if err := socket.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPushChannelClosed, err)
	}
	return ErrPushChannelClosed
}

// loadAll loads every collection concurrently. It gives up when ctx ends or
// the push socket drops.
func (a *App) loadAll(ctx context.Context, socket *transport.Socket) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-socket.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range a.registry.Built() {
		g.Go(func() error {
			c, err := a.load(gctx, ep)
			if err != nil {
				return fmt.Errorf("load %s: %w", ep.Name(), err)
			}
			a.logger.Info().Str(logger.CollectionField, ep.Name()).Int("entities", c.Len()).Msg("collection loaded")
			return nil
		})
	}
	return g.Wait()
}

// load waits for the first load of ep, waiting again with a growing delay.
// A fetch still in flight is not restarted by a retry.
func (a *App) load(ctx context.Context, ep *endpoint.Endpoint) (*cache.Collection, error) {
	delay := loadRetryMin
	for {
		attemptCtx, cancel := context.WithTimeout(ctx, delay)
		c, err := ep.EnsureLoaded(attemptCtx, false)
		cancel()
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		if ep.State() == loader.NotLoaded {
			a.logger.Warn().Str(logger.CollectionField, ep.Name()).Dur("waited", delay).Msg("collection not loaded, fetching again")
		}
		delay = min(delay*2, loadRetryMax)
	}
}

func (a *App) reloadables() []workers.Reloadable {
	built := a.registry.Built()
	out := make([]workers.Reloadable, 0, len(built))
	for _, ep := range built {
		out = append(out, ep)
	}
	return out
}

func (a *App) logEvent(e events.Event) {
	if e.Kind == events.Error {
		a.logger.Err(e.Err).Str(logger.CollectionField, e.Endpoint).Msg("sync error")
		return
	}

	ev := a.logger.Debug().Str(logger.CollectionField, e.Endpoint).Str("event", string(e.Kind))
	if e.Entity != nil {
		ev = ev.Str("id", e.Entity.Key())
	}
	ev.Send()
}
