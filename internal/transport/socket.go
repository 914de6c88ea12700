package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/models"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// DefaultReadLimit is the largest frame a socket accepts unless configured
// otherwise. Full collection pushes are sent as one frame.
const DefaultReadLimit int64 = 16 << 20

// Option configures a [Socket].
type Option func(*Socket)

// WithReadLimit sets the largest accepted frame in bytes. -1 disables the
// limit and zero keeps [DefaultReadLimit].
func WithReadLimit(n int64) Option {
	return func(s *Socket) {
		if n != 0 {
			s.readLimit = n
		}
	}
}

type listener struct {
	id uint64
	h  Handler
}

// Socket is a [Transport] over a single websocket connection. Frames are JSON
// text messages; handlers run on the socket's read goroutine in arrival
// order.
type Socket struct {
	conn      *websocket.Conn
	log       *logger.Logger
	readLimit int64

	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]listener
	acks      map[string]AckFunc

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to the push endpoint at url and starts reading.
func Dial(ctx context.Context, url string, log *logger.Logger, opts ...Option) (*Socket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewSocket(conn, log, opts...), nil
}

// NewSocket wraps an established connection and starts reading from it.
func NewSocket(conn *websocket.Conn, log *logger.Logger, opts ...Option) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Socket{
		conn:      conn,
		log:       log,
		readLimit: DefaultReadLimit,
		listeners: make(map[string][]listener),
		acks:      make(map[string]AckFunc),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	conn.SetReadLimit(s.readLimit)

	go s.readLoop()
	return s
}

// On implements [Transport].
func (s *Socket) On(event string, h Handler) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners[event] = append(s.listeners[event], listener{id: id, h: h})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		ls := s.listeners[event]
		for i, l := range ls {
			if l.id == id {
				s.listeners[event] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(s.listeners[event]) == 0 {
			delete(s.listeners, event)
		}
	}
}

// Emit implements [Transport].
func (s *Socket) Emit(ctx context.Context, event string, payload any, ack AckFunc) error {
	if event == "" || event == models.AckEvent {
		return fmt.Errorf("%w: event name %q", ErrInvalidFrame, event)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame := models.Frame{Event: event, Data: data}

	if ack != nil {
		frame.AckID = uuid.NewString()
		s.mu.Lock()
		s.acks[frame.AckID] = ack
		s.mu.Unlock()
	}

	if err = s.write(ctx, frame); err != nil {
		if ack != nil {
			s.mu.Lock()
			delete(s.acks, frame.AckID)
			s.mu.Unlock()
		}
		return err
	}
	return nil
}

// Done is closed when the read loop stops.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the read loop, or nil while it runs or
// after a regular Close.
func (s *Socket) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close closes the connection and waits for the read loop to stop. It is
// safe to call more than once.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(websocket.StatusNormalClosure, ""); err != nil && !isClosed(err) {
			s.log.Debug().Err(err).Msg("push socket close handshake failed")
		}
		s.cancel()
		<-s.done
	})
	return nil
}

func (s *Socket) write(ctx context.Context, frame models.Frame) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if err = s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write %s frame: %w", frame.Event, err)
	}
	return nil
}

func (s *Socket) readLoop() {
	defer close(s.done)

	for {
		typ, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil && !isClosed(err) {
				s.err = err
				s.log.Err(err).Msg("push socket read failed")
			}
			return
		}
		if typ != websocket.MessageText {
			s.log.Warn().Msg("ignoring non-text push frame")
			continue
		}

		var frame models.Frame
		if err = json.Unmarshal(data, &frame); err != nil {
			s.log.Err(err).Msg("malformed push frame")
			continue
		}
		s.dispatch(frame)
	}
}

func (s *Socket) dispatch(frame models.Frame) {
	if frame.Event == models.AckEvent {
		s.mu.Lock()
		ack, ok := s.acks[frame.AckID]
		delete(s.acks, frame.AckID)
		s.mu.Unlock()

		if !ok {
			s.log.Warn().Str("ack_id", frame.AckID).Msg("ack for unknown event")
			return
		}
		ack(frame.Data)
		return
	}

	s.mu.Lock()
	ls := make([]listener, len(s.listeners[frame.Event]))
	copy(ls, s.listeners[frame.Event])
	s.mu.Unlock()

	if len(ls) == 0 {
		s.log.Debug().Str("event", frame.Event).Msg("no listener for push event")
		return
	}
	for _, l := range ls {
		l.h(frame.Data)
	}
}

func isClosed(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
