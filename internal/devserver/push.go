package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/transport"
	"github.com/MKhiriev/go-sync-cache/models"
	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// broadcaster fans push frames out to every connected websocket client.
type broadcaster struct {
	log       *logger.Logger
	readLimit int64

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
	closed  bool
}

// newBroadcaster returns a broadcaster accepting client frames of up to
// readLimit bytes; zero keeps transport.DefaultReadLimit and -1 disables it.
func newBroadcaster(log *logger.Logger, readLimit int64) *broadcaster {
	if readLimit == 0 {
		readLimit = transport.DefaultReadLimit
	}
	return &broadcaster{log: log, readLimit: readLimit, clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// broadcast sends {key: value} as the data of a frame named event.
func (b *broadcaster) broadcast(event, key string, value any) {
	env, err := models.Wrap(key, value)
	if err != nil {
		b.log.Err(err).Str("event", event).Msg("failed to wrap push payload")
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		b.log.Err(err).Str("event", event).Msg("failed to marshal push payload")
		return
	}
	b.send(models.Frame{Event: event, Data: data})
}

func (b *broadcaster) send(frame models.Frame) {
	msg, err := json.Marshal(frame)
	if err != nil {
		b.log.Err(err).Str("event", frame.Event).Msg("failed to marshal frame")
		return
	}

	b.mu.Lock()
	type client struct {
		conn *websocket.Conn
		mu   *sync.Mutex
	}
	clients := make([]client, 0, len(b.clients))
	for conn, mu := range b.clients {
		clients = append(clients, client{conn, mu})
	}
	b.mu.Unlock()

	// written outside the lock
	for _, c := range clients {
		if err := b.write(c.conn, c.mu, msg); err != nil {
			b.log.Err(err).Msg("failed to push frame, dropping client")
			b.remove(c.conn)
		}
	}
}

func (b *broadcaster) write(conn *websocket.Conn, mu *sync.Mutex, msg []byte) error {
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// serveWS upgrades the request and keeps the client registered until it
// disconnects. Client frames requesting an acknowledgement are answered;
// their content is otherwise ignored.
func (b *broadcaster) serveWS(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Err(err).Msg("websocket upgrade failed")
		return
	}

	conn.SetReadLimit(b.readLimit)

	mu := &sync.Mutex{}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	b.clients[conn] = mu
	total := len(b.clients)
	b.mu.Unlock()
	log.Info().Int("clients", total).Msg("push client connected")

	defer b.remove(conn)

	// the request context ends when the handler returns, so reads use a
	// context of their own
	ctx := context.WithoutCancel(r.Context())
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Msg("malformed client frame")
			continue
		}
		log.Debug().Str("event", frame.Event).Msg("client frame received")
		if frame.AckID == "" || frame.Event == models.AckEvent {
			continue
		}

		ack, err := json.Marshal(models.Frame{Event: models.AckEvent, AckID: frame.AckID, Data: frame.Data})
		if err != nil {
			continue
		}
		if err := b.write(conn, mu, ack); err != nil {
			return
		}
	}
}

func (b *broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	_, ok := b.clients[conn]
	delete(b.clients, conn)
	total := len(b.clients)
	b.mu.Unlock()

	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		b.log.Info().Int("clients", total).Msg("push client disconnected")
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// close disconnects every client.
func (b *broadcaster) close() {
	b.mu.Lock()
	b.closed = true
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.clients = make(map[*websocket.Conn]*sync.Mutex)
	b.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
