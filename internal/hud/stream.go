// File: internal/hud/stream.go
package hud

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sablewood/arbor/internal/motor"
)

// streamClient is one connected HUD viewer.
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Stream broadcasts tap events to connected websocket clients so an
// external visualizer can render activity live. It implements
// motor.TapSink; slow clients are disconnected rather than allowed to back
// up the broadcast.
type Stream struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
}

// NewStream creates a broadcaster with no clients.
func NewStream(log *zap.Logger) *Stream {
	return &Stream{
		log: log.Named("hud"),
		upgrader: websocket.Upgrader{
			// The HUD binds to loopback; origin checks add nothing there.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// OnTap implements motor.TapSink. Encodes once, fans out non-blocking.
func (s *Stream) OnTap(ev motor.TapEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("failed to encode tap for stream", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			// Client cannot keep up; drop it.
			delete(s.clients, c)
			close(c.send)
		}
	}
}

// HandleWS upgrades an HTTP request into a tap feed subscription.
func (s *Stream) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, 64)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// Serve runs the HUD HTTP server until the context is cancelled.
func (s *Stream) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/taps", s.HandleWS)

	srv := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("hud stream listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.closeClients()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Stream) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
}

func (s *Stream) writePump(c *streamClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
}

func (s *Stream) readPump(c *streamClient) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[c]; ok {
			delete(s.clients, c)
			close(c.send)
		}
		s.mu.Unlock()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debug("hud client read error", zap.Error(err))
			}
			return
		}
	}
}
