// Package server streams PCM frames in and feature vectors out over
// WebSocket. Each connection owns its own frontend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/gorilla/websocket"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/budget"
	"github.com/cwbudde/guardian-dsp/internal/pcm"
)

// Routes served by Handler.
const (
	StreamPath = "/v1/stream"
	HealthPath = "/healthz"
)

// Message types sent to clients.
const (
	TypeVector = "vector"
	TypeError  = "error"
	TypeReset  = "reset"
)

// ResetCommand is the text message that restarts a stream.
const ResetCommand = "reset"

// Message is the JSON envelope of every server-to-client message.
type Message struct {
	Type    string           `json:"type"`
	Vector  *frontend.Vector `json:"vector,omitempty"`
	Overrun bool             `json:"overrun,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// FrontendFactory builds the pipeline of a new connection.
type FrontendFactory func() (*frontend.Frontend, error)

// Server is the stream server.
type Server struct {
	factory        FrontendFactory
	supervisor     *budget.Supervisor
	metrics        statsd.ClientInterface
	logger         logging.Logger
	allowedOrigins []string
	readTimeout    time.Duration
	writeTimeout   time.Duration
	shutdown       time.Duration

	upgrader websocket.Upgrader
	active   atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithSupervisor times every frame against s.
func WithSupervisor(s *budget.Supervisor) Option {
	return func(srv *Server) {
		if s != nil {
			srv.supervisor = s
		}
	}
}

// WithMetrics sets the statsd client for connection metrics.
func WithMetrics(c statsd.ClientInterface) Option {
	return func(srv *Server) {
		if c != nil {
			srv.metrics = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// WithAllowedOrigins restricts WebSocket upgrades to the given Origin
// values. An empty list accepts any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(srv *Server) { srv.allowedOrigins = origins }
}

// WithTimeouts sets the idle read timeout, the per-message write timeout
// and the graceful shutdown timeout. Zero keeps the default.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(srv *Server) {
		if read > 0 {
			srv.readTimeout = read
		}

		if write > 0 {
			srv.writeTimeout = write
		}

		if shutdown > 0 {
			srv.shutdown = shutdown
		}
	}
}

// New returns a server that builds one frontend per connection with
// factory.
func New(factory FrontendFactory, opts ...Option) *Server {
	s := &Server{
		factory:      factory,
		metrics:      &statsd.NoOpClient{},
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		shutdown:     5 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.logger == nil {
		s.logger = logging.NewDefaultLogger()
	}

	if s.supervisor == nil {
		s.supervisor = budget.New(budget.WithLogger(s.logger), budget.WithMetrics(s.metrics))
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  pcm.FrameBytes,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}

	return slices.Contains(s.allowedOrigins, r.Header.Get("Origin"))
}

// Active returns the number of open streams.
func (s *Server) Active() int64 {
	return s.active.Load()
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(StreamPath, s.serveStream)
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	return mux
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Stream server listening", logging.Fields{
			"addr":   addr,
			"stream": StreamPath,
		})

		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down stream server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}

	return nil
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	fe, err := s.factory()
	if err != nil {
		s.logger.Error(err, "Failed to create frontend")
		http.Error(w, "frontend unavailable", http.StatusInternalServerError)

		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(err, "Failed to upgrade connection")
		return
	}
	defer conn.Close()

	n := s.active.Add(1)
	defer s.active.Add(-1)

	_ = s.metrics.Gauge("stream.active", float64(n), nil, 1)
	_ = s.metrics.Incr("stream.connections", nil, 1)

	logger := s.logger.WithFields(logging.Fields{
		"remote": r.RemoteAddr,
	})
	logger.Debug("Stream opened")

	st := &stream{srv: s, conn: conn, fe: fe, logger: logger}
	if err := st.run(r.Context()); err != nil {
		logger.Error(err, "Stream closed with error")
		return
	}

	logger.Debug("Stream closed", logging.Fields{"frames": fe.Frames()})
}

type stream struct {
	srv    *Server
	conn   *websocket.Conn
	fe     *frontend.Frontend
	logger logging.Logger
	frame  resonator.Frame
}

func (st *stream) run(ctx context.Context) error {
	timeout := st.srv.readTimeout

	_ = st.conn.SetReadDeadline(time.Now().Add(timeout))
	st.conn.SetPongHandler(func(string) error {
		return st.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		if ctx.Err() != nil {
			return nil
		}

		kind, payload, err := st.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			return fmt.Errorf("server: read: %w", err)
		}

		_ = st.conn.SetReadDeadline(time.Now().Add(timeout))

		var msg Message

		switch kind {
		case websocket.BinaryMessage:
			msg = st.handleFrame(payload)
		case websocket.TextMessage:
			msg = st.handleCommand(string(payload))
		default:
			continue
		}

		if err := st.write(msg); err != nil {
			return err
		}
	}
}

func (st *stream) handleFrame(payload []byte) Message {
	if err := pcm.DecodeFrame(&st.frame, payload); err != nil {
		_ = st.srv.metrics.Incr("stream.errors", []string{"kind:payload"}, 1)
		return Message{Type: TypeError, Error: err.Error()}
	}

	vec, verdict, err := st.srv.supervisor.Run(st.fe, st.frame[:])
	if err != nil {
		_ = st.srv.metrics.Incr("stream.errors", []string{"kind:frame"}, 1)
		return Message{Type: TypeError, Error: err.Error()}
	}

	return Message{Type: TypeVector, Vector: &vec, Overrun: !verdict.OK()}
}

func (st *stream) handleCommand(cmd string) Message {
	if cmd != ResetCommand {
		return Message{Type: TypeError, Error: fmt.Sprintf("unknown command %q", cmd)}
	}

	st.fe.Reset()
	st.logger.Debug("Stream reset")

	return Message{Type: TypeReset}
}

func (st *stream) write(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("server: encode: %w", err)
	}

	_ = st.conn.SetWriteDeadline(time.Now().Add(st.srv.writeTimeout))

	if err := st.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("server: write: %w", err)
	}

	return nil
}
