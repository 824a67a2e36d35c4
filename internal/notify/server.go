// Package notify implements the external notifier of §2's flow diagram:
// a websocket listener the execution service connects to and pushes
// completion events over, each of which triggers a C6 delivery-card
// render and send.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Completion is a generation-finished push from the execution service.
type Completion struct {
	GenerationID string `json:"generationId"`
	Status       string `json:"status"`
}

// Handler is invoked for every completion notification received.
type Handler func(ctx context.Context, c Completion)

// Server accepts websocket connections from the execution service and
// dispatches each decoded Completion to Handler.
type Server struct {
	addr    string
	path    string
	handler Handler
	log     *slog.Logger

	upgrader websocket.Upgrader
	srv      *http.Server
}

// NewServer builds a notify Server listening on addr at path.
func NewServer(addr, path string, handler Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:    addr,
		path:    path,
		handler: handler,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The execution service is a trusted internal collaborator on
			// the same deployment, not a browser client, so origin checks
			// would only add friction without a same-origin caller to
			// defend against.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handleWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Run starts the HTTP listener and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("notify: listening", "addr", s.addr, "path", s.path)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("notify: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("notify: connection closed unexpectedly", "err", err)
			}
			return
		}

		var c Completion
		if err := json.Unmarshal(data, &c); err != nil {
			s.log.Warn("notify: malformed completion payload", "err", err)
			continue
		}
		if s.handler != nil {
			s.handler(r.Context(), c)
		}
	}
}
