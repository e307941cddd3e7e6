// Package server owns the WebSocket transport: it upgrades connections,
// pumps frames in and out, and hands every inbound frame to the dispatcher.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/clatterlab/clatter/internal/broadcast"
	"github.com/clatterlab/clatter/internal/cache"
	"github.com/clatterlab/clatter/internal/common/cnst"
	"github.com/clatterlab/clatter/internal/common/config"
	"github.com/clatterlab/clatter/internal/dispatch"
	"github.com/clatterlab/clatter/internal/i18n"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/protocol"
	"github.com/clatterlab/clatter/pkg/metrics"
)

// Server accepts WebSocket connections and routes their frames. It is the
// process's connection table: the broadcast engine resolves senders through
// it and the chat handlers close evicted connections through it.
type Server struct {
	logger     *zap.Logger
	cfg        *config.ServerConfig
	registry   *presence.Registry
	dispatcher *dispatch.Dispatcher
	mirror     cache.Mirror
	translator *i18n.Translator
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*conn

	httpSrv *http.Server
}

var (
	_ broadcast.ConnResolver = (*Server)(nil)
)

// NewServer creates the transport. RegisterDispatcher must be called before
// Run because handler registration needs the server as its connection
// closer.
func NewServer(
	logger *zap.Logger,
	cfg *config.ServerConfig,
	registry *presence.Registry,
	mirror cache.Mirror,
	translator *i18n.Translator,
	m *metrics.Metrics,
) *Server {
	return &Server{
		logger:     logger.Named("server"),
		cfg:        cfg,
		registry:   registry,
		mirror:     mirror,
		translator: translator,
		metrics:    m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers are not the target client; any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*conn),
	}
}

// RegisterDispatcher attaches the dispatcher that receives inbound frames.
func (s *Server) RegisterDispatcher(d *dispatch.Dispatcher) {
	s.dispatcher = d
}

// Sender resolves a live connection for the broadcast engine.
func (s *Server) Sender(connID string) (broadcast.Sender, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[connID]
	return c, ok
}

// CloseConn terminates a connection; its read pump then runs the usual
// cleanup path.
func (s *Server) CloseConn(connID string) {
	s.mu.RLock()
	c, ok := s.conns[connID]
	s.mu.RUnlock()
	if ok {
		c.close()
	}
}

// router builds the HTTP surface: health, optional metrics, and the
// WebSocket endpoint.
func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(s.loggerMiddleware())
	router.Use(s.recoveryMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	router.GET("/ws", s.handleWS)
	return router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.mu.RLock()
	for _, c := range s.conns {
		c.close()
	}
	s.mu.RUnlock()
	return nil
}

// handleWS upgrades the request and runs the connection's read loop.
func (s *Server) handleWS(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("upgrade failed",
			zap.String("remote_addr", c.Request.RemoteAddr),
			zap.Error(err))
		return
	}

	connID := uuid.NewString()
	conn := newConn(connID, ws, s.cfg.SendQueueSize)

	s.mu.Lock()
	s.conns[connID] = conn
	s.mu.Unlock()

	s.registry.Create(connID)
	s.metrics.ConnOpened()
	s.logger.Info("connection opened",
		zap.String("conn_id", connID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	go conn.writePump(s.cfg.PingInterval, s.cfg.WriteWait)
	s.greet(conn)
	s.readLoop(c.Request.Context(), conn)
}

// greet sends the handshake event a freshly connected client waits for.
func (s *Server) greet(c *conn) {
	data, err := protocol.Encode(cnst.EventConnected.String(), s.translator.T("msg.connected", nil))
	if err != nil {
		s.logger.Error("failed to encode greeting", zap.Error(err))
		return
	}
	if err := c.Send(data); err != nil {
		s.logger.Debug("greeting not delivered", zap.String("conn_id", c.id), zap.Error(err))
	}
}

// readLoop feeds inbound frames to the dispatcher until the connection
// drops, then runs cleanup.
func (s *Server) readLoop(ctx context.Context, c *conn) {
	defer s.dropConn(c)

	c.ws.SetReadLimit(s.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("connection dropped",
					zap.String("conn_id", c.id),
					zap.Error(err))
			}
			return
		}
		s.dispatcher.Dispatch(ctx, c.id, raw)
	}
}

// dropConn tears a connection down: socket, connection table, session
// registry, and presence mirror, in that order.
func (s *Server) dropConn(c *conn) {
	c.close()

	s.mu.Lock()
	_, present := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()
	if !present {
		return
	}

	if sess, err := s.registry.Get(c.id); err == nil && sess.Authenticated() {
		if err := s.mirror.RemoveUser(context.Background(), sess.AccountID); err != nil {
			s.logger.Warn("presence mirror removal failed",
				zap.Int64("account_id", sess.AccountID),
				zap.Error(err))
		}
	}
	s.registry.Remove(c.id)
	s.metrics.ConnClosed()
	s.logger.Info("connection closed", zap.String("conn_id", c.id))
}
