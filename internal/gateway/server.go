// Package gateway serves the admin HTTP/WebSocket control surface:
// invite commands, status, and live coordination events.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/concordchat/concord/internal/config"
	"github.com/concordchat/concord/internal/invite"
	"github.com/concordchat/concord/internal/logging"
	"github.com/concordchat/concord/internal/version"
)

// ErrClientClosed is returned when writing to a closed client connection.
var ErrClientClosed = errors.New("client connection closed")

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{Code: code, Message: message})
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// Server is the Concord admin gateway.
type Server struct {
	provider *config.Provider
	invites  *invite.Manager
	auth     ResolvedAuth
	log      *logging.Logger
	handlers map[string]RequestHandler
	eventSeq atomic.Int64

	mu      sync.RWMutex
	clients map[string]*Client

	startedAt   time.Time
	httpServer  *http.Server
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// NewServer creates the admin gateway.
func NewServer(provider *config.Provider, invites *invite.Manager, log *logging.Logger) *Server {
	s := &Server{
		provider:    provider,
		invites:     invites,
		auth:        ResolveAuth(provider.Current().Gateway.Auth),
		log:         log.Sub("gateway"),
		clients:     make(map[string]*Client),
		startedAt:   time.Now(),
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	s.handlers = map[string]RequestHandler{
		"status":         handleStatus,
		"config.reload":  handleConfigReload,
		"invites.list":   handleInvitesList,
		"invites.add":    handleInvitesAdd,
		"invites.remove": handleInvitesRemove,
	}
	return s
}

// Methods returns the RPC method names advertised in the hello payload.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	return names
}

// Start begins serving on the configured bind address. Blocks until the
// listener fails or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.provider.Current()
	addr := fmt.Sprintf("%s:%d", cfg.Gateway.Bind, cfg.Gateway.Port)

	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	s.log.Info().Str("addr", addr).Msg("gateway listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop shuts the server down, closing all client connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	for _, c := range s.clients {
		c.Close()
	}
	s.clients = make(map[string]*Client)
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
}

// HealthResponse is returned by the public health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// handleWS upgrades the connection and runs the connect handshake before
// entering the request loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		http.Error(w, "too many failed auth attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(uuid.New().String(), conn, s.log)
	if !s.handshake(client, r.RemoteAddr) {
		client.Close()
		return
	}

	s.mu.Lock()
	s.clients[client.ID] = client
	s.mu.Unlock()
	s.log.Info().Str("connId", client.ID).Msg("client connected")

	defer func() {
		s.mu.Lock()
		delete(s.clients, client.ID)
		s.mu.Unlock()
		client.Close()
		s.log.Info().Str("connId", client.ID).Msg("client disconnected")
	}()

	for {
		frame, err := client.Read()
		if err != nil {
			return
		}
		if frame.Type != FrameTypeRequest {
			continue
		}
		s.dispatch(client, frame)
	}
}

// handshake requires the first frame to be a "connect" request carrying
// valid credentials.
func (s *Server) handshake(client *Client, remoteAddr string) bool {
	frame, err := client.Read()
	if err != nil {
		return false
	}
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		client.RespondError(frame.ID, ErrorShape{Code: "bad_handshake", Message: "first frame must be a connect request"})
		return false
	}

	var params ConnectParams
	if frame.Params != nil {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			client.RespondError(frame.ID, ErrorShape{Code: "bad_params", Message: "malformed connect params"})
			return false
		}
	}

	result := Authorize(s.auth, params.Auth)
	if !result.OK {
		s.authLimiter.recordFailure(remoteAddr)
		client.RespondError(frame.ID, ErrorShape{Code: "unauthorized", Message: result.Reason})
		return false
	}

	err = client.Respond(frame.ID, HelloOK{
		Protocol: ProtocolVersion,
		Server:   ServerInfo{Version: version.Version, ConnID: client.ID},
		Methods:  s.Methods(),
		Events:   []string{"invite.added", "invite.removed", "sweep.report"},
	})
	return err == nil
}

func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{Code: "unknown_method", Message: "unknown method: " + frame.Method})
		return
	}
	handler(&RequestContext{Client: client, Frame: frame, Server: s})
}

// Broadcast sends an event frame to every connected client.
func (s *Server) Broadcast(event string, payload any) {
	frame, err := NewEvent(event, payload, s.eventSeq.Add(1))
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("failed to build event frame")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if err := c.Send(frame); err != nil {
			s.log.Warn().Err(err).Str("connId", c.ID).Msg("failed to send event")
		}
	}
}

// authRateLimiter tracks failed auth attempts per IP to slow brute force.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
)

func newAuthRateLimiter() *authRateLimiter {
	return &authRateLimiter{failures: make(map[string][]time.Time)}
}

func (l *authRateLimiter) host(remoteAddr string) string {
	host, _, _ := net.SplitHostPort(remoteAddr)
	if host == "" {
		return remoteAddr
	}
	return host
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := l.host(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	recent := l.prune(host)
	return len(recent) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := l.host(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[host] = append(l.prune(host), time.Now())
}

// prune drops failures outside the window. Callers hold the mutex.
func (l *authRateLimiter) prune(host string) []time.Time {
	cutoff := time.Now().Add(-authRateWindow)
	recent := l.failures[host]
	filtered := recent[:0]
	for _, t := range recent {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		delete(l.failures, host)
		return nil
	}
	l.failures[host] = filtered
	return filtered
}
