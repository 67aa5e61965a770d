package signal

import (
	"net/http"
	"strings"

	"parley/internal/core/services"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server authenticates transport upgrades and hands accepted connections to
// the hub. A request without a verifiable identity is refused with 401 before
// the upgrade; the hub never sees anonymous connections.
type Server struct {
	hub      *Hub
	auth     services.AuthService
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

// SessionCookie is the cookie carrying the session JWT, set by the auth
// handlers at signin/signup.
const SessionCookie = "session"

func NewServer(hub *Hub, auth services.AuthService, allowedOrigins []string, logger *zap.SugaredLogger) *Server {
	return &Server{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket upgrades an authenticated request and runs its read pump.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.identify(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(claims.UserID, claims.Email, conn, s.hub.sendBuffer)
	go c.writePump()
	s.hub.events <- event{kind: eventRegister, c: c}
	c.readPump(s.hub)
}

// identify extracts and verifies the session token from the cookie or, for
// non-browser clients, the Authorization header.
func (s *Server) identify(r *http.Request) (*services.Claims, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return s.auth.ValidateToken(cookie.Value)
	}
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return s.auth.ValidateToken(parts[1])
		}
	}
	return nil, services.ErrInvalidToken
}
