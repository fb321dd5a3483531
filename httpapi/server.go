// Package httpapi exposes the REST surface of the chat backend: account
// registration and login, user search, chat management, message persistence,
// plus the websocket upgrade endpoint and a health probe.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"chat-server/auth"
	"chat-server/observability"
	"chat-server/services"
)

type Server struct {
	log            *slog.Logger
	issuer         *auth.TokenIssuer
	authService    services.IAuthService
	userService    services.IUserService
	chatService    services.IChatService
	messageService services.IMessageService
	socketHandler  http.Handler
	monitor        *observability.Monitor
}

func NewServer(log *slog.Logger, issuer *auth.TokenIssuer,
	authService services.IAuthService, userService services.IUserService,
	chatService services.IChatService, messageService services.IMessageService,
	socketHandler http.Handler, monitor *observability.Monitor) *Server {
	return &Server{
		log:            log,
		issuer:         issuer,
		authService:    authService,
		userService:    userService,
		chatService:    chatService,
		messageService: messageService,
		socketHandler:  socketHandler,
		monitor:        monitor,
	}
}

// Routes builds the full mux. Register and login are public; everything
// else requires a Bearer token.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/user", s.handleRegister)
	mux.HandleFunc("POST /api/user/login", s.handleLogin)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/user", s.handleSearchUsers)
	protected.HandleFunc("POST /api/chat", s.handleAccessChat)
	protected.HandleFunc("GET /api/chat", s.handleFetchChats)
	protected.HandleFunc("POST /api/chat/group", s.handleCreateGroup)
	protected.HandleFunc("PUT /api/chat/rename", s.handleRenameGroup)
	protected.HandleFunc("PUT /api/chat/groupadd", s.handleAddToGroup)
	protected.HandleFunc("PUT /api/chat/groupremove", s.handleRemoveFromGroup)
	protected.HandleFunc("POST /api/message", s.handleSendMessage)
	protected.HandleFunc("GET /api/message/{chatID}", s.handleListMessages)

	// Subtree fallback: any /api/ route not matched by a public pattern
	// above goes through token validation into the protected mux.
	mux.Handle("/api/", auth.Middleware(s.issuer, protected))
	// Browser websocket clients cannot set headers on the upgrade request;
	// the middleware's query-parameter fallback covers them.
	mux.Handle("GET /ws", auth.Middleware(s.issuer, s.socketHandler))

	return mux
}

// NewHTTPServer wraps the routes in an http.Server with sane timeouts. The
// websocket endpoint needs long-lived connections, so there is no global
// write timeout; handlers and pumps enforce their own deadlines.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Snapshot())
}
