package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"baraholka/internal/auth"
	"baraholka/internal/config"
	"baraholka/internal/repository"
	"baraholka/internal/repository/cache"
	"baraholka/internal/repository/database"
	"baraholka/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Option func(*Server)

func WithMigrateDown(m func() error) Option {
	return func(s *Server) {
		s.migrateDown = m
	}
}

type Server struct {
	router      *http.ServeMux
	migrateDown func() error
}

func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		router: http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	userRepo := repository.NewUserRepo(database.Client())
	listingRepo := repository.NewListingRepo(database.Client())
	chatRepo := repository.NewChatRepo(database.Client())
	notificationRepo := repository.NewNotificationRepo(database.Client())
	relayRepo := repository.NewRelayRepo(cache.Client())

	userSrv := service.NewUserService(userRepo, listingRepo, chatRepo, notificationRepo)
	chatSrv := service.NewChatService(chatRepo, listingRepo, notificationRepo, relayRepo)
	notifSrv := service.NewNotificationService(notificationRepo)
	relaySrv := service.NewRelayService(relayRepo)

	verifier := auth.NewVerifier(cfg.Telegram.BotToken, cfg.Auth.Strict)
	guard := NewGuard(verifier, userRepo, cfg.Auth.AdminIDs)

	h := NewHandler(
		userSrv, chatSrv, notifSrv, relaySrv,
		cfg.Auth.TicketSecret,
		time.Duration(cfg.Auth.TicketExpMin)*time.Minute,
		cfg.Auth.Strict,
	)
	s.setupRoutes(h, guard)

	return s
}

func (s *Server) setupRoutes(h *Handler, guard *Guard) {
	identified := func(hf http.HandlerFunc) http.Handler {
		return guard.RequireIdentity(hf)
	}
	member := func(hf http.HandlerFunc) http.Handler {
		return guard.RequireIdentity(guard.RequireNotBanned(hf))
	}
	admin := func(hf http.HandlerFunc) http.Handler {
		return guard.RequireIdentity(guard.RequireAdmin(hf))
	}

	s.router.HandleFunc("GET /ws", h.handleWS)
	s.router.Handle("POST /auth/ws-ticket", identified(h.handleWSTicket))

	s.router.Handle("POST /users/register", identified(h.handleRegister))
	s.router.HandleFunc("GET /users/check-nickname/{nickname}", h.handleCheckNickname)
	s.router.Handle("GET /users", admin(h.handleListUsers))
	s.router.Handle("POST /users/{id}/ban", admin(h.handleBanUser))
	s.router.Handle("POST /users/{id}/unban", admin(h.handleUnbanUser))
	s.router.Handle("DELETE /users/{id}", admin(h.handleDeleteUser))

	s.router.Handle("GET /chats/user/{user_id}", member(h.handleListUserChats))
	s.router.Handle("POST /chats/find-or-create", member(h.handleFindOrCreateChat))
	s.router.Handle("GET /chats/{id}", member(h.handleGetChat))
	s.router.Handle("POST /chats/{id}/messages", member(h.handleSendMessage))
	s.router.Handle("POST /chats/{id}/share-contacts", member(h.handleShareContacts))

	s.router.Handle("GET /notifications/{user_id}", identified(h.handleListNotifications))
	s.router.Handle("PATCH /notifications/{id}/read", identified(h.handleMarkNotificationRead))
	s.router.Handle("PATCH /notifications/user/{user_id}/read-all", identified(h.handleMarkAllNotificationsRead))
	s.router.Handle("DELETE /notifications/{id}", identified(h.handleDeleteNotification))
	s.router.Handle("DELETE /notifications/user/{user_id}/clear-read", identified(h.handleClearReadNotifications))

	s.router.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Run(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			return
		}
	}()
	slog.Info("Server is running", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit

	ctx, shutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdown()

	if s.migrateDown != nil {
		if err := s.migrateDown(); err != nil {
			slog.Warn("Failed to migrate down", "error", err)
		}
		slog.Info("Migrations down")
	}

	slog.Info("Server exited")
	return server.Shutdown(ctx)
}
