package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"baraholka/internal/auth"
	"baraholka/internal/domain"
	"baraholka/internal/service"
	"github.com/gorilla/websocket"
)

type Handler struct {
	userSrv  service.UserServiceIn
	chatSrv  service.ChatServiceIn
	notifSrv service.NotificationServiceIn
	relaySrv service.RelayServiceIn

	ticketSecret string
	ticketTTL    time.Duration
	strictAuth   bool

	upgrader *websocket.Upgrader
}

func NewHandler(
	userSrv service.UserServiceIn,
	chatSrv service.ChatServiceIn,
	notifSrv service.NotificationServiceIn,
	relaySrv service.RelayServiceIn,
	ticketSecret string,
	ticketTTL time.Duration,
	strictAuth bool,
) *Handler {
	return &Handler{
		userSrv:      userSrv,
		chatSrv:      chatSrv,
		notifSrv:     notifSrv,
		relaySrv:     relaySrv,
		ticketSecret: ticketSecret,
		ticketTTL:    ticketTTL,
		strictAuth:   strictAuth,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferPool: &sync.Pool{},
		},
	}
}

// handleWSTicket exchanges a verified identity assertion for a short-lived
// connect ticket, so the websocket handshake never carries raw initData.
func (h *Handler) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	ticket, err := auth.IssueTicket(identity.TelegramID(), h.ticketSecret, h.ticketTTL)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 200, &TicketResponse{Ticket: ticket})
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	telegramID, err := h.wsIdentity(r)
	if err != nil {
		handleError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handleError(w, err)
		return
	}

	client := service.NewClient(telegramID, conn, service.GetHub())

	h.relaySrv.HandleConn(r.Context(), client)
}

func (h *Handler) wsIdentity(r *http.Request) (string, error) {
	if ticket := r.URL.Query().Get("ticket"); ticket != "" {
		claims, err := auth.ValidateTicket(ticket, h.ticketSecret)
		if err != nil {
			return "", err
		}
		return claims.TelegramID, nil
	}

	// legacy handshake, identity taken on faith
	if userID := r.URL.Query().Get("user_id"); userID != "" && !h.strictAuth {
		slog.Warn("Accepting websocket connection without ticket", "user_id", userID)
		return userID, nil
	}

	return "", domain.ErrUnauthorized.WithMessage("Unauthorized: missing ticket")
}
