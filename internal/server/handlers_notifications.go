package server

import (
	"net/http"
	"strconv"

	"baraholka/internal/domain"
	"baraholka/internal/service"
)

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.ownNotificationScope(w, r)
	if err != nil {
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("skip"))

	page, err := h.notifSrv.List(r.Context(), &service.ListNotificationsDTO{
		OwnerID:    ownerID,
		UnreadOnly: query.Get("unreadOnly") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 200, page)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	if err := h.notifSrv.MarkRead(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}

func (h *Handler) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.ownNotificationScope(w, r)
	if err != nil {
		return
	}

	if err := h.notifSrv.MarkAllRead(r.Context(), ownerID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}

func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	if err := h.notifSrv.Delete(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}

func (h *Handler) handleClearReadNotifications(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.ownNotificationScope(w, r)
	if err != nil {
		return
	}

	if err := h.notifSrv.ClearRead(r.Context(), ownerID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}

// ownNotificationScope checks that the path user matches the verified
// identity and writes the error response itself when it does not.
func (h *Handler) ownNotificationScope(w http.ResponseWriter, r *http.Request) (string, error) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return "", err
	}

	ownerID := r.PathValue("user_id")
	if ownerID != identity.TelegramID() {
		appErr := domain.ErrForbidden.WithMessage("Cannot access notifications of another user")
		writeError(w, appErr)
		return "", appErr
	}
	return ownerID, nil
}
