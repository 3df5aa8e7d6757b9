package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"baraholka/internal/domain"
	"baraholka/internal/service"
)

func (h *Handler) handleListUserChats(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	userID := r.PathValue("user_id")
	if userID != identity.TelegramID() {
		writeError(w, domain.ErrForbidden.WithMessage("Cannot list chats of another user"))
		return
	}

	chats, err := h.chatSrv.ListForUser(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 200, &ChatsResponse{Chats: chats})
}

func (h *Handler) handleFindOrCreateChat(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	var in FindOrCreateChatJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	me := identity.TelegramID()
	if in.BuyerID != me && in.SellerID != me {
		writeError(w, domain.ErrForbidden.WithMessage("Caller is not part of this chat"))
		return
	}

	dto := &service.FindOrCreateChatDTO{
		BuyerID:        in.BuyerID,
		SellerID:       in.SellerID,
		ListingID:      in.ListingID,
		BuyerNickname:  in.BuyerNickname,
		SellerNickname: in.SellerNickname,
	}

	if user, err := UserFromContext(r.Context()); err == nil {
		if in.BuyerID == me {
			dto.BuyerLanguage = user.Language
		} else {
			dto.SellerLanguage = user.Language
		}
	}

	chat, created, err := h.chatSrv.FindOrCreate(r.Context(), dto)
	if err != nil {
		handleError(w, err)
		return
	}

	status := 200
	if created {
		status = 201
	}
	writeJSON(w, status, chat)
}

func (h *Handler) handleGetChat(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	chatID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	chat, err := h.chatSrv.Get(r.Context(), chatID)
	if err != nil {
		handleError(w, err)
		return
	}

	if !chat.HasParticipant(identity.TelegramID()) {
		writeError(w, domain.ErrNotParticipant)
		return
	}

	writeJSON(w, 200, chat)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	chatID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	var in SendMessageJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	if in.Text == "" {
		handleError(w, domain.ErrInvalidRequest.WithMessage("Message text is required"))
		return
	}

	if in.SenderID != "" && in.SenderID != identity.TelegramID() {
		writeError(w, domain.ErrForbidden.WithMessage("Cannot send as another user"))
		return
	}

	chat, err := h.chatSrv.SendMessage(r.Context(), chatID, identity.TelegramID(), in.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 201, chat)
}

func (h *Handler) handleShareContacts(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	chatID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	var in ShareContactsJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	if in.UserID != "" && in.UserID != identity.TelegramID() {
		writeError(w, domain.ErrForbidden.WithMessage("Cannot share contacts as another user"))
		return
	}

	if err := h.chatSrv.ShareContacts(r.Context(), chatID, identity.TelegramID(), in.Contacts); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}
