package server

import (
	"encoding/json"
	"net/http"

	"baraholka/internal/domain"
	"baraholka/internal/service"
)

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	identity, err := IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	var in RegisterUserJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	if in.TelegramID != "" && in.TelegramID != identity.TelegramID() {
		writeError(w, domain.ErrForbidden.WithMessage("Cannot register another identity"))
		return
	}

	user, created, err := h.userSrv.Register(r.Context(), &service.RegisterUserDTO{
		TelegramID:  identity.TelegramID(),
		Nickname:    in.Nickname,
		CountryCode: in.CountryCode,
		City:        in.City,
		RadiusKM:    in.RadiusKM,
		Language:    in.Language,
		TgHandle:    in.TgHandle,
		Phone:       in.Phone,
		Email:       in.Email,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	status := 200
	if created {
		status = 201
	}
	writeJSON(w, status, user)
}

func (h *Handler) handleCheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := r.PathValue("nickname")
	if nickname == "" {
		handleError(w, domain.ErrInvalidRequest)
		return
	}

	available, err := h.userSrv.CheckNickname(r.Context(), nickname)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 200, &NicknameAvailable{Available: available})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSrv.List(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 200, &UsersResponse{Users: users})
}

func (h *Handler) handleBanUser(w http.ResponseWriter, r *http.Request) {
	var in BanUserJSON
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			handleError(w, domain.ErrInvalidRequest)
			return
		}
	}

	if err := h.userSrv.Ban(r.Context(), r.PathValue("id"), in.Reason); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}

func (h *Handler) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userSrv.Unban(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(200)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	result, err := h.userSrv.Purge(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, 200, result)
}
