package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"baraholka/internal/auth"
	"baraholka/internal/domain"
	"baraholka/internal/service"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	userKey     contextKey = "user"
)

const tmaPrefix = "tma "

// Guard composes the authorization checks handlers declare per route:
// RequireIdentity verifies the assertion, RequireAdmin checks the
// configured admin set, RequireNotBanned loads the registered user.
type Guard struct {
	verifier *auth.Verifier
	users    service.UserRepoIn
	admins   map[string]struct{}
}

func NewGuard(verifier *auth.Verifier, users service.UserRepoIn, adminIDs []string) *Guard {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[strings.TrimSpace(id)] = struct{}{}
	}

	return &Guard{
		verifier: verifier,
		users:    users,
		admins:   admins,
	}
}

func (g *Guard) RequireIdentity(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.identify(r)
		if err != nil {
			handleError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) RequireAdmin(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			writeError(w, domain.ErrUnauthorized)
			return
		}

		if _, ok := g.admins[identity.TelegramID()]; !ok {
			writeError(w, domain.ErrAdminRequired)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (g *Guard) RequireNotBanned(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			writeError(w, domain.ErrUnauthorized)
			return
		}

		user, err := g.users.GetByTelegramID(r.Context(), identity.TelegramID())
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, domain.ErrNotFound.WithMessage("User is not registered"))
			return
		}
		if err != nil {
			handleError(w, err)
			return
		}

		if user.Banned {
			msg := "Account is banned"
			if user.BannedAt != nil {
				msg = fmt.Sprintf("Account is banned since %s", user.BannedAt.Format("2006-01-02"))
			}
			if user.BanReason != nil && *user.BanReason != "" {
				msg += ": " + *user.BanReason
			}
			writeError(w, domain.ErrBanned.WithMessage(msg))
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identify resolves the request's identity assertion: the Authorization
// header with a "tma" scheme or the X-Telegram-Init-Data header carry signed
// initData; the X-Telegram-User header is the legacy pre-parsed fallback the
// verifier only accepts outside strict mode.
func (g *Guard) identify(r *http.Request) (*domain.TelegramUser, error) {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, tmaPrefix) {
		return g.verifier.Verify(authHeader[len(tmaPrefix):])
	}

	if initData := r.Header.Get("X-Telegram-Init-Data"); initData != "" {
		return g.verifier.Verify(initData)
	}

	if rawUser := r.Header.Get("X-Telegram-User"); rawUser != "" {
		return g.verifier.VerifyHeader(rawUser)
	}

	return nil, domain.ErrUnauthorized.WithMessage("Unauthorized: missing credentials")
}

func IdentityFromContext(ctx context.Context) (*domain.TelegramUser, error) {
	identity, ok := ctx.Value(identityKey).(*domain.TelegramUser)
	if !ok {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

func UserFromContext(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(userKey).(*domain.User)
	if !ok {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}
