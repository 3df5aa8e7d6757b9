package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"baraholka/internal/domain"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

const pgUniqueViolation = "23505"

type UserService struct {
	userRepo         UserRepoIn
	listingRepo      ListingRepoIn
	chatRepo         ChatRepoIn
	notificationRepo NotificationRepoIn
}

func NewUserService(userRepo UserRepoIn, listingRepo ListingRepoIn, chatRepo ChatRepoIn, notificationRepo NotificationRepoIn) UserServiceIn {
	return &UserService{
		userRepo:         userRepo,
		listingRepo:      listingRepo,
		chatRepo:         chatRepo,
		notificationRepo: notificationRepo,
	}
}

// Register creates a user or re-syncs an existing one in place. Returns the
// persisted user and whether it was newly created. A nickname held by a
// different identity is rejected; re-registering the same identity with its
// own nickname is always fine.
func (us *UserService) Register(ctx context.Context, in *RegisterUserDTO) (*domain.User, bool, error) {
	if l := len([]rune(in.Nickname)); l < 3 || l > 20 {
		return nil, false, domain.ErrInvalidRequest.WithMessage("Nickname must be 3-20 characters")
	}
	if in.RadiusKM < 0 {
		return nil, false, domain.ErrInvalidRequest.WithMessage("Radius must be non-negative")
	}

	existing, err := us.userRepo.GetByTelegramID(ctx, in.TelegramID)

	switch {
	case err == nil:
		if existing.Nickname != in.Nickname {
			if taken, err := us.nicknameTakenByOther(ctx, in.Nickname, in.TelegramID); err != nil {
				return nil, false, err
			} else if taken {
				return nil, false, domain.ErrNicknameTaken
			}
		}

		updated, err := us.userRepo.Update(ctx, us.toUser(in))
		if err != nil {
			return nil, false, mapNicknameConflict(err)
		}
		return updated, false, nil

	case errors.Is(err, sql.ErrNoRows):
		if taken, err := us.nicknameTakenByOther(ctx, in.Nickname, in.TelegramID); err != nil {
			return nil, false, err
		} else if taken {
			return nil, false, domain.ErrNicknameTaken
		}

		created, err := us.userRepo.Create(ctx, us.toUser(in))
		if err != nil {
			return nil, false, mapNicknameConflict(err)
		}
		return created, true, nil

	default:
		return nil, false, err
	}
}

func (us *UserService) CheckNickname(ctx context.Context, nickname string) (bool, error) {
	_, err := us.userRepo.NicknameOwner(ctx, nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (us *UserService) GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error) {
	user, err := us.userRepo.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return user, err
}

func (us *UserService) List(ctx context.Context) ([]domain.User, error) {
	return us.userRepo.List(ctx)
}

func (us *UserService) Ban(ctx context.Context, ref string, reason *string) error {
	return us.setBanned(ctx, ref, true, reason)
}

func (us *UserService) Unban(ctx context.Context, ref string) error {
	return us.setBanned(ctx, ref, false, nil)
}

func (us *UserService) setBanned(ctx context.Context, ref string, banned bool, reason *string) error {
	user, err := us.userRepo.FindByAnyRef(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	return us.userRepo.SetBanned(ctx, user.TelegramID, banned, reason)
}

// Purge deletes the user and everything referencing that identity. The steps
// are independent deletes with no transaction across them; failures are
// collected so a partial cascade is still reported with counts.
func (us *UserService) Purge(ctx context.Context, ref string) (*PurgeResult, error) {
	user, err := us.userRepo.FindByAnyRef(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	result := &PurgeResult{}
	var errs error

	if n, err := us.listingRepo.DeleteByOwner(ctx, user.TelegramID); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		result.DeletedListings = n
	}

	if n, err := us.chatRepo.DeleteByParticipant(ctx, user.TelegramID); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		result.DeletedChats = n
	}

	if n, err := us.notificationRepo.DeleteByOwner(ctx, user.TelegramID); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		result.DeletedNotifications = n
	}

	if err := us.userRepo.Delete(ctx, user.TelegramID); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		slog.Error("Purge completed partially", "telegram_id", user.TelegramID, "error", errs)
		return result, errs
	}

	slog.Info("User purged",
		"telegram_id", user.TelegramID,
		"listings", result.DeletedListings,
		"chats", result.DeletedChats,
		"notifications", result.DeletedNotifications,
	)
	return result, nil
}

func (us *UserService) nicknameTakenByOther(ctx context.Context, nickname, telegramID string) (bool, error) {
	owner, err := us.userRepo.NicknameOwner(ctx, nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner != telegramID, nil
}

func (us *UserService) toUser(in *RegisterUserDTO) *domain.User {
	return &domain.User{
		TelegramID:  in.TelegramID,
		Nickname:    in.Nickname,
		CountryCode: in.CountryCode,
		City:        in.City,
		RadiusKM:    in.RadiusKM,
		Language:    in.Language,
		TgHandle:    in.TgHandle,
		Phone:       in.Phone,
		Email:       in.Email,
	}
}

// mapNicknameConflict turns the unique-index violation raised by a
// concurrent registration into the same validation error the pre-check
// produces.
func mapNicknameConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return domain.ErrNicknameTaken
	}
	return err
}
