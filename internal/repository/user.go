package repository

import (
	"context"
	"strconv"

	"baraholka/internal/domain"
	"github.com/jmoiron/sqlx"
)

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func (ur *UserRepo) Create(ctx context.Context, in *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (
			telegram_id,
			nickname,
			country_code,
			city,
			radius_km,
			language,
			tg_handle,
			phone,
			email
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *;
	`

	var user domain.User
	err := ur.db.GetContext(ctx, &user, query,
		in.TelegramID, in.Nickname, in.CountryCode, in.City, in.RadiusKM,
		in.Language, in.TgHandle, in.Phone, in.Email,
	)
	return &user, err
}

func (ur *UserRepo) Update(ctx context.Context, in *domain.User) (*domain.User, error) {
	query := `
		UPDATE users
		SET nickname = $2,
			country_code = $3,
			city = $4,
			radius_km = $5,
			language = $6,
			tg_handle = $7,
			phone = $8,
			email = $9
		WHERE telegram_id = $1
		RETURNING *;
	`

	var user domain.User
	err := ur.db.GetContext(ctx, &user, query,
		in.TelegramID, in.Nickname, in.CountryCode, in.City, in.RadiusKM,
		in.Language, in.TgHandle, in.Phone, in.Email,
	)
	return &user, err
}

func (ur *UserRepo) GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE telegram_id = $1;`

	var user domain.User
	err := ur.db.GetContext(ctx, &user, query, telegramID)
	return &user, err
}

// FindByAnyRef resolves a user by telegram id first, falling back to the
// internal row id when the reference is numeric. Callers may hold either.
func (ur *UserRepo) FindByAnyRef(ctx context.Context, ref string) (*domain.User, error) {
	user, err := ur.GetByTelegramID(ctx, ref)
	if err == nil {
		return user, nil
	}

	id, convErr := strconv.Atoi(ref)
	if convErr != nil {
		return nil, err
	}

	query := `SELECT * FROM users WHERE id = $1;`

	var byID domain.User
	if err := ur.db.GetContext(ctx, &byID, query, id); err != nil {
		return nil, err
	}
	return &byID, nil
}

func (ur *UserRepo) NicknameOwner(ctx context.Context, nickname string) (string, error) {
	query := `SELECT telegram_id FROM users WHERE nickname = $1;`

	var telegramID string
	err := ur.db.GetContext(ctx, &telegramID, query, nickname)
	return telegramID, err
}

func (ur *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT * FROM users ORDER BY created_at DESC;`

	users := []domain.User{}
	err := ur.db.SelectContext(ctx, &users, query)
	return users, err
}

func (ur *UserRepo) SetBanned(ctx context.Context, telegramID string, banned bool, reason *string) error {
	query := `
		UPDATE users
		SET banned = $2,
			banned_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
			ban_reason = CASE WHEN $2 THEN $3 ELSE NULL END
		WHERE telegram_id = $1;
	`

	res, err := ur.db.ExecContext(ctx, query, telegramID, banned, reason)
	if err != nil {
		return err
	}

	rowsAff, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (ur *UserRepo) Delete(ctx context.Context, telegramID string) error {
	query := `DELETE FROM users WHERE telegram_id = $1;`

	_, err := ur.db.ExecContext(ctx, query, telegramID)
	return err
}
