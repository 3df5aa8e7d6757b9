package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"baraholka/internal/domain"
	"github.com/jmoiron/sqlx"
)

type ChatRepo struct {
	db *sqlx.DB
}

func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{
		db: db,
	}
}

const chatColumns = `
	id, listing_id, participant_a, participant_b,
	nickname_a, nickname_b, language_a, language_b,
	contacts_shared_a, contacts_shared_b, contacts_a, contacts_b,
	created_at, updated_at
`

func (cr *ChatRepo) Get(ctx context.Context, chatID int) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1;`

	var chat domain.Chat
	if err := cr.db.GetContext(ctx, &chat, query, chatID); err != nil {
		return nil, err
	}

	if err := cr.loadMessages(ctx, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (cr *ChatRepo) FindByPair(ctx context.Context, participantA, participantB string) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE participant_a = $1 AND participant_b = $2;`

	var chat domain.Chat
	if err := cr.db.GetContext(ctx, &chat, query, participantA, participantB); err != nil {
		return nil, err
	}

	if err := cr.loadMessages(ctx, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// Create inserts a chat for a canonical pair. The unique index on the pair
// makes concurrent creates converge: on conflict nothing is inserted and the
// existing row is fetched instead.
func (cr *ChatRepo) Create(ctx context.Context, in *domain.Chat) (*domain.Chat, bool, error) {
	query := `
		INSERT INTO chats (
			listing_id,
			participant_a, participant_b,
			nickname_a, nickname_b,
			language_a, language_b
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (participant_a, participant_b) DO NOTHING
		RETURNING ` + chatColumns + `;
	`

	var chat domain.Chat
	err := cr.db.GetContext(ctx, &chat, query,
		in.ListingID, in.ParticipantA, in.ParticipantB,
		in.NicknameA, in.NicknameB, in.LanguageA, in.LanguageB,
	)
	if errors.Is(err, sql.ErrNoRows) {
		existing, ferr := cr.FindByPair(ctx, in.ParticipantA, in.ParticipantB)
		return existing, false, ferr
	}
	if err != nil {
		return nil, false, err
	}

	chat.Messages = []domain.ChatMessage{}
	return &chat, true, nil
}

// AppendMessage inserts the message and bumps the chat's updated_at in one
// transaction.
func (cr *ChatRepo) AppendMessage(ctx context.Context, in *domain.ChatMessage) (*domain.ChatMessage, error) {
	tx, err := cr.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO messages (chat_id, sender_id, text, is_system)
		VALUES ($1, $2, $3, $4)
		RETURNING id, chat_id, sender_id, text, is_system, created_at;
	`

	var msg domain.ChatMessage
	err = tx.GetContext(ctx, &msg, query, in.ChatID, in.SenderID, in.Text, in.IsSystem)
	if err != nil {
		return nil, err
	}

	query = `UPDATE chats SET updated_at = NOW() WHERE id = $1;`

	if _, err := tx.ExecContext(ctx, query, in.ChatID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (cr *ChatRepo) SetContactsShared(ctx context.Context, chatID int, sideA bool, payload json.RawMessage) error {
	query := `
		UPDATE chats
		SET contacts_shared_a = TRUE, contacts_a = $2
		WHERE id = $1;
	`
	if !sideA {
		query = `
			UPDATE chats
			SET contacts_shared_b = TRUE, contacts_b = $2
			WHERE id = $1;
		`
	}

	_, err := cr.db.ExecContext(ctx, query, chatID, payload)
	return err
}

func (cr *ChatRepo) ListForUser(ctx context.Context, telegramID string) ([]domain.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY updated_at DESC;
	`

	chats := []domain.Chat{}
	if err := cr.db.SelectContext(ctx, &chats, query, telegramID); err != nil {
		return nil, err
	}

	for i := range chats {
		if err := cr.loadMessages(ctx, &chats[i]); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

func (cr *ChatRepo) DeleteByParticipant(ctx context.Context, telegramID string) (int, error) {
	query := `DELETE FROM chats WHERE participant_a = $1 OR participant_b = $1;`

	res, err := cr.db.ExecContext(ctx, query, telegramID)
	if err != nil {
		return 0, err
	}

	rowsAff, err := res.RowsAffected()
	return int(rowsAff), err
}

func (cr *ChatRepo) loadMessages(ctx context.Context, chat *domain.Chat) error {
	query := `
		SELECT id, chat_id, sender_id, text, is_system, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY id;
	`

	chat.Messages = []domain.ChatMessage{}
	return cr.db.SelectContext(ctx, &chat.Messages, query, chat.ID)
}
