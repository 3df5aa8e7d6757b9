package service

import (
	"context"
	"encoding/json"

	"baraholka/internal/domain"
	"github.com/redis/go-redis/v9"
)

type UserRepoIn interface {
	Create(ctx context.Context, in *domain.User) (*domain.User, error)
	Update(ctx context.Context, in *domain.User) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error)
	FindByAnyRef(ctx context.Context, ref string) (*domain.User, error)
	NicknameOwner(ctx context.Context, nickname string) (string, error)
	List(ctx context.Context) ([]domain.User, error)
	SetBanned(ctx context.Context, telegramID string, banned bool, reason *string) error
	Delete(ctx context.Context, telegramID string) error
}

type ListingRepoIn interface {
	Get(ctx context.Context, id int) (*domain.Listing, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int, error)
}

type ChatRepoIn interface {
	Get(ctx context.Context, chatID int) (*domain.Chat, error)
	FindByPair(ctx context.Context, participantA, participantB string) (*domain.Chat, error)
	Create(ctx context.Context, in *domain.Chat) (*domain.Chat, bool, error)
	AppendMessage(ctx context.Context, in *domain.ChatMessage) (*domain.ChatMessage, error)
	SetContactsShared(ctx context.Context, chatID int, sideA bool, payload json.RawMessage) error
	ListForUser(ctx context.Context, telegramID string) ([]domain.Chat, error)
	DeleteByParticipant(ctx context.Context, telegramID string) (int, error)
}

type NotificationRepoIn interface {
	Create(ctx context.Context, in *domain.Notification) (*domain.Notification, error)
	ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	Counts(ctx context.Context, ownerID string) (total, unread int, err error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context, ownerID string) error
	Delete(ctx context.Context, id int) error
	ClearRead(ctx context.Context, ownerID string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int, error)
}

type RelayRepoIn interface {
	Subscribe(ctx context.Context, telegramID string) *redis.PubSub
	Publish(ctx context.Context, channel string, event *Event) error
}

type UserServiceIn interface {
	Register(ctx context.Context, in *RegisterUserDTO) (*domain.User, bool, error)
	CheckNickname(ctx context.Context, nickname string) (bool, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Ban(ctx context.Context, ref string, reason *string) error
	Unban(ctx context.Context, ref string) error
	Purge(ctx context.Context, ref string) (*PurgeResult, error)
}

type ChatServiceIn interface {
	FindOrCreate(ctx context.Context, in *FindOrCreateChatDTO) (*domain.Chat, bool, error)
	SendMessage(ctx context.Context, chatID int, senderID, text string) (*domain.Chat, error)
	ShareContacts(ctx context.Context, chatID int, telegramID string, payload json.RawMessage) error
	Get(ctx context.Context, chatID int) (*domain.Chat, error)
	ListForUser(ctx context.Context, telegramID string) ([]domain.Chat, error)
}

type NotificationServiceIn interface {
	Create(ctx context.Context, in *domain.Notification) (*domain.Notification, error)
	List(ctx context.Context, in *ListNotificationsDTO) (*NotificationPage, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context, ownerID string) error
	Delete(ctx context.Context, id int) error
	ClearRead(ctx context.Context, ownerID string) error
}

type RelayServiceIn interface {
	HandleConn(ctx context.Context, client *Client)
}
