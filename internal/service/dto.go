package service

import (
	"encoding/json"
	"fmt"
	"time"

	"baraholka/internal/domain"
)

// PersonalChannel is the per-recipient relay channel: events land there no
// matter which chat screen the recipient is viewing.
func PersonalChannel(telegramID string) string {
	return "message-to-" + telegramID
}

func ChatChannel(chatID int) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// Request from client (websocket inbound)
type ChannelRequest struct {
	Type   domain.EventType `json:"type"`
	ChatID int              `json:"chat_id"`
}

// Events for clients
type Event struct {
	Type domain.EventType `json:"type"`
	Data json.RawMessage  `json:"data,omitempty"`
}

type NewMessageEvent struct {
	ChatID  int                `json:"chat_id"`
	Message domain.ChatMessage `json:"message"`
}

type NewChatEvent struct {
	ChatID     int       `json:"chat_id"`
	WithUserID string    `json:"with_user_id"`
	ListingID  *int      `json:"listing_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DTOs
type RegisterUserDTO struct {
	TelegramID  string
	Nickname    string
	CountryCode string
	City        string
	RadiusKM    int
	Language    string
	TgHandle    *string
	Phone       *string
	Email       *string
}

type FindOrCreateChatDTO struct {
	BuyerID        string
	SellerID       string
	ListingID      *int
	BuyerNickname  string
	SellerNickname string
	BuyerLanguage  string
	SellerLanguage string
}

type ListNotificationsDTO struct {
	OwnerID    string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Response
type NotificationPage struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	UnreadCount   int                   `json:"unread_count"`
}

type PurgeResult struct {
	DeletedListings      int `json:"deleted_listings"`
	DeletedChats         int `json:"deleted_chats"`
	DeletedNotifications int `json:"deleted_notifications"`
}
