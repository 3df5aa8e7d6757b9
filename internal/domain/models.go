package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// SystemSender is the sender id stored on system-generated messages.
const SystemSender = "system"

type User struct {
	ID          int        `json:"id" db:"id"`
	TelegramID  string     `json:"telegram_id" db:"telegram_id"`
	Nickname    string     `json:"nickname" db:"nickname"`
	CountryCode string     `json:"country_code" db:"country_code"`
	City        string     `json:"city" db:"city"`
	RadiusKM    int        `json:"radius_km" db:"radius_km"`
	Language    string     `json:"language" db:"language"`
	TgHandle    *string    `json:"tg_handle,omitempty" db:"tg_handle"`
	Phone       *string    `json:"phone,omitempty" db:"phone"`
	Email       *string    `json:"email,omitempty" db:"email"`
	Banned      bool       `json:"banned" db:"banned"`
	BannedAt    *time.Time `json:"banned_at,omitempty" db:"banned_at"`
	BanReason   *string    `json:"ban_reason,omitempty" db:"ban_reason"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type Listing struct {
	ID      int    `json:"id" db:"id"`
	OwnerID string `json:"owner_id" db:"owner_id"`
	Title   string `json:"title" db:"title"`
	Status  string `json:"status" db:"status"`
}

// Chat participants are stored in canonical order: ParticipantA is the
// lexicographically smaller telegram id. The (a, b) pair is unique.
type Chat struct {
	ID           int             `json:"id" db:"id"`
	ListingID    *int            `json:"listing_id,omitempty" db:"listing_id"`
	ParticipantA string          `json:"participant_a" db:"participant_a"`
	ParticipantB string          `json:"participant_b" db:"participant_b"`
	NicknameA    string          `json:"nickname_a" db:"nickname_a"`
	NicknameB    string          `json:"nickname_b" db:"nickname_b"`
	LanguageA    string          `json:"language_a" db:"language_a"`
	LanguageB    string          `json:"language_b" db:"language_b"`
	SharedA      bool            `json:"contacts_shared_a" db:"contacts_shared_a"`
	SharedB      bool            `json:"contacts_shared_b" db:"contacts_shared_b"`
	ContactsA    json.RawMessage `json:"contacts_a,omitempty" db:"contacts_a"`
	ContactsB    json.RawMessage `json:"contacts_b,omitempty" db:"contacts_b"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	Messages     []ChatMessage   `json:"messages"`
}

// Other returns the participant opposite to telegramID, assuming telegramID
// is one of the two.
func (c *Chat) Other(telegramID string) string {
	if c.ParticipantA == telegramID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

func (c *Chat) HasParticipant(telegramID string) bool {
	return c.ParticipantA == telegramID || c.ParticipantB == telegramID
}

type ChatMessage struct {
	ID        int       `json:"id" db:"id"`
	ChatID    int       `json:"chat_id" db:"chat_id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Text      string    `json:"text" db:"text"`
	IsSystem  bool      `json:"is_system" db:"is_system"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Notification struct {
	ID          int              `json:"id" db:"id"`
	OwnerID     string           `json:"owner_id" db:"owner_id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Body        string           `json:"body" db:"body"`
	RelatedID   *string          `json:"related_id,omitempty" db:"related_id"`
	RelatedType *string          `json:"related_type,omitempty" db:"related_type"`
	Read        bool             `json:"read" db:"read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

type (
	NotificationType string

	EventType string
)

const (
	NewMessageNotification      NotificationType = "new_message"
	NewResponseNotification     NotificationType = "new_response"
	ListingSoldNotification     NotificationType = "listing_sold"
	ListingApprovedNotification NotificationType = "listing_approved"
	ListingRejectedNotification NotificationType = "listing_rejected"

	// relay events
	NewMessageType EventType = "new_message"
	NewChatType    EventType = "new_chat"
	JoinChatType   EventType = "join_chat"
	LeaveChatType  EventType = "leave_chat"
)

// TelegramUser carries the profile claims embedded in a verified initData
// assertion.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// TelegramID is the stable string form of the platform identity used as the
// key everywhere in storage.
func (u *TelegramUser) TelegramID() string {
	return strconv.FormatInt(u.ID, 10)
}
