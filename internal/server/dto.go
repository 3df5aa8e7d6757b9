package server

import (
	"encoding/json"

	"baraholka/internal/domain"
)

type RegisterUserJSON struct {
	TelegramID  string  `json:"telegram_id,omitempty"`
	Nickname    string  `json:"nickname"`
	CountryCode string  `json:"country"`
	City        string  `json:"city"`
	RadiusKM    int     `json:"radius"`
	Language    string  `json:"language"`
	TgHandle    *string `json:"tg_handle,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
}

type BanUserJSON struct {
	Reason *string `json:"reason,omitempty"`
}

type FindOrCreateChatJSON struct {
	BuyerID        string `json:"buyerId"`
	SellerID       string `json:"sellerId"`
	ListingID      *int   `json:"listingId,omitempty"`
	BuyerNickname  string `json:"buyerNickname"`
	SellerNickname string `json:"sellerNickname"`
}

type SendMessageJSON struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

type ShareContactsJSON struct {
	UserID   string          `json:"userId"`
	Contacts json.RawMessage `json:"contacts"`
}

// response
type NicknameAvailable struct {
	Available bool `json:"available"`
}

type ChatsResponse struct {
	Chats []domain.Chat `json:"chats"`
}

type UsersResponse struct {
	Users []domain.User `json:"users"`
}

type TicketResponse struct {
	Ticket string `json:"ticket"`
}
