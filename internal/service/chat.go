package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"baraholka/internal/domain"
	"baraholka/internal/metrics"
)

const fallbackListingLabel = "a listing"

type ChatService struct {
	chatRepo         ChatRepoIn
	listingRepo      ListingRepoIn
	notificationRepo NotificationRepoIn
	relayRepo        RelayRepoIn
}

func NewChatService(chatRepo ChatRepoIn, listingRepo ListingRepoIn, notificationRepo NotificationRepoIn, relayRepo RelayRepoIn) ChatServiceIn {
	return &ChatService{
		chatRepo:         chatRepo,
		listingRepo:      listingRepo,
		notificationRepo: notificationRepo,
		relayRepo:        relayRepo,
	}
}

// FindOrCreate returns the chat for the unordered (buyer, seller) pair,
// creating it on first contact. Repeated and swapped-argument calls converge
// to the same chat.
func (cs *ChatService) FindOrCreate(ctx context.Context, in *FindOrCreateChatDTO) (*domain.Chat, bool, error) {
	buyerID := strings.TrimSpace(in.BuyerID)
	sellerID := strings.TrimSpace(in.SellerID)

	if buyerID == "" || sellerID == "" {
		return nil, false, domain.ErrInvalidRequest
	}
	if buyerID == sellerID {
		return nil, false, domain.ErrSelfChat
	}

	a, b := canonicalPair(buyerID, sellerID)

	existing, err := cs.chatRepo.FindByPair(ctx, a, b)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	chat := &domain.Chat{
		ListingID:    in.ListingID,
		ParticipantA: a,
		ParticipantB: b,
	}
	if a == buyerID {
		chat.NicknameA, chat.NicknameB = in.BuyerNickname, in.SellerNickname
		chat.LanguageA, chat.LanguageB = in.BuyerLanguage, in.SellerLanguage
	} else {
		chat.NicknameA, chat.NicknameB = in.SellerNickname, in.BuyerNickname
		chat.LanguageA, chat.LanguageB = in.SellerLanguage, in.BuyerLanguage
	}

	chat, created, err := cs.chatRepo.Create(ctx, chat)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// lost the create race, the fetched row already has its system message
		return chat, false, nil
	}

	systemMsg, err := cs.chatRepo.AppendMessage(ctx, &domain.ChatMessage{
		ChatID:   chat.ID,
		SenderID: domain.SystemSender,
		Text:     fmt.Sprintf("Chat started about %s", cs.listingLabel(ctx, in.ListingID)),
		IsSystem: true,
	})
	if err != nil {
		slog.Error("Failed to append system message", "chat_id", chat.ID, "error", err)
	} else {
		chat.Messages = append(chat.Messages, *systemMsg)
	}

	cs.notifyNewResponse(ctx, chat, sellerID, in.BuyerNickname)
	cs.publishNewChat(ctx, chat, sellerID, buyerID)

	return chat, true, nil
}

func (cs *ChatService) Get(ctx context.Context, chatID int) (*domain.Chat, error) {
	chat, err := cs.chatRepo.Get(ctx, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return chat, err
}

// SendMessage appends a message from senderID and fans it out: persistence is
// the hard step, relay publish and notification creation are best-effort side
// effects that only get logged when they fail.
func (cs *ChatService) SendMessage(ctx context.Context, chatID int, senderID, text string) (*domain.Chat, error) {
	chat, err := cs.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	senderID = strings.TrimSpace(senderID)
	if !chat.HasParticipant(senderID) {
		return nil, domain.ErrNotParticipant
	}

	msg, err := cs.chatRepo.AppendMessage(ctx, &domain.ChatMessage{
		ChatID:   chatID,
		SenderID: senderID,
		Text:     text,
	})
	if err != nil {
		return nil, err
	}

	chat.Messages = append(chat.Messages, *msg)
	chat.UpdatedAt = msg.CreatedAt

	recipient := chat.Other(senderID)
	cs.publishNewMessage(ctx, chat.ID, recipient, msg)

	relatedID := strconv.Itoa(chat.ID)
	relatedType := "chat"
	if _, err := cs.notificationRepo.Create(ctx, &domain.Notification{
		OwnerID:     recipient,
		Type:        domain.NewMessageNotification,
		Title:       "New message",
		Body:        text,
		RelatedID:   &relatedID,
		RelatedType: &relatedType,
	}); err != nil {
		slog.Error("Failed to create message notification",
			"chat_id", chat.ID,
			"recipient", recipient,
			"error", err,
		)
	} else {
		metrics.IncNotificationCreated()
	}

	return chat, nil
}

// ShareContacts marks the caller's side of the chat as shared. A caller that
// is not a participant gets an explicit denial instead of a silent no-op.
func (cs *ChatService) ShareContacts(ctx context.Context, chatID int, telegramID string, payload json.RawMessage) error {
	chat, err := cs.Get(ctx, chatID)
	if err != nil {
		return err
	}

	telegramID = strings.TrimSpace(telegramID)
	if !chat.HasParticipant(telegramID) {
		return domain.ErrNotParticipant
	}

	return cs.chatRepo.SetContactsShared(ctx, chatID, chat.ParticipantA == telegramID, payload)
}

func (cs *ChatService) ListForUser(ctx context.Context, telegramID string) ([]domain.Chat, error) {
	return cs.chatRepo.ListForUser(ctx, strings.TrimSpace(telegramID))
}

func (cs *ChatService) publishNewMessage(ctx context.Context, chatID int, recipient string, msg *domain.ChatMessage) {
	data, err := json.Marshal(&NewMessageEvent{
		ChatID:  chatID,
		Message: *msg,
	})
	if err != nil {
		slog.Error("Failed to marshal new message event", "error", err)
		return
	}

	event := &Event{
		Type: domain.NewMessageType,
		Data: data,
	}

	for _, channel := range []string{ChatChannel(chatID), PersonalChannel(recipient)} {
		if err := cs.relayRepo.Publish(ctx, channel, event); err != nil {
			slog.Error("Failed to publish message event",
				"chat_id", chatID,
				"channel", channel,
				"error", err,
			)
			continue
		}
		metrics.IncRelayEvent(string(domain.NewMessageType))
	}
}

func (cs *ChatService) publishNewChat(ctx context.Context, chat *domain.Chat, recipient, initiator string) {
	data, err := json.Marshal(&NewChatEvent{
		ChatID:     chat.ID,
		WithUserID: initiator,
		ListingID:  chat.ListingID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		slog.Error("Failed to marshal new chat event", "error", err)
		return
	}

	if err := cs.relayRepo.Publish(ctx, PersonalChannel(recipient), &Event{
		Type: domain.NewChatType,
		Data: data,
	}); err != nil {
		slog.Error("Failed to publish new chat event", "chat_id", chat.ID, "error", err)
		return
	}
	metrics.IncRelayEvent(string(domain.NewChatType))
}

func (cs *ChatService) notifyNewResponse(ctx context.Context, chat *domain.Chat, sellerID, buyerNickname string) {
	relatedID := strconv.Itoa(chat.ID)
	relatedType := "chat"

	body := "Someone responded to your listing"
	if buyerNickname != "" {
		body = fmt.Sprintf("%s responded to your listing", buyerNickname)
	}

	if _, err := cs.notificationRepo.Create(ctx, &domain.Notification{
		OwnerID:     sellerID,
		Type:        domain.NewResponseNotification,
		Title:       "New response",
		Body:        body,
		RelatedID:   &relatedID,
		RelatedType: &relatedType,
	}); err != nil {
		slog.Error("Failed to create response notification", "chat_id", chat.ID, "error", err)
		return
	}
	metrics.IncNotificationCreated()
}

func (cs *ChatService) listingLabel(ctx context.Context, listingID *int) string {
	if listingID == nil {
		return fallbackListingLabel
	}

	listing, err := cs.listingRepo.Get(ctx, *listingID)
	if err != nil || listing.Title == "" {
		return fallbackListingLabel
	}
	return listing.Title
}

func canonicalPair(x, y string) (string, string) {
	if x < y {
		return x, y
	}
	return y, x
}
