package server

import (
	"encoding/json"
	"fmt"
	"testing"

	"baraholka/internal/auth"
	"baraholka/internal/domain"
	"baraholka/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConversationFlow walks the whole buyer/seller exchange through the
// HTTP surface: registration, first contact about a listing, messages in
// both directions, notifications and the access-control denials in between.
func TestConversationFlow(t *testing.T) {
	ts, store := newTestEnv(t, true, []string{"9000"})

	alice := signedInitData(t, 1001)
	bob := signedInitData(t, 1002)
	carol := signedInitData(t, 1003)
	admin := signedInitData(t, 9000)

	// alice and bob register; alice re-registers idempotently
	status, _ := doJSON(t, ts, "POST", "/users/register", alice, registerBody("alice"))
	require.Equal(t, 201, status)
	status, _ = doJSON(t, ts, "POST", "/users/register", alice, registerBody("alice"))
	require.Equal(t, 200, status)
	status, _ = doJSON(t, ts, "POST", "/users/register", bob, registerBody("bob"))
	require.Equal(t, 201, status)
	status, _ = doJSON(t, ts, "POST", "/users/register", carol, registerBody("carol"))
	require.Equal(t, 201, status)

	// nickname probes need no auth
	status, payload := doJSON(t, ts, "GET", "/users/check-nickname/alice", "", nil)
	require.Equal(t, 200, status)
	var availability NicknameAvailable
	decodeInto(t, payload, &availability)
	assert.False(t, availability.Available)

	status, payload = doJSON(t, ts, "GET", "/users/check-nickname/dave", "", nil)
	require.Equal(t, 200, status)
	decodeInto(t, payload, &availability)
	assert.True(t, availability.Available)

	// registering on someone else's behalf is refused
	status, payload = doJSON(t, ts, "POST", "/users/register", bob, &RegisterUserJSON{
		TelegramID: "1001", Nickname: "impostor", CountryCode: "DE", City: "Berlin", Language: "en",
	})
	require.Equal(t, 403, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, payload))

	listingID := store.AddListing("1001", "Ski boots")

	// bob opens the chat about alice's listing
	status, payload = doJSON(t, ts, "POST", "/chats/find-or-create", bob, &FindOrCreateChatJSON{
		BuyerID:        "1002",
		SellerID:       "1001",
		ListingID:      &listingID,
		BuyerNickname:  "bob",
		SellerNickname: "alice",
	})
	require.Equal(t, 201, status)

	var chat domain.Chat
	decodeInto(t, payload, &chat)
	require.Len(t, chat.Messages, 1)
	assert.True(t, chat.Messages[0].IsSystem)
	assert.Equal(t, "Chat started about Ski boots", chat.Messages[0].Text)
	chatPath := fmt.Sprintf("/chats/%d", chat.ID)

	// alice asking for the same pair from her side lands in the same chat
	status, payload = doJSON(t, ts, "POST", "/chats/find-or-create", alice, &FindOrCreateChatJSON{
		BuyerID:  "1002",
		SellerID: "1001",
	})
	require.Equal(t, 200, status)
	var sameChat domain.Chat
	decodeInto(t, payload, &sameChat)
	assert.Equal(t, chat.ID, sameChat.ID)

	// a pair neither side belongs to is refused
	status, _ = doJSON(t, ts, "POST", "/chats/find-or-create", carol, &FindOrCreateChatJSON{
		BuyerID:  "1002",
		SellerID: "1001",
	})
	require.Equal(t, 403, status)

	// bob writes, alice sees both messages in her chat list
	status, payload = doJSON(t, ts, "POST", chatPath+"/messages", bob, &SendMessageJSON{Text: "Are the boots still available?"})
	require.Equal(t, 201, status)
	decodeInto(t, payload, &chat)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "1002", chat.Messages[1].SenderID)

	status, payload = doJSON(t, ts, "GET", "/chats/user/1001", alice, nil)
	require.Equal(t, 200, status)
	var chatList ChatsResponse
	decodeInto(t, payload, &chatList)
	require.Len(t, chatList.Chats, 1)
	assert.Len(t, chatList.Chats[0].Messages, 2)

	// peeking at another user's chat list is refused
	status, _ = doJSON(t, ts, "GET", "/chats/user/1001", bob, nil)
	require.Equal(t, 403, status)

	// sending under someone else's sender id is refused
	status, _ = doJSON(t, ts, "POST", chatPath+"/messages", bob, &SendMessageJSON{SenderID: "1001", Text: "fake"})
	require.Equal(t, 403, status)

	// a non-participant cannot read the chat
	status, payload = doJSON(t, ts, "GET", chatPath, carol, nil)
	require.Equal(t, 403, status)
	assert.Equal(t, "NOT_PARTICIPANT", errorCode(t, payload))

	// alice replies, bob's inbox shows exactly one unread message alert
	status, _ = doJSON(t, ts, "POST", chatPath+"/messages", alice, &SendMessageJSON{Text: "Yes, size 42"})
	require.Equal(t, 201, status)

	status, payload = doJSON(t, ts, "GET", "/notifications/1002?unreadOnly=true", bob, nil)
	require.Equal(t, 200, status)
	var page service.NotificationPage
	decodeInto(t, payload, &page)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, domain.NewMessageNotification, page.Notifications[0].Type)
	assert.Equal(t, 1, page.UnreadCount)

	// alice got the response alert plus bob's message alert
	status, payload = doJSON(t, ts, "GET", "/notifications/1001", alice, nil)
	require.Equal(t, 200, status)
	decodeInto(t, payload, &page)
	assert.Equal(t, 2, page.Total)

	// reading someone else's inbox is refused
	status, _ = doJSON(t, ts, "GET", "/notifications/1002", alice, nil)
	require.Equal(t, 403, status)

	// bob shares his contacts into the chat
	status, _ = doJSON(t, ts, "POST", chatPath+"/share-contacts", bob, &ShareContactsJSON{
		Contacts: json.RawMessage(`{"phone":"+49151234"}`),
	})
	require.Equal(t, 200, status)

	status, payload = doJSON(t, ts, "GET", chatPath, bob, nil)
	require.Equal(t, 200, status)
	decodeInto(t, payload, &chat)
	if chat.ParticipantA == "1002" {
		assert.True(t, chat.SharedA)
	} else {
		assert.True(t, chat.SharedB)
	}

	// bob marks his whole inbox read
	status, _ = doJSON(t, ts, "PATCH", "/notifications/user/1002/read-all", bob, nil)
	require.Equal(t, 200, status)

	status, payload = doJSON(t, ts, "GET", "/notifications/1002", bob, nil)
	require.Equal(t, 200, status)
	decodeInto(t, payload, &page)
	assert.Equal(t, 0, page.UnreadCount)

	// the admin removes bob entirely, chats and notifications included
	status, payload = doJSON(t, ts, "DELETE", "/users/1002", admin, nil)
	require.Equal(t, 200, status)

	var purge service.PurgeResult
	decodeInto(t, payload, &purge)
	assert.Equal(t, 0, purge.DeletedListings)
	assert.Equal(t, 1, purge.DeletedChats)
	assert.Equal(t, 1, purge.DeletedNotifications)

	status, payload = doJSON(t, ts, "GET", "/chats/user/1001", alice, nil)
	require.Equal(t, 200, status)
	decodeInto(t, payload, &chatList)
	assert.Empty(t, chatList.Chats)
}

func TestGetChatValidation(t *testing.T) {
	ts, _ := newTestEnv(t, true, nil)
	alice := signedInitData(t, 1001)

	status, _ := doJSON(t, ts, "POST", "/users/register", alice, registerBody("alice"))
	require.Equal(t, 201, status)

	t.Run("UnknownChat", func(t *testing.T) {
		status, payload := doJSON(t, ts, "GET", "/chats/999", alice, nil)
		assert.Equal(t, 404, status)
		assert.Equal(t, "NOT_FOUND", errorCode(t, payload))
	})

	t.Run("NonNumericID", func(t *testing.T) {
		status, _ := doJSON(t, ts, "GET", "/chats/abc", alice, nil)
		assert.Equal(t, 400, status)
	})

	t.Run("EmptyMessageText", func(t *testing.T) {
		status, payload := doJSON(t, ts, "POST", "/chats/find-or-create", alice, &FindOrCreateChatJSON{
			BuyerID: "1001", SellerID: "2002",
		})
		require.Equal(t, 201, status)

		var chat domain.Chat
		decodeInto(t, payload, &chat)

		status, _ = doJSON(t, ts, "POST", fmt.Sprintf("/chats/%d/messages", chat.ID), alice, &SendMessageJSON{Text: ""})
		assert.Equal(t, 400, status)
	})
}

func TestWSTicket(t *testing.T) {
	ts, _ := newTestEnv(t, true, nil)
	alice := signedInitData(t, 1001)

	t.Run("IssuedForVerifiedIdentity", func(t *testing.T) {
		status, payload := doJSON(t, ts, "POST", "/auth/ws-ticket", alice, nil)
		require.Equal(t, 200, status)

		var response TicketResponse
		decodeInto(t, payload, &response)
		require.NotEmpty(t, response.Ticket)

		claims, err := auth.ValidateTicket(response.Ticket, testTicketSecret)
		require.NoError(t, err)
		assert.Equal(t, "1001", claims.TelegramID)
	})

	t.Run("RefusedWithoutIdentity", func(t *testing.T) {
		status, _ := doJSON(t, ts, "POST", "/auth/ws-ticket", "", nil)
		assert.Equal(t, 401, status)
	})

	t.Run("HandshakeWithoutTicket", func(t *testing.T) {
		status, payload := doJSON(t, ts, "GET", "/ws", "", nil)
		assert.Equal(t, 401, status)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, payload))
	})

	t.Run("LegacyUserIDRejectedInStrictMode", func(t *testing.T) {
		status, _ := doJSON(t, ts, "GET", "/ws?user_id=1001", "", nil)
		assert.Equal(t, 401, status)
	})
}
