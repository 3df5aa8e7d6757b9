// Package servicetest provides an in-memory implementation of the repository
// interfaces for service and handler tests. It mirrors the postgres layer's
// error semantics (sql.ErrNoRows, unique-violation pq errors) without a
// database.
package servicetest

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"baraholka/internal/domain"
	"baraholka/internal/service"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Store holds all tables behind one mutex. The per-interface view types
// below (Users, Chats, ...) are what gets handed to the services.
type Store struct {
	mu sync.Mutex

	users      map[string]*domain.User
	nextUserID int

	listings map[int]*domain.Listing

	chats      map[int]*domain.Chat
	nextChatID int
	nextMsgID  int

	notifications map[int]*domain.Notification
	nextNotifID   int

	published []PublishedEvent
}

type PublishedEvent struct {
	Channel string
	Event   service.Event
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		listings:      make(map[int]*domain.Listing),
		chats:         make(map[int]*domain.Chat),
		notifications: make(map[int]*domain.Notification),
	}
}

func (s *Store) AddListing(ownerID, title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := len(s.listings) + 1
	s.listings[id] = &domain.Listing{ID: id, OwnerID: ownerID, Title: title, Status: "active"}
	return id
}

func (s *Store) Published() []PublishedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]PublishedEvent{}, s.published...)
}

func (s *Store) PublishedChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]string, 0, len(s.published))
	for _, p := range s.published {
		channels = append(channels, p.Channel)
	}
	return channels
}

func (s *Store) ResetPublished() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = nil
}

type Users struct{ *Store }

func (f Users) Create(ctx context.Context, in *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Nickname == in.Nickname {
			return nil, &pq.Error{Code: "23505"}
		}
	}

	f.nextUserID++
	user := *in
	user.ID = f.nextUserID
	user.CreatedAt = time.Now()
	f.users[user.TelegramID] = &user

	out := user
	return &out, nil
}

func (f Users) Update(ctx context.Context, in *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.users[in.TelegramID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	for _, u := range f.users {
		if u.Nickname == in.Nickname && u.TelegramID != in.TelegramID {
			return nil, &pq.Error{Code: "23505"}
		}
	}

	existing.Nickname = in.Nickname
	existing.CountryCode = in.CountryCode
	existing.City = in.City
	existing.RadiusKM = in.RadiusKM
	existing.Language = in.Language
	existing.TgHandle = in.TgHandle
	existing.Phone = in.Phone
	existing.Email = in.Email

	out := *existing
	return &out, nil
}

func (f Users) GetByTelegramID(ctx context.Context, telegramID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[telegramID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	out := *user
	return &out, nil
}

func (f Users) FindByAnyRef(ctx context.Context, ref string) (*domain.User, error) {
	if user, err := f.GetByTelegramID(ctx, ref); err == nil {
		return user, nil
	}

	id, err := strconv.Atoi(ref)
	if err != nil {
		return nil, sql.ErrNoRows
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f Users) NicknameOwner(ctx context.Context, nickname string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Nickname == nickname {
			return u.TelegramID, nil
		}
	}
	return "", sql.ErrNoRows
}

func (f Users) List(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (f Users) SetBanned(ctx context.Context, telegramID string, banned bool, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[telegramID]
	if !ok {
		return domain.ErrNotFound
	}

	user.Banned = banned
	if banned {
		now := time.Now()
		user.BannedAt = &now
		user.BanReason = reason
	} else {
		user.BannedAt = nil
		user.BanReason = nil
	}
	return nil
}

func (f Users) Delete(ctx context.Context, telegramID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.users, telegramID)
	return nil
}

type Listings struct{ *Store }

func (f Listings) Get(ctx context.Context, id int) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	listing, ok := f.listings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}

	out := *listing
	return &out, nil
}

func (f Listings) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for id, l := range f.listings {
		if l.OwnerID == ownerID {
			delete(f.listings, id)
			n++
		}
	}
	return n, nil
}

type Chats struct{ *Store }

func (f Chats) Get(ctx context.Context, chatID int) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chat, ok := f.chats[chatID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyChat(chat), nil
}

func (f Chats) FindByPair(ctx context.Context, participantA, participantB string) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.chats {
		if c.ParticipantA == participantA && c.ParticipantB == participantB {
			return copyChat(c), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f Chats) Create(ctx context.Context, in *domain.Chat) (*domain.Chat, bool, error) {
	if existing, err := f.FindByPair(ctx, in.ParticipantA, in.ParticipantB); err == nil {
		return existing, false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextChatID++
	chat := *in
	chat.ID = f.nextChatID
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	chat.Messages = []domain.ChatMessage{}
	f.chats[chat.ID] = &chat

	return copyChat(&chat), true, nil
}

func (f Chats) AppendMessage(ctx context.Context, in *domain.ChatMessage) (*domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chat, ok := f.chats[in.ChatID]
	if !ok {
		return nil, sql.ErrNoRows
	}

	f.nextMsgID++
	msg := *in
	msg.ID = f.nextMsgID
	msg.CreatedAt = time.Now()

	chat.Messages = append(chat.Messages, msg)
	chat.UpdatedAt = msg.CreatedAt

	out := msg
	return &out, nil
}

func (f Chats) SetContactsShared(ctx context.Context, chatID int, sideA bool, payload json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	chat, ok := f.chats[chatID]
	if !ok {
		return sql.ErrNoRows
	}

	if sideA {
		chat.SharedA = true
		chat.ContactsA = payload
	} else {
		chat.SharedB = true
		chat.ContactsB = payload
	}
	return nil
}

func (f Chats) ListForUser(ctx context.Context, telegramID string) ([]domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chats := []domain.Chat{}
	for _, c := range f.chats {
		if c.ParticipantA == telegramID || c.ParticipantB == telegramID {
			chats = append(chats, *copyChat(c))
		}
	}

	sort.Slice(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

func (f Chats) DeleteByParticipant(ctx context.Context, telegramID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for id, c := range f.chats {
		if c.ParticipantA == telegramID || c.ParticipantB == telegramID {
			delete(f.chats, id)
			n++
		}
	}
	return n, nil
}

func copyChat(c *domain.Chat) *domain.Chat {
	out := *c
	out.Messages = append([]domain.ChatMessage{}, c.Messages...)
	return &out
}

type Notifications struct{ *Store }

func (f Notifications) Create(ctx context.Context, in *domain.Notification) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextNotifID++
	notification := *in
	notification.ID = f.nextNotifID
	notification.CreatedAt = time.Now()
	f.notifications[notification.ID] = &notification

	out := notification
	return &out, nil
}

func (f Notifications) ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := []domain.Notification{}
	for _, n := range f.notifications {
		if n.OwnerID != ownerID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		all = append(all, *n)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	if offset >= len(all) {
		return []domain.Notification{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (f Notifications) Counts(ctx context.Context, ownerID string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total, unread := 0, 0
	for _, n := range f.notifications {
		if n.OwnerID != ownerID {
			continue
		}
		total++
		if !n.Read {
			unread++
		}
	}
	return total, unread, nil
}

func (f Notifications) MarkRead(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	notification, ok := f.notifications[id]
	if !ok {
		return domain.ErrNotFound
	}
	notification.Read = true
	return nil
}

func (f Notifications) MarkAllRead(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.notifications {
		if n.OwnerID == ownerID {
			n.Read = true
		}
	}
	return nil
}

func (f Notifications) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.notifications[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.notifications, id)
	return nil
}

func (f Notifications) ClearRead(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, n := range f.notifications {
		if n.OwnerID == ownerID && n.Read {
			delete(f.notifications, id)
		}
	}
	return nil
}

func (f Notifications) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for id, notification := range f.notifications {
		if notification.OwnerID == ownerID {
			delete(f.notifications, id)
			n++
		}
	}
	return n, nil
}

type Relay struct{ *Store }

func (f Relay) Subscribe(ctx context.Context, telegramID string) *redis.PubSub {
	return nil
}

func (f Relay) Publish(ctx context.Context, channel string, event *service.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.published = append(f.published, PublishedEvent{Channel: channel, Event: *event})
	return nil
}
