package service_test

import (
	"context"
	"testing"

	"baraholka/internal/domain"
	"baraholka/internal/service"
	"baraholka/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(store *servicetest.Store) service.UserServiceIn {
	return service.NewUserService(
		servicetest.Users{Store: store},
		servicetest.Listings{Store: store},
		servicetest.Chats{Store: store},
		servicetest.Notifications{Store: store},
	)
}

func registerDTO(telegramID, nickname string) *service.RegisterUserDTO {
	return &service.RegisterUserDTO{
		TelegramID:  telegramID,
		Nickname:    nickname,
		CountryCode: "DE",
		City:        "Berlin",
		RadiusKM:    10,
		Language:    "en",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesNewUser", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		user, created, err := srv.Register(ctx, registerDTO("1001", "alice"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "1001", user.TelegramID)
		assert.Equal(t, "alice", user.Nickname)
		assert.False(t, user.Banned)
	})

	t.Run("ReRegisterUpdatesInPlace", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		first, _, err := srv.Register(ctx, registerDTO("1001", "alice"))
		require.NoError(t, err)

		dto := registerDTO("1001", "alice")
		dto.City = "Munich"
		dto.RadiusKM = 50

		second, created, err := srv.Register(ctx, dto)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Munich", second.City)
		assert.Equal(t, 50, second.RadiusKM)
	})

	t.Run("NicknameTakenByOther", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		_, _, err := srv.Register(ctx, registerDTO("1001", "alice"))
		require.NoError(t, err)

		_, _, err = srv.Register(ctx, registerDTO("1002", "alice"))
		assert.ErrorIs(t, err, domain.ErrNicknameTaken)
	})

	t.Run("OwnNicknameIsNotAConflict", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		_, _, err := srv.Register(ctx, registerDTO("1001", "alice"))
		require.NoError(t, err)

		_, created, err := srv.Register(ctx, registerDTO("1001", "alice"))
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("NicknameChangeToFreeName", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		_, _, err := srv.Register(ctx, registerDTO("1001", "alice"))
		require.NoError(t, err)

		user, created, err := srv.Register(ctx, registerDTO("1001", "alice2"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "alice2", user.Nickname)
	})

	t.Run("RejectsShortNickname", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		_, _, err := srv.Register(ctx, registerDTO("1001", "ab"))
		assertAppErrorCode(t, err, domain.ErrInvalidRequest.Code)
	})

	t.Run("RejectsNegativeRadius", func(t *testing.T) {
		srv := newUserService(servicetest.NewStore())

		dto := registerDTO("1001", "alice")
		dto.RadiusKM = -1

		_, _, err := srv.Register(ctx, dto)
		assertAppErrorCode(t, err, domain.ErrInvalidRequest.Code)
	})
}

func TestCheckNickname(t *testing.T) {
	ctx := context.Background()
	srv := newUserService(servicetest.NewStore())

	available, err := srv.CheckNickname(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, available)

	_, _, err = srv.Register(ctx, registerDTO("1001", "alice"))
	require.NoError(t, err)

	available, err = srv.CheckNickname(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestBanUnban(t *testing.T) {
	ctx := context.Background()
	srv := newUserService(servicetest.NewStore())

	_, _, err := srv.Register(ctx, registerDTO("1001", "alice"))
	require.NoError(t, err)

	reason := "spam"
	require.NoError(t, srv.Ban(ctx, "1001", &reason))

	user, err := srv.GetByTelegramID(ctx, "1001")
	require.NoError(t, err)
	assert.True(t, user.Banned)
	require.NotNil(t, user.BannedAt)
	require.NotNil(t, user.BanReason)
	assert.Equal(t, "spam", *user.BanReason)

	require.NoError(t, srv.Unban(ctx, "1001"))

	user, err = srv.GetByTelegramID(ctx, "1001")
	require.NoError(t, err)
	assert.False(t, user.Banned)
	assert.Nil(t, user.BannedAt)
	assert.Nil(t, user.BanReason)
}

func TestBanByInternalID(t *testing.T) {
	ctx := context.Background()
	srv := newUserService(servicetest.NewStore())

	user, _, err := srv.Register(ctx, registerDTO("1001", "alice"))
	require.NoError(t, err)

	// admins may pass the numeric row id instead of the telegram id
	require.NoError(t, srv.Ban(ctx, "1", nil))

	banned, err := srv.GetByTelegramID(ctx, user.TelegramID)
	require.NoError(t, err)
	assert.True(t, banned.Banned)
}

func TestBanUnknownUser(t *testing.T) {
	srv := newUserService(servicetest.NewStore())

	err := srv.Ban(context.Background(), "9999", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	store := servicetest.NewStore()
	userSrv := newUserService(store)
	chatSrv := newChatService(store)

	_, _, err := userSrv.Register(ctx, registerDTO("1001", "alice"))
	require.NoError(t, err)
	_, _, err = userSrv.Register(ctx, registerDTO("1002", "bob"))
	require.NoError(t, err)
	_, _, err = userSrv.Register(ctx, registerDTO("1003", "carol"))
	require.NoError(t, err)

	store.AddListing("1002", "Old bike")
	store.AddListing("1002", "Bookshelf")

	// bob ends up in two chats and, as a seller, with two notifications
	_, _, err = chatSrv.FindOrCreate(ctx, &service.FindOrCreateChatDTO{BuyerID: "1001", SellerID: "1002"})
	require.NoError(t, err)
	_, _, err = chatSrv.FindOrCreate(ctx, &service.FindOrCreateChatDTO{BuyerID: "1003", SellerID: "1002"})
	require.NoError(t, err)

	result, err := userSrv.Purge(ctx, "1002")
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedListings)
	assert.Equal(t, 2, result.DeletedChats)
	assert.Equal(t, 2, result.DeletedNotifications)

	_, err = userSrv.GetByTelegramID(ctx, "1002")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chats, err := chatSrv.ListForUser(ctx, "1001")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestPurgeUnknownUser(t *testing.T) {
	srv := newUserService(servicetest.NewStore())

	_, err := srv.Purge(context.Background(), "9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
