package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"baraholka/internal/auth"
	"baraholka/internal/service"
	"baraholka/internal/service/servicetest"
	"github.com/stretchr/testify/require"
)

const (
	testBotToken     = "7000000001:AAtest-bot-token"
	testTicketSecret = "test-ticket-secret"
)

func newTestEnv(t *testing.T, strict bool, adminIDs []string) (*httptest.Server, *servicetest.Store) {
	t.Helper()

	store := servicetest.NewStore()
	users := servicetest.Users{Store: store}
	listings := servicetest.Listings{Store: store}
	chats := servicetest.Chats{Store: store}
	notifications := servicetest.Notifications{Store: store}
	relay := servicetest.Relay{Store: store}

	h := NewHandler(
		service.NewUserService(users, listings, chats, notifications),
		service.NewChatService(chats, listings, notifications, relay),
		service.NewNotificationService(notifications),
		service.NewRelayService(relay),
		testTicketSecret,
		time.Minute,
		strict,
	)

	s := &Server{router: http.NewServeMux()}
	s.setupRoutes(h, NewGuard(auth.NewVerifier(testBotToken, strict), users, adminIDs))

	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return ts, store
}

// signedInitData produces initData signed with the test bot token, the way
// the Telegram client would.
func signedInitData(t *testing.T, userID int64) string {
	t.Helper()

	values := url.Values{}
	values.Set("user", fmt.Sprintf(`{"id":%d,"first_name":"Test"}`, userID))
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("query_id", "AAtest")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(testBotToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

// doJSON fires a request at the test server; initData, when set, goes into
// the Authorization header under the tma scheme.
func doJSON(t *testing.T, ts *httptest.Server, method, path, initData string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if initData != "" {
		req.Header.Set("Authorization", "tma "+initData)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

func decodeInto(t *testing.T, payload []byte, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload, out))
}

func errorCode(t *testing.T, payload []byte) string {
	t.Helper()

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(payload, &response))
	return response.Error.Code
}

func registerBody(nickname string) *RegisterUserJSON {
	return &RegisterUserJSON{
		Nickname:    nickname,
		CountryCode: "DE",
		City:        "Berlin",
		RadiusKM:    25,
		Language:    "en",
	}
}
