package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:test-bot-token"

// signInitData builds a signed initData string the way the platform does.
func signInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))

	return values.Encode()
}

func validFields(authDate time.Time) map[string]string {
	return map[string]string{
		"auth_date": fmt.Sprintf("%d", authDate.Unix()),
		"query_id":  "AAF9tW1TAAAAAH21bVOCvyA1",
		"user":      `{"id":1001,"first_name":"Alice","username":"alice","language_code":"en"}`,
	}
}

func TestVerify(t *testing.T) {
	now := time.Now()

	newVerifier := func() *Verifier {
		v := NewVerifier(testBotToken, true)
		v.now = func() time.Time { return now }
		return v
	}

	t.Run("ValidSignature", func(t *testing.T) {
		initData := signInitData(t, testBotToken, validFields(now))

		user, err := newVerifier().Verify(initData)
		require.NoError(t, err)
		assert.Equal(t, int64(1001), user.ID)
		assert.Equal(t, "Alice", user.FirstName)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "1001", user.TelegramID())
	})

	t.Run("TamperedHash", func(t *testing.T) {
		initData := signInitData(t, testBotToken, validFields(now))

		values, err := url.ParseQuery(initData)
		require.NoError(t, err)

		hash := []byte(values.Get("hash"))
		if hash[0] == 'a' {
			hash[0] = 'b'
		} else {
			hash[0] = 'a'
		}
		values.Set("hash", string(hash))

		_, err = newVerifier().Verify(values.Encode())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid signature")
	})

	t.Run("WrongBotToken", func(t *testing.T) {
		initData := signInitData(t, "999:other-token", validFields(now))

		_, err := newVerifier().Verify(initData)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid signature")
	})

	t.Run("MissingInitData", func(t *testing.T) {
		_, err := newVerifier().Verify("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing credentials")
	})

	t.Run("MissingHash", func(t *testing.T) {
		fields := validFields(now)
		values := url.Values{}
		for k, v := range fields {
			values.Set(k, v)
		}

		_, err := newVerifier().Verify(values.Encode())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed credentials")
	})

	t.Run("FreshJustInsideWindow", func(t *testing.T) {
		issued := now.Add(-(24*time.Hour - time.Second))
		initData := signInitData(t, testBotToken, validFields(issued))

		_, err := newVerifier().Verify(initData)
		require.NoError(t, err)
	})

	t.Run("StaleJustOutsideWindow", func(t *testing.T) {
		issued := now.Add(-(24*time.Hour + time.Second))
		initData := signInitData(t, testBotToken, validFields(issued))

		_, err := newVerifier().Verify(initData)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired credentials")
	})

	t.Run("MissingUserClaims", func(t *testing.T) {
		fields := validFields(now)
		delete(fields, "user")
		initData := signInitData(t, testBotToken, fields)

		_, err := newVerifier().Verify(initData)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no identity data")
	})
}

func TestVerifyFallbacks(t *testing.T) {
	t.Run("NoTokenStrictRejects", func(t *testing.T) {
		v := NewVerifier("", true)

		_, err := v.Verify("user=%7B%22id%22%3A7%2C%22first_name%22%3A%22Eve%22%7D")
		require.Error(t, err)
	})

	t.Run("NoTokenPermissiveAccepts", func(t *testing.T) {
		v := NewVerifier("", false)

		user, err := v.Verify("user=%7B%22id%22%3A7%2C%22first_name%22%3A%22Eve%22%7D")
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
	})

	t.Run("HeaderStrictRejects", func(t *testing.T) {
		v := NewVerifier(testBotToken, true)

		_, err := v.VerifyHeader(`{"id":7,"first_name":"Eve"}`)
		require.Error(t, err)
	})

	t.Run("HeaderPermissiveAccepts", func(t *testing.T) {
		v := NewVerifier(testBotToken, false)

		user, err := v.VerifyHeader(`{"id":7,"first_name":"Eve"}`)
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
	})

	t.Run("HeaderWithoutIdentity", func(t *testing.T) {
		v := NewVerifier(testBotToken, false)

		_, err := v.VerifyHeader(`{"first_name":"Eve"}`)
		require.Error(t, err)
	})
}
