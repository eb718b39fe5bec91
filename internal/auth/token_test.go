package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, now *time.Time) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec("test-secret", "HS256")
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return *now })
}

func TestTokenCodec_IssueVerifyRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)

	tok, err := c.Issue("alice", 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)

	sub, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestTokenCodec_WireClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)

	tok, err := c.Issue("alice", time.Hour)
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(tok, ".")[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	assert.Equal(t, "alice", claims["sub"])
	assert.EqualValues(t, now.Add(time.Hour).Unix(), claims["exp"])
}

func TestTokenCodec_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)

	for _, ttl := range []time.Duration{time.Second, time.Minute, 24 * time.Hour} {
		now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		tok, err := c.Issue("bob", ttl)
		require.NoError(t, err)

		now = now.Add(ttl - time.Second)
		_, err = c.Verify(tok)
		require.NoError(t, err, "still valid just before expiry (ttl %s)", ttl)

		now = now.Add(time.Second)
		_, err = c.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenExpired, "exp <= now is expired (ttl %s)", ttl)
	}
}

func TestTokenCodec_TamperedSignature(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)
	tok, err := c.Issue("alice", time.Hour)
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	parts := strings.Split(tok, ".")
	sig := parts[2]
	for i := range sig {
		// Flip the high bit of the sextet; the low bits of the last
		// character are padding and may be ignored by the decoder.
		v := strings.IndexByte(alphabet, sig[i])
		require.GreaterOrEqual(t, v, 0)
		tampered := sig[:i] + string(alphabet[v^0x20]) + sig[i+1:]
		_, err := c.Verify(parts[0] + "." + parts[1] + "." + tampered)
		assert.ErrorIs(t, err, ErrTokenInvalidSignature, "tampered signature at %d must fail", i)
	}
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)
	other, err := NewTokenCodec("other-secret", "HS256")
	require.NoError(t, err)

	tok, err := other.Issue("alice", time.Hour)
	require.NoError(t, err)
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	tok, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	tok, err = hs512.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenInvalidSignature)
}

func TestTokenCodec_Malformed(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "!!!.???.###"} {
		_, err := c.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", tok)
	}
}

func TestTokenCodec_MissingClaims(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = c.Verify(noExp)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = c.Verify(noSub)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestNewTokenCodec_Validation(t *testing.T) {
	_, err := NewTokenCodec("", "HS256")
	assert.Error(t, err)
	_, err = NewTokenCodec("s", "RS256")
	assert.Error(t, err)
	c, err := NewTokenCodec("s", "")
	require.NoError(t, err)
	assert.Equal(t, "HS256", c.method.Alg())
}
