package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef") // 32 bytes

const testToken = "0f1e2d3c4b5a69780f1e2d3c4b5a69780f1e2d3c4b5a69780f1e2d3c4b5a6978"

func setCookieRequest(t *testing.T, secret []byte, ttl time.Duration) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, SetToken(rec, testToken, secret, ttl))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return req
}

func TestSetAndGetToken(t *testing.T) {
	req := setCookieRequest(t, testSecret, time.Hour)

	token, err := GetToken(req, testSecret)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
}

func TestSetToken_Attributes(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SetToken(rec, testToken, testSecret, 2*time.Hour))

	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 7200, cookie.MaxAge)
	// The raw token must not be recoverable from the cookie value.
	assert.NotContains(t, cookie.Value, testToken)
}

func TestGetToken_MissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := GetToken(req, testSecret)
	assert.ErrorIs(t, err, http.ErrNoCookie)
}

func TestGetToken_TamperedValue(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SetToken(rec, testToken, testSecret, time.Hour))
	cookie := rec.Result().Cookies()[0]

	// Flip a character in the base64 payload.
	tampered := []byte(cookie.Value)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: string(tampered)})

	_, err := GetToken(req, testSecret)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestGetToken_WrongKey(t *testing.T) {
	req := setCookieRequest(t, testSecret, time.Hour)

	otherSecret := []byte("fedcba9876543210fedcba9876543210")
	_, err := GetToken(req, otherSecret)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestGetToken_GarbageValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "!!not-base64!!"})

	_, err := GetToken(req, testSecret)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	Clear(rec)

	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	// Two cookies for the same token differ because of the random nonce.
	recA := httptest.NewRecorder()
	recB := httptest.NewRecorder()
	require.NoError(t, SetToken(recA, testToken, testSecret, time.Hour))
	require.NoError(t, SetToken(recB, testToken, testSecret, time.Hour))

	valueA := recA.Result().Cookies()[0].Value
	valueB := recB.Result().Cookies()[0].Value
	assert.NotEqual(t, valueA, valueB)
}
