package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	svc, _, _ := newTestService(t)
	return NewRouter(svc)
}

func doJSON(t *testing.T, router chi.Router, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestRouter_SignupSuccess(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"a@x.com","password":"Password1!"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice01", resp.User.Username)
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.NotEmpty(t, resp.User.ID)

	// The hash never appears in any shape in the response.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "hash")

	// Signup does not log in.
	assert.Empty(t, rec.Result().Cookies())
}

func TestRouter_SignupValidationAndConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"not-an-email","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "email", errResp.Field)
	assert.NotEmpty(t, errResp.Message)

	// An over-long password is the client's mistake, not a 500.
	rec = doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"carol7","email":"c@x.com","password":"`+strings.Repeat("p", 100)+`"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "password", errResp.Field)

	// Create, then collide on username.
	rec = doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"a@x.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"b@x.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "username", errResp.Field)
}

func TestRouter_SignupBadBody(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginSetsCookie(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"a@x.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/login",
		`{"username":"alice01","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
	assert.Positive(t, cookie.MaxAge)
	// The cookie value is encrypted, not the raw token.
	assert.NotRegexp(t, "^[0-9a-f]{64}$", cookie.Value)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice01", resp.User.Username)
}

func TestRouter_LoginFailures(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"a@x.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := doJSON(t, router, http.MethodPost, "/login",
		`{"username":"alice01","password":"wrong"}`, nil)
	unknownUser := doJSON(t, router, http.MethodPost, "/login",
		`{"username":"nobody99","password":"Password1!"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	// Identical bodies: the response doesn't reveal which field was wrong.
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestRouter_MeRoundtrip(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"a@x.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/login",
		`{"username":"alice01","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = doJSON(t, router, http.MethodGet, "/me", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice01", resp.User.Username)
	assert.Equal(t, "a@x.com", resp.User.Email)
}

func TestRouter_MeWithoutSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A forged cookie value fails decryption and is rejected the same way.
	forged := &http.Cookie{Name: "session", Value: "Zm9yZ2VkLWNvb2tpZS12YWx1ZQ=="}
	rec = doJSON(t, router, http.MethodGet, "/me", "", []*http.Cookie{forged})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LogoutRevokesSession(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/signup",
		`{"username":"alice01","email":"a@x.com","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/login",
		`{"username":"alice01","password":"Password1!"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = doJSON(t, router, http.MethodPost, "/logout", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, rec.Code)

	// The response clears the cookie.
	cleared := sessionCookie(t, rec)
	assert.Negative(t, cleared.MaxAge)

	// The old cookie no longer authenticates.
	rec = doJSON(t, router, http.MethodGet, "/me", "", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout is idempotent: with the dead cookie, or none at all.
	rec = doJSON(t, router, http.MethodPost, "/logout", "", []*http.Cookie{cookie})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
