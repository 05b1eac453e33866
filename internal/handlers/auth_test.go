package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRegistersNewUser(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "  Ada@Example.com ",
		"password":   "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out models.AuthResponse
	decode(t, resp, &out)
	assert.NotZero(t, out.ID)
	assert.Equal(t, "Ada", out.FirstName)
	assert.Equal(t, "Lovelace", out.LastName)
	assert.Equal(t, "ada@example.com", out.Email)

	raw, err := base64.RawURLEncoding.DecodeString(out.SessionToken)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw)*8, 128)

	cookie := findCookie(resp, cookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, out.SessionToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.WithinDuration(t, time.Now().Add(sessionTTL), cookie.Expires, time.Minute)

	sess, err := s.store.GetSessionByToken(context.Background(), out.SessionToken)
	require.NoError(t, err)
	assert.True(t, sess.IsActive)
	assert.Equal(t, out.ID, sess.UserID)
	assert.Equal(t, sess.CreatedAt.Add(sessionTTL), sess.ExpiresAt)
}

func TestLoginDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	resp := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"first_name": "Ada",
		"last_name":  "Again",
		"email":      "ADA@example.com",
		"password":   "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg := strings.ToLower(detailOf(t, resp))
	assert.Contains(t, msg, "already exists")
	assert.Contains(t, msg, "email")

	users, err := s.store.ListUsers(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLoginExistingUser(t *testing.T) {
	s := newTestServer(t)
	first := s.register(t, "ada@example.com")

	resp := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out models.AuthResponse
	decode(t, resp, &out)
	assert.Equal(t, first.ID, out.ID)
	assert.NotEqual(t, first.SessionToken, out.SessionToken)
	assert.NotNil(t, findCookie(resp, cookieName))
}

func TestLoginInvalidCredentialsAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	wrongPassword := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "nope",
	})
	unknownEmail := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)
	assert.Equal(t, detailOf(t, wrongPassword), detailOf(t, unknownEmail))
	assert.Nil(t, findCookie(wrongPassword, cookieName))
}

func TestUsersLoginAlias(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	resp := s.doJSON(t, http.MethodPost, "/users/login", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestLoginMalformedBody(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "not-an-email",
		"password":   "pw",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func assertCookieCleared(t *testing.T, resp *http.Response) {
	t.Helper()
	cookie := findCookie(resp, cookieName)
	require.NotNil(t, cookie, "logout must clear the cookie")
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge, "Max-Age=0 parses as -1")
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	auth := s.register(t, "ada@example.com")

	resp := s.doJSON(t, http.MethodPost, "/auth/logout", nil, &http.Cookie{Name: cookieName, Value: auth.SessionToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assertCookieCleared(t, resp)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Logged out successfully", body["message"])

	_, err := s.store.GetSessionByToken(ctx, auth.SessionToken)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogoutWithoutSession(t *testing.T) {
	s := newTestServer(t)

	cases := map[string][]*http.Cookie{
		"no cookie":     nil,
		"unknown token": {{Name: cookieName, Value: "does-not-exist"}},
	}
	for name, cookies := range cases {
		t.Run(name, func(t *testing.T) {
			resp := s.doJSON(t, http.MethodPost, "/auth/logout", nil, cookies...)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assertCookieCleared(t, resp)
		})
	}
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	auth := s.register(t, "ada@example.com")
	cookie := &http.Cookie{Name: cookieName, Value: auth.SessionToken}

	resp := s.doJSON(t, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user models.User
	decode(t, resp, &user)
	assert.Equal(t, auth.ID, user.ID)

	s.doJSON(t, http.MethodPost, "/auth/logout", nil, cookie)

	resp = s.doJSON(t, http.MethodGet, "/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.doJSON(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRateLimit(t *testing.T) {
	limiter := NewLoginLimiter(0.001, 2)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	s := newTestServerWithLimiter(t, limiter)

	creds := map[string]string{"email": "ghost@example.com", "password": "nope"}
	assert.Equal(t, http.StatusUnauthorized, s.doJSON(t, http.MethodPost, "/auth/login", creds).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, s.doJSON(t, http.MethodPost, "/auth/login", creds).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, s.doJSON(t, http.MethodPost, "/auth/login", creds).StatusCode)

	// Logout is not throttled.
	assert.Equal(t, http.StatusOK, s.doJSON(t, http.MethodPost, "/auth/logout", nil).StatusCode)
}

func TestLoginKeepsUserAgentAfterLaterRequests(t *testing.T) {
	s := newTestServer(t)
	auth := s.register(t, "ada@example.com")

	login := httptest.NewRequest(http.MethodPost, apiPrefix+"/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`))
	login.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	login.Header.Set(fiber.HeaderUserAgent, "AgentOne/1.0")
	resp := s.do(t, login)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out models.AuthResponse
	decode(t, resp, &out)
	require.NotEqual(t, auth.SessionToken, out.SessionToken)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, apiPrefix+"/users/", nil)
		req.Header.Set(fiber.HeaderUserAgent, "ZZZZZZZZZZZZ")
		s.do(t, req)
	}

	sess, err := s.store.GetSessionByToken(context.Background(), out.SessionToken)
	require.NoError(t, err)
	require.NotNil(t, sess.UserAgent)
	assert.Equal(t, "AgentOne/1.0", *sess.UserAgent)
}

func TestLoginRejectsOverlongName(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"first_name": strings.Repeat("a", 300),
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"password":   "correct horse",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detailOf(t, resp), "first_name")

	users, err := s.store.ListUsers(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Empty(t, users)
}
