package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/services"
	"receipts-backend/internal/storage"
	"receipts-backend/internal/store/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	apiPrefix  = "/api/v1"
	cookieName = "session_token"
	sessionTTL = 30 * 24 * time.Hour
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
	files *storage.Local
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLimiter(t, NewLoginLimiter(0, 1))
}

func newTestServerWithLimiter(t *testing.T, limiter *LoginLimiter) *testServer {
	t.Helper()
	st := memory.New()
	files, err := storage.NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	hasher := services.NewBcryptHasher(bcrypt.MinCost)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(app.Group(apiPrefix), Deps{
		Users:    services.NewUserService(st, st, files, hasher),
		Sessions: services.NewSessionService(st, st, hasher, sessionTTL),
		Photos:   services.NewPhotoService(st, st, files),
		Cookie:   CookieConfig{Name: cookieName, Secure: true},
		Limiter:  limiter,
	})
	return &testServer{app: app, store: st, files: files}
}

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, apiPrefix+path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return s.do(t, req)
}

// upload posts a multipart photo form. A zero userID omits the field.
func (s *testServer) upload(t *testing.T, userID int64, filename, contentType string, data []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	if userID != 0 {
		require.NoError(t, w.WriteField("user_id", fmt.Sprint(userID)))
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, apiPrefix+"/photos/", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return s.do(t, req)
}

func (s *testServer) register(t *testing.T, email string) models.AuthResponse {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"password":   "correct horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out models.AuthResponse
	decode(t, resp, &out)
	return out
}

func (s *testServer) uploadedFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(s.files.Dir())
	require.NoError(t, err)
	return entries
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func detailOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, resp, &body)
	return body.Detail
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
