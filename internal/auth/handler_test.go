package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adboard/adboard/internal/auth"
	"github.com/adboard/adboard/internal/authz"
	"github.com/adboard/adboard/internal/shared"
	_ "github.com/adboard/adboard/testing"
)

type stubRepo struct {
	users  map[string]*auth.User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*auth.User), nextID: 1}
}

func (s *stubRepo) CreateUser(ctx context.Context, email, hash string) (int64, error) {
	if _, ok := s.users[email]; ok {
		return 0, shared.ErrDuplicateEmail
	}
	id := s.nextID
	s.nextID++
	s.users[email] = &auth.User{ID: id, Email: email, PasswordHash: hash}
	return id, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newAuthRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	handler := auth.NewHandler(nil, auth.NewService(newStubRepo()).WithCost(bcrypt.MinCost), sessionManager)
	r := chi.NewRouter()
	r.Use(authz.Identify(sessionManager))
	handler.MountRoutes(r)
	return r, sessionManager
}

func do(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestRegisterTwice(t *testing.T) {
	router, _ := newAuthRouter(t)
	body := `{"email":"alice@example.com","password":"pw1"}`

	rec := do(t, router, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered successfully!", message(t, rec))

	rec = do(t, router, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists!", message(t, rec))
}

func TestRegisterMissingField(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := do(t, router, http.MethodPost, "/register", `{"email":"alice@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/register", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginInvalidCredentialsAreUniform(t *testing.T) {
	router, _ := newAuthRouter(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/register", `{"email":"alice@example.com","password":"pw1"}`).Code)

	wrong := do(t, router, http.MethodPost, "/login", `{"email":"alice@example.com","password":"bad"}`)
	unknown := do(t, router, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"pw1"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "Invalid credentials!", message(t, wrong))
	assert.Empty(t, wrong.Result().Cookies())
}

func TestLoginLogoutFlow(t *testing.T) {
	router, sessions := newAuthRouter(t)
	creds := `{"email":"alice@example.com","password":"pw1"}`
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/register", creds).Code)

	rec := do(t, router, http.MethodPost, "/login", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged in successfully!", message(t, rec))
	cookie := sessionCookie(t, rec, sessions.CookieName())

	rec = do(t, router, http.MethodPost, "/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully!", message(t, rec))
	cleared := sessionCookie(t, rec, sessions.CookieName())
	assert.Empty(t, cleared.Value)

	// The old cookie no longer authenticates.
	rec = do(t, router, http.MethodPost, "/logout", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	router, _ := newAuthRouter(t)
	rec := do(t, router, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRotatesExistingSession(t *testing.T) {
	router, sessions := newAuthRouter(t)
	creds := `{"email":"alice@example.com","password":"pw1"}`
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/register", creds).Code)

	first := sessionCookie(t, do(t, router, http.MethodPost, "/login", creds), sessions.CookieName())
	second := sessionCookie(t, do(t, router, http.MethodPost, "/login", creds, first), sessions.CookieName())
	assert.NotEqual(t, first.Value, second.Value)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/logout", "", first).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/logout", "", second).Code)
}
