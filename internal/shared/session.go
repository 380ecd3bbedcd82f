package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager issues opaque session tokens backed by Redis.
//
// Tokens travel in a cookie signed with the configured secret so forged
// values are rejected before Redis is consulted. Each stored session
// expires after ttl of inactivity.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
	logger     *slog.Logger
}

// Session is the server-side record bound to a token.
type Session struct {
	Token    string
	UserID   int64
	IssuedAt time.Time
}

type sessionPayload struct {
	UserID   int64     `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used for store failures.
func (sm *SessionManager) WithLogger(logger *slog.Logger) *SessionManager {
	if logger != nil {
		sm.logger = logger
	}
	return sm
}

// Create allocates a fresh token bound to userID.
func (sm *SessionManager) Create(ctx context.Context, userID int64) (*Session, error) {
	sess := &Session{
		Token:    sm.generateToken(),
		UserID:   userID,
		IssuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(sessionPayload{UserID: sess.UserID, IssuedAt: sess.IssuedAt})
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), data, sm.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resolve returns the identity bound to token or Anonymous.
// A successful lookup slides the idle expiry forward.
func (sm *SessionManager) Resolve(ctx context.Context, token string) Identity {
	if token == "" {
		return Anonymous
	}
	key := sm.redisKey(token)
	data, err := sm.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			sm.logger.Warn("session lookup failed", slog.Any("error", err))
		}
		return Anonymous
	}
	var stored sessionPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		sm.logger.Warn("session payload corrupt", slog.Any("error", err))
		return Anonymous
	}
	if stored.UserID <= 0 {
		return Anonymous
	}
	if err := sm.client.Expire(ctx, key, sm.ttl).Err(); err != nil {
		sm.logger.Warn("session refresh failed", slog.Any("error", err))
	}
	return Authenticated(stored.UserID)
}

// ResolveRequest reads the session cookie from r and resolves it.
// The verified token is returned alongside the identity, empty when absent.
func (sm *SessionManager) ResolveRequest(ctx context.Context, r *http.Request) (Identity, string) {
	token, ok := sm.tokenFromRequest(r)
	if !ok {
		return Anonymous, ""
	}
	id := sm.Resolve(ctx, token)
	if !id.IsAuthenticated() {
		return Anonymous, ""
	}
	return id, token
}

// Destroy invalidates token. Unknown tokens are a no-op.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// SetCookie writes the signed session cookie.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.Token + "." + sm.sign(sess.Token),
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
}

// ClearCookie instructs the client to drop the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TTL exposes the configured idle timeout.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

func (sm *SessionManager) tokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	idx := strings.LastIndexByte(cookie.Value, '.')
	if idx <= 0 || idx == len(cookie.Value)-1 {
		return "", false
	}
	token, sig := cookie.Value[:idx], cookie.Value[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(sm.sign(token))) {
		return "", false
	}
	return token, true
}

func (sm *SessionManager) sign(token string) string {
	mac := hmac.New(sha256.New, sm.secret)
	_, _ = mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (sm *SessionManager) redisKey(token string) string {
	return "session:" + token
}

func (sm *SessionManager) generateToken() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing leaves no safe token source.
		panic("shared: read random session token: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
