package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendbook/internal/logger"
)

const (
	SessionCookieName      = "spendbook_session"
	DefaultSessionDuration = 30 * 24 * time.Hour // 30 days
)

type contextKey struct{}

var userIDKey = contextKey{}

type Auth struct {
	db       *sql.DB
	password string
	ttl      time.Duration
}

// New creates an authenticator backed by the sessions table. All users share one password.
func New(db *sql.DB, password string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultSessionDuration
	}
	return &Auth{db: db, password: password, ttl: ttl}
}

// CheckPassword verifies the provided password
func (a *Auth) CheckPassword(ctx context.Context, userID int64, password string) bool {
	success := a.password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	l := logger.FromContext(ctx)

	if success {
		l.Info("auth_login_success", "user_id", userID)
	} else {
		l.Warn("auth_login_failed", "user_id", userID, "reason", "invalid_password")
	}
	return success
}

// CreateSession creates a new session for the user and returns the token
func (a *Auth) CreateSession(ctx context.Context, userID int64) (string, error) {
	l := logger.FromContext(ctx)

	token, err := generateToken()
	if err != nil {
		l.Error("auth_session_create_error", "error", err.Error())
		return "", err
	}

	expiresAt := time.Now().UTC().Add(a.ttl)
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)
	`, token, userID, expiresAt)
	if err != nil {
		l.Error("auth_session_create_error", "error", err.Error())
		return "", fmt.Errorf("create session: %w", err)
	}

	l.Info("auth_session_created", "user_id", userID, "expires_at", expiresAt.Format(time.RFC3339))
	return token, nil
}

// ValidateSession returns the user owning an unexpired session token
func (a *Auth) ValidateSession(ctx context.Context, token string) (int64, bool) {
	l := logger.FromContext(ctx)

	var userID int64
	var expiresAt time.Time
	err := a.db.QueryRowContext(ctx, `
		SELECT user_id, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&userID, &expiresAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			l.Error("auth_session_lookup_error", "error", err.Error())
		}
		l.Debug("auth_session_invalid", "reason", "not_found")
		return 0, false
	}

	if time.Now().After(expiresAt) {
		l.Debug("auth_session_invalid", "reason", "expired")
		return 0, false
	}
	return userID, true
}

// DeleteSession removes a session
func (a *Auth) DeleteSession(ctx context.Context, token string) error {
	l := logger.FromContext(ctx)

	_, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		l.Error("auth_session_delete_error", "error", err.Error())
		return err
	}
	l.Info("auth_logout")
	return nil
}

// CleanExpiredSessions removes expired sessions and returns how many were deleted
func (a *Auth) CleanExpiredSessions(ctx context.Context) (int64, error) {
	result, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("clean sessions: %w", err)
	}
	return result.RowsAffected()
}

// SetSessionCookie sets the session cookie on the response
func (a *Auth) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie
func (a *Auth) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetSessionFromRequest reads the session token from the cookie or a Bearer Authorization header
func (a *Auth) GetSessionFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware rejects requests without a valid session and stores the user id in the request context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := logger.FromContext(ctx)

		token := a.GetSessionFromRequest(r)
		if token == "" {
			l.Debug("auth_no_session", "path", r.URL.Path)
			unauthorized(w)
			return
		}

		userID, ok := a.ValidateSession(ctx, token)
		if !ok {
			l.Debug("auth_rejected", "path", r.URL.Path)
			unauthorized(w)
			return
		}

		ctx = WithUserID(ctx, userID)
		ctx = logger.WithLogger(ctx, l.With("user_id", userID))
		logger.Annotate(ctx, "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUserID returns a context carrying the authenticated user id
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "authentication required"})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
