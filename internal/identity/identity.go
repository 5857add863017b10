// Package identity provides anonymous per-device identity primitives.
//
// Callers are identified by an opaque cookie id only; there is no
// authentication beyond that, by design.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	AnonCookieName = "arena_anon_id"
	NameHeaderName = "X-Arena-Name"

	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const (
	userIDKey contextKey = iota
	displayNameKey
)

var (
	anonIDPattern      = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)
	displayNamePattern = regexp.MustCompile(`^[^\x00-\x1f\x7f]{1,64}$`)
)

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// DisplayNameFromContext extracts the caller's display name.
func DisplayNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(displayNameKey).(string); ok {
		return v
	}
	return "candidate"
}

// WithIdentity returns a context carrying the given identity. Used by
// tests and by non-HTTP entry points.
func WithIdentity(ctx context.Context, userID, displayName string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, displayNameKey, displayName)
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

func deriveUsername(userID string) string {
	if len(userID) > 13 {
		return "anon-" + userID[len(userID)-8:]
	}
	return "anon-user"
}

func sanitizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || !displayNamePattern.MatchString(name) {
		return ""
	}
	return name
}

// Middleware assigns or restores the caller's anonymous identity cookie and
// resolves their display name from the X-Arena-Name header or the "name"
// query parameter.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if cookie, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(cookie.Value) {
				userID = cookie.Value
			}

			if userID == "" {
				generated, err := generateAnonID()
				if err != nil {
					http.Error(w, "identity unavailable", http.StatusInternalServerError)
					return
				}
				userID = generated
				http.SetCookie(w, &http.Cookie{
					Name:     AnonCookieName,
					Value:    userID,
					Path:     "/",
					MaxAge:   int(anonCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   !isDev,
					SameSite: http.SameSiteLaxMode,
				})
			}

			displayName := sanitizeDisplayName(r.Header.Get(NameHeaderName))
			if displayName == "" {
				displayName = sanitizeDisplayName(r.URL.Query().Get("name"))
			}
			if displayName == "" {
				displayName = deriveUsername(userID)
			}

			ctx := WithIdentity(r.Context(), userID, displayName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
