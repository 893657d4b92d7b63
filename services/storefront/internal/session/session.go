// Package session ties a browser to a storefront session id through a signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookstore/internal/util"
)

const (
	CookieName = "bookstore_session"
	issuer     = "bookstore-storefront"
)

// Manager issues and verifies session cookies. The cookie carries an HS256 JWT whose
// subject is the session id. It has no Max-Age, so it lives as long as the browser session;
// the token itself expires after ttl without activity.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	leeway time.Duration
	now    func() time.Time
}

// NewManager requires a secret of at least 32 bytes.
func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		leeway: 30 * time.Second,
		now:    time.Now,
	}, nil
}

// TTL is the idle lifetime of a session.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Sign returns a token for sessionID valid for ttl.
func (m *Manager) Sign(sessionID string) (string, error) {
	now := m.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry and returns the claims.
func (m *Manager) Verify(token string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return jwt.RegisteredClaims{}, err
	}
	if !util.ValidID(claims.Subject) {
		return jwt.RegisteredClaims{}, errors.New("session subject is not a session id")
	}
	return claims, nil
}

// Resolve returns the session id of r. A missing or invalid cookie starts a new session.
// The cookie is reissued when the session is new or past half of its lifetime.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		claims, err := m.Verify(c.Value)
		if err == nil {
			if m.now().Sub(claims.IssuedAt.Time) > m.ttl/2 {
				if err := m.setCookie(w, claims.Subject); err != nil {
					return "", err
				}
			}
			return claims.Subject, nil
		}
		util.LoggerFromContext(r.Context()).Info("session cookie rejected", "err", err)
	}
	sessionID := util.NewID()
	if err := m.setCookie(w, sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, sessionID string) error {
	token, err := m.Sign(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
