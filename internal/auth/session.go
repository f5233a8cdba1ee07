// Package auth provides the session identity and bearer credential every
// backend request carries.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrTokenExpired = errors.New("session token has expired")
)

type Session struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Expired reports whether the token is past its exp claim. Tokens without
// an exp claim never expire on the client side.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Provider hands out the current session. Implementations must be safe for
// concurrent use.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// ParseToken reads identity claims from an access token. With an empty
// secret the signature is not checked; the backend remains the authority.
func ParseToken(tokenStr string, secret []byte) (*Session, error) {
	if tokenStr == "" {
		return nil, ErrNoSession
	}

	var (
		token *jwt.Token
		err   error
	)
	if len(secret) > 0 {
		token, err = jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
	} else {
		token, _, err = jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	}
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	// Supabase puts the user id in "sub"; older tokens use "user_id".
	userIDStr, _ := claims["sub"].(string)
	if userIDStr == "" {
		userIDStr, _ = claims["user_id"].(string)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	s := &Session{UserID: userID, AccessToken: tokenStr}
	s.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// StaticProvider serves one token for the life of the process, as the
// terminal client does.
type StaticProvider struct {
	session *Session
	now     func() time.Time
}

func NewStaticProvider(token string, secret []byte) (*StaticProvider, error) {
	s, err := ParseToken(token, secret)
	if err != nil {
		return nil, err
	}
	return &StaticProvider{session: s, now: time.Now}, nil
}

func (p *StaticProvider) Session(ctx context.Context) (*Session, error) {
	if p.session.Expired(p.now()) {
		return nil, ErrTokenExpired
	}
	return p.session, nil
}

type ctxKey struct{}

// WithSession attaches a request-scoped session, used by the bridge server
// where every browser request brings its own token.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// ContextProvider resolves the session from the request context.
type ContextProvider struct{}

func (ContextProvider) Session(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}
