/*
Package auth gates the ledger behind a single local password.

PURPOSE:
  There is one user. The first call sets the password, later calls log in
  with it. A successful login returns a signed session token that the HTTP
  middleware checks on every protected route.

STORAGE:
  work-calendar-password-hash  bcrypt hash, raw bytes

TOKENS:
  HS256 via go-chi/jwtauth. Claims: sub=owner, type=session, iat, exp.
  Tokens are stateless: changing the password does not revoke sessions
  already issued, they expire after the configured TTL.

SEE ALSO:
  - api/server.go: Mounts Middleware on the protected routes
  - config/config.go: JWT_SECRET, SESSION_TTL
*/
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/sirupsen/logrus"
	"github.com/warp/absence-ledger/generic"
	"golang.org/x/crypto/bcrypt"
)

// KeyPasswordHash is the store key of the bcrypt hash.
const KeyPasswordHash = "work-calendar-password-hash"

const (
	minPasswordLength = 4
	subject           = "owner"
	tokenType         = "session"
)

var (
	ErrPasswordAlreadySet = errors.New("password already set")
	ErrPasswordNotSet     = errors.New("password not set")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrUnauthorized       = errors.New("unauthorized")
)

// Session is a signed token and its expiry.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gate checks the password and issues sessions.
type Gate struct {
	store     generic.Store
	tokenAuth *jwtauth.JWTAuth
	ttl       time.Duration
	cost      int
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewGate(store generic.Store, secret string, ttl time.Duration, log logrus.FieldLogger) *Gate {
	return &Gate{
		store:     store,
		tokenAuth: jwtauth.New("HS256", []byte(secret), nil, jwt.WithAcceptableSkew(30*time.Second)),
		ttl:       ttl,
		cost:      bcrypt.DefaultCost,
		log:       log,
		now:       time.Now,
	}
}

// IsPasswordSet reports whether a password hash is stored.
func (g *Gate) IsPasswordSet(ctx context.Context) (bool, error) {
	_, err := g.store.Get(ctx, KeyPasswordHash)
	if errors.Is(err, generic.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetPassword stores the first password and opens a session.
func (g *Gate) SetPassword(ctx context.Context, password string) (Session, error) {
	set, err := g.IsPasswordSet(ctx)
	if err != nil {
		return Session{}, err
	}
	if set {
		return Session{}, ErrPasswordAlreadySet
	}
	if err := g.storeHash(ctx, password); err != nil {
		return Session{}, err
	}
	g.log.Info("password set")
	return g.issue()
}

// ChangePassword replaces the password after checking the current one.
func (g *Gate) ChangePassword(ctx context.Context, current, next string) error {
	if err := g.verify(ctx, current); err != nil {
		return err
	}
	if err := g.storeHash(ctx, next); err != nil {
		return err
	}
	g.log.Info("password changed")
	return nil
}

// Login checks password and opens a session.
func (g *Gate) Login(ctx context.Context, password string) (Session, error) {
	if err := g.verify(ctx, password); err != nil {
		g.log.WithError(err).Warn("login failed")
		return Session{}, err
	}
	return g.issue()
}

func (g *Gate) verify(ctx context.Context, password string) error {
	hash, err := g.store.Get(ctx, KeyPasswordHash)
	if errors.Is(err, generic.ErrKeyNotFound) {
		return ErrPasswordNotSet
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

func (g *Gate) storeHash(ctx context.Context, password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return g.store.Set(ctx, KeyPasswordHash, hash)
}

func (g *Gate) issue() (Session, error) {
	now := g.now()
	expiresAt := now.Add(g.ttl)
	_, token, err := g.tokenAuth.Encode(map[string]interface{}{
		"sub":  subject,
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt.UTC()}, nil
}

// =============================================================================
// HTTP MIDDLEWARE
// =============================================================================

// Middleware rejects requests without a valid session token.
// Tokens are read from the Authorization header or the "jwt" cookie.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	require := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			unauthorized(w)
			return
		}
		if t, ok := claims["type"].(string); !ok || t != tokenType {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
	return jwtauth.Verifier(g.tokenAuth)(require)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthorized.Error()})
}
