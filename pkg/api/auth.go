package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

const (
	purposeMagicLink = "magic_link"
	purposeSession   = "session"

	// defaultOrganizationID is used when no organization row exists yet.
	defaultOrganizationID = "org1"
)

type tokenClaims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// MagicLink is a single sign-in token sent to a user's inbox.
type MagicLink struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService handles sign-in, registration and the local session.
type AuthService struct {
	c *core
}

// Login returns the user registered under email. An unknown email yields an
// error matching ErrNotFound so the caller can switch to registration.
func (s *AuthService) Login(ctx context.Context, email string) (_ stores.User, err error) {
	cl, err := s.c.start(ctx, opLogin, "")
	if err != nil {
		return stores.User{}, err
	}
	defer func() { err = cl.end(err) }()

	user, found, err := s.c.repos.Users.Find(cl.ctx(), strings.TrimSpace(email))
	if err != nil {
		return stores.User{}, err
	}
	if !found {
		return stores.User{}, newError(KindNotFound, opLogin, "user not found", nil)
	}
	return user, nil
}

// Register creates a user under a freshly generated id; a supplied id is
// ignored. Missing fields are defaulted: the admin role, an avatar from the name's initials and the organization of
// this deployment.
func (s *AuthService) Register(ctx context.Context, user stores.User) (_ stores.User, err error) {
	cl, err := s.c.start(ctx, opRegister, "")
	if err != nil {
		return stores.User{}, err
	}
	defer func() { err = cl.end(err) }()

	if user.Role == "" {
		user.Role = stores.RoleAdmin
	}
	user.ID = ""
	user, err = s.c.prepareUser(cl.ctx(), user)
	if err != nil {
		return stores.User{}, err
	}
	if err := s.c.repos.Users.Create(cl.ctx(), user); err != nil {
		return stores.User{}, err
	}

	// registration is self-service: the new user is the actor
	cl.actor = user
	cl.publish(telemetry.EventTypeUserRegistered, user.ID, fmt.Sprintf("%s registered", user.Email))
	return user, cl.audit(fmt.Sprintf("User %s registered", user.Email))
}

// RequestMagicLink issues a sign-in token for a registered email.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) (_ MagicLink, err error) {
	cl, err := s.c.start(ctx, opRequestLink, "")
	if err != nil {
		return MagicLink{}, err
	}
	defer func() { err = cl.end(err) }()

	email = strings.TrimSpace(email)
	user, found, err := s.c.repos.Users.Find(cl.ctx(), email)
	if err != nil {
		return MagicLink{}, err
	}
	if !found {
		return MagicLink{}, newError(KindNotFound, opRequestLink, "user not found", nil)
	}

	token, expires, err := s.c.signToken(purposeMagicLink, user, s.c.auth.LinkTTL)
	if err != nil {
		return MagicLink{}, err
	}
	cl.ic.Logger.WithActor(email).Info("magic link issued")
	return MagicLink{Email: email, Token: token, ExpiresAt: expires}, nil
}

// VerifyMagicLink exchanges a magic-link token for a session, which is
// persisted so later calls can Resume it.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (_ stores.Session, err error) {
	cl, err := s.c.start(ctx, opVerifyLink, "")
	if err != nil {
		return stores.Session{}, err
	}
	defer func() { err = cl.end(err) }()

	claims, err := s.c.parseToken(token, purposeMagicLink)
	if err != nil {
		return stores.Session{}, newError(KindUnauthenticated, opVerifyLink, "invalid or expired link", err)
	}

	user, found, err := s.c.repos.Users.FindByID(cl.ctx(), claims.Subject)
	if err != nil {
		return stores.Session{}, err
	}
	if !found {
		return stores.Session{}, newError(KindUnauthenticated, opVerifyLink, "user no longer exists", nil)
	}

	now := s.c.now().UTC()
	user.LastLogin = &now
	if err := s.c.repos.Users.Update(cl.ctx(), user); err != nil {
		return stores.Session{}, err
	}

	sessionToken, expires, err := s.c.signToken(purposeSession, user, s.c.auth.SessionTTL)
	if err != nil {
		return stores.Session{}, err
	}
	session := stores.Session{Token: sessionToken, User: user, ExpiresAt: expires}
	if err := s.c.repos.Sessions.Save(cl.ctx(), session); err != nil {
		return stores.Session{}, err
	}

	cl.actor = user
	cl.publish(telemetry.EventTypeSessionStarted, user.ID, fmt.Sprintf("%s signed in", user.Email))
	return session, nil
}

// Resume loads the persisted session and returns a context acting as its
// user. The user is re-read so role changes apply immediately. An expired
// session is cleared.
func (s *AuthService) Resume(ctx context.Context) (_ context.Context, _ stores.Session, err error) {
	cl, err := s.c.start(ctx, opResume, "")
	if err != nil {
		return ctx, stores.Session{}, err
	}
	defer func() { err = cl.end(err) }()

	session, found, err := s.c.repos.Sessions.Load(cl.ctx())
	if err != nil {
		return ctx, stores.Session{}, err
	}
	if !found {
		return ctx, stores.Session{}, newError(KindUnauthenticated, opResume, "not signed in", nil)
	}

	claims, err := s.c.parseToken(session.Token, purposeSession)
	if err != nil {
		if clearErr := s.c.repos.Sessions.Clear(cl.ctx()); clearErr != nil {
			cl.ic.Logger.WithError(clearErr).Warn("failed to clear stale session")
		}
		return ctx, stores.Session{}, newError(KindUnauthenticated, opResume, "session expired", err)
	}

	user, found, err := s.c.repos.Users.FindByID(cl.ctx(), claims.Subject)
	if err != nil {
		return ctx, stores.Session{}, err
	}
	if !found {
		return ctx, stores.Session{}, newError(KindUnauthenticated, opResume, "user no longer exists", nil)
	}

	session.User = user
	return WithActor(ctx, user), session, nil
}

// Logout removes the persisted session.
func (s *AuthService) Logout(ctx context.Context) (err error) {
	cl, err := s.c.start(ctx, opLogout, "")
	if err != nil {
		return err
	}
	defer func() { err = cl.end(err) }()

	return s.c.repos.Sessions.Clear(cl.ctx())
}

// prepareUser fills the defaults shared by registration and invites.
func (c *core) prepareUser(ctx context.Context, user stores.User) (stores.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	if user.ID == "" {
		user.ID = "u_" + uuid.NewString()
	}
	if user.Avatar == "" {
		user.Avatar = initials(user.Name)
	}
	if user.OrganizationID == "" {
		org, found, err := c.repos.Organization.Get(ctx)
		if err != nil {
			return stores.User{}, err
		}
		user.OrganizationID = defaultOrganizationID
		if found {
			user.OrganizationID = org.ID
		}
	}
	return user, nil
}

// initials returns the first two letters of name in upper case.
func initials(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

func (c *core) signToken(purpose string, user stores.User, ttl time.Duration) (string, time.Time, error) {
	now := c.now().UTC()
	expires := now.Add(ttl)
	claims := tokenClaims{
		Purpose: purpose,
		Email:   user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.auth.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

func (c *core) parseToken(token, purpose string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.auth.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token subject missing")
	}
	return claims, nil
}
