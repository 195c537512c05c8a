package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyeasy/complyeasy/pkg/stores"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMagicLinkFlow(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f, _ := setupFacade(t, WithClock(clock.Now))
	ctx := context.Background()

	_, err := f.Auth.RequestMagicLink(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	link, err := f.Auth.RequestMagicLink(ctx, adminEmail)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.Equal(t, clock.Now().Add(time.Minute), link.ExpiresAt)

	session, err := f.Auth.VerifyMagicLink(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
	require.NotNil(t, session.User.LastLogin)
	assert.True(t, session.User.LastLogin.Equal(clock.Now()))

	// a session token is not a magic link
	_, err = f.Auth.VerifyMagicLink(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	actorCtx, resumed, err := f.Auth.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Token, resumed.Token)
	actor, ok := ActorFrom(actorCtx)
	require.True(t, ok)
	assert.Equal(t, "Sarah Connor", actor.Name)

	require.NoError(t, f.Auth.Logout(ctx))
	_, _, err = f.Auth.Resume(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterIgnoresSuppliedID(t *testing.T) {
	f, _ := setupFacade(t)
	ctx := context.Background()

	eve, err := f.Auth.Register(ctx, stores.User{ID: "u1", Name: "Eve", Email: "eve@x.com", Role: stores.RoleViewer})
	require.NoError(t, err)
	assert.NotEqual(t, "u1", eve.ID)

	link, err := f.Auth.RequestMagicLink(ctx, "eve@x.com")
	require.NoError(t, err)
	session, err := f.Auth.VerifyMagicLink(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, eve.ID, session.User.ID)
	assert.Equal(t, "eve@x.com", session.User.Email)
	assert.Equal(t, stores.RoleViewer, session.User.Role)
}

func TestMagicLinkExpires(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f, _ := setupFacade(t, WithClock(clock.Now))
	ctx := context.Background()

	link, err := f.Auth.RequestMagicLink(ctx, adminEmail)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = f.Auth.VerifyMagicLink(ctx, link.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.Auth.VerifyMagicLink(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionExpiryClearsSession(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	f, _ := setupFacade(t, WithClock(clock.Now))
	ctx := context.Background()

	link, err := f.Auth.RequestMagicLink(ctx, editorEmail)
	require.NoError(t, err)
	_, err = f.Auth.VerifyMagicLink(ctx, link.Token)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, _, err = f.Auth.Resume(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, found, err := f.core.repos.Sessions.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found, "expired session is cleared")
}

func TestResumePicksUpRoleChanges(t *testing.T) {
	f, _ := setupFacade(t)
	ctx := context.Background()

	link, err := f.Auth.RequestMagicLink(ctx, viewerEmail)
	require.NoError(t, err)
	_, err = f.Auth.VerifyMagicLink(ctx, link.Token)
	require.NoError(t, err)

	admin := actingAs(t, f, adminEmail)
	_, err = f.Team.UpdateRole(admin, "u3", stores.RoleEditor)
	require.NoError(t, err)

	actorCtx, _, err := f.Auth.Resume(ctx)
	require.NoError(t, err)
	actor, _ := ActorFrom(actorCtx)
	assert.Equal(t, stores.RoleEditor, actor.Role)
}

func TestSessionsSurviveFacadeRestart(t *testing.T) {
	medium := stores.NewMemoryMedium()
	first, _ := setupFacadeWithMedium(t, medium)

	link, err := first.Auth.RequestMagicLink(context.Background(), adminEmail)
	require.NoError(t, err)
	_, err = first.Auth.VerifyMagicLink(context.Background(), link.Token)
	require.NoError(t, err)

	// same secret, same medium
	second, _ := setupFacadeWithMedium(t, medium)
	_, session, err := second.Auth.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.ID)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JA", initials("Jane"))
	assert.Equal(t, "Ö", initials("ö"))
	assert.Equal(t, "", initials("  "))
	assert.Equal(t, "ÉL", initials("élodie"))
}
