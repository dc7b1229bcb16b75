package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/OmerEfron/friend-lines-server/cmd/identity"
	"github.com/OmerEfron/friend-lines-server/cmd/internal/metrics"
)

func newTestService(t *testing.T) (*Service, identity.User) {
	t.Helper()
	t.Setenv("FRIENDLINES_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("FRIENDLINES_ARGON2_ITERATIONS", "1")

	users := identity.NewMemoryStore()
	u, err := users.CreateUser(context.Background(), identity.CreateUserInput{
		Username: "alice",
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Password: "a strong enough password",
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.JWTSecret = []byte(testSecret)

	tokens, err := NewJWTManager(cfg)
	require.NoError(t, err)

	return NewService(cfg, users, NewMemoryStore(), tokens), u
}

func TestService_LoginIssuesPair(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	got, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)
	require.NotEmpty(t, got.AccessToken)
	require.NotEmpty(t, got.RefreshToken)
	require.True(t, got.AccessExp.After(now))
	require.True(t, got.RefreshExp.After(got.AccessExp), "refresh must outlive access")

	claims, err := svc.VerifyAccess(got.AccessToken, now)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := svc.Login(ctx, now, "alice", "wrong password here")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, now, "nobody", "a strong enough password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, now, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RefreshRotates(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, now.Add(time.Minute), first.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, second.UserID)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The new pair works.
	_, err = svc.VerifyAccess(second.AccessToken, now.Add(time.Minute))
	require.NoError(t, err)

	// The old refresh token is spent.
	_, err = svc.Refresh(ctx, now.Add(2*time.Minute), first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive)
}

func TestService_ReuseRevokesFamily(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, now.Add(time.Minute), first.RefreshToken)
	require.NoError(t, err)

	incidentsBefore := testutil.ToFloat64(metrics.RefreshReuseIncidents)

	// Replaying the spent token reports not-active and kills the family.
	_, err = svc.Refresh(ctx, now.Add(2*time.Minute), first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive)

	_, err = svc.Refresh(ctx, now.Add(3*time.Minute), second.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive, "family must be revoked after reuse")

	// Exactly one incident: the replay. The follow-up attempt with the
	// revoked descendant is ordinary not-active, not a second incident.
	require.Equal(t, incidentsBefore+1, testutil.ToFloat64(metrics.RefreshReuseIncidents))
}

func TestService_ConcurrentRefreshSingleWinner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, now.Add(time.Second), issued.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrRefreshNotActive)
		}
	}
	require.Equal(t, 1, wins, "exactly one concurrent refresh may succeed")
}

func TestService_LogoutIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, now, issued.RefreshToken))
	require.NoError(t, svc.Logout(ctx, now, issued.RefreshToken), "second logout must not fail")
	require.NoError(t, svc.Logout(ctx, now, "completely-unknown-token"))
	require.NoError(t, svc.Logout(ctx, now, ""))

	_, err = svc.Refresh(ctx, now.Add(time.Second), issued.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive)
}

func TestService_TTLScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	// Access token dies after its 15m TTL; the refresh token survives.
	later := now.Add(16 * time.Minute)
	_, err = svc.VerifyAccess(issued.AccessToken, later)
	require.ErrorIs(t, err, ErrAccessExpired)

	renewed, err := svc.Refresh(ctx, later, issued.RefreshToken)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(renewed.AccessToken, later)
	require.NoError(t, err)

	// Past the refresh TTL everything is dead.
	muchLater := later.Add(8 * 24 * time.Hour)
	_, err = svc.Refresh(ctx, muchLater, renewed.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive)
}

func TestService_LoginSupersedesPreviousRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	second, err := svc.Login(ctx, now.Add(time.Minute), "alice", "a strong enough password")
	require.NoError(t, err)

	// The earlier refresh token was revoked by the new login, not rotated,
	// so presenting it is not treated as reuse.
	_, err = svc.Refresh(ctx, now.Add(2*time.Minute), first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive)

	_, err = svc.Refresh(ctx, now.Add(3*time.Minute), second.RefreshToken)
	require.NoError(t, err, "new login's token must stay usable")
}

func TestService_LogoutAll(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Login(ctx, now, "alice", "a strong enough password")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, now, u.ID))

	_, err = svc.Refresh(ctx, now.Add(time.Second), issued.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotActive)
}
