//go:build integration

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/dmitrijs2005/authcore/internal/server/auth"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newPostgresFixture starts a throwaway PostgreSQL, applies the
// migrations and wires the service to it.
func newPostgresFixture(t *testing.T, tweak ...func(*Options)) *fixture {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	_ = provider.Close()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("authcore_test"),
		postgres.WithUsername("authcore"),
		postgres.WithPassword("authcore_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := repomanager.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewPostgresRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, db))
	// applying twice is a no-op
	require.NoError(t, m.RunMigrations(ctx, db))

	codec, err := auth.NewCodec(auth.Config{
		AccessSecret:  []byte("access-secret-access-secret-0001"),
		RefreshSecret: []byte("refresh-secret-refresh-secret-01"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	clock := &testClock{t: time.Now()}
	return newFixtureWithStore(t, repomanager.NewPostgresStore(db, m), codec, clock, tweak...)
}

func TestPostgres_Lifecycle(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.User.ID)

	_, err = f.svc.Register(ctx, "alice@example.com", "password123", "Alice")
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = f.svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	pair, err := f.svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, f.svc.Revoke(ctx, reg.User.ID))
	_, err = f.svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = f.svc.Refresh(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestPostgres_ConcurrentRegisterOneWinner(t *testing.T) {
	f := newPostgresFixture(t)

	const n = 16
	var ok, conflict atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Register(context.Background(), "race@example.com", "password123", "R")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrorConflict):
				conflict.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, conflict.Load())
}

func TestPostgres_ConcurrentRefreshOneWinner(t *testing.T) {
	for _, atomicRotation := range []bool{true, false} {
		f := newPostgresFixture(t, func(o *Options) { o.AtomicRotation = atomicRotation })
		reg := f.register(t, "dave@example.com")

		const n = 12
		var ok, denied atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, common.ErrorUnauthorized):
					denied.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.EqualValues(t, 1, ok.Load(), "atomic=%v", atomicRotation)
		assert.EqualValues(t, n-1, denied.Load(), "atomic=%v", atomicRotation)
	}
}
