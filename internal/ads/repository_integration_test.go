package ads

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adboard/adboard/internal/platform/db/dbtest"
	"github.com/adboard/adboard/internal/shared"
)

func seedUser(t *testing.T, ctx context.Context, repo *Repository, email string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, repo.pool.QueryRow(ctx,
		`INSERT INTO "user" (email, password_hash) VALUES ($1, 'x') RETURNING id`, email).Scan(&id))
	return id
}

func TestRepositoryLifecycle(t *testing.T) {
	repo := NewRepository(dbtest.NewPool(t))
	svc := NewService(repo)
	ctx := context.Background()

	alice := seedUser(t, ctx, repo, "alice@example.com")
	bob := seedUser(t, ctx, repo, "bob@example.com")

	id, err := svc.Create(ctx, alice, "Bike", "Red bike")
	require.NoError(t, err)

	ad, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bike", ad.Title)
	assert.Equal(t, "alice@example.com", ad.OwnerEmail)
	assert.False(t, ad.CreatedAt.IsZero())

	assert.ErrorIs(t, svc.Update(ctx, id, shared.Authenticated(bob), Patch{Title: strPtr("x")}), shared.ErrForbidden)
	require.NoError(t, svc.Update(ctx, id, shared.Authenticated(alice), Patch{Title: strPtr("Bike v2")}))

	ad, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bike v2", ad.Title)
	assert.Equal(t, "Red bike", ad.Description)
	created := ad.CreatedAt

	require.NoError(t, svc.Update(ctx, id, shared.Authenticated(alice), Patch{Description: strPtr("Blue bike")}))
	ad, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Blue bike", ad.Description)
	assert.True(t, created.Equal(ad.CreatedAt))

	assert.ErrorIs(t, svc.Delete(ctx, id, shared.Authenticated(bob)), shared.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, id, shared.Authenticated(alice)))
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id, shared.Authenticated(alice)), shared.ErrNotFound)
}

func TestRepositoryConcurrentPartialUpdates(t *testing.T) {
	repo := NewRepository(dbtest.NewPool(t))
	svc := NewService(repo)
	ctx := context.Background()

	alice := seedUser(t, ctx, repo, "alice@example.com")
	id, err := svc.Create(ctx, alice, "Bike", "Red bike")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Update(ctx, id, shared.Authenticated(alice), Patch{Title: strPtr("Bike v2")}))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Update(ctx, id, shared.Authenticated(alice), Patch{Description: strPtr("Blue bike")}))
		}()
	}
	wg.Wait()

	ad, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bike v2", ad.Title)
	assert.Equal(t, "Blue bike", ad.Description)
}
