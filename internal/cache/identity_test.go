package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"real4d-backend/internal/cache"
	"real4d-backend/internal/models"
	"real4d-backend/internal/services"
	"real4d-backend/internal/testutil"
)

func setup(t *testing.T) (*cache.IdentityCache, *testutil.Identity, *testutil.Recorder, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := cache.New(cache.Config{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(func() { r.Close() })

	rec := &testutil.Recorder{}
	provider := testutil.NewIdentity(rec)
	return cache.NewIdentityCache(provider, r, time.Minute, zap.NewNop()), provider, rec, mr
}

func countCalls(rec *testutil.Recorder, name string) int {
	n := 0
	for _, c := range rec.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func TestFindUserByEmail_CachesHit(t *testing.T) {
	c, provider, rec, _ := setup(t)
	provider.AddUser("a@x.com", "Ana", "")
	ctx := context.Background()

	first, err := c.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	second, err := c.FindUserByEmail(ctx, "A@X.com")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, countCalls(rec, "identity.FindUserByEmail"))
}

func TestFindUserByEmail_MissIsNotCached(t *testing.T) {
	c, provider, rec, _ := setup(t)
	ctx := context.Background()

	_, err := c.FindUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, models.ErrIdentityNotFound)

	provider.AddUser("a@x.com", "Ana", "")
	got, err := c.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, 2, countCalls(rec, "identity.FindUserByEmail"))
}

func TestCreateUser_PopulatesCache(t *testing.T) {
	c, _, rec, mr := setup(t)
	ctx := context.Background()

	created, err := c.CreateUser(ctx, "a@x.com", "Ana")
	require.NoError(t, err)
	assert.True(t, mr.Exists("identity:email:a@x.com"))
	assert.Greater(t, mr.TTL("identity:email:a@x.com"), time.Duration(0))

	found, err := c.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Zero(t, countCalls(rec, "identity.FindUserByEmail"))
}

func TestDeleteUser_Evicts(t *testing.T) {
	c, _, _, mr := setup(t)
	ctx := context.Background()

	created, err := c.CreateUser(ctx, "a@x.com", "Ana")
	require.NoError(t, err)
	require.NoError(t, c.DeleteUser(ctx, *created))

	assert.False(t, mr.Exists("identity:email:a@x.com"))
	_, err = c.FindUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, models.ErrIdentityNotFound)
}

func TestFindUserByEmail_RedisDownFallsThrough(t *testing.T) {
	c, provider, _, mr := setup(t)
	provider.AddUser("a@x.com", "Ana", "")
	mr.Close()

	got, err := c.FindUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
}

func TestGenerateMagicLink_MissingAccountEvicts(t *testing.T) {
	c, provider, rec, mr := setup(t)
	provider.AddUser("a@x.com", "Ana", "")
	ctx := context.Background()

	_, err := c.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, mr.Exists("identity:email:a@x.com"))

	// removed behind the cache's back
	delete(provider.Users, "a@x.com")

	_, err = c.GenerateMagicLink(ctx, "a@x.com", "https://real4d.me/enviar")
	assert.ErrorIs(t, err, models.ErrIdentityNotFound)
	assert.False(t, mr.Exists("identity:email:a@x.com"))

	_, err = c.FindUserByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, models.ErrIdentityNotFound)
	assert.Equal(t, 2, countCalls(rec, "identity.FindUserByEmail"))
}

func TestGenerateMagicLink_OtherErrorKeepsEntry(t *testing.T) {
	c, provider, _, mr := setup(t)
	provider.AddUser("a@x.com", "Ana", "")
	provider.Errors["GenerateMagicLink"] = errors.New("rate limited")
	ctx := context.Background()

	_, err := c.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	_, err = c.GenerateMagicLink(ctx, "a@x.com", "https://real4d.me/enviar")
	assert.Error(t, err)
	assert.True(t, mr.Exists("identity:email:a@x.com"))
}

func TestApproveThroughCache_RecreatesDeletedAccount(t *testing.T) {
	c, provider, _, _ := setup(t)
	ctx := context.Background()
	purchases := services.NewPurchaseService(c, testutil.NewLedger(nil), testutil.NewNotifier(nil), services.Links{
		UploadURL:  "https://real4d.me/enviar",
		ResultsURL: "https://real4d.me/resultado",
	}, zap.NewNop())

	_, err := purchases.Approve(ctx, models.Purchase{Email: "a@x.com", Name: "Ana", Transaction: "T1"})
	require.NoError(t, err)
	require.Equal(t, 1, provider.UserCount())

	// deleted straight at the provider, so the cached entry survives
	stale, err := provider.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, provider.DeleteUser(ctx, *stale))
	require.Equal(t, 0, provider.UserCount())

	_, err = purchases.Approve(ctx, models.Purchase{Email: "a@x.com", Name: "Ana", Transaction: "T2"})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.UserCount())
	assert.Equal(t, []string{"a@x.com", "a@x.com"}, provider.Created)
	require.Len(t, provider.Links, 2)
}
