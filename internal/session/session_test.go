package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T, store Store) *Guard {
	t.Helper()
	return NewGuard(MockAuthenticator{}, store, nil)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Jane", DisplayName("jane@x.com"))
	assert.Equal(t, "Ömer", DisplayName("ömer@x.com"))
	assert.Equal(t, "Noat", DisplayName("noat"))
	assert.Equal(t, "", DisplayName("@x.com"))
}

func TestLoginRequiresBothFields(t *testing.T) {
	ctx := context.Background()
	g := newGuard(t, NewMemoryStore())

	_, err := g.Login(ctx, "", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = g.Login(ctx, "jane@x.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, g.IsAuthenticated())

	user, err := g.Login(ctx, "jane@x.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)
	assert.True(t, g.IsAuthenticated())
}

func TestSessionPersistsAcrossGuards(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := newGuard(t, store).Login(ctx, "jane@x.com", "pw")
	require.NoError(t, err)

	raw, ok, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"jane@x.com","name":"Jane"}`, string(raw))

	restored := newGuard(t, store)
	assert.False(t, restored.IsAuthenticated())
	require.NoError(t, restored.Restore(ctx))
	user, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "jane@x.com", user.Email)

	require.NoError(t, restored.Logout(ctx))
	assert.False(t, restored.IsAuthenticated())
	_, ok, err = store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreDropsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, StorageKey, []byte("{not json")))

	g := newGuard(t, store)
	require.NoError(t, g.Restore(ctx))
	assert.False(t, g.IsAuthenticated())
	_, ok, _ := store.Get(ctx, StorageKey)
	assert.False(t, ok)
}

func TestCredentialAuthenticator(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	auth, err := NewCredentialAuthenticator([]string{"Owner@Luxe.test:" + hash, " "})
	require.NoError(t, err)

	user, err := auth.Authenticate(context.Background(), "owner@luxe.test", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "Owner", user.Name)

	_, err = auth.Authenticate(context.Background(), "owner@luxe.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Authenticate(context.Background(), "nobody@luxe.test", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewCredentialAuthenticator([]string{"owner@luxe.test:plaintext"})
	assert.Error(t, err)
	_, err = NewCredentialAuthenticator(nil)
	assert.Error(t, err)
}

func TestBoltStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := OpenBoltStore(path)
	require.NoError(t, err)
	_, err = newGuard(t, store).Login(ctx, "jane@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	g := newGuard(t, reopened)
	require.NoError(t, g.Restore(ctx))
	user, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, "Jane", user.Name)

	require.NoError(t, g.Logout(ctx))
	_, ok, err = reopened.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("LUXE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LUXE_TEST_REDIS_ADDR is not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	store := NewRedisStore(client, 0)
	key := StorageKey + "_test"
	require.NoError(t, store.Put(ctx, key, []byte(`{"email":"a@b.c","name":"A"}`)))
	v, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"a@b.c","name":"A"}`, string(v))

	require.NoError(t, store.Delete(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
