package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func testSnapshot(sessionID string) *domain.Snapshot {
	snap := domain.NewSnapshot(sessionID)
	id, _ := domain.ParseID("0x42")
	snap.Cursor = domain.NewRef(id)
	snap.Variables["Player.Secret"] = "my-secret-sauce"
	snap.Variables["Player.Score"] = int64(12)
	return snap
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlying)

	ctx := context.Background()
	original := testSnapshot("test-session")

	require.NoError(t, secureStore.Save(ctx, "test-session", original))

	// The backing store must only see the opaque envelope.
	stored, err := underlying.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.NotContains(t, stored.Variables, "Player.Secret")
	assert.Contains(t, stored.Variables, "__encrypted__")
	assert.False(t, stored.Cursor.IsValid(), "cursor must be hidden in the envelope")

	// Loading through the middleware decrypts.
	loaded, err := secureStore.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Variables["Player.Secret"])
	assert.EqualValues(t, 12, loaded.Variables["Player.Score"])
	assert.Equal(t, original.Cursor.ID, loaded.Cursor.ID)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	ctx := context.Background()
	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Save(ctx, "rotation", testSnapshot("rotation")))

	// New active key with the old key as fallback still reads old data.
	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Load(ctx, "rotation")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Variables["Player.Secret"])

	// Saving re-encrypts with the new key, so the old middleware is locked out.
	require.NoError(t, secureNew.Save(ctx, "rotation", loaded))
	_, err = secureOld.Load(ctx, "rotation")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlaintext(t *testing.T) {
	underlying := NewMockStore()
	ctx := context.Background()

	// A snapshot written without encryption must not be readable through
	// the encrypting layer.
	require.NoError(t, underlying.Save(ctx, "plain", testSnapshot("plain")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
