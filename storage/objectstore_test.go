package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetKeyScheme(t *testing.T) {
	assert.Equal(t, "certificates/42.pdf", PdfKey(42))
	assert.Equal(t, "certificates/42.png", ImageKey(42))
}

func TestMemoryStorePutOverwritesByKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "certificates/1.pdf", []byte("v1"), "application/pdf"))
	require.NoError(t, store.Put(ctx, "certificates/1.pdf", []byte("v2"), "application/pdf"))

	got, ok := store.Get("certificates/1.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, "application/pdf", store.ContentType("certificates/1.pdf"))
}

func TestMemoryStoreDeleteMissingKeyIsNoop(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Delete(context.Background(), "certificates/404.pdf"))
}

func TestSignedURLEmptyKeyReturnsEmpty(t *testing.T) {
	store := NewMemoryStore()
	url, err := store.SignedURL(context.Background(), "", 600*time.Second)
	require.NoError(t, err)
	assert.Empty(t, url, "empty key yields no URL, not an error")
}

func TestSignedURLsAreFreshPerCall(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "certificates/1.png", []byte("png"), "image/png"))

	first, err := store.SignedURL(ctx, "certificates/1.png", 600*time.Second)
	require.NoError(t, err)
	second, err := store.SignedURL(ctx, "certificates/1.png", 600*time.Second)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second, "signed URLs are computed per call, never cached")
	assert.Contains(t, first, "certificates/1.png")
	assert.Contains(t, first, "expires=")
}
