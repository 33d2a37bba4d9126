package attachments

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	blobs map[string][]byte
}

func (m *memStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.blobs[key] = data
	return key, nil
}

func (m *memStorage) Get(ctx context.Context, path string) ([]byte, error) {
	return m.blobs[path], nil
}

func TestMaterialize_AtThresholdStaysInline(t *testing.T) {
	storage := &memStorage{}
	m := NewMaterializer(storage)

	payload := bytes.Repeat([]byte{0x42}, InlineThreshold)
	attachment, err := m.Materialize(context.Background(), "email_1", "exact.bin", "application/octet-stream", payload)
	require.NoError(t, err)

	assert.False(t, attachment.IsLargeFile)
	assert.Equal(t, payload, attachment.Content)
	assert.Empty(t, attachment.StoragePath)
	assert.Equal(t, InlineThreshold, attachment.Size)
	assert.Empty(t, storage.blobs)
}

func TestMaterialize_OneByteOverGoesToStorage(t *testing.T) {
	storage := &memStorage{}
	m := NewMaterializer(storage)

	payload := bytes.Repeat([]byte{0x42}, InlineThreshold+1)
	attachment, err := m.Materialize(context.Background(), "email_1", "big.bin", "application/octet-stream", payload)
	require.NoError(t, err)

	assert.True(t, attachment.IsLargeFile)
	assert.Empty(t, attachment.Content)
	assert.NotEmpty(t, attachment.StoragePath)
	assert.Equal(t, InlineThreshold+1, attachment.Size)
	assert.Equal(t, payload, storage.blobs[attachment.StoragePath])
}

func TestMaterialize_SanitizesFilename(t *testing.T) {
	m := NewMaterializer(&memStorage{})

	attachment, err := m.Materialize(context.Background(), "email_1", "../../etc/passwd", "text/plain", []byte("x"))
	require.NoError(t, err)

	assert.NotContains(t, attachment.Filename, "/")
	assert.NotEmpty(t, attachment.Filename)
}

func TestLoad_RoundTripsBothStorageClasses(t *testing.T) {
	storage := &memStorage{}
	m := NewMaterializer(storage)

	small, err := m.Materialize(context.Background(), "email_1", "small.txt", "text/plain", []byte("inline"))
	require.NoError(t, err)
	data, err := m.Load(context.Background(), small)
	require.NoError(t, err)
	assert.Equal(t, []byte("inline"), data)

	big, err := m.Materialize(context.Background(), "email_1", "big.bin", "application/octet-stream", bytes.Repeat([]byte{1}, InlineThreshold+5))
	require.NoError(t, err)
	data, err = m.Load(context.Background(), big)
	require.NoError(t, err)
	assert.Len(t, data, InlineThreshold+5)
}
