package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutExistsURL(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := BrandKey("logo.png")

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, key, strings.NewReader("png"), PutOptions{ContentType: "image/png"}))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(s.BasePath(), "brand", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	url, err := s.URL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/brand/logo.png", url)
}

func TestLocalStorage_Overwrite(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := BrandKey("logo.png")

	require.NoError(t, s.Put(ctx, key, strings.NewReader("v1"), PutOptions{}))

	err := s.Put(ctx, key, strings.NewReader("v2"), PutOptions{})
	assert.True(t, IsKeyExists(err))

	require.NoError(t, s.Put(ctx, key, strings.NewReader("v3"), PutOptions{Overwrite: true}))
	data, err := os.ReadFile(filepath.Join(s.BasePath(), key))
	require.NoError(t, err)
	assert.Equal(t, "v3", string(data))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.png", "brand/../../escape.png", "/etc/passwd"} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)

		_, err = s.URL(ctx, key, 0)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestBrandKey(t *testing.T) {
	assert.Equal(t, "brand/logo.png", BrandKey("logo.png"))
	assert.Equal(t, "brand/logo.png", BrandKey("static/img/logo.png"))
	assert.Equal(t, "brand/logo.png", BrandKey("../../logo.png"))
}

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string                 { return e.code }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.code }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultServer }

func TestWrapS3Error(t *testing.T) {
	assert.ErrorIs(t, wrapS3Error(&types.NotFound{}), ErrNotFound)
	assert.ErrorIs(t, wrapS3Error(&types.NoSuchKey{}), ErrNotFound)
	assert.ErrorIs(t, wrapS3Error(fakeAPIError{"AccessDenied"}), ErrAccessDenied)
	assert.ErrorIs(t, wrapS3Error(fakeAPIError{"NoSuchKey"}), ErrNotFound)

	other := errors.New("connection reset")
	wrapped := wrapS3Error(other)
	assert.ErrorIs(t, wrapped, other)
	assert.Contains(t, wrapped.Error(), "R2 operation failed")
}

func TestValidateKey(t *testing.T) {
	assert.ErrorIs(t, validateKey(""), ErrInvalidKey)
	assert.ErrorIs(t, validateKey("brand/../x"), ErrInvalidKey)
	assert.NoError(t, validateKey("brand/logo.png"))
}
