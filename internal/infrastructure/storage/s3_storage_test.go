package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3ObjectStorage(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "storage configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(&config.StorageConfig{
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket:          "test-bucket",
			SecretAccessKey: "test-secret",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket:      "test-bucket",
			AccessKeyID: "test-key",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config with logger", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			Endpoint:        "localhost:9000",
			UsePathStyle:    true,
		}, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "test-bucket", storage.Bucket())
		assert.NotNil(t, storage.logger)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		want     string
	}{
		{name: "empty keeps default", endpoint: "", want: ""},
		{name: "bare host without ssl", endpoint: "minio:9000", want: "http://minio:9000"},
		{name: "bare host with ssl", endpoint: "minio:9000", useSSL: true, want: "https://minio:9000"},
		{name: "explicit scheme kept", endpoint: "http://minio:9000", useSSL: true, want: "http://minio:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	storage, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
	})
	require.NoError(t, err)
	ctx := context.Background()

	err = storage.Upload(ctx, "", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage key is required")

	err = storage.DeleteObject(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage key is required")

	exists, err := storage.ObjectExists(ctx, "")
	require.Error(t, err)
	assert.False(t, exists)
}

type recordedRequest struct {
	method string
	path   string
}

func newFakeS3(t *testing.T, status map[string]int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path})
		mu.Unlock()
		if code, ok := status[r.Method]; ok {
			w.WriteHeader(code)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestStorage(t *testing.T, endpoint string) *S3ObjectStorage {
	t.Helper()
	storage, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:          "attachments",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        endpoint,
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return storage
}

func TestS3ObjectStorage_UploadAndDelete(t *testing.T) {
	srv, requests := newFakeS3(t, map[string]int{http.MethodDelete: http.StatusNoContent})
	storage := newTestStorage(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, storage.Upload(ctx, "payment-entry/ACC-PAY-1/bukti.png", []byte("png"), "image/png"))
	require.NoError(t, storage.DeleteObject(ctx, "payment-entry/ACC-PAY-1/bukti.png"))

	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodPut, (*requests)[0].method)
	assert.Equal(t, "/attachments/payment-entry/ACC-PAY-1/bukti.png", (*requests)[0].path)
	assert.Equal(t, http.MethodDelete, (*requests)[1].method)
}

func TestS3ObjectStorage_ObjectExists(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		srv, _ := newFakeS3(t, nil)
		exists, err := newTestStorage(t, srv.URL).ObjectExists(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing", func(t *testing.T) {
		srv, _ := newFakeS3(t, map[string]int{http.MethodHead: http.StatusNotFound})
		exists, err := newTestStorage(t, srv.URL).ObjectExists(context.Background(), "k")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestS3ObjectStorage_EnsureBucket(t *testing.T) {
	t.Run("existing bucket is left alone", func(t *testing.T) {
		srv, requests := newFakeS3(t, nil)
		require.NoError(t, newTestStorage(t, srv.URL).EnsureBucket(context.Background()))
		require.Len(t, *requests, 1)
		assert.Equal(t, http.MethodHead, (*requests)[0].method)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		srv, requests := newFakeS3(t, map[string]int{http.MethodHead: http.StatusNotFound})
		require.NoError(t, newTestStorage(t, srv.URL).EnsureBucket(context.Background()))
		require.Len(t, *requests, 2)
		assert.Equal(t, http.MethodPut, (*requests)[1].method)
		assert.Equal(t, "/attachments", (*requests)[1].path)
	})
}
