package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Deployer/internal/progress"
)

func TestFetch(t *testing.T) {
	payload := bytes.Repeat([]byte("deployer"), 40_000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/packages/service/api", r.URL.Path)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "nested", "dir", "api.tar.gz")
	rec := &progress.Recorder{}

	f := New(Config{BufferSize: 4096})
	err := f.Fetch(context.Background(), srv.URL+"/packages/service/api", target, rec)
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	events := rec.Events()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, int64(len(payload)), last.TotalSize)
	assert.Equal(t, int64(len(payload)), last.ProcessedSize)
	assert.Equal(t, 100.0, last.ProgressPercent)

	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].ProcessedSize, events[i-1].ProcessedSize)
	}
}

func TestFetch_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "package not found", http.StatusNotFound)
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "missing.tar.gz")

	err := New(Config{}).Fetch(context.Background(), srv.URL+"/missing", target, nil)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "package not found")

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetch_MissingContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flush до записи тела переводит ответ в chunked encoding.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		w.Write([]byte("streamed body"))
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "chunked.bin")

	err := New(Config{}).Fetch(context.Background(), srv.URL, target, nil)
	require.ErrorIs(t, err, ErrMissingContentLength)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "empty.bin")
	rec := &progress.Recorder{}

	require.NoError(t, New(Config{}).Fetch(context.Background(), srv.URL, target, rec))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Empty(t, rec.Events())
}

func TestFetch_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(Config{}).Fetch(ctx, srv.URL, filepath.Join(t.TempDir(), "x"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.Write(bytes.Repeat([]byte("x"), 50_000))
	}))
	defer srv.Close()

	dir := t.TempDir()
	target := filepath.Join(dir, "service", "api.tar.gz")

	err := New(Config{}).Fetch(context.Background(), srv.URL, target, nil)
	require.Error(t, err)

	assert.NoFileExists(t, target)
	assert.NoFileExists(t, target+partSuffix)
}

func TestFetch_ReplacesPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4")
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	target := filepath.Join(t.TempDir(), "api.tar.gz")
	require.NoError(t, os.WriteFile(target+partSuffix, []byte("stale leftover"), 0o644))

	require.NoError(t, New(Config{}).Fetch(context.Background(), srv.URL, target, nil))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
	assert.NoFileExists(t, target+partSuffix)
}
