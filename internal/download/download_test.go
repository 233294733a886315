package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestFetchFullDownload(t *testing.T) {
	body := []byte(strings.Repeat("weights!", 100_000))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")

	var last Progress
	err := Fetch(context.Background(), srv.URL, dest, Options{
		SHA256:   sha256Hex(body),
		Progress: func(p Progress) { last = p },
	})
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, int64(len(body)), last.BytesDownloaded)
	assert.Equal(t, int64(len(body)), last.TotalBytes)

	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err), "part file is renamed away")
}

func TestFetchChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupt"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	err := Fetch(context.Background(), srv.URL, dest, Options{
		SHA256: sha256Hex([]byte("expected")),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no file left behind on checksum failure")
	_, statErr = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchResume(t *testing.T) {
	body := []byte("0123456789abcdefghij")
	var sawRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRange = r.Header.Get("Range")
		if sawRange == "" {
			w.Write(body)
			return
		}
		var offset int64
		fmt.Sscanf(sawRange, "bytes=%d-", &offset)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)-int(offset)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(body[offset:])
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(dest+".part", body[:10], 0o644))

	err := Fetch(context.Background(), srv.URL, dest, Options{
		Resume: true,
		SHA256: sha256Hex(body),
	})
	require.NoError(t, err)
	assert.Equal(t, "bytes=10-", sawRange)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchResumeRestartsWhenRangeUnsupported(t *testing.T) {
	body := []byte("full content from scratch")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ignore the Range header entirely.
		w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(dest+".part", []byte("stale partial"), 0o644))

	err := Fetch(context.Background(), srv.URL, dest, Options{
		Resume: true,
		SHA256: sha256Hex(body),
	})
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	err := Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "m.bin"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
