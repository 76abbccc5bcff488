package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBootstrap(t *testing.T) {
	ctx := context.Background()
	client := &http.Client{}

	t.Run("no source", func(t *testing.T) {
		_, ok, err := fetchBootstrap(ctx, client, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "DSM.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

		raw, ok, err := fetchBootstrap(ctx, client, path)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "{}", string(raw))
	})

	t.Run("missing file", func(t *testing.T) {
		_, ok, err := fetchBootstrap(ctx, client, filepath.Join(t.TempDir(), "DSM.json"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/DSM.json", r.URL.Path)
			_, _ = w.Write([]byte(`{"meetingNotes":"hi"}`))
		}))
		defer srv.Close()

		raw, ok, err := fetchBootstrap(ctx, client, srv.URL+"/DSM.json")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"meetingNotes":"hi"}`, string(raw))
	})

	t.Run("url not found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, ok, err := fetchBootstrap(ctx, client, srv.URL+"/DSM.json")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("url server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, ok, err := fetchBootstrap(ctx, client, srv.URL)
		assert.Error(t, err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "status 500")
	})
}
