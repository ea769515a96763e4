package classifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyClean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		body, _ := io.ReadAll(file)
		assert.Equal(t, "sepatu.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("jpeg-bytes"), body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predicted_label":"bersih","confidence":0.97}`))
	}))
	defer srv.Close()

	result, err := New(srv.URL, time.Second).Classify(context.Background(), "sepatu.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, result.Clean())
	assert.Equal(t, 0.97, result.Raw["confidence"])
}

func TestClassifyDirty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predicted_label":"kotor"}`))
	}))
	defer srv.Close()

	result, err := New(srv.URL, time.Second).Classify(context.Background(), "a.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.False(t, result.Clean())
}

func TestClassifyFailures(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model offline", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := New(srv.URL, time.Second).Classify(context.Background(), "a.png", "image/png", []byte("x"))
		assert.ErrorContains(t, err, "503")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := New(srv.URL, 20*time.Millisecond).Classify(context.Background(), "a.png", "image/png", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, time.Second).Classify(context.Background(), "a.png", "image/png", []byte("x"))
		assert.Error(t, err)
	})
}
