package board

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateItem_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ID":"item-1","Name":"Ada"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token")
	item, err := client.CreateItem(context.Background(), "board-1", "Ada", ColumnValues{"email": "a"}, "group-1")
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)
}

func TestHTTPClient_RateLimitRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ID":"item-1","Name":"Ada"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token")
	item, err := client.CreateItem(context.Background(), "board-1", "Ada", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestHTTPClient_NotFoundIsPermanent(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token")
	err := client.DeleteItem(context.Background(), "missing-item")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "non-rate-limit errors must not be retried")
}

func TestHTTPClient_AuthErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "bad-token")
	err := client.DeleteItem(context.Background(), "item-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
}
