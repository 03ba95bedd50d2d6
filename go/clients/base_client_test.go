package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "a b", r.URL.Query().Get("q"))
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL)
	c.SetHeader("X-Test", "v")
	body, err := c.Get(context.Background(), "/exec", url.Values{"q": {"a b"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestPostSetsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"a":1}`, string(data))
	}))
	defer srv.Close()

	_, err := NewBaseClient(srv.URL).Post(context.Background(), "", strings.NewReader(`{"a":1}`), "application/json")
	require.NoError(t, err)
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := NewBaseClient(srv.URL).Get(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "418")
}
