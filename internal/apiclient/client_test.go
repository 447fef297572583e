package apiclient

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token abc", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"sha":"abc123"}]`))
	}))
	defer srv.Close()

	var out []struct {
		SHA string `json:"sha"`
	}
	resp, err := New().Get(context.Background(), Request{
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "token abc"},
		Into:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 1)
	assert.Equal(t, "abc123", out[0].SHA)
}

func TestGetWithoutDecodeKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PK not json"))
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "PK not json", string(resp.Body))
}

func TestGetHTTPErrors(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{401, "Unauthorized (use valid authentication)"},
		{403, "Forbidden (use valid authentication)"},
		{404, "Resource not found (check repository name, branch/tag/commit name)"},
		{429, "Too many requests"},
		{500, "HTTP error 500"},
		{204, "HTTP error 204"},
		{304, "HTTP error 304"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			_, err := New().Get(context.Background(), Request{URL: srv.URL})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, KindHTTP, apiErr.Kind)
			assert.Equal(t, tt.code, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Error())
		})
	}
}

func TestGetFollowsRedirectToSuccess(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive"))
	}))
	defer final.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer srv.Close()

	resp, err := New().Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "archive", string(resp.Body))
}

func TestGetDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	var out map[string]any
	_, err := New().Get(context.Background(), Request{URL: srv.URL, Into: &out})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindDecode, apiErr.Kind)
}

func TestGetTransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := New(WithTimeout(50*time.Millisecond)).Get(context.Background(), Request{URL: srv.URL})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindTransport, apiErr.Kind)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n, err := New().Download(context.Background(), Request{URL: srv.URL + "/archive.zip"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "PK\x03\x04", buf.String())

	_, err = New().Download(context.Background(), Request{URL: srv.URL + "/missing"}, &buf)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestHeadSendsNoBody(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		switch r.URL.Path {
		case "/zipball/main":
			http.Redirect(w, r, "/codeload/main.zip", http.StatusFound)
		case "/codeload/main.zip":
			w.Header().Set("Content-Type", "application/zip")
			w.Write(bytes.Repeat([]byte("x"), 1<<20))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	resp, err := New().Head(context.Background(), Request{URL: srv.URL + "/zipball/main"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Body)
	assert.Equal(t, []string{http.MethodHead, http.MethodHead}, methods)

	_, err = New().Head(context.Background(), Request{URL: srv.URL + "/zipball/gone"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestRedact(t *testing.T) {
	got := redact("https://gitlab.example/api/v4/projects/a%2Fb/repository/tags?private_token=secret")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "private_token=REDACTED")

	assert.Equal(t, "https://api.github.com/rate_limit", redact("https://api.github.com/rate_limit"))
}
