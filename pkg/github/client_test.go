package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs50/review50/pkg/core"
)

func newTestClient(base string) *Client {
	c := NewClient(&Config{APIURL: base, Token: "secret", UserAgent: "review50/test", Rate: 1000, Burst: 1000})
	c.httpClient = &http.Client{Timeout: 500 * time.Millisecond}
	return c
}

func TestClientSendsHeaders(t *testing.T) {
	var got http.Header
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer s.Close()

	var v map[string]interface{}
	_, err := newTestClient(s.URL).GetJSON(context.Background(), s.URL+"/user", &v)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, MediaType, got.Get("Accept"))
	assert.Equal(t, APIVersion, got.Get("X-GitHub-Api-Version"))
	assert.Equal(t, "review50/test", got.Get("User-Agent"))
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, core.ErrUnauthorized},
		{http.StatusForbidden, core.ErrUnauthorized},
		{http.StatusNotFound, core.ErrNotFound},
		{http.StatusUnprocessableEntity, core.ErrUnprocessable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, tt.status, "nope")
			}))
			defer s.Close()

			var v interface{}
			_, err := newTestClient(s.URL).GetJSON(context.Background(), s.URL+"/x", &v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClient5xx(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "fail", http.StatusBadGateway)
	}))
	defer s.Close()

	var v interface{}
	_, err := newTestClient(s.URL).GetJSON(context.Background(), s.URL+"/x", &v)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.False(t, errors.Is(err, core.ErrNotFound))
}

func TestClientInvalidJSON(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not-json"))
	}))
	defer s.Close()

	var v map[string]interface{}
	_, err := newTestClient(s.URL).GetJSON(context.Background(), s.URL+"/x", &v)
	assert.Error(t, err)
}

func TestGetAllFollowsLinks(t *testing.T) {
	var s *httptest.Server
	s = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", `<`+s.URL+`/items?page=2>; rel="next"`)
			_, _ = w.Write([]byte(`[1,2]`))
		case "2":
			w.Header().Set("Link", `<`+s.URL+`/items?page=3>; rel="next", <`+s.URL+`/items>; rel="first"`)
			_, _ = w.Write([]byte(`[3]`))
		default:
			w.Header().Set("Link", `<`+s.URL+`/items>; rel="first"`)
			_, _ = w.Write([]byte(`[4]`))
		}
	}))
	defer s.Close()

	items, err := GetAll[int](context.Background(), newTestClient(s.URL), s.URL+"/items")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, items)
}

func TestClientURLEscapesSegments(t *testing.T) {
	c := newTestClient("https://api.example.com/")
	got := c.URL(url.Values{"sha": {"cs50/x/hello"}}, "repos", "me50", "x/pulls", "branches", "hello world")
	assert.Equal(t,
		"https://api.example.com/repos/me50/x%2Fpulls/branches/hello%20world?sha=cs50%2Fx%2Fhello",
		got)
}

func TestRefURLKeepsBranchSlashes(t *testing.T) {
	h, err := NewHost(&Config{APIURL: "https://api.example.com", Org: "me50"})
	require.NoError(t, err)
	assert.Equal(t,
		"https://api.example.com/repos/me50/jharvard/git/ref/heads/review50/head/cs50/x/hello",
		h.refURL("jharvard", "review50/head/cs50/x/hello", "git", "ref", "heads"))
}

func TestIsAlreadyExists(t *testing.T) {
	assert.True(t, IsAlreadyExists(&StatusError{Code: 422, Message: "Reference already exists"}))
	assert.False(t, IsAlreadyExists(&StatusError{Code: 422, Message: "Validation Failed"}))
	assert.False(t, IsAlreadyExists(&StatusError{Code: 404, Message: "already exists"}))
	assert.False(t, IsAlreadyExists(errors.New("already exists")))
}

func TestClientHonoursContext(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var v interface{}
	_, err := newTestClient(s.URL).GetJSON(ctx, s.URL+"/x", &v)
	assert.Error(t, err)
}
