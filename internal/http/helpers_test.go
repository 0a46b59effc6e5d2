package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	api "secrets-service/internal/http"
	"secrets-service/internal/oauth"
	"secrets-service/internal/queue"
	"secrets-service/internal/ratelimit"
	"secrets-service/internal/repo"
	"secrets-service/internal/session"
)

// fakeGoogle satisfies api.GoogleAuth without talking to Google.
type fakeGoogle struct {
	user *oauth.GoogleUser
	err  error
}

func (f *fakeGoogle) MakeState(raw string) string { return raw + ".sig" }
func (f *fakeGoogle) VerifyState(got string) bool { return strings.HasSuffix(got, ".sig") }
func (f *fakeGoogle) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}
func (f *fakeGoogle) ExchangeAndVerify(ctx context.Context, code string) (*oauth.GoogleUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type testEnv struct {
	Store  *repo.MemoryStore
	Google *fakeGoogle
	Server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvLimited(t, 0)
}

// newTestEnvLimited wires a login rate limiter backed by miniredis when
// perMin > 0.
func newTestEnvLimited(t *testing.T, perMin int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repo.NewMemoryStore()
	sm := session.NewManager("test-session-key", false, "Lax")
	fg := &fakeGoogle{}

	var limiter *ratelimit.Limiter
	if perMin > 0 {
		mr := miniredis.RunT(t)
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		limiter = ratelimit.New(c, perMin)
	}

	h := api.NewHandler(store, sm, fg, limiter, queue.NewNoop())
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)

	return &testEnv{Store: store, Google: fg, Server: srv}
}

// client returns an HTTP client with its own cookie jar that does not
// follow redirects, so tests can assert on Location headers.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, cl *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := cl.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

func postForm(t *testing.T, cl *http.Client, url string, form map[string]string) *http.Response {
	t.Helper()
	values := make(map[string][]string, len(form))
	for k, v := range form {
		values[k] = []string{v}
	}
	resp, err := cl.PostForm(url, values)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func wantRedirect(t *testing.T, resp *http.Response, code int, location string) {
	t.Helper()
	resp.Body.Close()
	if resp.StatusCode != code {
		t.Fatalf("status=%d, want %d", resp.StatusCode, code)
	}
	if loc := resp.Header.Get("Location"); loc != location {
		t.Fatalf("location=%q, want %q", loc, location)
	}
}
