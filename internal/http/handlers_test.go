package http_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"secrets-service/internal/oauth"
)

func Test_Register_Login_Secrets(t *testing.T) {
	env := newTestEnv(t)
	cl := env.client(t)

	// protected page before any authentication
	wantRedirect(t, get(t, cl, env.Server.URL+"/secrets"), http.StatusFound, "/login")

	// register establishes a session right away
	resp := postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/secrets")

	resp = get(t, cl, env.Server.URL+"/secrets")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("secrets after register: status=%d", resp.StatusCode)
	}
	if b := body(t, resp); !strings.Contains(b, "Discovered My Secret") {
		t.Fatalf("secrets page body: %q", b)
	}

	// a fresh client logs in with the same credentials
	cl2 := env.client(t)
	resp = postForm(t, cl2, env.Server.URL+"/login",
		map[string]string{"username": "alice", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/secrets")

	resp = get(t, cl2, env.Server.URL+"/secrets")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("secrets after login: status=%d", resp.StatusCode)
	}
	resp.Body.Close()
}

func Test_Login_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	cl := env.client(t)

	postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "pw123"}).Body.Close()

	cl2 := env.client(t)
	resp := postForm(t, cl2, env.Server.URL+"/login",
		map[string]string{"username": "alice", "password": "wrong"})
	wantRedirect(t, resp, http.StatusSeeOther, "/login")

	// unknown user looks exactly the same from outside
	resp = postForm(t, cl2, env.Server.URL+"/login",
		map[string]string{"username": "nobody", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/login")

	// and no session was established either way
	wantRedirect(t, get(t, cl2, env.Server.URL+"/secrets"), http.StatusFound, "/login")
}

func Test_Register_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	postForm(t, env.client(t), env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "pw123"}).Body.Close()

	cl := env.client(t)
	resp := postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "anything"})
	wantRedirect(t, resp, http.StatusSeeOther, "/register")

	if n := env.Store.Len(); n != 1 {
		t.Fatalf("users=%d, want 1", n)
	}
	wantRedirect(t, get(t, cl, env.Server.URL+"/secrets"), http.StatusFound, "/login")
}

func Test_Register_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	cl := env.client(t)

	resp := postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/register")

	resp = postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": ""})
	wantRedirect(t, resp, http.StatusSeeOther, "/register")

	if n := env.Store.Len(); n != 0 {
		t.Fatalf("users=%d, want 0", n)
	}
}

func Test_Logout(t *testing.T) {
	env := newTestEnv(t)
	cl := env.client(t)

	postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "pw123"}).Body.Close()

	wantRedirect(t, get(t, cl, env.Server.URL+"/logout"), http.StatusFound, "/")
	wantRedirect(t, get(t, cl, env.Server.URL+"/secrets"), http.StatusFound, "/login")

	// logout when already unauthenticated still succeeds
	wantRedirect(t, get(t, cl, env.Server.URL+"/logout"), http.StatusFound, "/")
}

func Test_GoogleFlow(t *testing.T) {
	env := newTestEnv(t)
	env.Google.user = &oauth.GoogleUser{Sub: "g-42", Name: "Alice", Picture: "p.png"}
	cl := env.client(t)

	resp := get(t, cl, env.Server.URL+"/auth/google")
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("initiate: status=%d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.Contains(loc, "accounts.google.com") || !strings.Contains(loc, "state=") {
		t.Fatalf("initiate location=%q", loc)
	}

	resp = get(t, cl, env.Server.URL+"/auth/google/callback?code=c&state=nonce.sig")
	wantRedirect(t, resp, http.StatusFound, "/secrets")

	resp = get(t, cl, env.Server.URL+"/secrets")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("secrets after callback: status=%d", resp.StatusCode)
	}
	resp.Body.Close()

	// second login with the same subject must reuse the record
	cl2 := env.client(t)
	wantRedirect(t, get(t, cl2, env.Server.URL+"/auth/google/callback?code=c&state=n2.sig"),
		http.StatusFound, "/secrets")

	if n := env.Store.Len(); n != 1 {
		t.Fatalf("users=%d, want exactly one record for g-42", n)
	}
}

func Test_GoogleCallback_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.Google.user = &oauth.GoogleUser{Sub: "g-42"}
	cl := env.client(t)

	// forged or missing state
	wantRedirect(t, get(t, cl, env.Server.URL+"/auth/google/callback?code=c&state=forged"),
		http.StatusFound, "/login")
	wantRedirect(t, get(t, cl, env.Server.URL+"/auth/google/callback?code=c"),
		http.StatusFound, "/login")
	// provider denied: no code
	wantRedirect(t, get(t, cl, env.Server.URL+"/auth/google/callback?state=n.sig&error=access_denied"),
		http.StatusFound, "/login")

	// exchange failure
	env.Google.err = errors.New("provider down")
	wantRedirect(t, get(t, cl, env.Server.URL+"/auth/google/callback?code=c&state=n.sig"),
		http.StatusFound, "/login")

	if n := env.Store.Len(); n != 0 {
		t.Fatalf("users=%d, want 0", n)
	}
}

func Test_Submit_AcceptsAndDiscards(t *testing.T) {
	env := newTestEnv(t)
	cl := env.client(t)

	resp := get(t, cl, env.Server.URL+"/submit")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit form: status=%d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postForm(t, cl, env.Server.URL+"/submit",
		map[string]string{"secret": "i do not like gophers"})
	wantRedirect(t, resp, http.StatusSeeOther, "/")
}

func Test_StoreOutage_DegradesToRedirect(t *testing.T) {
	env := newTestEnv(t)
	env.Store.Fail = errors.New("store down")
	cl := env.client(t)

	resp := postForm(t, cl, env.Server.URL+"/login",
		map[string]string{"username": "alice", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/login")

	resp = postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/register")

	resp = get(t, cl, env.Server.URL+"/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("healthz during outage: status=%d", resp.StatusCode)
	}
	resp.Body.Close()
}

func Test_Login_Throttled(t *testing.T) {
	env := newTestEnvLimited(t, 1)
	cl := env.client(t)

	postForm(t, cl, env.Server.URL+"/register",
		map[string]string{"username": "alice", "password": "pw123"}).Body.Close()

	cl2 := env.client(t)
	resp := postForm(t, cl2, env.Server.URL+"/login",
		map[string]string{"username": "alice", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/secrets")

	// window exhausted: even valid credentials bounce
	resp = postForm(t, env.client(t), env.Server.URL+"/login",
		map[string]string{"username": "alice", "password": "pw123"})
	wantRedirect(t, resp, http.StatusSeeOther, "/login")
}

func Test_Healthz(t *testing.T) {
	env := newTestEnv(t)
	resp := get(t, env.client(t), env.Server.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status=%d", resp.StatusCode)
	}
	if b := body(t, resp); !strings.Contains(b, "ok") {
		t.Fatalf("healthz body: %q", b)
	}
}
