package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "secrets_session"
	maxAge     = 18000 // seconds (5h)

	identityKey = "session.identity"
)

// Payload is the serialized identity carried by the session cookie:
// exactly id, username and picture. The password hash never enters it.
type Payload struct {
	UserID   string
	Username string
	Picture  string
}

// Manager signs and restores the session payload via a gorilla CookieStore.
// The payload is trusted for the cookie's lifetime; requests do not
// re-validate it against the user store.
type Manager struct {
	store *sessions.CookieStore
}

func NewManager(signingKey string, secure bool, sameSite string) *Manager {
	store := sessions.NewCookieStore([]byte(signingKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSiteFromString(sameSite),
	}
	return &Manager{store: store}
}

// Establish writes the payload into the session and attaches it to the
// current request context, so handlers running after a successful login
// see the identity immediately.
func (m *Manager) Establish(c *gin.Context, p Payload) error {
	s, _ := m.store.Get(c.Request, cookieName)
	s.Values["uid"] = p.UserID
	s.Values["username"] = p.Username
	s.Values["picture"] = p.Picture
	if err := s.Save(c.Request, c.Writer); err != nil {
		return err
	}
	c.Set(identityKey, p)
	return nil
}

// Clear invalidates the session. Clearing an unauthenticated session is a
// no-op success.
func (m *Manager) Clear(c *gin.Context) error {
	s, _ := m.store.Get(c.Request, cookieName)
	for k := range s.Values {
		delete(s.Values, k)
	}
	s.Options.MaxAge = -1
	if err := s.Save(c.Request, c.Writer); err != nil {
		return err
	}
	c.Set(identityKey, nil)
	return nil
}

// Middleware restores the identity from the cookie into the request
// context. A missing, expired or tampered cookie just means anonymous.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get returns a fresh session (plus an error) on a bad cookie;
		// either way an empty payload is treated as anonymous.
		s, _ := m.store.Get(c.Request, cookieName)
		if p, ok := payloadFrom(s); ok {
			c.Set(identityKey, p)
		}
		c.Next()
	}
}

// Current returns the identity restored for this request, if any.
func Current(c *gin.Context) (Payload, bool) {
	v, ok := c.Get(identityKey)
	if !ok || v == nil {
		return Payload{}, false
	}
	p, ok := v.(Payload)
	return p, ok
}

// RequireAuth blocks protected routes: anonymous requests are redirected
// to the login form and never reach the handler.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func payloadFrom(s *sessions.Session) (Payload, bool) {
	uid, _ := s.Values["uid"].(string)
	if uid == "" {
		return Payload{}, false
	}
	username, _ := s.Values["username"].(string)
	picture, _ := s.Values["picture"].(string)
	return Payload{UserID: uid, Username: username, Picture: picture}, true
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
