package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"secrets-service/internal/domain"
	"secrets-service/internal/log"
	"secrets-service/internal/metrics"
	"secrets-service/internal/oauth"
	"secrets-service/internal/queue"
	"secrets-service/internal/ratelimit"
	"secrets-service/internal/repo"
	"secrets-service/internal/security"
	"secrets-service/internal/session"
)

// GoogleAuth is the slice of the provider client the handlers use;
// tests substitute a fake exchanger.
type GoogleAuth interface {
	MakeState(raw string) string
	VerifyState(got string) bool
	AuthURL(state string) string
	ExchangeAndVerify(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

type Handler struct {
	Store    repo.UserStore
	Sessions *session.Manager
	Google   GoogleAuth
	Limiter  *ratelimit.Limiter
	Events   queue.Publisher
}

func NewHandler(store repo.UserStore, sm *session.Manager, google GoogleAuth, rl *ratelimit.Limiter, pub queue.Publisher) *Handler {
	return &Handler{Store: store, Sessions: sm, Google: google, Limiter: rl, Events: pub}
}

func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home", nil)
}

func (h *Handler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login", nil)
}

func (h *Handler) RegisterForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register", nil)
}

// Register creates a local account and logs it in. Every failure mode
// (missing fields, taken username, store outage) lands back on the
// register form with no detail in the response body.
func (h *Handler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		log.L().Error("password hash", zap.Error(err))
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	u := &domain.User{Username: username, PasswordHash: hash, Provider: "local"}
	if err := h.Store.Create(c.Request.Context(), u); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			log.L().Error("create user", zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	if err := h.establish(c, u); err != nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	go h.Events.Publish(context.Background(), queue.Exchange, "user.registered",
		queue.UserRegistered{UserID: u.ID.Hex(), Username: u.Username},
		requestID(c))

	c.Redirect(http.StatusSeeOther, "/secrets")
}

// Login authenticates a local account. An unknown username and a wrong
// password are indistinguishable to the caller: same redirect, and a
// dummy bcrypt compare keeps the timing comparable.
func (h *Handler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if !h.Limiter.Allow(c.Request.Context(), c.ClientIP()) {
		metrics.LoginsTotal.WithLabelValues("local", "throttled").Inc()
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	u, err := h.Store.FindByUsername(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.L().Error("find user", zap.Error(err))
		}
		security.DummyCompare(password)
		metrics.LoginsTotal.WithLabelValues("local", "failure").Inc()
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	if !security.CheckPassword(u.PasswordHash, password) {
		metrics.LoginsTotal.WithLabelValues("local", "failure").Inc()
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if err := h.establish(c, u); err != nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	metrics.LoginsTotal.WithLabelValues("local", "success").Inc()

	go h.Events.Publish(context.Background(), queue.Exchange, "user.loggedin",
		queue.UserLoggedIn{UserID: u.ID.Hex(), Username: u.Username, Provider: "local"},
		requestID(c))

	c.Redirect(http.StatusSeeOther, "/secrets")
}

// Logout clears the session and sends the user home. Logging out while
// unauthenticated is fine.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Sessions.Clear(c); err != nil {
		log.L().Error("clear session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/")
}

// GoogleStart redirects the user agent to Google's authorization page.
func (h *Handler) GoogleStart(c *gin.Context) {
	nonce, err := oauth.NewStateNonce()
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.Redirect(http.StatusFound, h.Google.AuthURL(h.Google.MakeState(nonce)))
}

// GoogleCallback completes the code exchange and finds-or-creates the
// user keyed by the Google subject. Any failure along the way degrades
// to the login form.
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || !h.Google.VerifyState(state) {
		metrics.LoginsTotal.WithLabelValues("google", "failure").Inc()
		c.Redirect(http.StatusFound, "/login")
		return
	}

	gu, err := h.Google.ExchangeAndVerify(c.Request.Context(), code)
	if err != nil {
		log.L().Warn("google exchange", zap.Error(err))
		metrics.LoginsTotal.WithLabelValues("google", "failure").Inc()
		c.Redirect(http.StatusFound, "/login")
		return
	}

	u, err := h.Store.FindOrCreateByGoogleID(c.Request.Context(), gu.Sub,
		domain.User{Name: gu.Name, Picture: gu.Picture})
	if err != nil {
		log.L().Error("find or create user", zap.Error(err))
		metrics.LoginsTotal.WithLabelValues("google", "failure").Inc()
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if err := h.establish(c, u); err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	metrics.LoginsTotal.WithLabelValues("google", "success").Inc()

	go h.Events.Publish(context.Background(), queue.Exchange, "user.loggedin",
		queue.UserLoggedIn{UserID: u.ID.Hex(), Username: u.Username, Provider: "google"},
		requestID(c))

	c.Redirect(http.StatusFound, "/secrets")
}

func (h *Handler) Secrets(c *gin.Context) {
	p, _ := session.Current(c)
	c.HTML(http.StatusOK, "secrets", gin.H{"Username": p.Username})
}

func (h *Handler) SubmitForm(c *gin.Context) {
	c.HTML(http.StatusOK, "submit", nil)
}

// Submit accepts a secret and discards it, matching the observable
// behavior this page has always had: accept, redirect, no error.
func (h *Handler) Submit(c *gin.Context) {
	_ = c.PostForm("secret")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) establish(c *gin.Context, u *domain.User) error {
	err := h.Sessions.Establish(c, session.Payload{
		UserID:   u.ID.Hex(),
		Username: u.Username,
		Picture:  u.Picture,
	})
	if err != nil {
		log.L().Error("establish session", zap.Error(err))
	}
	return err
}
