package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"secrets-service/internal/session"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog())
	r.Use(Metrics())
	r.Use(h.Sessions.Middleware())

	r.SetHTMLTemplate(pageTemplates())

	r.GET("/", h.Home)
	r.GET("/login", h.LoginForm)
	r.GET("/register", h.RegisterForm)
	r.POST("/login", h.Login)
	r.POST("/register", h.Register)
	r.GET("/logout", h.Logout)

	r.GET("/auth/google", h.GoogleStart)
	r.GET("/auth/google/callback", h.GoogleCallback)

	r.GET("/secrets", session.RequireAuth(), h.Secrets)

	r.GET("/submit", h.SubmitForm)
	r.POST("/submit", h.Submit)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
