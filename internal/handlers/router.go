package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"real4d-backend/internal/middleware"
	"real4d-backend/internal/session"
)

type RouterConfig struct {
	Webhook   *WebhookHandler
	Account   *AccountHandler
	Dashboard *DashboardHandler

	// Tokens verifies bearer tokens for account deletion against the auth service.
	Tokens middleware.TokenVerifier
	// Sessions verifies browser sessions locally for the dashboard routes.
	Sessions   *session.Verifier
	SignInPath string
	AdminEmail string

	// Metrics is mounted on /metrics when set.
	Metrics      http.Handler
	HealthChecks []Pinger
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(cfg.Logger.Named("http")))

	router.GET("/health", HealthHandler(cfg.HealthChecks...))
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := router.Group("/api/v1")

	public := api.Group("", middleware.CORS())
	public.OPTIONS("/webhooks/hotmart", preflight)
	public.POST("/webhooks/hotmart", cfg.Webhook.HandleHotmart)
	public.OPTIONS("/account/delete", preflight)
	public.POST("/account/delete", middleware.RequireUser(cfg.Tokens), cfg.Account.DeleteAccount)

	api.GET("/orders", session.RequireAuth(cfg.Sessions, cfg.SignInPath), cfg.Dashboard.ListMyOrders)
	api.GET("/admin/orders", session.RequireAdmin(cfg.Sessions, cfg.AdminEmail), cfg.Dashboard.ListAllOrders)

	return router
}

// preflight is only reached if CORS did not abort the request.
func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
