package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"real4d-backend/internal/middleware"
	"real4d-backend/internal/models"
	"real4d-backend/internal/services"
)

type AccountHandler struct {
	accounts *services.AccountService
	logger   *zap.Logger
}

func NewAccountHandler(accounts *services.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.Named("account"),
	}
}

// DeleteAccount removes every record owned by the authenticated caller. The
// email comes from the verified token, never from the request body.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.accounts.DeleteAccount(c.Request.Context(), *identity)
	if err != nil {
		h.logger.Error("account deletion failed", zap.String("email", identity.Email), zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to delete account")
		return
	}

	h.logger.Info("account deleted",
		zap.String("email", identity.Email),
		zap.Int("orders", summary.Orders),
		zap.Int("prints", summary.Prints),
		zap.Int("reports", summary.Reports),
		zap.Strings("failures", summary.Failures),
	)
	c.JSON(http.StatusOK, models.OKResponse{OK: true})
}
