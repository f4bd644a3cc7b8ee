package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"real4d-backend/internal/models"
	"real4d-backend/internal/services"
	"real4d-backend/internal/session"
)

// DashboardHandler serves order listings for the customer and admin pages.
// Routes must sit behind session.RequireAuth or session.RequireAdmin.
type DashboardHandler struct {
	ledger   services.OrderLedger
	location *time.Location
	logger   *zap.Logger
}

func NewDashboardHandler(ledger services.OrderLedger, location *time.Location, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		ledger:   ledger,
		location: location,
		logger:   logger.Named("dashboard"),
	}
}

func (h *DashboardHandler) ListMyOrders(c *gin.Context) {
	s := session.FromContext(c)
	if s == nil || s.Email == "" {
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.ledger.ListOrdersByEmail(c.Request.Context(), s.Email)
	if err != nil {
		h.logger.Error("failed to list orders", zap.String("email", s.Email), zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: h.views(orders, false)})
}

func (h *DashboardHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.ledger.ListOrders(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list all orders", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Orders: h.views(orders, true)})
}

// views omits buyer details unless withBuyer is set.
func (h *DashboardHandler) views(orders []models.Order, withBuyer bool) []models.OrderView {
	out := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		v := models.OrderView{
			ID:          o.ID.String(),
			Reference:   o.ShortRef(),
			Status:      o.Status,
			StatusLabel: session.StatusLabel(o.Status),
			StatusClass: session.StatusClass(o.Status),
			CreatedAt:   o.CreatedAt,
			CreatedAtBR: session.FormatDate(o.CreatedAt, h.location),
		}
		if withBuyer {
			v.Email = o.Email
			v.Name = o.Name
		}
		out = append(out, v)
	}
	return out
}
