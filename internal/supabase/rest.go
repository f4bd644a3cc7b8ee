package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/models"
)

// RestLedger is the order ledger over PostgREST, used when no direct database
// URL is configured. PostgREST cannot upsert without overwriting the existing
// row, so CreateOrder inserts and falls back to a read on a unique violation.
type RestLedger struct {
	client  *supabase.Client
	metrics *metrics.Metrics
}

func NewRestLedger(client *Client, m *metrics.Metrics) *RestLedger {
	return &RestLedger{client: client.Supabase, metrics: m}
}

type pathRow struct {
	StoragePath string `json:"storage_path"`
}

func (r *RestLedger) CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	defer r.metrics.ObserveSince("postgrest", "create_order", time.Now())

	var rows []models.Order
	_, err := r.client.From("pedidos").
		Insert(order, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, false, fmt.Errorf("failed to create order: %w", err)
		}
		existing, getErr := r.GetOrderByTransaction(ctx, order.HotmartTransaction)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to read duplicate order: %w", getErr)
		}
		return existing, false, nil
	}
	if len(rows) == 0 {
		return nil, false, fmt.Errorf("failed to create order: empty response")
	}
	return &rows[0], true, nil
}

func (r *RestLedger) GetOrderByTransaction(ctx context.Context, transaction string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.metrics.ObserveSince("postgrest", "get_order", time.Now())

	var rows []models.Order
	_, err := r.client.From("pedidos").
		Select("*", "", false).
		Eq("hotmart_transaction", transaction).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if len(rows) == 0 {
		return nil, models.ErrOrderNotFound
	}
	return &rows[0], nil
}

func (r *RestLedger) MarkRefunded(ctx context.Context, transaction string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer r.metrics.ObserveSince("postgrest", "mark_refunded", time.Now())

	var rows []models.Order
	_, err := r.client.From("pedidos").
		Update(map[string]string{"status": models.StatusRefunded}, "representation", "").
		Eq("hotmart_transaction", transaction).
		ExecuteTo(&rows)
	if err != nil {
		return 0, fmt.Errorf("failed to update order status: %w", err)
	}
	return int64(len(rows)), nil
}

func (r *RestLedger) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.metrics.ObserveSince("postgrest", "list_orders_by_email", time.Now())

	var rows []models.Order
	_, err := r.client.From("pedidos").
		Select("*", "", false).
		Eq("email", email).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return rows, nil
}

func (r *RestLedger) ListOrders(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.metrics.ObserveSince("postgrest", "list_orders", time.Now())

	var rows []models.Order
	_, err := r.client.From("pedidos").
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return rows, nil
}

func (r *RestLedger) PrintPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error) {
	return r.storagePaths(ctx, "prints", orderIDs)
}

func (r *RestLedger) ReportPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error) {
	return r.storagePaths(ctx, "relatorios", orderIDs)
}

func (r *RestLedger) storagePaths(ctx context.Context, table string, orderIDs []uuid.UUID) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer r.metrics.ObserveSince("postgrest", "select_"+table, time.Now())

	var rows []pathRow
	_, err := r.client.From(table).
		Select("storage_path", "", false).
		In("pedido_id", uuidStrings(orderIDs)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", table, err)
	}

	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.StoragePath != "" {
			paths = append(paths, row.StoragePath)
		}
	}
	return paths, nil
}

func (r *RestLedger) DeletePrints(ctx context.Context, orderIDs []uuid.UUID) error {
	return r.deleteByOrder(ctx, "prints", orderIDs)
}

func (r *RestLedger) DeleteResponses(ctx context.Context, orderIDs []uuid.UUID) error {
	return r.deleteByOrder(ctx, "respostas", orderIDs)
}

func (r *RestLedger) DeleteReports(ctx context.Context, orderIDs []uuid.UUID) error {
	return r.deleteByOrder(ctx, "relatorios", orderIDs)
}

func (r *RestLedger) deleteByOrder(ctx context.Context, table string, orderIDs []uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.metrics.ObserveSince("postgrest", "delete_"+table, time.Now())

	_, _, err := r.client.From(table).
		Delete("minimal", "").
		In("pedido_id", uuidStrings(orderIDs)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", table, err)
	}
	return nil
}

func (r *RestLedger) DeleteOrdersByEmail(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.metrics.ObserveSince("postgrest", "delete_pedidos", time.Now())

	_, _, err := r.client.From("pedidos").
		Delete("minimal", "").
		Eq("email", email).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete orders: %w", err)
	}
	return nil
}

// isUniqueViolation matches PostgREST's rendering of Postgres error 23505.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate")
}
