package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/models"
)

const orderColumns = `id, email, COALESCE(nome, '') AS nome, hotmart_transaction, status, created_at`

// DatabaseClient is the order ledger over a direct Postgres connection.
type DatabaseClient struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewDatabaseClient(ctx context.Context, connectionString string, m *metrics.Metrics) (*DatabaseClient, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &DatabaseClient{db: db, metrics: m}, nil
}

// NewDatabaseClientFromDB wraps an existing handle.
func NewDatabaseClientFromDB(db *sqlx.DB, m *metrics.Metrics) *DatabaseClient {
	return &DatabaseClient{db: db, metrics: m}
}

// createOrderQuery inserts or, on a transaction conflict, touches the existing
// row without changing it so RETURNING yields it either way. xmax is 0 only for
// a freshly inserted tuple.
const createOrderQuery = `
	INSERT INTO pedidos (email, nome, hotmart_transaction, status)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (hotmart_transaction)
	DO UPDATE SET hotmart_transaction = EXCLUDED.hotmart_transaction
	RETURNING ` + orderColumns + `, (xmax = 0) AS inserted`

func (d *DatabaseClient) CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, bool, error) {
	defer d.metrics.ObserveSince("database", "create_order", time.Now())

	var row struct {
		models.Order
		Inserted bool `db:"inserted"`
	}
	err := d.db.QueryRowxContext(ctx, createOrderQuery,
		order.Email, order.Name, order.HotmartTransaction, order.Status,
	).StructScan(&row)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create order: %w", err)
	}

	return &row.Order, row.Inserted, nil
}

func (d *DatabaseClient) GetOrderByTransaction(ctx context.Context, transaction string) (*models.Order, error) {
	defer d.metrics.ObserveSince("database", "get_order", time.Now())

	var order models.Order
	err := d.db.GetContext(ctx, &order, `
		SELECT `+orderColumns+`
		FROM pedidos
		WHERE hotmart_transaction = $1
	`, transaction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (d *DatabaseClient) MarkRefunded(ctx context.Context, transaction string) (int64, error) {
	defer d.metrics.ObserveSince("database", "mark_refunded", time.Now())

	res, err := d.db.ExecContext(ctx, `
		UPDATE pedidos
		SET status = $1
		WHERE hotmart_transaction = $2
	`, models.StatusRefunded, transaction)
	if err != nil {
		return 0, fmt.Errorf("failed to update order status: %w", err)
	}
	return res.RowsAffected()
}

func (d *DatabaseClient) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	defer d.metrics.ObserveSince("database", "list_orders_by_email", time.Now())

	var orders []models.Order
	err := d.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+`
		FROM pedidos
		WHERE email = $1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (d *DatabaseClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	defer d.metrics.ObserveSince("database", "list_orders", time.Now())

	var orders []models.Order
	err := d.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+`
		FROM pedidos
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (d *DatabaseClient) PrintPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error) {
	return d.storagePaths(ctx, "prints", orderIDs)
}

func (d *DatabaseClient) ReportPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error) {
	return d.storagePaths(ctx, "relatorios", orderIDs)
}

// storagePaths reads storage_path from a table keyed by pedido_id. table is
// always one of the fixed child table names.
func (d *DatabaseClient) storagePaths(ctx context.Context, table string, orderIDs []uuid.UUID) ([]string, error) {
	defer d.metrics.ObserveSince("database", "select_"+table, time.Now())

	var paths []string
	err := d.db.SelectContext(ctx, &paths,
		`SELECT storage_path FROM `+table+` WHERE pedido_id = ANY($1::uuid[]) AND storage_path IS NOT NULL`,
		pq.Array(uuidStrings(orderIDs)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", table, err)
	}
	return paths, nil
}

func (d *DatabaseClient) DeletePrints(ctx context.Context, orderIDs []uuid.UUID) error {
	return d.deleteByOrder(ctx, "prints", orderIDs)
}

func (d *DatabaseClient) DeleteResponses(ctx context.Context, orderIDs []uuid.UUID) error {
	return d.deleteByOrder(ctx, "respostas", orderIDs)
}

func (d *DatabaseClient) DeleteReports(ctx context.Context, orderIDs []uuid.UUID) error {
	return d.deleteByOrder(ctx, "relatorios", orderIDs)
}

func (d *DatabaseClient) deleteByOrder(ctx context.Context, table string, orderIDs []uuid.UUID) error {
	defer d.metrics.ObserveSince("database", "delete_"+table, time.Now())

	_, err := d.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE pedido_id = ANY($1::uuid[])`,
		pq.Array(uuidStrings(orderIDs)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", table, err)
	}
	return nil
}

func (d *DatabaseClient) DeleteOrdersByEmail(ctx context.Context, email string) error {
	defer d.metrics.ObserveSince("database", "delete_pedidos", time.Now())

	_, err := d.db.ExecContext(ctx, `
		DELETE FROM pedidos
		WHERE email = $1
	`, email)
	if err != nil {
		return fmt.Errorf("failed to delete orders: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
