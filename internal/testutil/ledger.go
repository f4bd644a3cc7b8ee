package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"real4d-backend/internal/models"
)

// StoredFile is a prints or relatorios row.
type StoredFile struct {
	OrderID uuid.UUID
	Path    string
}

// Ledger is an in-memory pedidos table with its dependants. Errors keyed by
// method name are returned instead of running the method.
type Ledger struct {
	mu        sync.Mutex
	Orders    map[uuid.UUID]*models.Order
	Prints    []StoredFile
	Reports   []StoredFile
	Responses []uuid.UUID
	Errors    map[string]error
	Recorder  *Recorder
}

func NewLedger(rec *Recorder) *Ledger {
	return &Ledger{
		Orders:   map[uuid.UUID]*models.Order{},
		Errors:   map[string]error{},
		Recorder: rec,
	}
}

func (l *Ledger) call(name string) error {
	l.Recorder.Record("ledger." + name)
	return l.Errors[name]
}

// AddOrder seeds an order and returns it.
func (l *Ledger) AddOrder(email, transaction, status string) *models.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := &models.Order{
		ID:                 uuid.New(),
		Email:              email,
		HotmartTransaction: transaction,
		Status:             status,
		CreatedAt:          time.Now().UTC(),
	}
	l.Orders[o.ID] = o
	return o
}

func (l *Ledger) AddPrint(orderID uuid.UUID, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Prints = append(l.Prints, StoredFile{OrderID: orderID, Path: path})
}

func (l *Ledger) AddReport(orderID uuid.UUID, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Reports = append(l.Reports, StoredFile{OrderID: orderID, Path: path})
}

func (l *Ledger) AddResponse(orderID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Responses = append(l.Responses, orderID)
}

// CountByTransaction returns how many orders carry the transaction.
func (l *Ledger) CountByTransaction(transaction string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, o := range l.Orders {
		if o.HotmartTransaction == transaction {
			n++
		}
	}
	return n
}

func (l *Ledger) CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, bool, error) {
	if err := l.call("CreateOrder"); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, o := range l.Orders {
		if o.HotmartTransaction == order.HotmartTransaction {
			cp := *o
			return &cp, false, nil
		}
	}
	o := &models.Order{
		ID:                 uuid.New(),
		Email:              order.Email,
		Name:               order.Name,
		HotmartTransaction: order.HotmartTransaction,
		Status:             order.Status,
		CreatedAt:          time.Now().UTC(),
	}
	l.Orders[o.ID] = o
	cp := *o
	return &cp, true, nil
}

func (l *Ledger) GetOrderByTransaction(ctx context.Context, transaction string) (*models.Order, error) {
	if err := l.call("GetOrderByTransaction"); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, o := range l.Orders {
		if o.HotmartTransaction == transaction {
			cp := *o
			return &cp, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (l *Ledger) MarkRefunded(ctx context.Context, transaction string) (int64, error) {
	if err := l.call("MarkRefunded"); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for _, o := range l.Orders {
		if o.HotmartTransaction == transaction {
			o.Status = models.StatusRefunded
			n++
		}
	}
	return n, nil
}

func (l *Ledger) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	if err := l.call("ListOrdersByEmail"); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Order
	for _, o := range l.Orders {
		if o.Email == email {
			out = append(out, *o)
		}
	}
	sortOrders(out)
	return out, nil
}

func (l *Ledger) ListOrders(ctx context.Context) ([]models.Order, error) {
	if err := l.call("ListOrders"); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Order, 0, len(l.Orders))
	for _, o := range l.Orders {
		out = append(out, *o)
	}
	sortOrders(out)
	return out, nil
}

func (l *Ledger) PrintPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error) {
	if err := l.call("PrintPaths"); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return pathsFor(l.Prints, orderIDs), nil
}

func (l *Ledger) ReportPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error) {
	if err := l.call("ReportPaths"); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return pathsFor(l.Reports, orderIDs), nil
}

func (l *Ledger) DeletePrints(ctx context.Context, orderIDs []uuid.UUID) error {
	if err := l.call("DeletePrints"); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Prints = dropFiles(l.Prints, orderIDs)
	return nil
}

func (l *Ledger) DeleteResponses(ctx context.Context, orderIDs []uuid.UUID) error {
	if err := l.call("DeleteResponses"); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	set := idSet(orderIDs)
	kept := l.Responses[:0]
	for _, id := range l.Responses {
		if !set[id] {
			kept = append(kept, id)
		}
	}
	l.Responses = kept
	return nil
}

func (l *Ledger) DeleteReports(ctx context.Context, orderIDs []uuid.UUID) error {
	if err := l.call("DeleteReports"); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Reports = dropFiles(l.Reports, orderIDs)
	return nil
}

func (l *Ledger) DeleteOrdersByEmail(ctx context.Context, email string) error {
	if err := l.call("DeleteOrdersByEmail"); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, o := range l.Orders {
		if o.Email == email {
			delete(l.Orders, id)
		}
	}
	return nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func pathsFor(files []StoredFile, orderIDs []uuid.UUID) []string {
	set := idSet(orderIDs)
	var out []string
	for _, f := range files {
		if set[f.OrderID] {
			out = append(out, f.Path)
		}
	}
	return out
}

func dropFiles(files []StoredFile, orderIDs []uuid.UUID) []StoredFile {
	set := idSet(orderIDs)
	kept := files[:0]
	for _, f := range files {
		if !set[f.OrderID] {
			kept = append(kept, f)
		}
	}
	return kept
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
