package services

import (
	"context"

	"github.com/google/uuid"
	"real4d-backend/internal/models"
)

// IdentityProvider is the managed auth service.
type IdentityProvider interface {
	// FindUserByEmail returns models.ErrIdentityNotFound when no account matches.
	FindUserByEmail(ctx context.Context, email string) (*models.Identity, error)
	// CreateUser creates a pre-confirmed account carrying the display name.
	CreateUser(ctx context.Context, email, name string) (*models.Identity, error)
	DeleteUser(ctx context.Context, identity models.Identity) error
	// GenerateMagicLink returns a single-use sign-in link that lands on redirectTo,
	// or models.ErrIdentityNotFound when the account is gone.
	GenerateMagicLink(ctx context.Context, email, redirectTo string) (string, error)
	// VerifyToken resolves an access token, returning models.ErrInvalidToken when rejected.
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
}

// OrderLedger is the pedidos table and its dependants.
type OrderLedger interface {
	// CreateOrder inserts the order, or returns the existing one for the same
	// transaction with created=false.
	CreateOrder(ctx context.Context, order models.NewOrder) (o *models.Order, created bool, err error)
	GetOrderByTransaction(ctx context.Context, transaction string) (*models.Order, error)
	// MarkRefunded returns the number of orders updated.
	MarkRefunded(ctx context.Context, transaction string) (int64, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)

	PrintPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error)
	ReportPaths(ctx context.Context, orderIDs []uuid.UUID) ([]string, error)
	DeletePrints(ctx context.Context, orderIDs []uuid.UUID) error
	DeleteResponses(ctx context.Context, orderIDs []uuid.UUID) error
	DeleteReports(ctx context.Context, orderIDs []uuid.UUID) error
	DeleteOrdersByEmail(ctx context.Context, email string) error
}

// ArtifactStore is one storage bucket.
type ArtifactStore interface {
	Bucket() string
	RemoveFiles(ctx context.Context, paths []string) error
}

// Notifier renders and sends the transactional emails.
type Notifier interface {
	SendPurchaseConfirmed(ctx context.Context, to, name, orderRef, link string) error
	SendReportReady(ctx context.Context, to, name, orderRef, link string) error
	SendAccountDeleted(ctx context.Context, to, name string) error
}
