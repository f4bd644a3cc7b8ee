package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"real4d-backend/internal/models"
)

// Links are the site pages magic links redirect to.
type Links struct {
	UploadURL  string
	ResultsURL string
}

// PurchaseService reacts to Hotmart purchase events.
type PurchaseService struct {
	identity IdentityProvider
	ledger   OrderLedger
	notifier Notifier
	links    Links
	logger   *zap.Logger
}

func NewPurchaseService(
	identity IdentityProvider,
	ledger OrderLedger,
	notifier Notifier,
	links Links,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		identity: identity,
		ledger:   ledger,
		notifier: notifier,
		links:    links,
		logger:   logger.Named("purchase"),
	}
}

// Approve provisions the buyer's account and order and emails a sign-in link.
// Only identity creation and order insertion can fail the call. An account
// reported missing when the link is issued is created again.
func (s *PurchaseService) Approve(ctx context.Context, p models.Purchase) (*models.Order, error) {
	log := s.logger.With(zap.String("email", p.Email), zap.String("transaction", p.Transaction))

	if err := s.ensureIdentity(ctx, p, log); err != nil {
		return nil, err
	}

	order, created, err := s.ledger.CreateOrder(ctx, models.NewOrder{
		Email:              p.Email,
		Name:               p.Name,
		HotmartTransaction: p.Transaction,
		Status:             models.StatusAwaitingEvidence,
	})
	if err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, fmt.Errorf("create order: %w", err)
	}
	if created {
		log.Info("order created", zap.String("order_id", order.ID.String()))
	} else {
		log.Info("duplicate purchase event, order already exists", zap.String("order_id", order.ID.String()))
	}

	link, err := s.identity.GenerateMagicLink(ctx, p.Email, s.links.UploadURL)
	if errors.Is(err, models.ErrIdentityNotFound) {
		// The lookup above answered from stale state; the account is gone.
		log.Warn("identity missing at link time, recreating")
		if err := s.createIdentity(ctx, p, log); err != nil {
			return nil, err
		}
		link, err = s.identity.GenerateMagicLink(ctx, p.Email, s.links.UploadURL)
	}
	link = s.linkOrFallback(link, err, s.links.UploadURL, log)

	if err := s.notifier.SendPurchaseConfirmed(ctx, p.Email, p.Name, order.ShortRef(), link); err != nil {
		log.Error("failed to send purchase confirmation", zap.Error(err))
	}

	return order, nil
}

// Refund marks the order refunded. A transaction with no order is not an error.
func (s *PurchaseService) Refund(ctx context.Context, transaction string) error {
	log := s.logger.With(zap.String("transaction", transaction))

	n, err := s.ledger.MarkRefunded(ctx, transaction)
	if err != nil {
		log.Error("failed to mark order refunded", zap.Error(err))
		return fmt.Errorf("mark refunded: %w", err)
	}
	if n == 0 {
		log.Warn("refund for unknown transaction")
		return nil
	}
	log.Info("order refunded")
	return nil
}

// ReportReady emails the buyer a link to the results page. Failing to send is
// an error since the notification is the whole point of the event.
func (s *PurchaseService) ReportReady(ctx context.Context, p models.Purchase) (*models.Order, error) {
	log := s.logger.With(zap.String("email", p.Email), zap.String("transaction", p.Transaction))

	order, err := s.ledger.GetOrderByTransaction(ctx, p.Transaction)
	if err != nil {
		log.Error("failed to load order for report", zap.Error(err))
		return nil, fmt.Errorf("get order: %w", err)
	}

	to := order.Email
	if to == "" {
		to = p.Email
	}
	name := p.Name
	if name == "" {
		name = order.Name
	}

	link := s.magicLink(ctx, to, s.links.ResultsURL, log)

	if err := s.notifier.SendReportReady(ctx, to, name, order.ShortRef(), link); err != nil {
		log.Error("failed to send report ready email", zap.Error(err))
		return nil, fmt.Errorf("send report ready: %w", err)
	}

	log.Info("report ready email sent", zap.String("order_id", order.ID.String()))
	return order, nil
}

func (s *PurchaseService) ensureIdentity(ctx context.Context, p models.Purchase, log *zap.Logger) error {
	existing, err := s.identity.FindUserByEmail(ctx, p.Email)
	if err == nil && existing != nil {
		return nil
	}
	if err != nil && !errors.Is(err, models.ErrIdentityNotFound) {
		// Same as a miss: creation below reports a conflict if the user exists.
		log.Warn("identity lookup failed, attempting creation", zap.Error(err))
	}
	return s.createIdentity(ctx, p, log)
}

func (s *PurchaseService) createIdentity(ctx context.Context, p models.Purchase, log *zap.Logger) error {
	if _, err := s.identity.CreateUser(ctx, p.Email, p.Name); err != nil {
		if errors.Is(err, models.ErrIdentityExists) {
			log.Info("identity already registered")
			return nil
		}
		log.Error("failed to create identity", zap.Error(err))
		return fmt.Errorf("create identity: %w", err)
	}

	log.Info("identity created")
	return nil
}

// magicLink falls back to the plain page URL when the auth service cannot issue a link.
func (s *PurchaseService) magicLink(ctx context.Context, email, redirectTo string, log *zap.Logger) string {
	link, err := s.identity.GenerateMagicLink(ctx, email, redirectTo)
	return s.linkOrFallback(link, err, redirectTo, log)
}

func (s *PurchaseService) linkOrFallback(link string, err error, redirectTo string, log *zap.Logger) string {
	if err != nil || link == "" {
		log.Warn("failed to generate magic link, using plain link", zap.Error(err))
		return redirectTo
	}
	return link
}
