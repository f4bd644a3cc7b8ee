package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/models"
)

// DeletionSummary counts what an account deletion removed. Failures names the
// cleanup steps that errored and were skipped.
type DeletionSummary struct {
	Orders   int      `json:"orders"`
	Prints   int      `json:"prints"`
	Reports  int      `json:"reports"`
	Failures []string `json:"failures,omitempty"`
}

// AccountService removes a user's data on request.
type AccountService struct {
	ledger   OrderLedger
	prints   ArtifactStore
	reports  ArtifactStore
	identity IdentityProvider
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewAccountService(
	ledger OrderLedger,
	prints ArtifactStore,
	reports ArtifactStore,
	identity IdentityProvider,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		ledger:   ledger,
		prints:   prints,
		reports:  reports,
		identity: identity,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("account"),
	}
}

// DeleteAccount removes every order owned by user.Email together with its
// prints, responses and reports, then the auth user itself. Storage objects go
// before the rows that reference them and child rows before pedidos. Only the
// initial order read and the auth user deletion are fatal; a failed cleanup
// step is logged, counted in the summary and the cascade moves on. The
// confirmation email is best-effort.
func (s *AccountService) DeleteAccount(ctx context.Context, user models.Identity) (*DeletionSummary, error) {
	log := s.logger.With(zap.String("email", user.Email), zap.String("user_id", user.ID.String()))

	summary, err := s.deleteRecords(ctx, user.Email, log)
	if err != nil {
		s.metrics.Deletion("records_failed")
		return nil, err
	}

	if err := s.identity.DeleteUser(ctx, user); err != nil {
		log.Error("failed to delete auth user", zap.Error(err))
		s.metrics.Deletion("identity_failed")
		return nil, fmt.Errorf("delete auth user: %w", err)
	}

	if err := s.notifier.SendAccountDeleted(ctx, user.Email, user.Name); err != nil {
		log.Error("failed to send account deletion email", zap.Error(err))
	}

	if len(summary.Failures) > 0 {
		s.metrics.Deletion("partial")
	} else {
		s.metrics.Deletion("ok")
	}
	log.Info("account deleted",
		zap.Int("orders", summary.Orders),
		zap.Int("prints", summary.Prints),
		zap.Int("reports", summary.Reports),
		zap.Strings("failures", summary.Failures),
	)
	return summary, nil
}

func (s *AccountService) deleteRecords(ctx context.Context, email string, log *zap.Logger) (*DeletionSummary, error) {
	orders, err := s.ledger.ListOrdersByEmail(ctx, email)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}

	summary := &DeletionSummary{Orders: len(orders)}
	if len(orders) == 0 {
		return summary, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	fail := func(step string, err error, fields ...zap.Field) {
		log.Error("account cleanup step failed", append(fields, zap.String("step", step), zap.Error(err))...)
		summary.Failures = append(summary.Failures, step)
	}

	// A path read that fails leaves that bucket untouched; its rows still go.
	if printPaths, err := s.ledger.PrintPaths(ctx, ids); err != nil {
		fail("list_prints", err)
	} else {
		summary.Prints = len(printPaths)
		s.removeFiles(ctx, s.prints, printPaths, fail)
	}
	if reportPaths, err := s.ledger.ReportPaths(ctx, ids); err != nil {
		fail("list_reports", err)
	} else {
		summary.Reports = len(reportPaths)
		s.removeFiles(ctx, s.reports, reportPaths, fail)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"delete_prints", func() error { return s.ledger.DeletePrints(ctx, ids) }},
		{"delete_respostas", func() error { return s.ledger.DeleteResponses(ctx, ids) }},
		{"delete_relatorios", func() error { return s.ledger.DeleteReports(ctx, ids) }},
		{"delete_pedidos", func() error { return s.ledger.DeleteOrdersByEmail(ctx, email) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			fail(step.name, err)
		}
	}

	return summary, nil
}

func (s *AccountService) removeFiles(ctx context.Context, store ArtifactStore, paths []string, fail func(string, error, ...zap.Field)) {
	if len(paths) == 0 {
		return
	}
	if err := store.RemoveFiles(ctx, paths); err != nil {
		fail("remove_"+store.Bucket(), err, zap.String("bucket", store.Bucket()), zap.Int("files", len(paths)))
	}
}
