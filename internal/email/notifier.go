package email

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"real4d-backend/internal/metrics"
)

const (
	templatePurchaseConfirmed = "purchase_confirmed"
	templateReportReady       = "report_ready"
	templateAccountDeleted    = "account_deleted"
)

// Notifier composes the transactional emails and hands them to a Mailer.
type Notifier struct {
	renderer *Renderer
	mailer   Mailer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewNotifier(renderer *Renderer, mailer Mailer, m *metrics.Metrics, logger *zap.Logger) *Notifier {
	return &Notifier{
		renderer: renderer,
		mailer:   mailer,
		metrics:  m,
		logger:   logger.Named("email"),
	}
}

func (n *Notifier) SendPurchaseConfirmed(ctx context.Context, to, name, orderRef, link string) error {
	html, err := n.renderer.RenderNotification(Notification{
		Heading:     "Pagamento confirmado",
		Body:        greeting(name) + "seu pedido #" + orderRef + " foi confirmado. Clique no botão abaixo para acessar a plataforma e enviar os prints das conversas.",
		ActionLabel: "Enviar prints",
		ActionURL:   link,
	})
	if err != nil {
		return err
	}
	return n.send(ctx, templatePurchaseConfirmed, Message{
		To:      to,
		Subject: fmt.Sprintf("Pedido confirmado #%s — REAL 4D", orderRef),
		HTML:    html,
	})
}

func (n *Notifier) SendReportReady(ctx context.Context, to, name, orderRef, link string) error {
	html, err := n.renderer.RenderNotification(Notification{
		Heading:     "Seu relatório está pronto",
		Body:        greeting(name) + "a análise do pedido #" + orderRef + " foi concluída. Clique no botão abaixo para ver o resultado.",
		ActionLabel: "Ver resultado",
		ActionURL:   link,
	})
	if err != nil {
		return err
	}
	return n.send(ctx, templateReportReady, Message{
		To:      to,
		Subject: fmt.Sprintf("Relatório pronto #%s — REAL 4D", orderRef),
		HTML:    html,
	})
}

func (n *Notifier) SendAccountDeleted(ctx context.Context, to, name string) error {
	html, err := n.renderer.RenderAccountDeleted(name)
	if err != nil {
		return err
	}
	return n.send(ctx, templateAccountDeleted, Message{
		To:      to,
		Subject: "Sua conta foi excluída — REAL 4D",
		HTML:    html,
	})
}

func (n *Notifier) send(ctx context.Context, template string, msg Message) error {
	start := time.Now()
	err := n.mailer.Send(ctx, msg)
	n.metrics.ObserveSince("email", template, start)
	if err != nil {
		n.metrics.Email(template, "error")
		return err
	}
	n.metrics.Email(template, "sent")
	n.logger.Debug("email sent", zap.String("template", template), zap.String("to", msg.To))
	return nil
}

func greeting(name string) string {
	if name == "" {
		return "Olá, "
	}
	return "Olá " + name + ", "
}
