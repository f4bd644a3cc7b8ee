package testutil

import (
	"context"
	"sync"

	"real4d-backend/internal/email"
)

// Sent is one notification recorded by Notifier.
type Sent struct {
	Kind     string
	To       string
	Name     string
	OrderRef string
	Link     string
}

// Notifier records notifications. Errors keyed by kind ("purchase_confirmed",
// "report_ready", "account_deleted") fail that kind.
type Notifier struct {
	mu       sync.Mutex
	Sent     []Sent
	Errors   map[string]error
	Recorder *Recorder
}

func NewNotifier(rec *Recorder) *Notifier {
	return &Notifier{Errors: map[string]error{}, Recorder: rec}
}

func (n *Notifier) record(s Sent) error {
	n.Recorder.Record("notify." + s.Kind)
	if err := n.Errors[s.Kind]; err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, s)
	return nil
}

func (n *Notifier) SendPurchaseConfirmed(ctx context.Context, to, name, orderRef, link string) error {
	return n.record(Sent{Kind: "purchase_confirmed", To: to, Name: name, OrderRef: orderRef, Link: link})
}

func (n *Notifier) SendReportReady(ctx context.Context, to, name, orderRef, link string) error {
	return n.record(Sent{Kind: "report_ready", To: to, Name: name, OrderRef: orderRef, Link: link})
}

func (n *Notifier) SendAccountDeleted(ctx context.Context, to, name string) error {
	return n.record(Sent{Kind: "account_deleted", To: to, Name: name})
}

// Mailer records messages handed to it by email.Notifier.
type Mailer struct {
	mu       sync.Mutex
	Messages []email.Message
	Err      error
}

func (m *Mailer) Send(ctx context.Context, msg email.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
	return nil
}
