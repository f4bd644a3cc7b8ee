package handlers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"real4d-backend/internal/handlers"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/models"
)

const webhookPath = "/api/v1/webhooks/hotmart"

func TestWebhook_PurchaseApproved(t *testing.T) {
	a := newApp(t)

	w := a.do("POST", webhookPath, webhookBody("PURCHASE_APPROVED", "a@x.com", "Ana", "T1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	require.Equal(t, 1, a.ledger.CountByTransaction("T1"))
	var order *models.Order
	for _, o := range a.ledger.Orders {
		order = o
	}
	assert.Equal(t, "a@x.com", order.Email)
	assert.Equal(t, "T1", order.HotmartTransaction)
	assert.Equal(t, models.StatusAwaitingEvidence, order.Status)

	require.Len(t, a.mailer.Messages, 1)
	msg := a.mailer.Messages[0]
	assert.Equal(t, "a@x.com", msg.To)
	assert.Contains(t, msg.Subject, "Pedido confirmado #"+order.ID.String()[:8])
	assert.Contains(t, msg.HTML, "magiclink")
}

func TestWebhook_ReplayIsIdempotent(t *testing.T) {
	a := newApp(t)
	body := webhookBody("PURCHASE_APPROVED", "a@x.com", "Ana", "T1")

	require.Equal(t, http.StatusOK, a.do("POST", webhookPath, body, nil).Code)
	w := a.do("POST", webhookPath, body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, a.ledger.CountByTransaction("T1"))
	assert.Equal(t, 1, a.identity.UserCount())
}

func TestWebhook_EmailIsNormalized(t *testing.T) {
	a := newApp(t)

	w := a.do("POST", webhookPath, webhookBody("PURCHASE_APPROVED", " Ana@X.COM ", "Ana", "T1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ana@x.com"}, a.identity.Created)
}

func TestWebhook_IdentityFailureIs500(t *testing.T) {
	a := newApp(t)
	a.identity.Errors["CreateUser"] = errors.New("auth down")

	w := a.do("POST", webhookPath, webhookBody("PURCHASE_APPROVED", "a@x.com", "Ana", "T1"), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, a.ledger.CountByTransaction("T1"))
}

func TestWebhook_ApprovedEmailFailureStillSucceeds(t *testing.T) {
	a := newApp(t)
	a.mailer.Err = errors.New("resend 500")

	w := a.do("POST", webhookPath, webhookBody("PURCHASE_APPROVED", "a@x.com", "Ana", "T1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, a.ledger.CountByTransaction("T1"))
}

func TestWebhook_Refunded(t *testing.T) {
	for _, event := range []string{"PURCHASE_REFUNDED", "PURCHASE_CHARGEBACK"} {
		t.Run(event, func(t *testing.T) {
			a := newApp(t)
			order := a.ledger.AddOrder("a@x.com", "T1", models.StatusEvidenceSubmitted)

			w := a.do("POST", webhookPath, webhookBody(event, "a@x.com", "Ana", "T1"), nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, models.StatusRefunded, a.ledger.Orders[order.ID].Status)
			assert.Empty(t, a.mailer.Messages)
			assert.Empty(t, a.identity.Created)
		})
	}
}

func TestWebhook_RefundUnknownTransaction(t *testing.T) {
	a := newApp(t)

	w := a.do("POST", webhookPath, webhookBody("PURCHASE_REFUNDED", "a@x.com", "Ana", "T-missing"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, a.ledger.Orders)
}

func TestWebhook_ReportReady(t *testing.T) {
	a := newApp(t)
	order := a.ledger.AddOrder("a@x.com", "T1", models.StatusAnalysisComplete)

	w := a.do("POST", webhookPath, webhookBody("REPORT_READY", "a@x.com", "Ana", "T1"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, a.mailer.Messages, 1)
	assert.Contains(t, a.mailer.Messages[0].Subject, "Relatório pronto #"+order.ShortRef())
	assert.Contains(t, a.mailer.Messages[0].HTML, "resultado")
}

func TestWebhook_ReportReadyEmailFailureIs500(t *testing.T) {
	a := newApp(t)
	a.ledger.AddOrder("a@x.com", "T1", models.StatusAnalysisComplete)
	a.mailer.Err = errors.New("resend 422")

	w := a.do("POST", webhookPath, webhookBody("REPORT_READY", "a@x.com", "Ana", "T1"), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhook_ReportReadyUnknownOrderIs404(t *testing.T) {
	a := newApp(t)

	w := a.do("POST", webhookPath, webhookBody("REPORT_READY", "a@x.com", "Ana", "T1"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, a.mailer.Messages)
}

func TestWebhook_UnknownEventIgnored(t *testing.T) {
	a := newApp(t)

	w := a.do("POST", webhookPath, webhookBody("PURCHASE_DELAYED", "a@x.com", "Ana", "T1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"ignored":"PURCHASE_DELAYED"}`, w.Body.String())
	assert.Empty(t, a.rec.Calls())
}

func TestWebhook_MalformedRequestsHaveNoSideEffects(t *testing.T) {
	cases := map[string][]byte{
		"invalid json":          []byte(`{"event":`),
		"missing event":         []byte(`{"data":{}}`),
		"missing data":          []byte(`{"event":"PURCHASE_APPROVED"}`),
		"missing email":         webhookBody("PURCHASE_APPROVED", "", "Ana", "T1"),
		"missing transaction":   webhookBody("REPORT_READY", "a@x.com", "Ana", ""),
		"refund without tx":     webhookBody("PURCHASE_REFUNDED", "a@x.com", "Ana", ""),
		"refund without email":  webhookBody("PURCHASE_REFUNDED", "", "Ana", "T1"),
		"chargeback no email":   webhookBody("PURCHASE_CHARGEBACK", "", "", "T1"),
		"unknown event no data": []byte(`{"event":"SOMETHING"}`),
		"unknown event no tx":   webhookBody("SOMETHING", "a@x.com", "Ana", ""),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			a := newApp(t)
			seeded := a.ledger.AddOrder("a@x.com", "T1", models.StatusAwaitingEvidence)

			w := a.do("POST", webhookPath, body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, models.StatusAwaitingEvidence, a.ledger.Orders[seeded.ID].Status)
			assert.False(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))
			assert.Empty(t, a.rec.Calls())
			assert.Empty(t, a.mailer.Messages)
		})
	}
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	a := newApp(t)

	for _, method := range []string{"GET", "PUT", "DELETE"} {
		w := a.do(method, webhookPath, nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
	}
}

func TestWebhook_Preflight(t *testing.T) {
	a := newApp(t)

	w := a.do("OPTIONS", webhookPath, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestWebhook_Hottok(t *testing.T) {
	m := metrics.Registry("test")
	a := newApp(t, withHottok("secret", m))
	body := webhookBody("PURCHASE_APPROVED", "a@x.com", "Ana", "T1")
	before := testutil.ToFloat64(m.WebhookEvents.WithLabelValues("unknown", "unauthorized"))

	w := a.do("POST", webhookPath, body, map[string]string{handlers.HottokHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, a.rec.Calls())
	assert.Equal(t, before+1, testutil.ToFloat64(m.WebhookEvents.WithLabelValues("unknown", "unauthorized")))

	w = a.do("POST", webhookPath, body, map[string]string{handlers.HottokHeader: "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_OversizedBodyIs413(t *testing.T) {
	a := newApp(t)
	body := []byte(`{"event":"PURCHASE_APPROVED","pad":"` + strings.Repeat("x", 2<<20) + `"}`)

	w := a.do("POST", webhookPath, body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, a.rec.Calls())
}
