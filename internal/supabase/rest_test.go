package supabase_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"real4d-backend/internal/config"
	"real4d-backend/internal/models"
	"real4d-backend/internal/supabase"
)

const existingOrder = `[{"id":"3f0c2a9e-8b1d-4c55-9a7e-2d4b6f1e0a11","email":"a@x.com","nome":"Ana","hotmart_transaction":"T1","status":"prints_enviados","created_at":"2026-03-05T15:04:00+00:00"}]`

func newRestLedger(t *testing.T, handler http.HandlerFunc) *supabase.RestLedger {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := supabase.NewClient(&config.Config{
		SupabaseURL:            server.URL,
		SupabaseServiceRoleKey: "service-key",
	})
	require.NoError(t, err)
	return supabase.NewRestLedger(client, nil)
}

func TestRestLedger_CreateOrderDuplicateReadsExisting(t *testing.T) {
	var methods []string
	ledger := newRestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/rest/v1/pedidos"), r.URL.Path)
		methods = append(methods, r.Method)
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"pedidos_hotmart_transaction_key\""}`))
		case http.MethodGet:
			assert.Equal(t, "eq.T1", r.URL.Query().Get("hotmart_transaction"))
			_, _ = w.Write([]byte(existingOrder))
		}
	})

	order, created, err := ledger.CreateOrder(context.Background(), models.NewOrder{
		Email:              "a@x.com",
		Name:               "Ana",
		HotmartTransaction: "T1",
		Status:             models.StatusAwaitingEvidence,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.StatusEvidenceSubmitted, order.Status)
	assert.Equal(t, "3f0c2a9e", order.ShortRef())
	assert.Equal(t, []string{http.MethodPost, http.MethodGet}, methods)
}

func TestRestLedger_CreateOrderOtherErrorIsReturned(t *testing.T) {
	ledger := newRestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"23502","message":"null value in column \"email\""}`))
	})

	_, _, err := ledger.CreateOrder(context.Background(), models.NewOrder{HotmartTransaction: "T1"})
	assert.Error(t, err)
}

func TestRestLedger_GetOrderByTransactionNotFound(t *testing.T) {
	ledger := newRestLedger(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := ledger.GetOrderByTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}
