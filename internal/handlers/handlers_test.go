package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"real4d-backend/internal/email"
	"real4d-backend/internal/handlers"
	"real4d-backend/internal/metrics"
	"real4d-backend/internal/services"
	"real4d-backend/internal/session"
	"real4d-backend/internal/testutil"
)

const (
	jwtSecret  = "test-secret-key-for-jwt-signing-must-be-long-enough"
	adminEmail = "contato@real4d.me"
)

type app struct {
	router   *gin.Engine
	rec      *testutil.Recorder
	identity *testutil.Identity
	ledger   *testutil.Ledger
	prints   *testutil.Store
	reports  *testutil.Store
	mailer   *testutil.Mailer
}

type appOption func(*handlers.RouterConfig, *app)

func withHottok(token string, m *metrics.Metrics) appOption {
	return func(cfg *handlers.RouterConfig, a *app) {
		cfg.Webhook = handlers.NewWebhookHandler(newPurchases(a), token, m, zap.NewNop())
	}
}

func newPurchases(a *app) *services.PurchaseService {
	return services.NewPurchaseService(a.identity, a.ledger, newNotifier(a), services.Links{
		UploadURL:  "https://real4d.me/enviar",
		ResultsURL: "https://real4d.me/resultado",
	}, zap.NewNop())
}

func newNotifier(a *app) *email.Notifier {
	renderer, err := email.NewRenderer(email.Branding{
		LogoURL:      "https://real4d.me/logo.png",
		SiteURL:      "https://real4d.me",
		ContactEmail: adminEmail,
	})
	if err != nil {
		panic(err)
	}
	return email.NewNotifier(renderer, a.mailer, nil, zap.NewNop())
}

func newApp(t *testing.T, opts ...appOption) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := &testutil.Recorder{}
	a := &app{
		rec:      rec,
		identity: testutil.NewIdentity(rec),
		ledger:   testutil.NewLedger(rec),
		prints:   testutil.NewStore("prints", rec),
		reports:  testutil.NewStore("relatorios", rec),
		mailer:   &testutil.Mailer{},
	}

	accounts := services.NewAccountService(a.ledger, a.prints, a.reports, a.identity, newNotifier(a), nil, zap.NewNop())
	cfg := handlers.RouterConfig{
		Webhook:    handlers.NewWebhookHandler(newPurchases(a), "", nil, zap.NewNop()),
		Account:    handlers.NewAccountHandler(accounts, zap.NewNop()),
		Dashboard:  handlers.NewDashboardHandler(a.ledger, session.LoadLocation("America/Sao_Paulo"), zap.NewNop()),
		Tokens:     a.identity,
		Sessions:   session.NewVerifier(jwtSecret),
		SignInPath: "/entrar",
		AdminEmail: adminEmail,
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg, a)
	}
	a.router = handlers.NewRouter(cfg)
	return a
}

func (a *app) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func webhookBody(event, email, name, transaction string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"event": event,
		"data": map[string]interface{}{
			"buyer":    map[string]string{"email": email, "name": name},
			"purchase": map[string]string{"transaction": transaction},
		},
	})
	return body
}

func sessionToken(t *testing.T, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-" + email,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return token
}
