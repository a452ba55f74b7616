package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pins-charity/orderforms-backend/internal/notifications"
	"github.com/pins-charity/orderforms-backend/internal/orderforms"
	"github.com/pins-charity/orderforms-backend/internal/submissions"
	"github.com/pins-charity/orderforms-backend/internal/vouchers"
	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/db"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
	"github.com/pins-charity/orderforms-backend/pkg/metrics"
	"github.com/pins-charity/orderforms-backend/pkg/migrate"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		Session: config.SessionConfig{CookieName: "of_session", TTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, pinger db.Pinger) http.Handler {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:routes_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	client := db.NewFromGorm(conn)
	logg := logger.Nop()
	reg := prometheus.NewRegistry()

	forms, err := orderforms.NewService(orderforms.NewRepository(conn), client, logg)
	if err != nil {
		t.Fatalf("forms service: %v", err)
	}
	voucherSvc, err := vouchers.NewService(vouchers.NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("voucher service: %v", err)
	}
	composer := notifications.NewComposer("https://pins.example.org", "orders@pins.example.org")
	orderMetrics := metrics.NewOrderMetrics(reg)
	notifier, err := notifications.NewNotifier(composer, notifications.NewLogSender(logg), orderMetrics, logg)
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	subs, err := submissions.NewService(submissions.ServiceParams{
		Repo:     submissions.NewRepository(conn),
		Forms:    forms,
		Vouchers: voucherSvc,
		Notifier: notifier,
		Tx:       client,
		Metrics:  orderMetrics,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("submission service: %v", err)
	}
	if pinger == nil {
		pinger = client
	}
	return NewRouter(testConfig(), logg, pinger, nil, reg, metrics.NewHTTPMetrics(reg), forms, subs, nil, composer, nil, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func dataOf(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode %s: %v", resp.Body.String(), err)
	}
	return envelope.Data
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)
	if resp := do(t, h, http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	down := newTestRouter(t, stubPinger{err: errors.New("connection refused")})
	if resp := do(t, down, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready with db down: expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodGet, "/health/live", "")
	resp := do(t, h, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "orderforms_http_requests_total") {
		t.Fatalf("expected http metrics in exposition")
	}
}

func TestOrderFlowThroughRouter(t *testing.T) {
	h := newTestRouter(t, nil)

	created := do(t, h, http.MethodPost, "/api/admin/v1/forms", `{
		"title": "Calendars",
		"slug": "calendars",
		"total_available": 5,
		"variants": [{"name": "Calendar", "unit_cost": "8.50", "item_count": 1, "quantity_choices": "0,1,2,3"}],
		"shipping_tiers": [{"max_quantity": 2, "cost": "1.50"}, {"cost": "3"}],
		"vouchers": [{"code": "FRIENDS", "discount": "2"}]
	}`)
	if created.Code != http.StatusCreated {
		t.Fatalf("create form: expected 201 got %d: %s", created.Code, created.Body.String())
	}
	formID, _ := dataOf(t, created)["id"].(string)
	if formID == "" {
		t.Fatalf("missing form id")
	}

	public := do(t, h, http.MethodGet, "/api/v1/forms/by-slug/calendars", "")
	if public.Code != http.StatusOK {
		t.Fatalf("public form: expected 200 got %d", public.Code)
	}
	if strings.Contains(public.Body.String(), "FRIENDS") {
		t.Fatalf("voucher code exposed on public form")
	}
	var session *http.Cookie
	for _, c := range public.Result().Cookies() {
		if c.Name == "of_session" {
			session = c
		}
	}
	if session == nil {
		t.Fatalf("expected session cookie")
	}

	total := do(t, h, http.MethodPost, "/api/v1/forms/"+formID+"/total", `{"selection":{"pv__calendar":2},"voucher_code":"FRIENDS"}`, session)
	if total.Code != http.StatusOK {
		t.Fatalf("total: expected 200 got %d: %s", total.Code, total.Body.String())
	}
	if got := dataOf(t, total)["total"]; got != "16.5" {
		t.Fatalf("unexpected total %v", got)
	}

	placed := do(t, h, http.MethodPost, "/api/v1/forms/"+formID+"/submissions",
		`{"selection":{"pv__calendar":3},"name":"Ana","email":"ana@example.org"}`, session)
	if placed.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201 got %d: %s", placed.Code, placed.Body.String())
	}
	reference, _ := dataOf(t, placed)["reference"].(string)

	rejected := do(t, h, http.MethodPost, "/api/v1/forms/"+formID+"/submissions",
		`{"selection":{"pv__calendar":3},"name":"Ben","email":"ben@example.org"}`)
	if rejected.Code != http.StatusBadRequest {
		t.Fatalf("over cap: expected 400 got %d: %s", rejected.Code, rejected.Body.String())
	}

	detail := do(t, h, http.MethodGet, "/api/v1/submissions/"+reference, "")
	if detail.Code != http.StatusOK {
		t.Fatalf("detail: expected 200 got %d", detail.Code)
	}
	if _, ok := dataOf(t, detail)["checkout"]; ok {
		t.Fatalf("checkout must be omitted when payments are disabled")
	}

	action := do(t, h, http.MethodPost, "/api/admin/v1/submissions/mark-paid", `{"references":["`+reference+`"]}`)
	if action.Code != http.StatusOK {
		t.Fatalf("bulk action: expected 200 got %d", action.Code)
	}
	export := do(t, h, http.MethodGet, "/api/admin/v1/forms/"+formID+"/export?format=csv", "")
	if export.Code != http.StatusOK || !strings.Contains(export.Body.String(), reference) {
		t.Fatalf("export: got %d %s", export.Code, export.Body.String())
	}
}

func TestPayPalWebhookDisabledWithoutProcessor(t *testing.T) {
	h := newTestRouter(t, nil)
	resp := do(t, h, http.MethodPost, "/api/v1/webhooks/paypal", "txn_id=1")
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected webhook route to be absent, got %d", resp.Code)
	}
}
