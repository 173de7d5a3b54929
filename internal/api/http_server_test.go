package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studiodesk/internal/config"
	"studiodesk/internal/database"
	"studiodesk/internal/events"
	"studiodesk/internal/export"
	"studiodesk/internal/invoice"
	"studiodesk/internal/models"
	"studiodesk/internal/repository"
	"studiodesk/internal/service"
	"studiodesk/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db *database.DB
	ts *httptest.Server
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db := newTestDB(t)

	bus := events.NewEventBus(&logger)
	notifications := service.NewNotificationService(db, nil, &logger)
	notifications.Subscribe(bus)

	files := storage.NewLocalStorage(t.TempDir(), "/uploads/logos")
	deps := Deps{
		Bookings:      service.NewBookingService(db, bus, nil, &logger),
		Notifications: notifications,
		Logos:         service.NewLogoService(db, files, repository.NewMemoryCache(), "", &logger),
		Invoices:      invoice.NewRenderer(config.InvoiceConfig{BusinessName: "Frame Studio"}),
		Exporter:      export.NewExporter(t.TempDir(), &logger),
		LogoFiles:     files,
		LogoURLPrefix: "/uploads/logos",
		Store:         db,
	}
	if cfg.HTTP.MaxUploadBytes == 0 {
		cfg.HTTP.MaxUploadBytes = 1 << 20
	}

	srv := NewHTTPServer(&cfg, deps, nil, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{db: db, ts: ts}
}

func openConfig() config.APIConfig {
	return config.APIConfig{Enabled: true, HTTP: config.APIHTTPConfig{Enabled: true}}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func daysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format(models.DateLayout)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, openConfig())

	resp, created := env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"name":                "Anitha",
		"address":             "Adyar",
		"mobile":              "9000000001",
		"service_description": "Engagement shoot",
		"date":                daysAgo(3),
		"total":               25000,
		"advance":             "5000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)
	assert.Equal(t, models.StatusConfirmed, created["status"])
	financials := created["financials"].(map[string]any)
	assert.Equal(t, 20000.0, financials["due_amount"])
	assert.Equal(t, "pending", financials["payment_state"])
	assert.Equal(t, "upcoming", financials["urgency"])

	resp, list := env.do(t, http.MethodGet, "/api/v1/bookings?q=anitha", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, list["count"])

	resp, edited := env.do(t, http.MethodPatch, "/api/v1/bookings/"+id, map[string]any{"advance": 25000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "paid", edited["financials"].(map[string]any)["payment_state"])

	resp, _ = env.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, conflict := env.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/complete", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, conflict["error"], "cancelled")

	resp, _ = env.do(t, http.MethodPatch, "/api/v1/bookings/"+id, map[string]any{"name": "Other"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, got := env.do(t, http.MethodGet, "/api/v1/bookings/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Anitha", got["name"])
	assert.Equal(t, models.StatusCancelled, got["status"])

	resp, notes := env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notified := notes["notifications"].([]any)
	titles := map[string]bool{}
	for _, n := range notified {
		titles[n.(map[string]any)["title"].(string)] = true
	}
	assert.True(t, titles["New Booking Created"])
	assert.True(t, titles["Payment Received"])
	assert.True(t, titles["Booking Cancelled"])
	assert.False(t, titles["Work Completed"])
	assert.Len(t, notified, 4, "created, two payments, cancelled")
	assert.Equal(t, 4.0, notes["unread"])

	resp, _ = env.do(t, http.MethodPost, "/api/v1/notifications/read-all", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, notes = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, 0.0, notes["unread"])

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/bookings/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/v1/bookings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBookingValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t, openConfig())

	resp, body := env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"name":  "Only Name",
		"total": "-10",
		"date":  "10/07/2024",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "total")
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "mobile")

	resp, _ = env.do(t, http.MethodGet, "/api/v1/bookings?filter=weird", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/upcoming?days=-2", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDuePaymentsOverHTTP(t *testing.T) {
	env := newTestEnv(t, openConfig())
	ctx := context.Background()

	for _, b := range []models.Booking{
		{Name: "Late", Date: time.Now().AddDate(0, 0, -40), Total: 1000, Advance: 100},
		{Name: "Fresh", Date: time.Now().AddDate(0, 0, -2), Total: 1000, Advance: 0},
		{Name: "Settled", Date: time.Now().AddDate(0, 0, -40), Total: 1000, Advance: 1000},
	} {
		b.Date = time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
		require.NoError(t, env.db.CreateBooking(ctx, &b))
	}

	resp, body := env.do(t, http.MethodGet, "/api/v1/due-payments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, body["count"])
	assert.Equal(t, 1900.0, body["total_due"])

	resp, body = env.do(t, http.MethodGet, "/api/v1/due-payments?status=Overdue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payments := body["payments"].([]any)
	require.Len(t, payments, 1)
	entry := payments[0].(map[string]any)
	assert.Equal(t, "Late", entry["booking"].(map[string]any)["name"])
	assert.Equal(t, 10.0, entry["financials"].(map[string]any)["days_overdue"])

	resp, summary := env.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, summary["total_bookings"])
	assert.Equal(t, 1.0, summary["overdue"])
}

func TestStoreUnavailableOverHTTP(t *testing.T) {
	env := newTestEnv(t, openConfig())
	require.NoError(t, env.db.Close())

	resp, body := env.do(t, http.MethodGet, "/api/v1/bookings", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, []any{}, body["bookings"])
	assert.Equal(t, "store unavailable", body["error"])

	resp, _ = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, logo := env.do(t, http.MethodGet, "/api/v1/logo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.DefaultLogoURL, logo["url"])
}

func TestInvoiceAndExportDownloads(t *testing.T) {
	env := newTestEnv(t, openConfig())
	b := models.Booking{Name: "Invoice Client", Address: "Mylapore", Mobile: "9000000002",
		ServiceDescription: "Portraits", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Total: 8000, Advance: 2000}
	require.NoError(t, env.db.CreateBooking(context.Background(), &b))

	resp, err := http.Get(env.ts.URL + "/api/v1/bookings/" + b.ID + "/invoice")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Invoice-"+b.BookingNumber+".pdf")
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	resp2, err := http.Get(env.ts.URL + "/api/v1/export")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	xlsx, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx, []byte("PK")), "xlsx is a zip archive")
}

func TestLogoUploadOverHTTP(t *testing.T) {
	env := newTestEnv(t, openConfig())

	upload := func(name string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("\x89PNG fake"))
		require.NoError(t, mw.Close())

		resp, err := http.Post(env.ts.URL+"/api/v1/logo", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		return resp
	}

	bad := upload("logo.exe")
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	ok := upload("studio.png")
	ok.Body.Close()
	require.Equal(t, http.StatusCreated, ok.StatusCode)

	_, logo := env.do(t, http.MethodGet, "/api/v1/logo", nil)
	url := logo["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/logos/logo-"))

	served, err := http.Get(env.ts.URL + url)
	require.NoError(t, err)
	defer served.Body.Close()
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestHTTPAuthAndRateLimit(t *testing.T) {
	cfg := openConfig()
	cfg.Auth = config.APIAuthConfig{
		Enabled:      true,
		HeaderAPIKey: "x-api-key",
		HeaderExtra:  "x-api-extra",
		APIKeys: []config.APIClientKey{
			{Key: "reader", Extra: "r-extra", Permissions: []string{PermReadBookings}},
			{Key: "admin", Extra: "a-extra"},
		},
	}
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}
	env := newTestEnv(t, cfg)

	call := func(method, path, key, extra string) int {
		req, err := http.NewRequest(method, env.ts.URL+path, strings.NewReader("{}"))
		require.NoError(t, err)
		if key != "" {
			req.Header.Set("x-api-key", key)
			req.Header.Set("x-api-extra", extra)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/healthz", "", ""))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/v1/bookings", "", ""))
	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/v1/bookings", "reader", "wrong"))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/api/v1/bookings", "reader", "r-extra"))

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/bookings", "admin", "a-extra"))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/dashboard", "admin", "a-extra"))
	assert.Equal(t, http.StatusTooManyRequests, call(http.MethodGet, "/api/v1/bookings", "admin", "a-extra"))
}
