package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cafepos/internal/clock"
	"github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/migration"
	"github.com/smallbiznis/cafepos/internal/observability"
	"github.com/smallbiznis/cafepos/internal/providers/pdf"
	"github.com/smallbiznis/cafepos/internal/providers/text"
	"github.com/smallbiznis/cafepos/internal/ratelimit"
	receiptdomain "github.com/smallbiznis/cafepos/internal/receipt/domain"
	receiptservice "github.com/smallbiznis/cafepos/internal/receipt/service"
	saledomain "github.com/smallbiznis/cafepos/internal/sale/domain"
	salerepository "github.com/smallbiznis/cafepos/internal/sale/repository"
	saleservice "github.com/smallbiznis/cafepos/internal/sale/service"
	"github.com/smallbiznis/cafepos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSaleService struct {
	calls int
	last  saledomain.RecordRequest
	err   error
}

func (f *fakeSaleService) Record(ctx context.Context, req saledomain.RecordRequest) (*saledomain.RecordResponse, error) {
	_ = ctx
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &saledomain.RecordResponse{
		RecordedAt: "2025-03-14T09:26:53.589Z",
		SessionIDs: []int64{1},
		ItemIDs:    []int64{1},
	}, nil
}

func newTestServer(t *testing.T, saleSvc saledomain.Service, cfg config.Config) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	settings := config.NewStaticReceiptSettings(config.DefaultReceiptSettings())
	srv := NewServer(ServerParams{
		Gin:        NewEngine(cfg, observability.Config{}, nil),
		Cfg:        cfg,
		Log:        zap.NewNop(),
		GenID:      node,
		SaleSvc:    saleSvc,
		ReceiptSvc: receiptservice.NewWithRenderers(zap.NewNop(), settings, pdf.New(settings), text.New(settings)),
	})
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	srv.Engine().ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Error
}

func TestBanner(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})

	resp := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, banner, resp.Body.String())
}

func TestSaveSaleSuccess(t *testing.T) {
	saleSvc := &fakeSaleService{}
	srv := newTestServer(t, saleSvc, config.Config{})

	resp := do(t, srv, http.MethodPost, "/save-sale",
		`{"sessions":[{"computer":"PC3","duration":45,"charge":75}],"items":[{"name":"Soda","price":50}]}`)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Message string                    `json:"message"`
		Data    saledomain.RecordResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Sale recorded successfully.", body.Message)
	assert.Equal(t, "2025-03-14T09:26:53.589Z", body.Data.RecordedAt)

	require.Equal(t, 1, saleSvc.calls)
	assert.Equal(t, []saledomain.SessionInput{{Computer: "PC3", Duration: 45, Charge: 75}}, saleSvc.last.Sessions)
	assert.Equal(t, []saledomain.ItemInput{{Name: "Soda", Price: 50}}, saleSvc.last.Items)
}

func TestSaveSaleEmptyBodyIsEmptyBatch(t *testing.T) {
	saleSvc := &fakeSaleService{}
	srv := newTestServer(t, saleSvc, config.Config{})

	resp := do(t, srv, http.MethodPost, "/save-sale", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 1, saleSvc.calls)
	assert.Empty(t, saleSvc.last.Sessions)
	assert.Empty(t, saleSvc.last.Items)
}

func TestSaveSaleMalformedJSON(t *testing.T) {
	saleSvc := &fakeSaleService{}
	srv := newTestServer(t, saleSvc, config.Config{})

	resp := do(t, srv, http.MethodPost, "/save-sale", `{"sessions":[`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "validation_error", decodeError(t, resp).Type)
	assert.Zero(t, saleSvc.calls)
}

func TestSaveSaleRejectsNegativeDuration(t *testing.T) {
	saleSvc := &fakeSaleService{}
	srv := newTestServer(t, saleSvc, config.Config{})

	resp := do(t, srv, http.MethodPost, "/save-sale", `{"sessions":[{"computer":"PC1","duration":-5,"charge":10}]}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "sessions[0].duration", payload.Errors[0].Field)
	assert.Zero(t, saleSvc.calls)
}

func TestSaveSalePersistenceFailureIsGeneric(t *testing.T) {
	saleSvc := &fakeSaleService{err: fmt.Errorf("wrapped: %w", saledomain.ErrPersistence)}
	srv := newTestServer(t, saleSvc, config.Config{})

	resp := do(t, srv, http.MethodPost, "/save-sale", `{"items":[{"name":"Soda","price":50}]}`)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	payload := decodeError(t, resp)
	assert.Equal(t, "persistence_error", payload.Type)
	assert.Equal(t, "failed to record sale", payload.Message)
	assert.NotContains(t, resp.Body.String(), "wrapped")
}

func TestSaveSaleUnexpectedError(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{err: errors.New("boom")}, config.Config{})

	resp := do(t, srv, http.MethodPost, "/save-sale", `{}`)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internal_error", decodeError(t, resp).Type)
}

func TestGenerateReceiptPDF(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})

	resp := do(t, srv, http.MethodPost, "/generate-receipt",
		`{"sessions":[{"computer":"PC3","duration":45,"charge":75}],"items":[{"name":"Soda","price":50}],"total":125}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=receipt.pdf", resp.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, resp.Header().Get(headerReceiptNumber))
	assert.True(t, strings.HasPrefix(resp.Body.String(), "%PDF-"))
}

func TestGenerateReceiptText(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})

	resp := do(t, srv, http.MethodPost, "/generate-receipt?format=text",
		`{"sessions":[{"computer":"PC3","duration":45,"charge":75}],"items":[{"name":"Soda","price":50}],"total":125,"receipt_number":"A-17"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=receipt.txt", resp.Header().Get("Content-Disposition"))
	assert.Equal(t, "A-17", resp.Header().Get(headerReceiptNumber))

	out := resp.Body.String()
	for _, want := range []string{"Receipt No: A-17", "PC3", "45", "75", "Soda", "50", "Total: KES 125"} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateReceiptMissingTotalIsZero(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})

	resp := do(t, srv, http.MethodPost, "/generate-receipt?format=text", `{"items":[{"name":"Soda","price":50}]}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Total: KES 0\n")
}

func TestGenerateReceiptUnknownFormat(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})

	resp := do(t, srv, http.MethodPost, "/generate-receipt?format=docx", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_format", payload.Errors[0].Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &fakeSaleService{}, config.Config{CORSAllowedOrigins: []string{"http://till.local"}})

	t.Run("preflight allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/save-sale", nil)
		req.Header.Set("Origin", "http://till.local")
		resp := httptest.NewRecorder()
		srv.Engine().ServeHTTP(resp, req)

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, "http://till.local", resp.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("preflight rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/save-sale", nil)
		req.Header.Set("Origin", "http://evil.local")
		resp := httptest.NewRecorder()
		srv.Engine().ServeHTTP(resp, req)

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		open := newTestServer(t, &fakeSaleService{}, config.Config{CORSAllowedOrigins: []string{"*"}})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://anything.local")
		resp := httptest.NewRecorder()
		open.Engine().ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header().Get("Access-Control-Expose-Headers"), headerReceiptNumber)
	})
}

func TestPublicAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.txt"), []byte("cafe"), 0o644))
	srv := newTestServer(t, &fakeSaleService{}, config.Config{PublicDir: dir})

	resp := do(t, srv, http.MethodGet, "/public/logo.txt", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "cafe", resp.Body.String())
}

func TestSaveSaleEndToEnd(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := db.Open(db.Config{Type: db.TypeSQLite, Name: dsn}, zap.NewNop(), false)
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migration.RunMigrations(sqlDB, db.TypeSQLite))

	saleSvc := saleservice.New(saleservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)),
		Repo:  salerepository.Provide(),
	})
	srv := newTestServer(t, saleSvc, config.Config{})

	payload := `{"sessions":[{"computer":"PC3","duration":45,"charge":75}],"items":[{"name":"Soda","price":50}]}`
	resp := do(t, srv, http.MethodPost, "/save-sale", payload)
	require.Equal(t, http.StatusOK, resp.Code)

	var sessions []saledomain.Session
	require.NoError(t, conn.Raw(`SELECT id, computer, duration, charge, timestamp FROM sessions`).Scan(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, "2025-03-14T09:00:00.000Z", sessions[0].Timestamp)

	receipt := do(t, srv, http.MethodPost, "/generate-receipt?format=text",
		strings.TrimSuffix(payload, "}")+`,"total":125}`)
	require.Equal(t, http.StatusOK, receipt.Code)
	body, err := io.ReadAll(receipt.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Total: KES 125")
}

func TestReceiptRateLimitFailsOpen(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{
		Enabled:      true,
		RedisAddr:    "127.0.0.1:1",
		ReceiptRate:  1,
		ReceiptBurst: 1,
	}}
	limiter, err := ratelimit.NewReceiptLimiter(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	srv := newTestServer(t, &fakeSaleService{}, cfg)
	srv.limiter = limiter

	resp := do(t, srv, http.MethodPost, "/generate-receipt?format=text", `{}`)
	assert.Equal(t, http.StatusOK, resp.Code)
}

type limiterMock struct {
	mock.Mock
}

func (m *limiterMock) Enabled() bool { return true }

func (m *limiterMock) Allow(ctx context.Context, clientKey string) (*ratelimit.RateLimitResult, error) {
	args := m.Called(ctx, clientKey)
	res, _ := args.Get(0).(*ratelimit.RateLimitResult)
	return res, args.Error(1)
}

type countingReceiptService struct {
	calls int
}

func (c *countingReceiptService) Render(ctx context.Context, req receiptdomain.RenderRequest) (*receiptdomain.Stream, error) {
	c.calls++
	return &receiptdomain.Stream{
		ReadCloser:  io.NopCloser(strings.NewReader("ok")),
		ContentType: "text/plain; charset=utf-8",
		Filename:    "receipt.txt",
	}, nil
}

func TestReceiptRateLimitDenies(t *testing.T) {
	limiter := &limiterMock{}
	limiter.On("Allow", mock.Anything, "192.0.2.1").
		Return(&ratelimit.RateLimitResult{Allowed: true, Limit: 2, Remaining: 0}, nil).Once()
	limiter.On("Allow", mock.Anything, "192.0.2.1").
		Return(&ratelimit.RateLimitResult{Allowed: false, Limit: 2, Remaining: 0, RetryAfter: 1200 * time.Millisecond}, nil).Once()

	receipts := &countingReceiptService{}
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})
	srv.limiter = limiter
	srv.receiptSvc = receipts

	resp := do(t, srv, http.MethodPost, "/generate-receipt?format=text", `{}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "2", resp.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, resp.Header().Get("Retry-After"))
	assert.Equal(t, 1, receipts.calls)

	resp = do(t, srv, http.MethodPost, "/generate-receipt?format=text", `{}`)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "2", resp.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", resp.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, resp).Type)
	assert.Equal(t, 1, receipts.calls, "denied requests never reach the renderer")
	assert.Empty(t, resp.Header().Get(headerReceiptNumber))

	limiter.AssertExpectations(t)
}

func TestReceiptRateLimitSkipsSaveSale(t *testing.T) {
	limiter := &limiterMock{}
	srv := newTestServer(t, &fakeSaleService{}, config.Config{})
	srv.limiter = limiter

	resp := do(t, srv, http.MethodPost, "/save-sale", `{}`)
	require.Equal(t, http.StatusOK, resp.Code)
	limiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
}

func TestMapRateLimited(t *testing.T) {
	status, payload := mapError(fmt.Errorf("receipt: %w", ErrRateLimited))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", payload.Type)

	errType, code := classifyErrorForLog(ErrRateLimited)
	assert.Equal(t, "rate_limited", errType)
	assert.Equal(t, "Too Many Requests", code)
}
