package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ppob_wallet/internal/domain"
	"ppob_wallet/internal/ledger"
	"ppob_wallet/internal/store/memstore"
	"ppob_wallet/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newHarness(t *testing.T, svc Ledger) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	token, err := utils.GenerateJWT("user-1", secret, time.Hour)
	require.NoError(t, err)
	return &harness{
		t:      t,
		router: NewRouter(RouterConfig{Ledger: svc, JWTSecret: secret, Logger: logger}),
		token:  token,
	}
}

func newLedgerHarness(t *testing.T) *harness {
	logger, _ := test.NewNullLogger()
	st := memstore.New(
		domain.Service{Code: "PLN", Name: "Listrik", Tariff: 10000},
		domain.Service{Code: "PULSA", Name: "Pulsa", Tariff: 40000},
	)
	return newHarness(t, ledger.NewService(st, ledger.WithLogger(logger)))
}

func (h *harness) do(method, target, body string) (int, envelope) {
	h.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestBalanceHandler_CreatesZeroBalance(t *testing.T) {
	h := newLedgerHarness(t)

	code, env := h.do(http.MethodGet, "/balance", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, env.Status)
	assert.Equal(t, "Get Balance Berhasil", env.Message)
	assert.JSONEq(t, `{"balance":0}`, string(env.Data))
}

func TestTopUpHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   int
		wantData   string
	}{
		{name: "valid amount", body: `{"top_up_amount": 50000}`, wantStatus: http.StatusOK, wantCode: 0, wantData: `{"balance":50000}`},
		{name: "string amount", body: `{"top_up_amount": "50000"}`, wantStatus: http.StatusBadRequest, wantCode: 102},
		{name: "negative amount", body: `{"top_up_amount": -10}`, wantStatus: http.StatusBadRequest, wantCode: 102},
		{name: "zero amount", body: `{"top_up_amount": 0}`, wantStatus: http.StatusBadRequest, wantCode: 102},
		{name: "fractional amount", body: `{"top_up_amount": 10.5}`, wantStatus: http.StatusBadRequest, wantCode: 102},
		{name: "missing amount", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: 102},
		{name: "malformed body", body: `{"top_up_amount":`, wantStatus: http.StatusBadRequest, wantCode: 102},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newLedgerHarness(t)

			code, env := h.do(http.MethodPost, "/topup", tt.body)
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantCode, env.Status)
			if tt.wantData != "" {
				assert.Equal(t, "Top Up Balance berhasil", env.Message)
				assert.JSONEq(t, tt.wantData, string(env.Data))
			} else {
				assert.Equal(t, "Paramter amount hanya boleh angka dan tidak boleh lebih kecil dari 0", env.Message)
				assert.Equal(t, "null", string(env.Data))
			}
		})
	}
}

func TestPaymentHandler(t *testing.T) {
	h := newLedgerHarness(t)
	_, _ = h.do(http.MethodPost, "/topup", `{"top_up_amount": 45000}`)

	code, env := h.do(http.MethodPost, "/transaction", `{"service_code": "PLN"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Transaksi berhasil", env.Message)

	var payment PaymentResponse
	require.NoError(t, json.Unmarshal(env.Data, &payment))
	assert.Equal(t, "PLN", *payment.ServiceCode)
	assert.Equal(t, "Listrik", *payment.ServiceName)
	assert.Equal(t, "PAYMENT", payment.TransactionType)
	assert.Equal(t, int64(10000), payment.TotalAmount)
	assert.Regexp(t, `^INV\d{8}-\d{3}[0-9A-F]{6}$`, payment.InvoiceNumber)

	// 35000 left, PULSA costs 40000
	code, env = h.do(http.MethodPost, "/transaction", `{"service_code": "PULSA"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 102, env.Status)
	assert.Equal(t, "Balance tidak mencukupi", env.Message)

	code, env = h.do(http.MethodPost, "/transaction", `{"service_code": "NOPE"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Service ataus Layanan tidak ditemukan", env.Message)

	code, env = h.do(http.MethodPost, "/transaction", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Service code diperlukan", env.Message)

	_, env = h.do(http.MethodGet, "/balance", "")
	assert.JSONEq(t, `{"balance":35000}`, string(env.Data))
}

func TestHistoryHandler(t *testing.T) {
	h := newLedgerHarness(t)
	_, _ = h.do(http.MethodPost, "/topup", `{"top_up_amount": 100000}`)
	_, _ = h.do(http.MethodPost, "/transaction", `{"service_code": "PLN"}`)
	_, _ = h.do(http.MethodPost, "/transaction", `{"service_code": "PULSA"}`)

	code, env := h.do(http.MethodGet, "/transaction/history", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Get History Berhasil", env.Message)

	var page HistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 3, page.Limit)
	require.Len(t, page.Records, 3)
	assert.Equal(t, "Pulsa", page.Records[0].Description)
	assert.Equal(t, "PAYMENT", page.Records[0].TransactionType)
	assert.Equal(t, "Top Up balance", page.Records[2].Description)
	assert.Equal(t, "TOPUP", page.Records[2].TransactionType)

	_, env = h.do(http.MethodGet, "/transaction/history?offset=1&limit=1", "")
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Listrik", page.Records[0].Description)

	_, env = h.do(http.MethodGet, "/transaction/history?offset=-5&limit=abc", "")
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 3, page.Limit)
	assert.Len(t, page.Records, 3)
}

func TestRoutesRequireToken(t *testing.T) {
	h := newLedgerHarness(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/balance"},
		{http.MethodPost, "/topup"},
		{http.MethodPost, "/transaction"},
		{http.MethodGet, "/transaction/history"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
		assert.JSONEq(t, `{"status":108,"message":"Token tidak valid atau kadaluwarsa","data":null}`, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h := newLedgerHarness(t)

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) GetBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	args := m.Called(ctx, userID)
	bal, _ := args.Get(0).(*domain.Balance)
	return bal, args.Error(1)
}

func (m *mockLedger) TopUp(ctx context.Context, userID string, amount int64) (*domain.Balance, error) {
	args := m.Called(ctx, userID, amount)
	bal, _ := args.Get(0).(*domain.Balance)
	return bal, args.Error(1)
}

func (m *mockLedger) Pay(ctx context.Context, userID, serviceCode string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, serviceCode)
	rec, _ := args.Get(0).(*domain.Transaction)
	return rec, args.Error(1)
}

func (m *mockLedger) History(ctx context.Context, userID string, limit *int, offset int) (*ledger.History, error) {
	args := m.Called(ctx, userID, limit, offset)
	page, _ := args.Get(0).(*ledger.History)
	return page, args.Error(1)
}

func TestStorageFailureHidesCause(t *testing.T) {
	svc := new(mockLedger)
	h := newHarness(t, svc)

	cause := errors.New("pq: password authentication failed for user wallet")
	svc.On("TopUp", mock.Anything, "user-1", int64(100)).Return(nil, domain.ErrStorageFailure.Wrap(cause))

	code, env := h.do(http.MethodPost, "/topup", `{"top_up_amount": 100}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, 999, env.Status)
	assert.Equal(t, "Terjadi kesalahan pada server", env.Message)
	assert.NotContains(t, env.Message, "password")
	svc.AssertExpectations(t)
}

func TestDuplicateInvoiceIsConflict(t *testing.T) {
	svc := new(mockLedger)
	h := newHarness(t, svc)

	svc.On("Pay", mock.Anything, "user-1", "PLN").Return(nil, domain.ErrDuplicateInvoice)

	code, env := h.do(http.MethodPost, "/transaction", `{"service_code":"PLN"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 999, env.Status)
	svc.AssertExpectations(t)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   int64
		wantOK bool
	}{
		{in: float64(10000), want: 10000, wantOK: true},
		{in: float64(1), want: 1, wantOK: true},
		{in: float64(0), wantOK: false},
		{in: float64(-1), wantOK: false},
		{in: 2.5, wantOK: false},
		{in: float64(1 << 60), wantOK: false},
		{in: "100", wantOK: false},
		{in: nil, wantOK: false},
		{in: true, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := parseAmount(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
