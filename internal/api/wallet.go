package api

import (
	"context" // Request context
	"math"    // Amount bounds
	"strconv" // Query string parsing
	"time"    // Response timestamps

	"ppob_wallet/internal/domain"     // Ledger models and errors
	"ppob_wallet/internal/ledger"     // Ledger history page
	"ppob_wallet/internal/middleware" // Auth context key

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// maxTopUp keeps amounts inside the range a JSON number represents exactly
const maxTopUp = 1 << 53

// Ledger is what the handlers need from the ledger service
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (*domain.Balance, error)
	TopUp(ctx context.Context, userID string, amount int64) (*domain.Balance, error)
	Pay(ctx context.Context, userID, serviceCode string) (*domain.Transaction, error)
	History(ctx context.Context, userID string, limit *int, offset int) (*ledger.History, error)
}

// TopUpRequest represents a top up request
type TopUpRequest struct {
	TopUpAmount interface{} `json:"top_up_amount"` // Any JSON value, checked by parseAmount
}

// PaymentRequest represents a payment request
type PaymentRequest struct {
	ServiceCode string `json:"service_code"` // Catalog service code
}

// BalanceResponse is the balance payload
type BalanceResponse struct {
	Balance int64 `json:"balance"` // Current balance
}

// PaymentResponse is the payment payload
type PaymentResponse struct {
	InvoiceNumber   string    `json:"invoice_number"`   // Unique invoice number
	ServiceCode     *string   `json:"service_code"`     // Paid service
	ServiceName     *string   `json:"service_name"`     // Paid service name
	TransactionType string    `json:"transaction_type"` // Always PAYMENT
	TotalAmount     int64     `json:"total_amount"`     // Charged tariff
	CreatedOn       time.Time `json:"created_on"`       // Commit time
}

// HistoryRecord is one row of the history payload
type HistoryRecord struct {
	InvoiceNumber   string    `json:"invoice_number"`   // Unique invoice number
	TransactionType string    `json:"transaction_type"` // TOPUP or PAYMENT
	Description     string    `json:"description"`      // Free text
	TotalAmount     int64     `json:"total_amount"`     // Amount moved
	CreatedOn       time.Time `json:"created_on"`       // Commit time
}

// HistoryResponse is the history payload
type HistoryResponse struct {
	Offset  int             `json:"offset"`  // Applied offset
	Limit   int             `json:"limit"`   // Applied limit, or total when unlimited
	Records []HistoryRecord `json:"records"` // Newest first
}

// BalanceHandler returns the user's balance, creating it on first access
func BalanceHandler(svc Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		bal, err := svc.GetBalance(c.Request.Context(), currentUser(c)) // Read or lazily create
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Get Balance Berhasil", BalanceResponse{Balance: bal.Amount})
	}
}

// TopUpHandler credits the user's balance
func TopUpHandler(svc Ledger, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TopUpRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			log.WithError(err).Debug("Malformed top up body")
			respondError(c, domain.ErrInvalidAmount) // Unreadable body counts as a bad amount
			return
		}
		amount, ok := parseAmount(req.TopUpAmount) // Positive whole number only
		if !ok {
			respondError(c, domain.ErrInvalidAmount)
			return
		}
		bal, err := svc.TopUp(c.Request.Context(), currentUser(c), amount) // One unit of work
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Top Up Balance berhasil", BalanceResponse{Balance: bal.Amount})
	}
}

// PaymentHandler pays a catalog service from the user's balance
func PaymentHandler(svc Ledger, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			log.WithError(err).Debug("Malformed payment body")
			respondError(c, domain.ErrInvalidRequest.WithMessage("Service code diperlukan"))
			return
		}
		rec, err := svc.Pay(c.Request.Context(), currentUser(c), req.ServiceCode) // Deduct and record
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Transaksi berhasil", PaymentResponse{
			InvoiceNumber:   rec.InvoiceNumber,
			ServiceCode:     rec.ServiceCode,
			ServiceName:     rec.ServiceName,
			TransactionType: string(rec.Type),
			TotalAmount:     rec.Amount,
			CreatedOn:       rec.CreatedAt,
		})
	}
}

// HistoryHandler lists the user's transactions newest first
func HistoryHandler(svc Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePage(c) // Query string paging
		page, err := svc.History(c.Request.Context(), currentUser(c), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		records := make([]HistoryRecord, 0, len(page.Records))
		for _, rec := range page.Records {
			records = append(records, HistoryRecord{
				InvoiceNumber:   rec.InvoiceNumber,
				TransactionType: string(rec.Type),
				Description:     rec.Description,
				TotalAmount:     rec.Amount,
				CreatedOn:       rec.CreatedAt,
			})
		}
		respondOK(c, "Get History Berhasil", HistoryResponse{Offset: page.Offset, Limit: page.Limit, Records: records})
	}
}

// currentUser reads the id the JWT middleware stored, empty when absent
func currentUser(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// parseAmount accepts a JSON number that is a positive whole value
func parseAmount(v interface{}) (int64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || f <= 0 || f > maxTopUp || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// parsePage reads limit and offset. A missing or unparsable limit means no limit.
func parsePage(c *gin.Context) (*int, int) {
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil {
		offset = 0
	}
	var limit *int
	if raw, ok := c.GetQuery("limit"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = &n
		}
	}
	return ledger.NormalizePage(limit, offset)
}
