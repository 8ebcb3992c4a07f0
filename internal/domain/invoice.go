package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invoice numbering schemes selectable through INVOICE_SCHEME
const (
	InvoiceSchemeLegacy = "legacy" // INV<YYYYMMDD>-<ms3>
	InvoiceSchemeUnique = "unique" // INV<YYYYMMDD>-<ms3><6 hex>
)

// InvoiceGenerator produces invoice numbers for new transactions
type InvoiceGenerator interface {
	Next(now time.Time) string
}

// LegacyInvoice reproduces the INV<YYYYMMDD>-<last three digits of epoch millis> format.
// Two transactions in the same millisecond bucket collide, the log rejects the
// second one as a duplicate invoice.
type LegacyInvoice struct{}

func (LegacyInvoice) Next(now time.Time) string {
	return fmt.Sprintf("INV%s-%03d", now.UTC().Format("20060102"), now.UnixMilli()%1000)
}

// UniqueInvoice keeps the legacy prefix and appends six random hex digits
type UniqueInvoice struct{}

func (UniqueInvoice) Next(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV%s-%03d%s", now.UTC().Format("20060102"), now.UnixMilli()%1000, suffix)
}

// NewInvoiceGenerator maps a scheme name to its generator. Empty selects the unique scheme.
func NewInvoiceGenerator(scheme string) (InvoiceGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", InvoiceSchemeUnique:
		return UniqueInvoice{}, nil
	case InvoiceSchemeLegacy:
		return LegacyInvoice{}, nil
	default:
		return nil, fmt.Errorf("unknown invoice scheme %q", scheme)
	}
}
