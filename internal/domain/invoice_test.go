package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyInvoice_Next(t *testing.T) {
	now := time.Date(2025, 3, 9, 10, 15, 0, 7_000_000, time.UTC)
	assert.Equal(t, "INV20250309-007", LegacyInvoice{}.Next(now))

	// same millisecond bucket, same number
	later := now.Add(time.Second)
	assert.Equal(t, LegacyInvoice{}.Next(now), LegacyInvoice{}.Next(later))
}

func TestLegacyInvoice_UsesUTCDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2025, 3, 10, 3, 0, 0, 0, jakarta) // 2025-03-09 20:00 UTC
	assert.Equal(t, "INV20250309-000", LegacyInvoice{}.Next(now))
}

func TestUniqueInvoice_Next(t *testing.T) {
	now := time.Date(2025, 3, 9, 10, 15, 0, 123_000_000, time.UTC)
	format := regexp.MustCompile(`^INV20250309-123[0-9A-F]{6}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		inv := UniqueInvoice{}.Next(now)
		require.Regexp(t, format, inv)
		seen[inv] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestNewInvoiceGenerator(t *testing.T) {
	tests := []struct {
		scheme  string
		want    InvoiceGenerator
		wantErr bool
	}{
		{scheme: "", want: UniqueInvoice{}},
		{scheme: "unique", want: UniqueInvoice{}},
		{scheme: " LEGACY ", want: LegacyInvoice{}},
		{scheme: "sequential", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			gen, err := NewInvoiceGenerator(tt.scheme)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, gen)
		})
	}
}
