package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber(t *testing.T) {
	tests := []struct {
		name     string
		issuedAt time.Time
		seq      int
		want     string
	}{
		{"first of month", time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC), 1, "INV-2026-03-00001"},
		{"five digit padding", time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC), 42, "INV-2026-03-00042"},
		{"december", time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC), 99999, "INV-2025-12-99999"},
		{"single digit month", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), 7, "INV-2026-01-00007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInvoiceNumber(tt.issuedAt, tt.seq))
		})
	}
}

func TestMonthPrefix(t *testing.T) {
	at := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "INV-2026-08-", MonthPrefix(at))

	// 编号以当月前缀开头，跨月前缀互不匹配
	assert.Equal(t, MonthPrefix(at)+"00003", FormatInvoiceNumber(at, 3))
	assert.NotEqual(t, MonthPrefix(at), MonthPrefix(at.AddDate(0, 1, 0)))
}
