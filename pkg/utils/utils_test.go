package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	id := NewID("deal")
	assert.True(t, strings.HasPrefix(id, "deal_"))
	assert.NotEqual(t, id, NewID("deal"), "ids must be unique")
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		total        int64
		wantPage     int
		wantPageSize int
		wantPages    int64
		wantOffset   int
	}{
		{"defaults", 0, 0, 95, 1, 10, 10, 0},
		{"normal", 3, 20, 95, 3, 20, 5, 40},
		{"oversized page size clamped", 1, 500, 95, 1, 200, 1, 0},
		{"negative page", -1, 10, 0, 1, 10, 0, 0},
		{"exact multiple", 2, 10, 100, 2, 10, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.pageSize, tt.total)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
			assert.Equal(t, tt.wantPages, p.Pages)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, tt.wantPageSize, p.Limit())
		})
	}
}

func TestSHA256Hash(t *testing.T) {
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", SHA256Hash("test"))
	assert.NotEqual(t, SHA256Hash("a"), SHA256Hash("b"))
}

func TestRetry(t *testing.T) {
	attempts := 0
	err := Retry(3, 0, func() error {
		attempts++
		if attempts < 3 {
			return assert.AnError
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = Retry(2, 0, func() error {
		attempts++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, attempts)
}
