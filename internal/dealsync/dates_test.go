package dealsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderDates(t *testing.T) {
	tests := []struct {
		in       string
		created  string
		delivery string
	}{
		{"2024-03-01T10:00:00Z", "2024-03-01T10:00:00.000Z", "2024-03-15T10:00:00.000Z"},
		{"2024-03-01 10:00:00", "2024-03-01T10:00:00.000Z", "2024-03-15T10:00:00.000Z"},
		{"2024-03-01T12:30:15+02:00", "2024-03-01T10:30:15.000Z", "2024-03-15T10:30:15.000Z"},
		{"2024-03-01T10:00:00.987654Z", "2024-03-01T10:00:00.000Z", "2024-03-15T10:00:00.000Z"},
		{"2024-12-25T23:59:59", "2024-12-25T23:59:59.000Z", "2025-01-08T23:59:59.000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			created, delivery, err := OrderDates(tt.in, 14*24*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, tt.created, created)
			assert.Equal(t, tt.delivery, delivery)
		})
	}
}

func TestParseWonTimeRejectsGarbage(t *testing.T) {
	_, err := ParseWonTime("01/03/2024")
	assert.ErrorIs(t, err, ErrInvalidWonTime)
}
