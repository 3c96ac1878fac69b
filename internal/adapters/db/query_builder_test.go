package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

func TestBuildMovementPageQuery(t *testing.T) {
	stockID := uuid.New()
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cursor := &movementCursor{CreatedAt: since.Add(time.Hour), ID: uuid.New()}

	tests := []struct {
		name     string
		filter   ports.MovementFilter
		cursor   *movementCursor
		offset   int
		contains []string
		absent   []string
		args     int
	}{
		{
			name:     "first_page_orders_newest_first",
			contains: []string{"WHERE stock_id = $1", "ORDER BY created_at DESC, id DESC", "LIMIT 50"},
			absent:   []string{"OFFSET", "movement_type IN", "created_at >="},
			args:     1,
		},
		{
			name:     "type_and_time_filters",
			filter:   ports.MovementFilter{Types: []domain.MovementType{domain.MovementReserve, domain.MovementRelease}, Since: &since},
			contains: []string{"movement_type IN ($2,$3)", "created_at >= $4"},
			args:     4,
		},
		{
			name:     "keyset_cursor_replaces_offset",
			cursor:   cursor,
			contains: []string{"(created_at, id) < ($2, $3)"},
			absent:   []string{"OFFSET"},
			args:     3,
		},
		{
			name:     "offset_on_first_page",
			offset:   20,
			contains: []string{"OFFSET 20"},
			args:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildMovementPageQuery(stockID, tt.filter, tt.cursor, tt.offset, 50)
			require.NoError(t, err)

			for _, s := range tt.contains {
				assert.Contains(t, query, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, query, s)
			}
			assert.Len(t, args, tt.args)
		})
	}
}

func TestBuildStaleQuery(t *testing.T) {
	cutoff := time.Now()

	query, args, err := buildStaleQuery(domain.CheckoutReserved, cutoff, 200)
	require.NoError(t, err)
	assert.Contains(t, query, "COALESCE(reserved_at, created_at) < $2")
	assert.Contains(t, query, "LIMIT 200")
	assert.Equal(t, []interface{}{"RESERVED", cutoff}, args)

	query, _, err = buildStaleQuery(domain.CheckoutPending, cutoff, 0)
	require.NoError(t, err)
	assert.Contains(t, query, "created_at < $2")
	assert.NotContains(t, query, "COALESCE")
	assert.NotContains(t, query, "LIMIT")
}
