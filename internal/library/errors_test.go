package library

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{ErrNotFound, ErrDuplicate, ErrConstraint, ErrNoRoot}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	wrapped := fmt.Errorf("ledger entry 123/movie: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound), "wrapped error should match ErrNotFound")
}

func TestMapSQLiteError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), ErrNotFound},
		{"unique", errors.New("constraint failed: UNIQUE constraint failed: processed_entries.source_id (1555)"), ErrDuplicate},
		{"check", errors.New("CHECK constraint failed: kind IN ('movie')"), ErrConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapSQLiteError(tt.in), tt.want)
		})
	}

	assert.NoError(t, mapSQLiteError(nil))
	other := errors.New("disk I/O error")
	assert.Equal(t, other, mapSQLiteError(other))
}
