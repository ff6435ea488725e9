package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("start: %w", Invalid("target_pips", "must be positive, got %v", 0))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConsistency)
	assert.Contains(t, err.Error(), "invalid target_pips: must be positive, got 0")

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "target_pips", ve.Field)
}

func TestConsistencyError(t *testing.T) {
	t.Parallel()

	ce := &ConsistencyError{}
	assert.NoError(t, ce.OrNil())

	ce.Add(3, IssueLevelGap, "expected level %d", 2)
	assert.Error(t, ce.OrNil())
	assert.ErrorIs(t, ce, ErrConsistency)
	assert.True(t, ce.Has(IssueLevelGap))
	assert.False(t, ce.Has(IssueChain))
	assert.Contains(t, ce.Error(), "level 3 LEVEL_GAP: expected level 2")
}

func TestStoreErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", Unavailable("list", cause), ErrStoreUnavailable},
		{"write", WriteFailed("append", cause), ErrStoreWrite},
		{"query", QueryFailed("list", cause), ErrStoreQuery},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.err, tt.want)
			assert.ErrorIs(t, tt.err, cause)
			for _, other := range []error{ErrStoreUnavailable, ErrStoreWrite, ErrStoreQuery} {
				if other != tt.want {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}
