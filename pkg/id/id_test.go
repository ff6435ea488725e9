package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, New())
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, ids, sorted)
}

func TestNewAtEmbedsTime(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	s := NewAt(ts)
	assert.Len(t, s, 26)

	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts.Truncate(time.Millisecond)), "got %s", got)
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
