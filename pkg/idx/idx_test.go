package idx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brumalio/taskforge/pkg/idx"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())
	require.False(t, id.IsZero())

	// Parse a newly generated string
	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1M"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())

	// ULIDs sort lexicographically by creation time
	require.Less(t, a.String(), b.String())
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
}

func TestZero(t *testing.T) {
	require.True(t, idx.Zero.IsZero())
	require.True(t, idx.Zero.Time().IsZero())
}

func TestConcurrentGeneration(t *testing.T) {
	const n = 100
	ids := make(chan idx.ID, n)

	for range n {
		go func() { ids <- idx.New() }()
	}

	seen := make(map[idx.ID]bool, n)
	for range n {
		id := <-ids
		require.NotContains(t, seen, id, "duplicate id generated")
		seen[id] = true
	}
}
