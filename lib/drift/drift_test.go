package drift

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	require.NoError(t, Count(8, 8, "charts"))

	err := Count(7, 8, "charts")
	require.Error(t, err)
	require.True(t, Is(err))
	require.ErrorIs(t, err, ErrStructuralDrift)
	require.Contains(t, err.Error(), "charts")
	require.Contains(t, err.Error(), "expected 8, observed 7")

	var driftErr *Error
	require.True(t, errors.As(err, &driftErr))
	require.Equal(t, "charts", driftErr.Context)
}

func TestSequenceEquals(t *testing.T) {
	testCases := []struct {
		name     string
		observed []string
		expected []string
		fails    bool
	}{
		{
			name:     "equal",
			observed: []string{"a", "b", "c"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "both empty",
			observed: nil,
			expected: []string{},
		},
		{
			name:     "reordered",
			observed: []string{"b", "a", "c"},
			expected: []string{"a", "b", "c"},
			fails:    true,
		},
		{
			name:     "shorter",
			observed: []string{"a", "b"},
			expected: []string{"a", "b", "c"},
			fails:    true,
		},
		{
			name:     "longer",
			observed: []string{"a", "b", "c", "d"},
			expected: []string{"a", "b", "c"},
			fails:    true,
		},
		{
			name:     "renamed",
			observed: []string{"a", "B", "c"},
			expected: []string{"a", "b", "c"},
			fails:    true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			err := SequenceEquals(test.observed, test.expected, "labels")
			if !test.fails {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrStructuralDrift)
			require.Contains(t, err.Error(), "labels")
		})
	}
}

func TestSequenceEqualsReportsIndex(t *testing.T) {
	err := SequenceEquals([]int{1, 2, 4}, []int{1, 2, 3}, "numbers")
	require.Error(t, err)
	require.Contains(t, err.Error(), "index 2")
}

func TestSubsetPattern(t *testing.T) {
	srcs := []string{
		"https://app.powerbigov.us/view?r=1",
		"https://www.youtube.com/embed/x",
		"https://app.powerbigov.us/view?r=2",
	}
	isPowerBI := func(s string) bool {
		return strings.Contains(s, "app.powerbigov.us")
	}

	require.NoError(t, SubsetPattern(srcs, isPowerBI, 2, "frames"))

	err := SubsetPattern(srcs, isPowerBI, 3, "frames")
	require.ErrorIs(t, err, ErrStructuralDrift)
	require.Contains(t, err.Error(), "observed 2")
}

func TestAscending(t *testing.T) {
	less := func(a, b int) bool { return a < b }

	require.NoError(t, Ascending([]int{}, less, "empty"))
	require.NoError(t, Ascending([]int{1}, less, "single"))
	require.NoError(t, Ascending([]int{1, 2, 5}, less, "increasing"))
	require.ErrorIs(t, Ascending([]int{1, 1}, less, "duplicate"), ErrStructuralDrift)
	require.ErrorIs(t, Ascending([]int{2, 1}, less, "decreasing"), ErrStructuralDrift)
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("parse case chart: %w", Count(1, 2, "labels"))
	require.True(t, Is(err))
	require.False(t, Is(errors.New("connection reset")))
	require.False(t, Is(nil))
}
