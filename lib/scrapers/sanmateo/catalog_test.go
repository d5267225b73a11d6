package sanmateo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogPairing(t *testing.T) {
	keys := AgeGroupKeys()
	labels := AgeGroupLabels()
	require.Len(t, keys, 9)
	require.Len(t, labels, len(keys))
	require.Equal(t, "Age_LT20", keys[0])
	require.Equal(t, "0 to 19", labels[0])
	require.Equal(t, "Age_90_Up", keys[8])
	require.Equal(t, "90+", labels[8])
}

func TestCatalogReturnsCopies(t *testing.T) {
	keys := AgeGroupKeys()
	keys[0] = "changed"
	require.Equal(t, "Age_LT20", AgeGroupKeys()[0])

	labels := AgeGroupLabels()
	labels[0] = "changed"
	require.Equal(t, "0 to 19", AgeGroupLabels()[0])
}

func TestClosestLabel(t *testing.T) {
	testCases := []struct {
		observed string
		expected string
	}{
		{observed: "0 to 18", expected: "0 to 19"},
		{observed: "20 - 29", expected: "20-29"},
		{observed: "90 +", expected: "90+"},
		{observed: "80-89", expected: "80-89"},
	}

	for _, test := range testCases {
		label, similarity := ClosestLabel(test.observed)
		require.Equal(t, test.expected, label, test.observed)
		require.Greater(t, similarity, 0.0)
	}
}
