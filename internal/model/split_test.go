package model

import (
	"testing"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsN(n int) []domain.FeatureRow {
	rows := make([]domain.FeatureRow, n)
	for i := range rows {
		rows[i] = domain.FeatureRow{Target: float64(i), At: seriesStart.Add(time.Duration(i) * time.Hour)}
	}
	return rows
}

func TestSplitRows_Sizes(t *testing.T) {
	tests := []struct {
		n, train, test int
	}{
		{3, 2, 1},
		{5, 4, 1},
		{10, 8, 2},
		{11, 8, 3},
	}
	for _, tt := range tests {
		train, test, err := splitRows(rowsN(tt.n), 0.2, SplitRandom, 42)
		require.NoError(t, err)
		assert.Len(t, train, tt.train, "n=%d", tt.n)
		assert.Len(t, test, tt.test, "n=%d", tt.n)
	}
}

func TestSplitRows_TooFew(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, _, err := splitRows(rowsN(n), 0.2, SplitRandom, 42)
		assert.ErrorIs(t, err, domain.ErrInsufficientData, "n=%d", n)
	}
}

func TestSplitRows_RandomIsSeededPartition(t *testing.T) {
	rows := rowsN(50)

	train1, test1, err := splitRows(rows, 0.2, SplitRandom, 42)
	require.NoError(t, err)
	train2, test2, err := splitRows(rows, 0.2, SplitRandom, 42)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	seen := map[float64]int{}
	for _, r := range append(append([]domain.FeatureRow{}, train1...), test1...) {
		seen[r.Target]++
	}
	assert.Len(t, seen, 50)
	for _, c := range seen {
		assert.Equal(t, 1, c)
	}

	_, test3, err := splitRows(rows, 0.2, SplitRandom, 7)
	require.NoError(t, err)
	assert.NotEqual(t, test1, test3)
}

func TestSplitRows_Chronological(t *testing.T) {
	train, test, err := splitRows(rowsN(10), 0.2, SplitChronological, 42)
	require.NoError(t, err)

	require.Len(t, test, 2)
	assert.Equal(t, 8.0, test[0].Target)
	assert.Equal(t, 9.0, test[1].Target)
	assert.Equal(t, 7.0, train[len(train)-1].Target)
}

func TestParseSplitStrategy(t *testing.T) {
	s, err := ParseSplitStrategy("chronological")
	require.NoError(t, err)
	assert.Equal(t, SplitChronological, s)

	_, err = ParseSplitStrategy("kfold")
	assert.Error(t, err)
}
