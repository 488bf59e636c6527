package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
)

// SplitStrategy selects how feature rows are partitioned into train and test.
type SplitStrategy string

const (
	// SplitRandom shuffles rows before partitioning. It matches how the
	// production model has always been evaluated, but lets the model see
	// observations later than some test rows, so metrics are optimistic.
	SplitRandom SplitStrategy = "random"
	// SplitChronological holds out the most recent rows.
	SplitChronological SplitStrategy = "chronological"
)

// ParseSplitStrategy validates a strategy name.
func ParseSplitStrategy(s string) (SplitStrategy, error) {
	switch SplitStrategy(s) {
	case SplitRandom, SplitChronological:
		return SplitStrategy(s), nil
	default:
		return "", fmt.Errorf("unknown split strategy %q (want %q or %q)", s, SplitRandom, SplitChronological)
	}
}

// splitRows partitions rows; the test partition holds ceil(testFraction*n)
// rows. Both partitions are non-empty or an InsufficientDataError is returned.
func splitRows(rows []domain.FeatureRow, testFraction float64, strategy SplitStrategy, seed int64) (train, test []domain.FeatureRow, err error) {
	n := len(rows)
	nTest := int(math.Ceil(testFraction*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, &domain.InsufficientDataError{Operation: "train/test split", Have: n, Need: MinTrainingRows}
	}

	ordered := make([]domain.FeatureRow, n)
	copy(ordered, rows)

	switch strategy {
	case SplitChronological:
		return ordered[:nTrain], ordered[nTrain:], nil
	case SplitRandom, "":
		rng := rand.New(rand.NewSource(seed))
		perm := rng.Perm(n)
		shuffled := make([]domain.FeatureRow, n)
		for i, p := range perm {
			shuffled[i] = ordered[p]
		}
		return shuffled[nTest:], shuffled[:nTest], nil
	default:
		return nil, nil, fmt.Errorf("unknown split strategy %q", strategy)
	}
}
