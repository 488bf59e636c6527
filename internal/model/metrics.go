package model

import "math"

// Metrics are evaluation scores on the held-out partition.
type Metrics struct {
	MAE       float64          `json:"mae"`
	RMSE      float64          `json:"rmse"`
	R2        float64          `json:"r2"`
	TrainRows int              `json:"train_rows"`
	TestRows  int              `json:"test_rows"`
	Baseline  *BaselineMetrics `json:"baseline,omitempty"`
}

// BaselineMetrics scores the linear reference model on the same partition.
type BaselineMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// score computes MAE, RMSE and R². When the observed values have no
// variance R² is 1 for a perfect fit and 0 otherwise, so it is never NaN.
func score(actual, predicted []float64) (mae, rmse, r2 float64) {
	n := float64(len(actual))
	if n == 0 {
		return 0, 0, 0
	}

	var mean float64
	for _, a := range actual {
		mean += a
	}
	mean /= n

	var absSum, ssRes, ssTot float64
	for i, a := range actual {
		d := a - predicted[i]
		absSum += math.Abs(d)
		ssRes += d * d
		ssTot += (a - mean) * (a - mean)
	}

	mae = absSum / n
	rmse = math.Sqrt(ssRes / n)
	switch {
	case ssTot > 0:
		r2 = 1 - ssRes/ssTot
	case ssRes == 0:
		r2 = 1
	default:
		r2 = 0
	}
	return mae, rmse, r2
}
