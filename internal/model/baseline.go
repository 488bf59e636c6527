package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/sajari/regression"
)

// LinearBaseline is an ordinary least squares fit over the same features as
// the forest. It is only used to put the forest's scores in context.
type LinearBaseline struct {
	r *regression.Regression
}

// FitLinearBaseline fits pm2_5 ~ lag1 + lag2 + hour.
func FitLinearBaseline(rows []domain.FeatureRow) (*LinearBaseline, error) {
	r := new(regression.Regression)
	r.SetObserved(domain.FieldPM25)
	for i, name := range domain.FeatureNames {
		r.SetVar(i, name)
	}
	for _, row := range rows {
		r.Train(regression.DataPoint(row.Target, row.Vector()))
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("fit linear baseline: %w", err)
	}
	for _, c := range r.GetCoeffs() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, errors.New("fit linear baseline: degenerate coefficients")
		}
	}
	return &LinearBaseline{r: r}, nil
}

// Predict applies the fitted coefficients to one row.
func (b *LinearBaseline) Predict(row domain.FeatureRow) (float64, error) {
	return b.r.Predict(row.Vector())
}

// Formula renders the fitted equation for logs.
func (b *LinearBaseline) Formula() string {
	return b.r.Formula
}
