// Package forecast projects future monthly spend. Forecasting internals are
// deliberately pluggable; only the naive default ships with the pipeline.
package forecast

import (
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// NaiveForecaster projects the last observed month's spend forward.
type NaiveForecaster struct{}

// NewNaiveForecaster creates the default forecaster.
func NewNaiveForecaster() *NaiveForecaster {
	return &NaiveForecaster{}
}

// Forecast repeats the most recent month's TOTAL spend for the requested
// number of periods. Empty history forecasts zero spend.
func (f *NaiveForecaster) Forecast(history []model.MonthlyAggregate, periods int) []service.ForecastPoint {
	if periods <= 0 {
		return nil
	}

	var last float64
	var month model.Month
	for i := range history {
		if history[i].Month > month {
			month = history[i].Month
			last = history[i].Spend
		}
	}

	points := make([]service.ForecastPoint, 0, periods)
	for i := 0; i < periods; i++ {
		if month == "" {
			break
		}
		month = month.Next()
		points = append(points, service.ForecastPoint{Month: month, Spend: last})
	}
	return points
}

var _ service.Forecaster = (*NaiveForecaster)(nil)
