package config

import (
	"testing"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, settings map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	for key, value := range settings {
		v.Set(key, value)
	}
	return v
}

func validSettings() map[string]any {
	return map[string]any{
		"budget.monthly_total_cap": 1000.0,
		"budget.warn_threshold":    0.9,
		"budget.categories":        map[string]float64{"Food": 300},
		"rules": []map[string]any{
			{"pattern": "uber", "category": "Transport", "priority": 1},
		},
	}
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(newViper(t, validSettings()))
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, cfg.Budget.MonthlyTotalCap, 0.001)
	assert.InDelta(t, 0.9, cfg.Budget.WarnThreshold, 0.001)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "Transport", cfg.Rules[0].Category)

	// Defaults fill the rest.
	assert.Equal(t, "outputs", cfg.OutputDir)
	assert.Equal(t, 3, cfg.ForecastPeriods)
	assert.Equal(t, 15*time.Second, cfg.Channels.Timeout)
	assert.NotEmpty(t, cfg.StatePath)
	assert.NotEmpty(t, cfg.DateLayouts)
}

func TestLoadDefaultWarnThreshold(t *testing.T) {
	settings := validSettings()
	delete(settings, "budget.warn_threshold")

	cfg, err := Load(newViper(t, settings))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, cfg.Budget.WarnThreshold, 0.001)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name     string
		mutation map[string]any
	}{
		{name: "warn threshold above one", mutation: map[string]any{"budget.warn_threshold": 1.5}},
		{name: "warn threshold negative", mutation: map[string]any{"budget.warn_threshold": -0.1}},
		{name: "negative total cap", mutation: map[string]any{"budget.monthly_total_cap": -100.0}},
		{name: "zero category cap", mutation: map[string]any{"budget.categories": map[string]float64{"Food": 0}}},
		{name: "rule without pattern", mutation: map[string]any{"rules": []map[string]any{{"pattern": " ", "category": "X"}}}},
		{name: "rule without category", mutation: map[string]any{"rules": []map[string]any{{"pattern": "x", "category": ""}}}},
		{name: "incomplete email channel", mutation: map[string]any{"notifications.email.enabled": true}},
		{name: "incomplete telegram channel", mutation: map[string]any{"notifications.telegram.enabled": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := validSettings()
			for key, value := range tt.mutation {
				settings[key] = value
			}

			_, err := Load(newViper(t, settings))
			require.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadSchemaSynonymsExtendDefaults(t *testing.T) {
	settings := validSettings()
	settings["schema.columns"] = map[string][]string{"date": {"booking_date"}}

	cfg, err := Load(newViper(t, settings))
	require.NoError(t, err)

	assert.Contains(t, cfg.Schema["date"], "booking_date")
	assert.Contains(t, cfg.Schema["date"], "txn_date", "defaults are kept")
}

func TestBudgetCapsOrdering(t *testing.T) {
	b := Budget{
		MonthlyTotalCap: 1000,
		WarnThreshold:   0.9,
		CategoryCaps:    map[string]float64{"Transport": 150, "Food": 300},
	}

	caps := b.Caps()
	require.Len(t, caps, 3)
	assert.Equal(t, model.TotalScope, caps[0].Scope)
	assert.Equal(t, "Food", caps[1].Scope)
	assert.Equal(t, "Transport", caps[2].Scope)
	for _, cap := range caps {
		assert.InDelta(t, 0.9, cap.WarnThreshold, 0.001)
	}
}

func TestBudgetCapsWithoutTotal(t *testing.T) {
	b := Budget{WarnThreshold: 0.9, CategoryCaps: map[string]float64{"Food": 300}}

	caps := b.Caps()
	require.Len(t, caps, 1)
	assert.Equal(t, "Food", caps[0].Scope)
}
