// Package config loads and validates the pipeline configuration.
//
// All validation happens at load time: a bad cap, threshold, or rule entry
// fails the run before any processing begins.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/spf13/viper"
)

// Config is the fully validated runtime configuration for one pipeline run.
type Config struct {
	Schema          ColumnSchema
	Budget          Budget
	Channels        Channels
	Rules           []model.CategoryRule
	DateLayouts     []string
	StatePath       string
	OutputDir       string
	ForecastPeriods int
}

// Budget holds the configured spending caps.
type Budget struct {
	CategoryCaps    map[string]float64
	MonthlyTotalCap float64 // zero means no total cap configured
	WarnThreshold   float64
}

// Caps expands the budget configuration into a deterministic list of caps,
// total cap first, category caps in name order.
func (b Budget) Caps() []model.BudgetCap {
	caps := make([]model.BudgetCap, 0, len(b.CategoryCaps)+1)
	if b.MonthlyTotalCap > 0 {
		caps = append(caps, model.BudgetCap{
			Scope:         model.TotalScope,
			Amount:        b.MonthlyTotalCap,
			WarnThreshold: b.WarnThreshold,
		})
	}

	names := make([]string, 0, len(b.CategoryCaps))
	for name := range b.CategoryCaps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		caps = append(caps, model.BudgetCap{
			Scope:         name,
			Amount:        b.CategoryCaps[name],
			WarnThreshold: b.WarnThreshold,
		})
	}
	return caps
}

// ColumnSchema maps canonical column names to the header synonyms seen in
// institution exports.
type ColumnSchema map[string][]string

// Channels configures the notification transports.
type Channels struct {
	Email    EmailChannel
	Telegram TelegramChannel
	Timeout  time.Duration
}

// EmailChannel is SMTP delivery configuration.
type EmailChannel struct {
	Host     string
	User     string
	Password string
	From     string
	To       []string
	Port     int
	Enabled  bool
}

// TelegramChannel is Bot API delivery configuration.
type TelegramChannel struct {
	BotToken string
	ChatID   string
	Enabled  bool
}

// fileConfig mirrors the YAML layout before validation.
type fileConfig struct {
	Schema struct {
		Columns     map[string][]string `mapstructure:"columns"`
		DateLayouts []string            `mapstructure:"date_layouts"`
	} `mapstructure:"schema"`
	Budget struct {
		Categories      map[string]float64 `mapstructure:"categories"`
		MonthlyTotalCap float64            `mapstructure:"monthly_total_cap"`
		WarnThreshold   float64            `mapstructure:"warn_threshold"`
	} `mapstructure:"budget"`
	Notifications struct {
		Email struct {
			Enabled  bool     `mapstructure:"enabled"`
			Host     string   `mapstructure:"host"`
			Port     int      `mapstructure:"port"`
			User     string   `mapstructure:"user"`
			Password string   `mapstructure:"password"`
			From     string   `mapstructure:"from"`
			To       []string `mapstructure:"to"`
		} `mapstructure:"email"`
		Telegram struct {
			Enabled  bool   `mapstructure:"enabled"`
			BotToken string `mapstructure:"bot_token"`
			ChatID   string `mapstructure:"chat_id"`
		} `mapstructure:"telegram"`
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
	} `mapstructure:"notifications"`
	State struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"state"`
	Output struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"output"`
	Forecast struct {
		Periods int `mapstructure:"periods"`
	} `mapstructure:"forecast"`
	Rules []struct {
		Pattern  string `mapstructure:"pattern"`
		Category string `mapstructure:"category"`
		Priority int    `mapstructure:"priority"`
	} `mapstructure:"rules"`
}

// Load reads configuration out of a viper instance and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var raw fileConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	cfg := &Config{
		Schema:      DefaultColumnSchema(),
		DateLayouts: DefaultDateLayouts(),
		Budget: Budget{
			MonthlyTotalCap: raw.Budget.MonthlyTotalCap,
			WarnThreshold:   raw.Budget.WarnThreshold,
			CategoryCaps:    raw.Budget.Categories,
		},
		StatePath:       ExpandPath(raw.State.Path),
		OutputDir:       ExpandPath(raw.Output.Dir),
		ForecastPeriods: raw.Forecast.Periods,
	}

	// User-supplied synonyms extend the defaults rather than replacing them.
	for canonical, synonyms := range raw.Schema.Columns {
		key := strings.ToLower(canonical)
		cfg.Schema[key] = append(cfg.Schema[key], synonyms...)
	}
	if len(raw.Schema.DateLayouts) > 0 {
		cfg.DateLayouts = raw.Schema.DateLayouts
	}

	if cfg.Budget.WarnThreshold == 0 {
		cfg.Budget.WarnThreshold = 0.9
	}
	if cfg.Budget.CategoryCaps == nil {
		cfg.Budget.CategoryCaps = map[string]float64{}
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "outputs"
	}
	if cfg.ForecastPeriods <= 0 {
		cfg.ForecastPeriods = 3
	}

	for i, r := range raw.Rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("%w: rule %d has an empty pattern", common.ErrInvalidConfig, i+1)
		}
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("%w: rule %q has no category", common.ErrInvalidConfig, r.Pattern)
		}
		cfg.Rules = append(cfg.Rules, model.CategoryRule{
			Pattern:  r.Pattern,
			Category: r.Category,
			Priority: r.Priority,
		})
	}

	cfg.Channels = Channels{
		Email: EmailChannel{
			Enabled:  raw.Notifications.Email.Enabled,
			Host:     raw.Notifications.Email.Host,
			Port:     raw.Notifications.Email.Port,
			User:     raw.Notifications.Email.User,
			Password: raw.Notifications.Email.Password,
			From:     raw.Notifications.Email.From,
			To:       raw.Notifications.Email.To,
		},
		Telegram: TelegramChannel{
			Enabled:  raw.Notifications.Telegram.Enabled,
			BotToken: raw.Notifications.Telegram.BotToken,
			ChatID:   raw.Notifications.Telegram.ChatID,
		},
		Timeout: time.Duration(raw.Notifications.TimeoutSeconds) * time.Second,
	}
	if cfg.Channels.Timeout <= 0 {
		cfg.Channels.Timeout = 15 * time.Second
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Budget.WarnThreshold < 0 || c.Budget.WarnThreshold > 1 {
		return fmt.Errorf("%w: warn_threshold %.2f is outside [0,1]",
			common.ErrInvalidConfig, c.Budget.WarnThreshold)
	}
	if c.Budget.MonthlyTotalCap < 0 {
		return fmt.Errorf("%w: monthly_total_cap %.2f must be positive",
			common.ErrInvalidConfig, c.Budget.MonthlyTotalCap)
	}
	for name, cap := range c.Budget.CategoryCaps {
		if cap <= 0 {
			return fmt.Errorf("%w: cap for category %q is %.2f, caps must be positive",
				common.ErrInvalidConfig, name, cap)
		}
	}

	if c.Channels.Email.Enabled {
		e := c.Channels.Email
		if e.Host == "" || e.Port == 0 || e.From == "" || len(e.To) == 0 {
			return fmt.Errorf("%w: email channel enabled but host/port/from/to are incomplete",
				common.ErrInvalidConfig)
		}
	}
	if c.Channels.Telegram.Enabled {
		t := c.Channels.Telegram
		if t.BotToken == "" || t.ChatID == "" {
			return fmt.Errorf("%w: telegram channel enabled but bot_token/chat_id are incomplete",
				common.ErrInvalidConfig)
		}
	}

	return nil
}

// DefaultColumnSchema returns the built-in header synonyms for common bank
// and wallet exports.
func DefaultColumnSchema() ColumnSchema {
	return ColumnSchema{
		"date":        {"date", "txn_date", "transaction_date", "posting_date"},
		"description": {"description", "narration", "merchant", "details"},
		"amount":      {"amount", "amt", "inr", "value"},
		"type":        {"type", "dr_cr", "credit_debit", "transaction_type"},
		"account":     {"account", "account_no", "account_number", "acct"},
		"mode":        {"mode", "channel", "payment_mode", "method"},
	}
}

// DefaultDateLayouts returns the date formats accepted by the normalizer, in
// the order they are tried.
func DefaultDateLayouts() []string {
	return []string{
		"2006-01-02",
		"2006/01/02",
		"02-01-2006",
		"02/01/2006",
		"01/02/2006",
		"2 Jan 2006",
		"Jan 2, 2006",
		"2006-01-02 15:04:05",
	}
}
