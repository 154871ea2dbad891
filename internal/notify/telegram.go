package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers alerts through the Telegram Bot API.
type TelegramNotifier struct {
	client  *http.Client
	cfg     config.TelegramChannel
	baseURL string
}

// NewTelegramNotifier creates a Bot API-backed notifier.
func NewTelegramNotifier(cfg config.TelegramChannel) *TelegramNotifier {
	return &TelegramNotifier{
		cfg:     cfg,
		client:  &http.Client{},
		baseURL: telegramAPIBase,
	}
}

// Name returns the channel identifier used for notification state keys.
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Notify posts one alert to the configured chat. The request inherits the
// caller's context, so the configured timeout bounds the call.
func (n *TelegramNotifier) Notify(ctx context.Context, status model.BudgetStatus) model.DeliveryResult {
	result := model.DeliveryResult{Channel: n.Name()}

	payload, err := json.Marshal(map[string]string{
		"chat_id": n.cfg.ChatID,
		"text":    FormatAlert(status),
	})
	if err != nil {
		result.Err = fmt.Errorf("failed to encode telegram payload: %w", err)
		return result
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		result.Err = fmt.Errorf("failed to build telegram request: %w", err)
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("telegram send failed: %w", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		result.Err = fmt.Errorf("telegram send failed: status %d: %s", resp.StatusCode, body)
		return result
	}

	result.Success = true
	return result
}

var _ service.Notifier = (*TelegramNotifier)(nil)
