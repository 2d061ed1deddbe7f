// internal/notifications/telegram.go
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrNoBotToken = errors.New("telegram bot token not configured")

// TelegramSender delivers messages through the Telegram Bot API. The
// contact is the chat id.
type TelegramSender struct {
	token      string
	httpClient *http.Client
}

func NewTelegramSender(token string) *TelegramSender {
	return &TelegramSender{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramSender) Send(ctx context.Context, channel, contact, message string, meta map[string]string) error {
	if t.token == "" {
		return ErrNoBotToken
	}

	body, err := json.Marshal(map[string]string{
		"chat_id":    contact,
		"text":       message,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		txt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram send failed: %s %s", resp.Status, txt)
	}
	return nil
}
