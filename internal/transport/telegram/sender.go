package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"notifier/pkg/config"
	"notifier/pkg/httpclient"

	"go.uber.org/zap"
)

// Sender - адаптер Telegram Bot API sendMessage. Любая сетевая ошибка,
// не-2xx статус или ok=false в ответе возвращаются наверх как обычная
// ошибка: delivery-процессор трактует их одинаково.
type Sender struct {
	client httpclient.HTTPClient
	conf   config.Telegram
	logger *zap.SugaredLogger
}

func NewSender(client httpclient.HTTPClient, conf config.Telegram, logger *zap.SugaredLogger) *Sender {
	return &Sender{
		client: client,
		conf:   conf,
		logger: logger,
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *Sender) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.conf.APIURL, s.conf.BotToken)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode sendMessage response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram sendMessage failed: status=%d description=%q", resp.StatusCode, result.Description)
	}

	s.logger.Debugf("[chat: %d] telegram message sent", chatID)
	return nil
}
