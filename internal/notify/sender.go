// Package notify delivers change notifications for the node set.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Sender interface {
	Send(ctx context.Context, message string) error
}

const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string // default DefaultTelegramAPI

	Client *http.Client // default: 10s timeout
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (t *Telegram) Send(ctx context.Context, message string) error {
	base := strings.TrimRight(t.APIBase, "/")
	if base == "" {
		base = DefaultTelegramAPI
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	body, err := json.Marshal(telegramMessage{ChatID: t.ChatID, Text: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/bot"+t.BotToken+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		return fmt.Errorf("telegram sendMessage: %w", redact(err, t.BotToken))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "***"), cause: err}
}

// LogSender writes notifications to the log. It is used when no Telegram
// credentials are configured.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) Send(_ context.Context, message string) error {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("node update notification", "message", message)
	return nil
}
