package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"earnings-watch/internal/earnings"
)

// Notification 封装一次最佳交易日变化的上下文。
type Notification struct {
	Bucket   time.Time
	Symbol   string
	Previous *earnings.Date
	Guess    earnings.Guess
	// Timing is the announce time reported by the concurring sources, if they agree.
	Timing earnings.AnnounceTime
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("symbol", note.Symbol).
		Str("last_session", note.Guess.LastSession.String()).
		Msg("告警已发送 (Telegram)")
	return nil
}

// RenderMessage formats a notification as plain text.
func RenderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Earnings] %s\n", note.Symbol))
	if note.Previous != nil {
		builder.WriteString(fmt.Sprintf("Last session: %s -> %s\n", note.Previous, note.Guess.LastSession))
	} else {
		builder.WriteString(fmt.Sprintf("Last session: %s\n", note.Guess.LastSession))
	}
	if timing := note.Timing.String(); timing != "" {
		builder.WriteString(fmt.Sprintf("Timing: %s\n", timing))
	}
	builder.WriteString(fmt.Sprintf("Agreement: %s%% (%d of %d sources)\n",
		note.Guess.Agreement().StringFixed(2), len(note.Guess.Concurrences), note.Guess.Sources()))
	writeBucket(&builder, "Agree", note.Guess.Concurrences)
	writeBucket(&builder, "Close", note.Guess.CloseDisagreements)
	writeBucket(&builder, "Far", note.Guess.FarDisagreements)
	if !note.Bucket.IsZero() {
		builder.WriteString(fmt.Sprintf("Checked: %s UTC\n", note.Bucket.UTC().Format(time.RFC3339)))
	}
	return builder.String()
}

func writeBucket(b *strings.Builder, label string, list []earnings.SourcedDateTime) {
	if len(list) == 0 {
		return
	}
	parts := make([]string, 0, len(list))
	for _, s := range list {
		parts = append(parts, fmt.Sprintf("%s (%s)", s.Source, strings.TrimSpace(s.DateTime.String())))
	}
	b.WriteString(fmt.Sprintf("%s: %s\n", label, strings.Join(parts, ", ")))
}

var _ Notifier = (*TelegramNotifier)(nil)
