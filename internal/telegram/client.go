// ABOUTME: HTTP client for the Telegram Bot API send-side methods.
// ABOUTME: JSON request bodies, bounded timeouts, ok/description error mapping.

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// ErrAPIRejected is returned when the Bot API answers ok=false.
// Wrapped errors carry the API description for logging.
var ErrAPIRejected = errors.New("telegram api rejected request")

// Sender is the outbound surface the relay and router need. *Client
// implements it; tests substitute a recording fake.
type Sender interface {
	SendMessage(ctx context.Context, p SendMessageParams) (int64, error)
	SendMedia(ctx context.Context, p SendMediaParams) (int64, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
	ClearReplyMarkup(ctx context.Context, chatID, messageID int64) error
}

// Client talks to the Bot API over HTTPS. All methods respect the
// passed context and the client's request timeout, whichever ends first.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

var _ Sender = (*Client)(nil)

// NewClient creates a Bot API client. baseURL may be empty to use the
// public endpoint; override it to point at a local Bot API server.
func NewClient(token, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger.With("component", "telegram"),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// call posts a JSON payload to one Bot API method and decodes the result
// envelope into out (which may be nil when the result is irrelevant).
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decode response (http %d): %w", method, resp.StatusCode, err)
	}
	if !env.OK {
		return fmt.Errorf("%s: %w: %s", method, ErrAPIRejected, env.Description)
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// InlineKeyboardMarkup is the reply_markup payload for inline keyboards.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// SendMessageParams are the fields of the sendMessage method we use.
type SendMessageParams struct {
	ChatID           int64                 `json:"chat_id"`
	Text             string                `json:"text"`
	ParseMode        string                `json:"parse_mode,omitempty"`
	MessageThreadID  int64                 `json:"message_thread_id,omitempty"`
	ReplyToMessageID int64                 `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage posts a text message and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, p SendMessageParams) (int64, error) {
	var result Message
	if err := c.call(ctx, "sendMessage", p, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

// AnswerCallback acknowledges a callback query. text may be empty for a
// silent ack. Failures here are cosmetic and callers typically just log.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// ClearReplyMarkup removes the inline keyboard from a previously sent
// message, used after an admin has acted on an application summary.
func (c *Client) ClearReplyMarkup(ctx context.Context, chatID, messageID int64) error {
	payload := map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}},
	}
	return c.call(ctx, "editMessageReplyMarkup", payload, nil)
}

// GetMe fetches the bot's own identity, used by the health subcommand.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SetWebhook registers url as the webhook endpoint. secret, when set, is
// echoed back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	payload := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message", "edited_message", "callback_query"},
	}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

// DeleteWebhook unregisters the webhook.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": dropPending}, nil)
}
