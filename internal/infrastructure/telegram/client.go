// Package telegram is a minimal Telegram Bot API client for outbound
// notifications.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultAPIBaseURL = "https://api.telegram.org"
	defaultTimeout    = 10 * time.Second

	methodSendMessage  = "sendMessage"
	methodSendDocument = "sendDocument"

	// ParseModeMarkdown is the legacy Markdown parse mode
	ParseModeMarkdown = "Markdown"
)

var (
	// ErrBotTokenRequired is returned when the client is built without a token
	ErrBotTokenRequired = errors.New("telegram: bot token is required")
	// ErrRequestFailed wraps non-ok Bot API responses
	ErrRequestFailed = errors.New("telegram: request failed")
	// ErrUnavailable wraps transport failures
	ErrUnavailable = errors.New("telegram: api unavailable")
)

// apiResponse is the envelope every Bot API method returns
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Client sends messages through a bot
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a Bot API client from configuration
func NewClient(cfg *config.TelegramConfig, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.BotToken == "" {
		return nil, ErrBotTokenRequired
	}

	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: baseURL,
		token:   cfg.BotToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendMessage sends a text message to chatID
func (c *Client) SendMessage(ctx context.Context, chatID, text, parseMode string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return fmt.Errorf("telegram: failed to encode message: %w", err)
	}
	return c.do(ctx, methodSendMessage, "application/json", bytes.NewReader(body))
}

// SendDocument uploads data as a file named fileName with an optional caption
func (c *Client) SendDocument(ctx context.Context, chatID, fileName string, data []byte, caption, parseMode string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"chat_id":    chatID,
		"caption":    caption,
		"parse_mode": parseMode,
	}
	for _, name := range []string{"chat_id", "caption", "parse_mode"} {
		if fields[name] == "" {
			continue
		}
		if err := w.WriteField(name, fields[name]); err != nil {
			return fmt.Errorf("telegram: failed to encode document: %w", err)
		}
	}

	part, err := w.CreateFormFile("document", fileName)
	if err != nil {
		return fmt.Errorf("telegram: failed to encode document: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("telegram: failed to encode document: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("telegram: failed to encode document: %w", err)
	}

	return c.do(ctx, methodSendDocument, w.FormDataContentType(), &buf)
}

// do posts to a Bot API method. The bot token is part of the URL, so
// transport errors are unwrapped from *url.Error before being returned.
func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader) error {
	endpoint := c.baseURL + "/bot" + c.token + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("telegram: failed to create %s request", method)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram: failed to read %s response: %w", method, err)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("%w: %s: HTTP %d", ErrRequestFailed, method, resp.StatusCode)
	}
	if !result.OK || resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s: %d %s", ErrRequestFailed, method, result.ErrorCode, result.Description)
	}

	c.logger.Debug("Telegram request sent", zap.String("method", method))
	return nil
}
