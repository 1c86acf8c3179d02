package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/gamewatch/internal/transport"
)

// maxMessageLength is the Bot API limit for a single text message.
const maxMessageLength = 4096

// APIError is an unsuccessful Bot API reply.
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error (%d): %s", e.ErrorCode, e.Description)
}

// Unwrap classifies recipient-side rejections as
// transport.ErrRecipientUnreachable.
func (e *APIError) Unwrap() error {
	if e.unreachable() {
		return transport.ErrRecipientUnreachable
	}
	return nil
}

func (e *APIError) unreachable() bool {
	if e.ErrorCode == http.StatusForbidden {
		// "bot was blocked by the user", "user is deactivated",
		// "bot was kicked from the group chat".
		return true
	}
	if e.ErrorCode == http.StatusBadRequest {
		desc := strings.ToLower(e.Description)
		return strings.Contains(desc, "chat not found") ||
			strings.Contains(desc, "user not found") ||
			strings.Contains(desc, "group chat was upgraded")
	}
	return false
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Client sends messages through the Telegram Bot API. It retries on
// HTTP 429, waiting for the advertised retry_after.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

var _ transport.Sender = (*Client)(nil)

// NewClient creates a Bot API client. baseURL is normally
// https://api.telegram.org.
func NewClient(baseURL, token string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
	}
}

// Send delivers text to the chat identified by subscriberID. Text longer
// than the API limit is cut.
func (c *Client) Send(ctx context.Context, subscriberID int64, text string) error {
	if len(text) > maxMessageLength {
		text = text[:maxMessageLength-4] + "\n..."
	}

	body := map[string]any{
		"chat_id":                  subscriberID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	return c.call(ctx, "sendMessage", body, nil)
}

// GetMe verifies the token and returns the bot's username.
func (c *Client) GetMe(ctx context.Context) (string, error) {
	var me struct {
		Username string `json:"username"`
	}
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return "", fmt.Errorf("validating bot token: %w", err)
	}
	return me.Username, nil
}

func (c *Client) call(ctx context.Context, method string, body any, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	url := c.baseURL + "/bot" + c.token + "/" + method

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// The URL embeds the token; report the method only.
			return fmt.Errorf("executing %s: %w", method, redact(err, c.token))
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		var envelope apiResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return fmt.Errorf("unmarshaling %s response (status %d): %w", method, resp.StatusCode, err)
		}

		if envelope.OK {
			if result == nil {
				return nil
			}
			if err := json.Unmarshal(envelope.Result, result); err != nil {
				return fmt.Errorf("unmarshaling %s result: %w", method, err)
			}
			return nil
		}

		apiErr := &APIError{
			StatusCode:  resp.StatusCode,
			ErrorCode:   envelope.ErrorCode,
			Description: envelope.Description,
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}

		if apiErr.ErrorCode != http.StatusTooManyRequests {
			return apiErr
		}

		lastErr = apiErr
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(apiErr.RetryAfter) * time.Second):
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// redactedError hides the bot token that net/http includes in URL errors.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{
		msg: strings.ReplaceAll(err.Error(), token, "<token>"),
		err: err,
	}
}
