// Package mailjet is a minimal HTTP client for the Mailjet SMS send endpoint.
package mailjet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shpitdev/smsnotify/pkg/pipeline/redact"
)

// DefaultBaseURL is the production Mailjet API host.
const DefaultBaseURL = "https://api.mailjet.com"

const sendPath = "v4/sms-send"

// Config holds what the client needs to reach the provider.
type Config struct {
	// Token is the static bearer token for the Mailjet SMS API.
	Token string
	// Sender is the sender identifier placed in the From field.
	Sender string
	// BaseURL overrides DefaultBaseURL (proxies/testing).
	BaseURL string
	// HTTPClient overrides the transport; nil uses http.DefaultClient.
	// Per-request deadlines come from the caller's context.
	HTTPClient *http.Client
}

// Client sends SMS messages through the Mailjet v4 API.
type Client struct {
	baseURL *url.URL
	token   string
	sender  string
	http    *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("mailjet token is required")
	}
	if strings.TrimSpace(cfg.Sender) == "" {
		return nil, fmt.Errorf("sender identifier is required")
	}

	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	base, err := url.Parse(strings.TrimRight(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		sender:  strings.TrimSpace(cfg.Sender),
		http:    hc,
	}, nil
}

type sendRequest struct {
	Text string `json:"Text"`
	To   string `json:"To"`
	From string `json:"From"`
}

// sendEnvelope carries the provider-failure fields of a send response.
// Mailjet reports send errors by including a StatusCode field in the body;
// successful sends omit it.
type sendEnvelope struct {
	StatusCode   *int   `json:"StatusCode"`
	ErrorMessage string `json:"ErrorMessage"`
}

// ProviderError is a send the provider accepted over HTTP but rejected in
// the response envelope, or rejected outright with a non-2xx status.
type ProviderError struct {
	HTTPStatus string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "mailjet send error"
	}
	parts := []string{"mailjet send failed"}
	if strings.TrimSpace(e.HTTPStatus) != "" {
		parts = append(parts, "status="+strings.TrimSpace(e.HTTPStatus))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("statusCode=%d", e.StatusCode))
	}
	if strings.TrimSpace(e.Message) != "" {
		parts = append(parts, "message="+strings.TrimSpace(e.Message))
	}
	return strings.Join(parts, " ")
}

// SendSMS posts one message to the send endpoint. It makes exactly one
// outbound call: transport failures, deadline expiry, undecodable bodies
// and provider-reported failures all come back as errors with no retry.
func (c *Client) SendSMS(ctx context.Context, to, text string) error {
	body, err := json.Marshal(sendRequest{
		Text: text,
		To:   to,
		From: c.sender,
	})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	u := c.baseURL.JoinPath(sendPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post sms: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read send response: %w", err)
	}

	// TODO: confirm against current Mailjet docs that the presence of a
	// StatusCode field is the right failure marker for 2xx responses.
	var env sendEnvelope
	if len(b) > 0 && json.Unmarshal(b, &env) == nil {
		if env.StatusCode != nil {
			return &ProviderError{
				HTTPStatus: resp.Status,
				StatusCode: *env.StatusCode,
				Message:    env.ErrorMessage,
			}
		}
		if resp.StatusCode/100 == 2 {
			return nil
		}
		return &ProviderError{HTTPStatus: resp.Status, Message: bodySnippet(b)}
	}

	if resp.StatusCode/100 != 2 {
		return &ProviderError{HTTPStatus: resp.Status, Message: bodySnippet(b)}
	}
	if len(b) == 0 {
		return fmt.Errorf("empty send response")
	}
	return fmt.Errorf("decode send response: %s", bodySnippet(b))
}

// bodySnippet keeps error detail small and free of secrets.
func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s != "" && len(body) > max {
		s += "..."
	}
	return s
}
