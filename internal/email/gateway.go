package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Gateway sends one templated transactional email.
type Gateway interface {
	Send(ctx context.Context, to, templateKey string, data map[string]any) error
}

// HTTPGateway posts a JSON send request to a transactional email API.
type HTTPGateway struct {
	URL    string
	APIKey string
	From   string
	Client *http.Client
}

var _ Gateway = (*HTTPGateway)(nil)

func NewHTTPGateway(url, apiKey, from string) *HTTPGateway {
	return &HTTPGateway{
		URL:    url,
		APIKey: apiKey,
		From:   from,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

func (g *HTTPGateway) Send(ctx context.Context, to, templateKey string, data map[string]any) error {
	body, err := json.Marshal(sendRequest{From: g.From, To: to, Template: templateKey, Data: data})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("email gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// LogGateway only logs; used when no email API is configured.
type LogGateway struct {
	Logger *slog.Logger
}

var _ Gateway = (*LogGateway)(nil)

func (g *LogGateway) Send(_ context.Context, to, templateKey string, data map[string]any) error {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent, no gateway configured", "to", to, "template", templateKey, "data", data)
	return nil
}
