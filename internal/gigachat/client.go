// Package gigachat implements the GigaChat completion API client: an
// OAuth-style access-token exchange plus a single chat-completion call.
package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fallback is the fixed reply returned in place of a failed completion, so
// a handler always has displayable text.
const Fallback = "Извините, я не смог обработать ваш запрос в данный момент."

const systemPrompt = "Ты — помощник по фильмам."

const (
	maxTokens   = 500
	temperature = 0.7
)

// Config holds client settings.
type Config struct {
	AuthorizationKey   string
	ClientID           string
	OAuthURL           string
	CompletionsURL     string
	Scope              string
	Model              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client issues completion calls with a cached bearer token.
type Client struct {
	cfg    Config
	httpc  *http.Client
	tokens *tokenManager
	log    *zap.Logger
}

// New creates a Client. One HTTP client is shared by the token exchange and
// completion calls; its timeout bounds both.
func New(cfg Config, log *zap.Logger) *Client {
	httpc := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureSkipVerify {
		// The provider chain is signed by a CA absent from common bundles.
		httpc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		cfg:    cfg,
		httpc:  httpc,
		tokens: newTokenManager(cfg, httpc, log),
		log:    log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate asks the model for a reply to userMessage. Transport errors and
// non-2xx statuses are logged and yield Fallback with a nil error; a failed
// token exchange surfaces as *TokenError and a well-formed status with a
// missing choices[0].message.content as ErrMalformedResponse.
func (c *Client) Generate(ctx context.Context, userMessage string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CompletionsURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Client-ID", c.cfg.ClientID)
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("X-Session-ID", uuid.NewString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Error("gigachat completion request failed", zap.Error(err))
		return Fallback, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("gigachat completion rejected", zap.Int("status", resp.StatusCode))
		return Fallback, nil
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Error("gigachat completion decode failed", zap.Error(err))
		return "", ErrMalformedResponse
	}
	if len(body.Choices) == 0 || body.Choices[0].Message.Content == "" {
		return "", ErrMalformedResponse
	}
	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}
