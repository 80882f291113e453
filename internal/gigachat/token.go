package gigachat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenManager holds the current access token and its expiry, refreshing
// on demand via the provider's OAuth endpoint.
type tokenManager struct {
	authKey  string
	oauthURL string
	scope    string
	httpc    *http.Client
	log      *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time // test hook
}

func newTokenManager(cfg Config, httpc *http.Client, log *zap.Logger) *tokenManager {
	return &tokenManager{
		authKey:  cfg.AuthorizationKey,
		oauthURL: cfg.OAuthURL,
		scope:    cfg.Scope,
		httpc:    httpc,
		log:      log,
		now:      time.Now,
	}
}

// Token returns a valid access token, refreshing when the held one is
// absent or its expiry is at or before now. The mutex serializes refreshes,
// so a burst of concurrent calls performs exactly one token exchange.
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiry) {
		return m.token, nil
	}
	if err := m.refresh(ctx); err != nil {
		return "", &TokenError{Err: err}
	}
	return m.token, nil
}

func (m *tokenManager) refresh(ctx context.Context) error {
	form := url.Values{"scope": {m.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+m.authKey)
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := m.httpc.Do(req)
	if err != nil {
		m.log.Error("gigachat token request failed", zap.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.log.Error("gigachat token endpoint rejected request", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"` // milliseconds since epoch
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		m.log.Error("gigachat token response decode failed", zap.Error(err))
		return fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return errors.New("token response without access_token")
	}

	m.token = body.AccessToken
	m.expiry = time.UnixMilli(body.ExpiresAt).UTC()
	m.log.Info("gigachat access token acquired", zap.Time("expires_at", m.expiry))
	return nil
}
