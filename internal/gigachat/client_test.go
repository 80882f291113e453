package gigachat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tokenResponse(w http.ResponseWriter, token string, ttl time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":%q,"expires_at":%d}`, token, time.Now().Add(ttl).UnixMilli())
}

func chatResponseBody(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

// newTestClient wires a Client against an httptest server serving both the
// token and completion endpoints.
func newTestClient(t *testing.T, oauth, chat http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/oauth", oauth)
	mux.HandleFunc("/api/v1/chat/completions", chat)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(Config{
		AuthorizationKey: "test-auth-key",
		ClientID:         "test-client",
		OAuthURL:         srv.URL + "/api/v2/oauth",
		CompletionsURL:   srv.URL + "/api/v1/chat/completions",
		Scope:            "GIGACHAT_API_PERS",
		Model:            "GigaChat",
		Timeout:          2 * time.Second,
	}, zap.NewNop())
}

func TestGenerate_Success(t *testing.T) {
	var gotReq chatRequest
	var gotAuth, gotClientID, gotRqUID string

	oauth := func(w http.ResponseWriter, r *http.Request) {
		gotRqUID = r.Header.Get("RqUID")
		require.Equal(t, "Basic test-auth-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "GIGACHAT_API_PERS", r.PostForm.Get("scope"))
		tokenResponse(w, "tok-1", time.Hour)
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.Header.Get("X-Client-ID")
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NotEmpty(t, r.Header.Get("X-Session-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		chatResponseBody(w, "  Посмотрите «Большой Лебовски».  ")
	}

	c := newTestClient(t, oauth, chat)
	got, err := c.Generate(context.Background(), "посоветуй комедию")
	require.NoError(t, err)

	assert.Equal(t, "Посмотрите «Большой Лебовски».", got)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "test-client", gotClientID)
	assert.NotEmpty(t, gotRqUID)

	assert.Equal(t, "GigaChat", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "Ты — помощник по фильмам.", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "посоветуй комедию", gotReq.Messages[1].Content)
	assert.Equal(t, 500, gotReq.MaxTokens)
	assert.InDelta(t, 0.7, gotReq.Temperature, 0.001)
}

func TestGenerate_TokenCachedWithinValidity(t *testing.T) {
	var tokenCalls atomic.Int32
	oauth := func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		tokenResponse(w, "tok-1", time.Hour)
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		chatResponseBody(w, "ответ")
	}

	c := newTestClient(t, oauth, chat)
	for i := 0; i < 2; i++ {
		_, err := c.Generate(context.Background(), "вопрос")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestGenerate_RefreshAfterExpiry(t *testing.T) {
	var tokenCalls atomic.Int32
	oauth := func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		tokenResponse(w, fmt.Sprintf("tok-%d", tokenCalls.Load()), time.Hour)
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		chatResponseBody(w, "ответ")
	}

	c := newTestClient(t, oauth, chat)

	_, err := c.Generate(context.Background(), "вопрос")
	require.NoError(t, err)
	require.Equal(t, int32(1), tokenCalls.Load())

	// Move the clock past the token's expiry.
	c.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = c.Generate(context.Background(), "вопрос")
	require.NoError(t, err)
	assert.Equal(t, int32(2), tokenCalls.Load())
}

func TestGenerate_FallbackOnCompletionError(t *testing.T) {
	oauth := func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w, "tok-1", time.Hour)
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}

	c := newTestClient(t, oauth, chat)
	got, err := c.Generate(context.Background(), "вопрос")
	require.NoError(t, err)
	assert.Equal(t, Fallback, got)
}

func TestGenerate_MalformedResponse(t *testing.T) {
	oauth := func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w, "tok-1", time.Hour)
	}

	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty choices", `{"choices":[]}`},
		{"missing content", `{"choices":[{"message":{"role":"assistant"}}]}`},
		{"not json", `<html>oops</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chat := func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tc.body)
			}
			c := newTestClient(t, oauth, chat)

			_, err := c.Generate(context.Background(), "вопрос")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGenerate_TokenFailurePropagates(t *testing.T) {
	oauth := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}
	chat := func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("completion endpoint must not be reached without a token")
	}

	c := newTestClient(t, oauth, chat)
	_, err := c.Generate(context.Background(), "вопрос")

	var tokErr *TokenError
	assert.ErrorAs(t, err, &tokErr)
}

func TestToken_MalformedBody(t *testing.T) {
	oauth := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"expires_at":123}`)
	}
	c := newTestClient(t, oauth, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.tokens.Token(context.Background())
	var tokErr *TokenError
	require.ErrorAs(t, err, &tokErr)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}
