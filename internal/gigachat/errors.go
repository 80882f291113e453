package gigachat

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a successful completion response
// does not carry choices[0].message.content.
var ErrMalformedResponse = errors.New("gigachat: malformed completion response")

// TokenError wraps a failed access-token acquisition. It propagates to the
// caller untouched; no retry is attempted.
type TokenError struct {
	Err error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("gigachat: acquire access token: %v", e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }
