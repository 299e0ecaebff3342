package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const shareIssuer = "webquote"

// ErrInvalidShareToken is returned for tokens that are malformed, tampered with or expired.
var ErrInvalidShareToken = errors.New("quote: invalid share token")

// ShareSigner issues read-only links to a session. Tokens are HS256 JWTs whose
// subject is the session id.
type ShareSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewShareSigner returns a signer. A non-positive ttl defaults to one week.
func NewShareSigner(secret string, ttl time.Duration) *ShareSigner {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ShareSigner{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token for sessionID and reports when it expires.
func (s *ShareSigner) Sign(sessionID string) (string, time.Time, error) {
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)
	tok, err := jwt.NewBuilder().
		Issuer(shareIssuer).
		Subject(sessionID).
		IssuedAt(now).
		Expiration(exp).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("quote: build share token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("quote: sign share token: %w", err)
	}
	return string(signed), exp, nil
}

// Verify checks a token and returns the session id it grants access to.
func (s *ShareSigner) Verify(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidShareToken
	}
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(shareIssuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidShareToken, err)
	}
	if tok.Subject() == "" {
		return "", ErrInvalidShareToken
	}
	return tok.Subject(), nil
}
