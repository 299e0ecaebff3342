package quote

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShareTokenRoundTrip(t *testing.T) {
	signer := NewShareSigner("secret", time.Hour)
	token, exp, err := signer.Sign("8d2c6a52-3b1b-4f5e-9c55-0f0b2f1f7f10")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	id, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "8d2c6a52-3b1b-4f5e-9c55-0f0b2f1f7f10", id)
}

func TestShareTokenExpires(t *testing.T) {
	signer := NewShareSigner("secret", time.Minute)
	token, _, err := signer.Sign("s1")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidShareToken)
}

func TestShareTokenRejectsOtherKeyAndTampering(t *testing.T) {
	token, _, err := NewShareSigner("secret", time.Hour).Sign("s1")
	require.NoError(t, err)

	_, err = NewShareSigner("other", time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidShareToken)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = NewShareSigner("secret", time.Hour).Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidShareToken)

	_, err = NewShareSigner("secret", time.Hour).Verify("  ")
	require.ErrorIs(t, err, ErrInvalidShareToken)
}
