// Package resilience protects the worker from a failing mail relay: a circuit
// breaker in front of SMTP and the backoff used between task retries.
package resilience

import "errors"

// ErrOpenCircuit is returned without calling the dependency while the breaker is open.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as caused by the request rather than the dependency, for
// example a rejected recipient address. Permanent errors are not retried and do
// not count against the breaker.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked with Permanent.
func IsPermanent(err error) bool {
	var perm permanentError
	return errors.As(err, &perm)
}
