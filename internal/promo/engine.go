package promo

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyCode is returned when no code was entered.
	ErrEmptyCode = errors.New("promo code is empty")
	// ErrInvalidCode is returned when the code does not match any accepted digest.
	ErrInvalidCode = errors.New("promo code is invalid")
)

const (
	// DefaultDiscountPercent is the flat discount applied to the development cost.
	DefaultDiscountPercent = 10
	// DefaultPepper is mixed into every digest. It only deters reading codes out of
	// client bundles; it is not a secret in any cryptographic sense.
	DefaultPepper = "webquote-pepper-7f3a"
)

// DefaultDigests are the digests of the codes accepted out of the box.
var DefaultDigests = []string{
	"e7cf5e8030287bd902c85d70",     // 2026
	"22723f5a3d5857dc02e571da2c5",  // newsite
	"46979b911a4cfce43795ce84193c", // launch10
}

const hexDigits = "0123456789abcdef"

// Normalize trims and lowercases a user-entered code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Digest derives the positional digest of a code: every character of the
// normalized code followed by the pepper becomes one hex digit of
// (char*31 + index*7) mod 16.
//
// Only each character's value mod 16 survives, so codes of equal length whose
// characters agree mod 16 share a digest ("bpbv" is accepted wherever "2026"
// is). The digest obscures codes; it does not authenticate them.
func Digest(code, pepper string) string {
	input := []rune(Normalize(code) + pepper)
	var b strings.Builder
	b.Grow(len(input))
	for i, r := range input {
		v := (int(r)*31 + i*7) % 16
		b.WriteByte(hexDigits[v])
	}
	return b.String()
}

// Result is the outcome of applying a code, shaped for the wizard.
type Result struct {
	Applied         bool   `json:"applied"`
	Error           string `json:"error,omitempty"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
}

// Evaluator authenticates promo codes against a fixed digest set.
type Evaluator struct {
	pepper  string
	percent int
	digests map[string]struct{}
}

// NewEvaluator builds an evaluator. Blank digests are ignored; a non-positive
// percent falls back to DefaultDiscountPercent.
func NewEvaluator(pepper string, percent int, digests []string) *Evaluator {
	if percent <= 0 || percent > 100 {
		percent = DefaultDiscountPercent
	}
	set := make(map[string]struct{}, len(digests))
	for _, d := range digests {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &Evaluator{pepper: pepper, percent: percent, digests: set}
}

// Default returns the evaluator with the built-in pepper, percent and codes.
func Default() *Evaluator {
	return NewEvaluator(DefaultPepper, DefaultDiscountPercent, DefaultDigests)
}

// Percent reports the discount percent granted by a valid code.
func (e *Evaluator) Percent() int {
	if e == nil {
		return 0
	}
	return e.percent
}

// Validate checks a code.
func (e *Evaluator) Validate(code string) error {
	if Normalize(code) == "" {
		return ErrEmptyCode
	}
	if e == nil {
		return ErrInvalidCode
	}
	if _, ok := e.digests[Digest(code, e.pepper)]; !ok {
		return ErrInvalidCode
	}
	return nil
}

// Valid reports whether a code is accepted.
func (e *Evaluator) Valid(code string) bool {
	return e.Validate(code) == nil
}

// Apply validates a code and reports the discount it grants. Applying the same
// code again yields the same result.
func (e *Evaluator) Apply(code string) Result {
	if err := e.Validate(code); err != nil {
		return Result{Error: Message(err)}
	}
	return Result{Applied: true, DiscountPercent: e.percent}
}

// Message maps a validation error to the text shown to the visitor.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCode):
		return "Please enter a promo code"
	default:
		return "Invalid promo code"
	}
}

// Discount is amount*percent/100 rounded to the nearest whole unit, halves up.
func Discount(amount int64, percent int) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	if percent > 100 {
		percent = 100
	}
	return (amount*int64(percent) + 50) / 100
}
