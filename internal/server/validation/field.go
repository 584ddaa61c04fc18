// Package validation evaluates submitted forms against declared per-field
// rules. Each field is sanitized first, then its checks run in order and
// the first failing check supplies the field's message.
package validation

import (
	"context"
	"html"
	"math"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CheckFunc reports whether value is acceptable. form holds every sanitized
// field value of the submission. A non-nil error means the check could not
// be evaluated; it aborts the whole validation.
type CheckFunc func(ctx context.Context, value string, form Values) (bool, error)

type check struct {
	fn  CheckFunc
	msg string
}

// Field is the rule set for one form field.
type Field struct {
	name       string
	sanitizers []func(string) string
	checks     []check
	optional   bool
}

func NewField(name string) *Field {
	return &Field{name: name}
}

func (f *Field) Name() string { return f.name }

// Sanitize appends a value transformation.
func (f *Field) Sanitize(fn func(string) string) *Field {
	f.sanitizers = append(f.sanitizers, fn)
	return f
}

func (f *Field) Trim() *Field { return f.Sanitize(strings.TrimSpace) }

// Escape replaces <, >, &, ' and " with HTML entities.
func (f *Field) Escape() *Field { return f.Sanitize(html.EscapeString) }

// NormalizeEmail lowercases the address.
func (f *Field) NormalizeEmail() *Field {
	return f.Sanitize(func(s string) string { return strings.ToLower(s) })
}

// Optional skips every check when the sanitized value is empty.
func (f *Field) Optional() *Field {
	f.optional = true
	return f
}

func (f *Field) Check(fn CheckFunc, msg string) *Field {
	f.checks = append(f.checks, check{fn: fn, msg: msg})
	return f
}

func (f *Field) pure(pred func(string) bool, msg string) *Field {
	return f.Check(func(_ context.Context, v string, _ Values) (bool, error) {
		return pred(v), nil
	}, msg)
}

func (f *Field) Required(msg string) *Field {
	return f.pure(func(v string) bool { return v != "" }, msg)
}

func (f *Field) MinLength(n int, msg string) *Field {
	return f.pure(func(v string) bool { return utf8.RuneCountInString(v) >= n }, msg)
}

func (f *Field) MaxLength(n int, msg string) *Field {
	return f.pure(func(v string) bool { return utf8.RuneCountInString(v) <= n }, msg)
}

// IntRange accepts base-10 integers within [min, max].
func (f *Field) IntRange(min, max int64, msg string) *Field {
	return f.pure(func(v string) bool {
		n, err := strconv.ParseInt(v, 10, 64)
		return err == nil && n >= min && n <= max
	}, msg)
}

// FloatMin accepts finite decimal numbers not below min.
func (f *Field) FloatMin(min float64, msg string) *Field {
	return f.pure(func(v string) bool {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		return x >= min
	}, msg)
}

func (f *Field) Matches(re *regexp.Regexp, msg string) *Field {
	return f.pure(re.MatchString, msg)
}

func (f *Field) Email(msg string) *Field { return f.pure(IsEmail, msg) }

func (f *Field) StrongPassword(msg string) *Field { return f.pure(IsStrongPassword, msg) }

// IsEmail accepts a bare addr-spec with a dotted domain, e.g. a@b.com.
func IsEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s || a.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-2
}

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 12
	// MaxPasswordBytes is the longest password bcrypt will hash.
	MaxPasswordBytes = 72
)

// IsStrongPassword requires MinPasswordLength characters, at most
// MaxPasswordBytes bytes, and at least one lowercase letter, one uppercase
// letter, one digit and one symbol.
func IsStrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < MinPasswordLength || len(s) > MaxPasswordBytes {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
