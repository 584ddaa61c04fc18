package validation

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Values are sanitized form values keyed by field name.
type Values map[string]string

func (v Values) Get(name string) string { return v[name] }

// Int parses the named value as a base-10 integer.
func (v Values) Int(name string) (int64, error) {
	return strconv.ParseInt(v[name], 10, 64)
}

// FieldError is a failing field and its user-facing message.
type FieldError struct {
	Field   string
	Message string
}

// Result is the verdict on one submission.
type Result struct {
	Values Values
	Errors []FieldError
}

func (r *Result) OK() bool { return len(r.Errors) == 0 }

// Messages returns the error messages in field declaration order.
func (r *Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// Error returns the message for field, or "".
func (r *Result) Error(field string) string {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Schema is an ordered list of field rules.
type Schema []*Field

func NewSchema(fields ...*Field) Schema { return Schema(fields) }

// Validate sanitizes and checks every declared field of form. Undeclared
// fields are copied through untouched so that views can stay sticky.
// All fields are sanitized before any check runs, so cross-field checks
// see final values.
func (s Schema) Validate(ctx context.Context, form url.Values) (*Result, error) {
	res := &Result{Values: Values{}}
	for k := range form {
		res.Values[k] = form.Get(k)
	}

	for _, f := range s {
		v := form.Get(f.name)
		for _, fn := range f.sanitizers {
			v = fn(v)
		}
		res.Values[f.name] = v
	}

	for _, f := range s {
		v := res.Values[f.name]
		if f.optional && v == "" {
			continue
		}
		for _, c := range f.checks {
			ok, err := c.fn(ctx, v, res.Values)
			if err != nil {
				return nil, fmt.Errorf("validate %s: %w", f.name, err)
			}
			if !ok {
				res.Errors = append(res.Errors, FieldError{Field: f.name, Message: c.msg})
				break
			}
		}
	}

	return res, nil
}
