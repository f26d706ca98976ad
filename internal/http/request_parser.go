// Package http serves the view model as JSON to an HTMX front end.
//
// This file implements utilities for parsing request bodies into the forms
// the controller validates. HTMX posts form-encoded bodies by default and
// JSON when json-enc is enabled, so both are accepted.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finview/internal/app"
	"finview/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// FieldError reports a field that could not be parsed.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Has reports whether key is present with a non-null value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Secret returns a value unmodified so that passwords keep their spaces.
func (p *RequestBodyParser) Secret(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Int returns the integer at key; blank yields zero.
func (p *RequestBodyParser) Int(key string) (int64, error) {
	v := p.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &FieldError{Field: key, Err: err}
	}
	return n, nil
}

// ID returns the identifier at key; blank yields the zero ID.
func (p *RequestBodyParser) ID(key string) (core.ID, error) {
	v := p.Get(key)
	if v == "" {
		return "", nil
	}
	id, err := core.ParseID(v)
	if err != nil {
		return "", &FieldError{Field: key, Err: err}
	}
	return id, nil
}

// Decimal returns the amount at key; blank yields zero.
func (p *RequestBodyParser) Decimal(key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return decimal.Zero, &FieldError{Field: key, Err: err}
	}
	return d, nil
}

// Date returns the date at key; blank yields the zero Date.
func (p *RequestBodyParser) Date(key string) (core.Date, error) {
	d, err := core.ParseDate(p.Get(key))
	if err != nil {
		return core.Date{}, &FieldError{Field: key, Err: err}
	}
	return d, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// collect returns the first error of a sequence of field reads.
func collect(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseGoalForm reads a goal edit buffer. A missing periodType leaves the
// type unset so that validation reports it.
func ParseGoalForm(p *RequestBodyParser, id core.ID) (core.GoalForm, error) {
	form := core.GoalForm{ID: id, Description: p.Get("description")}
	var errs [4]error
	form.Value, errs[0] = p.Decimal("value")
	form.StartDate, errs[1] = p.Date("startDate")
	form.SingleDate, errs[2] = p.Date("singleDate")
	if p.Has("periodType") && p.Get("periodType") != "" {
		var n int64
		n, errs[3] = p.Int("periodType")
		period := core.GoalPeriodType(n)
		form.PeriodType = &period
	}
	return form, collect(errs[:]...)
}

// ParseTransaction reads a transaction edit buffer.
func ParseTransaction(p *RequestBodyParser, id core.ID) (core.Transaction, error) {
	tx := core.Transaction{ID: id, Description: p.Get("description")}
	var errs [4]error
	var typ, recurrence int64
	typ, errs[0] = p.Int("type")
	recurrence, errs[1] = p.Int("recurrenceType")
	tx.Amount, errs[2] = p.Decimal("amount")
	tx.TransactionDate, errs[3] = p.Date("transactionDate")
	tx.Type = core.TransactionType(typ)
	tx.RecurrenceType = core.RecurrenceType(recurrence)
	return tx, collect(errs[:]...)
}

// ParseEnvironment reads an environment edit buffer.
func ParseEnvironment(p *RequestBodyParser, id core.ID) (core.Environment, error) {
	env := core.Environment{ID: id, Name: p.Get("name"), Description: p.Get("description")}
	typ, err := p.Int("type")
	env.Type = core.EnvironmentType(typ)
	return env, err
}

// ParseUserUpdate reads the profile edit buffer including the password pair.
func ParseUserUpdate(p *RequestBodyParser) (core.UserUpdate, error) {
	id, err := p.ID("id")
	return core.UserUpdate{
		ID:          id,
		Name:        p.Get("name"),
		Email:       p.Get("email"),
		OldPassword: p.Secret("oldPassword"),
		NewPassword: p.Secret("newPassword"),
	}, err
}

// ParseCredentials reads the login form.
func ParseCredentials(p *RequestBodyParser) core.Credentials {
	return core.Credentials{Email: p.Get("email"), Password: p.Secret("password")}
}

// ParseRegistration reads the sign-up form.
func ParseRegistration(p *RequestBodyParser) core.Registration {
	return core.Registration{Name: p.Get("name"), Email: p.Get("email"), Password: p.Secret("password")}
}

// ParseDashboardFilters reads the optional dashboard filter query. Each
// filter is applied only when at least one of its keys is present.
func ParseDashboardFilters(query url.Values) (*app.DashboardFilters, error) {
	var filters app.DashboardFilters

	if query.Has("startDate") || query.Has("endDate") {
		start, err := core.ParseDate(query.Get("startDate"))
		if err != nil {
			return nil, &FieldError{Field: "startDate", Err: err}
		}
		end, err := core.ParseDate(query.Get("endDate"))
		if err != nil {
			return nil, &FieldError{Field: "endDate", Err: err}
		}
		filters.Balance = &core.BalanceFilter{Start: start, End: end}
	}

	if query.Has("periodValue") || query.Has("isYear") {
		pf := core.ProjectionFilter{}
		if v := strings.TrimSpace(query.Get("periodValue")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, &FieldError{Field: "periodValue", Err: err}
			}
			pf.PeriodValue = n
		}
		if v := strings.TrimSpace(query.Get("isYear")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, &FieldError{Field: "isYear", Err: err}
			}
			pf.IsYear = b
		}
		filters.Projection = &pf
	}

	if filters.Balance == nil && filters.Projection == nil {
		return nil, nil
	}
	return &filters, nil
}
