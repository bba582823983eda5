package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/services"
)

const maxBodyBytes = 1 << 20

// badRequestError marks input that could not be decoded at all.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &badRequestError{"request body is empty"}
		case errors.As(err, &maxErr):
			return &badRequestError{fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
		default:
			return &badRequestError{"invalid JSON: " + err.Error()}
		}
	}
	if dec.More() {
		return &badRequestError{"request body must contain a single JSON object"}
	}
	return nil
}

// monthParam reads a YYYY-MM query parameter, defaulting to the month of now.
func monthParam(r *http.Request, key string, now time.Time) (core.YearMonth, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return core.YearMonthOf(now), nil
	}
	ym, err := core.ParseYearMonth(v)
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("%w: %s: %w", services.ErrValidation, key, err)
	}
	return ym, nil
}

// referenceTime resolves the progress reference date: the first day of ?at=
// when given, now otherwise.
func referenceTime(r *http.Request, now time.Time) (time.Time, error) {
	if strings.TrimSpace(r.URL.Query().Get("at")) == "" {
		return now, nil
	}
	ym, err := monthParam(r, "at", now)
	if err != nil {
		return time.Time{}, err
	}
	return ym.FirstDay().Time, nil
}

func validationError(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", services.ErrValidation, field, err)
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
