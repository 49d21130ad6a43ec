// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/receipt"
)

// IDResponse is returned by create endpoints that have nothing else to say.
type IDResponse struct {
	ID id.ID `json:"id"`
}

// ErrorResponse documents the error body written by the error middleware.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// ListResponse wraps a list.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse never returns a nil Items slice.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// --- Cashbox references ---

// CashboxRef names a cashbox in a request body. cashboxId wins over
// cashboxCode, which wins over the loose cashbox field (a number or a code).
type CashboxRef struct {
	Cashbox     json.RawMessage `json:"cashbox,omitempty"`
	CashboxID   *id.ID          `json:"cashboxId,omitempty"`
	CashboxCode string          `json:"cashboxCode,omitempty"`
}

// Selector resolves the reference. A zero selector means "use the default".
func (r CashboxRef) Selector() (cashbox.Selector, error) {
	if r.CashboxID != nil {
		return cashbox.ByID(*r.CashboxID), nil
	}
	if strings.TrimSpace(r.CashboxCode) != "" {
		return cashbox.ParseSelector(r.CashboxCode)
	}
	raw := bytes.TrimSpace(r.Cashbox)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return cashbox.Selector{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return cashbox.Selector{}, apperror.NewInvalidRequest("Invalid cashbox reference")
		}
		return cashbox.ParseSelector(s)
	}
	var v id.ID
	if err := json.Unmarshal(raw, &v); err != nil {
		return cashbox.Selector{}, apperror.NewInvalidRequest("Invalid cashbox reference")
	}
	return cashbox.ByID(v), nil
}

// CashboxQuery names a cashbox in query parameters.
type CashboxQuery struct {
	CashboxID   string `form:"cashboxId"`
	CashboxCode string `form:"cashboxCode"`
}

// Selector resolves the query reference.
func (q CashboxQuery) Selector() (cashbox.Selector, error) {
	if q.CashboxID != "" {
		v, err := id.Parse(q.CashboxID)
		if err != nil {
			return cashbox.Selector{}, apperror.NewInvalidRequest("Invalid cashboxId %q", q.CashboxID)
		}
		return cashbox.ByID(v), nil
	}
	return cashbox.ParseSelector(q.CashboxCode)
}

// --- Status override ---

// StatusOverrideFields is embedded by document requests. An empty or AUTO
// status means the status is computed from payments.
type StatusOverrideFields struct {
	StatusOverride     *string `json:"statusOverride,omitempty"`
	StatusOverrideNote string  `json:"statusOverrideNote,omitempty"`
}

// Override converts the fields to a domain override, nil for automatic.
func (f StatusOverrideFields) Override() *receipt.OverrideInput {
	if f.StatusOverride == nil {
		return nil
	}
	status := strings.ToUpper(strings.TrimSpace(*f.StatusOverride))
	if status == "" || status == "AUTO" {
		return nil
	}
	return &receipt.OverrideInput{
		Status: entity.ReceiptStatus(status),
		Note:   strings.TrimSpace(f.StatusOverrideNote),
	}
}

// --- Dates ---

const dateLayout = "2006-01-02"

// ParseDate accepts RFC 3339 timestamps and plain dates. Empty input
// yields nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, apperror.NewInvalidRequest("Invalid date %q", raw)
	}
	return &t, nil
}

// ParseEndDate is ParseDate, except a plain date covers the whole day.
func ParseEndDate(raw string) (*time.Time, error) {
	t, err := ParseDate(raw)
	if err != nil || t == nil {
		return t, err
	}
	if _, perr := time.Parse(time.RFC3339, strings.TrimSpace(raw)); perr != nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &end, nil
	}
	return t, nil
}

// DateRange is the startDate/endDate pair shared by list queries.
type DateRange struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// Parse returns both bounds.
func (r DateRange) Parse() (from, to *time.Time, err error) {
	if from, err = ParseDate(r.StartDate); err != nil {
		return nil, nil, err
	}
	if to, err = ParseEndDate(r.EndDate); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
