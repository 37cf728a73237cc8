// Package ingest turns loosely-typed transaction records into
// model.Transaction values, dropping the ones that cannot be trusted.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/model"
)

// Record is a raw transaction as delivered by a data source. Amount is kept
// raw so numbers and numeric strings are both accepted.
type Record struct {
	ID           string          `json:"id"`
	Timestamp    string          `json:"timestamp"`
	Date         string          `json:"date"` // used when timestamp is empty
	Amount       json.RawMessage `json:"amount"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchant_name"`
	Category     string          `json:"category"`
	Currency     string          `json:"currency"`
}

// ValidationError describes a single dropped record.
type ValidationError struct {
	Index       int    `json:"index"`
	ID          string `json:"id,omitempty"`
	Field       string `json:"field"`
	Description string `json:"description"`
}

func (e ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Description)
	}
	return fmt.Sprintf("record %d [%s]: %s: %s", e.Index, e.ID, e.Field, e.Description)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseTime accepts RFC 3339 timestamps, naive date-times (UTC) and dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// ParseAmount accepts a JSON number or a numeric string.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("missing")
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %s", raw)
	}
	return d, nil
}

// Normalize converts records in order. A record with a missing id, an
// unparseable timestamp, a missing or unparseable amount, a duplicate id or
// a currency different from the run currency is dropped and reported. An
// empty currency takes the run currency; an empty run currency is taken from
// the first record that has one.
func Normalize(records []Record, currency string) ([]model.Transaction, []ValidationError) {
	txns := make([]model.Transaction, 0, len(records))
	var errs []ValidationError
	seen := make(map[string]bool, len(records))

	for i, rec := range records {
		id := strings.TrimSpace(rec.ID)
		fail := func(field, desc string) {
			errs = append(errs, ValidationError{Index: i, ID: id, Field: field, Description: desc})
		}

		if id == "" {
			fail("id", "missing")
			continue
		}
		if seen[id] {
			fail("id", "duplicate")
			continue
		}

		when := rec.Timestamp
		if strings.TrimSpace(when) == "" {
			when = rec.Date
		}
		ts, err := ParseTime(when)
		if err != nil {
			fail("timestamp", err.Error())
			continue
		}

		amount, err := ParseAmount(rec.Amount)
		if err != nil {
			fail("amount", err.Error())
			continue
		}

		cur := strings.ToUpper(strings.TrimSpace(rec.Currency))
		if currency == "" {
			currency = cur
		}
		if cur == "" {
			cur = currency
		}
		if cur != currency {
			fail("currency", fmt.Sprintf("%s differs from %s", cur, currency))
			continue
		}

		seen[id] = true
		txns = append(txns, model.Transaction{
			ID:           id,
			Timestamp:    ts,
			Amount:       amount,
			Description:  strings.TrimSpace(rec.Description),
			MerchantName: strings.TrimSpace(rec.MerchantName),
			Category:     strings.TrimSpace(rec.Category),
			Currency:     cur,
		})
	}
	return txns, errs
}

// DecodeJSON reads a JSON array of records. Elements that are not objects
// are reported like any other bad record; only a body that is not an array
// is an error.
func DecodeJSON(r io.Reader, currency string) ([]model.Transaction, []ValidationError, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decoding transactions: %w", err)
	}

	records := make([]Record, len(items))
	var bad []ValidationError
	for i, item := range items {
		if err := json.Unmarshal(item, &records[i]); err != nil {
			bad = append(bad, ValidationError{Index: i, Field: "record", Description: "not a transaction object"})
			records[i] = Record{}
		}
	}

	txns, errs := Normalize(records, currency)
	return txns, merge(bad, errs), nil
}

// merge drops the generic "id missing" error for records already reported
// as undecodable.
func merge(bad, errs []ValidationError) []ValidationError {
	if len(bad) == 0 {
		return errs
	}
	skip := make(map[int]bool, len(bad))
	for _, b := range bad {
		skip[b.Index] = true
	}
	out := bad
	for _, e := range errs {
		if !skip[e.Index] {
			out = append(out, e)
		}
	}
	return out
}

// FromTransaction renders t as a Record that Normalize maps back to t.
func FromTransaction(t model.Transaction) Record {
	return Record{
		ID:           t.ID,
		Timestamp:    t.Timestamp.Format(time.RFC3339Nano),
		Amount:       json.RawMessage(t.Amount.String()),
		Description:  t.Description,
		MerchantName: t.MerchantName,
		Category:     t.Category,
		Currency:     t.Currency,
	}
}
