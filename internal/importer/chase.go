package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports.
type ChaseParser struct {
	// Currency is stamped on every row. Empty means USD.
	Currency string
}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

func (p *ChaseParser) Extension() string { return ".csv" }

// Parse reads a Chase CSV. Rows with the wrong field count, a bad date or a
// bad amount are skipped.
func (p *ChaseParser) Parse(r io.Reader) (ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return ParseResult{}, fmt.Errorf("reading chase CSV: %w", err)
	}

	var res ParseResult
	if len(records) <= 1 {
		return res, nil
	}

	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	seen := make(map[string]int)
	for i, rec := range records[1:] {
		row := i + 2
		txn, err := parseChaseRow(rec, currency)
		if err != nil {
			res.Skipped = append(res.Skipped, ingest.ValidationError{Index: row, Field: "row", Description: err.Error()})
			continue
		}
		// Same-day purchases at one merchant share a reference.
		seen[txn.ID]++
		if n := seen[txn.ID]; n > 1 {
			txn.ID = fmt.Sprintf("%s_%d", txn.ID, n)
		}
		res.Transactions = append(res.Transactions, txn)
	}
	return res, nil
}

func parseChaseRow(rec []string, currency string) (model.Transaction, error) {
	if len(rec) != chaseNumFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", chaseNumFields, len(rec))
	}
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	desc := strings.TrimSpace(rec[chaseColDesc])
	return model.Transaction{
		ID:          makeChaseRef(date, desc),
		Timestamp:   date,
		Amount:      amount,
		Description: desc,
		Currency:    currency,
	}, nil
}

// makeChaseRef creates a reference like chase_20250103_GITHUB.
func makeChaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), prefix)
}
