package truelayer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/model"
)

// Account is the subset of the Data API account we use.
type Account struct {
	ID       string   `json:"account_id"`
	Name     string   `json:"display_name"`
	Currency string   `json:"currency"`
	Provider Provider `json:"provider"`
}

type Provider struct {
	ID   string `json:"provider_id"`
	Name string `json:"display_name"`
}

type accountsReply struct {
	Results []Account `json:"results"`
}

// Transaction is a Data API transaction record.
type Transaction struct {
	ID             string          `json:"transaction_id"`
	Timestamp      string          `json:"timestamp"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Type           string          `json:"transaction_type"` // DEBIT or CREDIT
	Category       string          `json:"transaction_category"`
	Classification []string        `json:"transaction_classification"`
	Merchant       string          `json:"merchant_name"`
}

type transactionsReply struct {
	Results []json.RawMessage `json:"results"`
}

// ToTransaction maps the wire record. DEBIT records are forced negative, and
// the first classification label, when present, becomes the category hint.
func (t Transaction) ToTransaction() (model.Transaction, error) {
	if t.ID == "" {
		return model.Transaction{}, fmt.Errorf("missing transaction_id")
	}
	ts, err := ingest.ParseTime(t.Timestamp)
	if err != nil {
		return model.Transaction{}, err
	}
	amount := t.Amount
	if strings.EqualFold(t.Type, "DEBIT") && amount.IsPositive() {
		amount = amount.Neg()
	}
	var category string
	if len(t.Classification) > 0 {
		category = t.Classification[0]
	}
	return model.Transaction{
		ID:           t.ID,
		Timestamp:    ts,
		Amount:       amount,
		Description:  strings.TrimSpace(t.Description),
		MerchantName: strings.TrimSpace(t.Merchant),
		Category:     category,
		Currency:     strings.ToUpper(t.Currency),
	}, nil
}

// DecodeTransactions reads a {"results":[...]} body. Records that cannot be
// mapped are skipped and reported.
func DecodeTransactions(r io.Reader) ([]model.Transaction, []ingest.ValidationError, error) {
	var reply transactionsReply
	if err := json.NewDecoder(r).Decode(&reply); err != nil {
		return nil, nil, fmt.Errorf("decoding transactions: %w", err)
	}

	txns := make([]model.Transaction, 0, len(reply.Results))
	var skipped []ingest.ValidationError
	for i, raw := range reply.Results {
		var wire Transaction
		if err := json.Unmarshal(raw, &wire); err != nil {
			skipped = append(skipped, ingest.ValidationError{Index: i, Field: "record", Description: err.Error()})
			continue
		}
		txn, err := wire.ToTransaction()
		if err != nil {
			skipped = append(skipped, ingest.ValidationError{Index: i, ID: wire.ID, Field: "record", Description: err.Error()})
			continue
		}
		txns = append(txns, txn)
	}
	return txns, skipped, nil
}
