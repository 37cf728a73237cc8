package importer

import (
	"bufio"
	"fmt"
	"io"
	"unicode"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/truelayer"
)

// JSONParser accepts either a bare array of transaction records or a saved
// TrueLayer reply, picking by the first non-space byte.
type JSONParser struct {
	// Currency is the run currency for bare records. Empty adopts the
	// first record's currency.
	Currency string
}

func (p *JSONParser) Format() string { return "json" }

func (p *JSONParser) Extension() string { return ".json" }

func (p *JSONParser) Parse(r io.Reader) (ParseResult, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return ParseResult{}, fmt.Errorf("reading JSON: %w", err)
	}

	switch first {
	case '[':
		txns, skipped, err := ingest.DecodeJSON(br, p.Currency)
		if err != nil {
			return ParseResult{}, err
		}
		return ParseResult{Transactions: txns, Skipped: skipped}, nil
	case '{':
		txns, skipped, err := truelayer.DecodeTransactions(br)
		if err != nil {
			return ParseResult{}, err
		}
		return ParseResult{Transactions: txns, Skipped: skipped}, nil
	default:
		return ParseResult{}, fmt.Errorf("unexpected JSON start %q", first)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
