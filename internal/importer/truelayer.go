package importer

import (
	"io"

	"github.com/cleared-dev/spendsight/internal/truelayer"
)

// TrueLayerParser reads a saved Data API transactions reply
// ({"results":[...]}).
type TrueLayerParser struct{}

func (p *TrueLayerParser) Format() string { return "truelayer" }

func (p *TrueLayerParser) Extension() string { return ".json" }

func (p *TrueLayerParser) Parse(r io.Reader) (ParseResult, error) {
	txns, skipped, err := truelayer.DecodeTransactions(r)
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{Transactions: txns, Skipped: skipped}, nil
}
