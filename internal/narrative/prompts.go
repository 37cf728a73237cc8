package narrative

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cleared-dev/spendsight/internal/model"
)

// SystemPrompt fixes the response schema for every request.
const SystemPrompt = `You are a personal finance analyst. You receive a JSON list of bank transactions.
Negative amounts are money spent, positive amounts are money received.

You MUST respond with ONLY raw JSON. No explanation. No markdown.

Use this JSON format:

{
  "analysis": "two or three sentences summarising the spending",
  "insights": [
    {
      "type": "saving_opportunity" | "spending_pattern" | "anomaly" | "forecast",
      "title": "short title",
      "description": "one or two sentences",
      "impact": number (monetary amount, 0 if not quantifiable),
      "confidence": number between 0 and 1,
      "category": "spending category or empty string",
      "actionable": true | false,
      "action": {
        "type": "reduce_spending" | "set_budget" | "review_subscription" | "consolidate_payments",
        "description": "what the user should do"
      }
    }
  ]
}

Return at most 5 insights. Omit "action" when actionable is false. NEVER invent transactions.`

const analysisRequest = `Analyse these transactions and report the most useful insights.

Transactions:
%s`

const questionRequest = `Answer the question below using only these transactions.

Question: %s
Focus: %s

Transactions:
%s`

// PayloadTransaction is the wire shape of one transaction sent to the model.
type PayloadTransaction struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// Payload is the transaction context sent with every prompt.
type Payload struct {
	Currency     string               `json:"currency"`
	Transactions []PayloadTransaction `json:"transactions"`
}

// NewPayload converts txns in order.
func NewPayload(currency string, txns []model.Transaction) Payload {
	p := Payload{Currency: currency, Transactions: make([]PayloadTransaction, 0, len(txns))}
	for _, t := range txns {
		p.Transactions = append(p.Transactions, PayloadTransaction{
			ID:          t.ID,
			Date:        t.Timestamp.Format(time.DateOnly),
			Amount:      t.Amount.StringFixed(2),
			Description: t.Description,
			Category:    t.Category,
		})
	}
	return p
}

// AnalysisPrompt builds the general analysis request.
func AnalysisPrompt(p Payload) (Prompt, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Prompt{System: SystemPrompt, User: fmt.Sprintf(analysisRequest, data)}, nil
}

// QuestionPrompt scopes the request to a single question.
func QuestionPrompt(p Payload, question, focus string) (Prompt, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Prompt{System: SystemPrompt, User: fmt.Sprintf(questionRequest, question, focus, data)}, nil
}
