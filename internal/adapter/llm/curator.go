package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ishanyash/btr-propflip/internal/domain"
)

const systemPrompt = "You are a UK property valuation expert. Answer with a single JSON object and nothing else."

const defaultExplanation = "Valuation based on current market data."

// Curator implements domain.Curator on top of a Completer.
type Curator struct {
	completer Completer
}

// NewCurator creates a curator backed by completer.
func NewCurator(completer Completer) *Curator {
	return &Curator{completer: completer}
}

// Curate asks the model whether the computed valuation is reasonable. Every
// failure wraps domain.ErrCuratorUnavailable.
func (c *Curator) Curate(ctx context.Context, summary domain.ValuationSummary) (domain.Commentary, error) {
	prompt, err := buildPrompt(summary)
	if err != nil {
		return domain.Unavailable(), fmt.Errorf("%w: %w", domain.ErrCuratorUnavailable, err)
	}

	reply, err := c.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return domain.Unavailable(), fmt.Errorf("%s: %w: %w", c.completer.Name(), domain.ErrCuratorUnavailable, err)
	}

	commentary, err := parseReply(reply)
	if err != nil {
		return domain.Unavailable(), fmt.Errorf("%s: %w: %w", c.completer.Name(), domain.ErrCuratorUnavailable, err)
	}
	commentary.Provider = c.completer.Name()
	return commentary, nil
}

func buildPrompt(s domain.ValuationSummary) (string, error) {
	facts, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}

	var b strings.Builder
	if s.EstimatedValue != nil {
		fmt.Fprintf(&b, "We estimate the %s at %q at £%s.\n",
			orProperty(s.PropertyType), s.Address, domain.FormatPounds(*s.EstimatedValue))
	} else {
		fmt.Fprintf(&b, "We have no sale-based estimate for the %s at %q.\n", orProperty(s.PropertyType), s.Address)
	}
	b.WriteString("Using your knowledge of the UK property market and the data below:\n")
	b.WriteString("1. Is this valuation reasonable?\n")
	b.WriteString("2. If not, what would be a more accurate valuation?\n")
	b.WriteString("3. What factors might affect it?\n\n")
	b.WriteString("Data:\n")
	b.Write(facts)
	b.WriteString("\n\nRespond with a JSON object with these fields:\n")
	b.WriteString("- curated_value: your estimate in GBP as a plain number\n")
	b.WriteString(`- confidence: "high", "medium" or "low"` + "\n")
	b.WriteString("- explanation: a brief explanation of your valuation\n")
	return b.String(), nil
}

func orProperty(propertyType string) string {
	if propertyType == "" {
		return "property"
	}
	return strings.ToLower(propertyType) + " property"
}

type reply struct {
	CuratedValue json.RawMessage `json:"curated_value"`
	Confidence   string          `json:"confidence"`
	Explanation  string          `json:"explanation"`
}

// parseReply extracts the JSON object between the first '{' and the last '}'
// of a model reply, tolerating prose or code fences around it.
func parseReply(text string) (domain.Commentary, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Commentary{}, errors.New("no JSON object in reply")
	}

	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return domain.Commentary{}, fmt.Errorf("decode reply: %w", err)
	}

	c := domain.Commentary{
		Available:    true,
		Text:         strings.TrimSpace(r.Explanation),
		CuratedValue: parseValue(r.CuratedValue),
		Confidence:   strings.ToLower(strings.TrimSpace(r.Confidence)),
	}
	switch c.Confidence {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
	default:
		c.Confidence = domain.ConfidenceMedium
	}
	if c.Text == "" {
		c.Text = defaultExplanation
	}
	return c, nil
}

// parseValue accepts a JSON number or a string such as "£525,000".
func parseValue(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return positive(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.NewReplacer("£", "", ",", "", " ", "").Replace(s)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return positive(n)
}

func positive(n float64) *float64 {
	if n <= 0 {
		return nil
	}
	return &n
}
