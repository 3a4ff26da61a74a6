package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

// Classification assigns one of the closed placeholder types.
type Classification struct {
	Type       domain.PlaceholderType
	Confidence float64
	Reasoning  string
}

var typeDescriptions = []struct {
	name string
	desc string
}{
	{"TEXT", "General text content (names, descriptions, general information)"},
	{"DATE", "Date values (contract dates, deadlines, birthdates)"},
	{"NUMBER", "Numeric values (amounts, quantities, counts)"},
	{"EMAIL", "Email addresses"},
	{"PHONE", "Phone numbers"},
	{"ADDRESS", "Physical addresses"},
	{"BOOLEAN", "Yes/No or True/False values"},
	{"UNKNOWN", "Cannot determine type"},
}

// Classifier picks a semantic type for a candidate. Type strings outside the
// closed set map to UNKNOWN; provider failures fall back to an ordered
// keyword ladder.
type Classifier struct {
	completer llm.Completer
	log       *logging.Logger
}

func NewClassifier(completer llm.Completer, log *logging.Logger) *Classifier {
	return &Classifier{completer: completer, log: log}
}

func (c *Classifier) Classify(ctx context.Context, placeholder, semanticMeaning, surrounding string) Classification {
	var typesList strings.Builder
	for _, t := range typeDescriptions {
		fmt.Fprintf(&typesList, "- %s: %s\n", t.name, t.desc)
	}

	prompt := fmt.Sprintf(`You are classifying a placeholder in a legal document.

Placeholder: %s
Semantic meaning: %s
Context: %s

Available types:
%s
Classify this placeholder into ONE of the above types. Consider:
- What kind of information is being requested?
- What format would the answer take?
- Are there specific keywords that indicate the type?

Respond in JSON format:
{
    "type": "ONE_OF_THE_TYPES_ABOVE",
    "confidence": 0.0-1.0,
    "reasoning": "Brief explanation of why this type"
}`, placeholder, semanticMeaning, surrounding, typesList.String())

	response, err := c.completer.Complete(ctx, prompt)
	if err == nil {
		if raw, ok := extractJSON(response); ok {
			var result struct {
				Type       string  `json:"type"`
				Confidence float64 `json:"confidence"`
				Reasoning  string  `json:"reasoning"`
			}
			if jerr := json.Unmarshal([]byte(raw), &result); jerr == nil {
				reasoning := result.Reasoning
				if reasoning == "" {
					reasoning = "Classification based on model analysis"
				}
				confidence := result.Confidence
				if confidence == 0 {
					confidence = 0.5
				}
				return Classification{
					Type:       domain.ParseType(strings.ToLower(result.Type)),
					Confidence: clamp01(confidence),
					Reasoning:  reasoning,
				}
			}
		}
	}

	c.log.Warn("classification degraded to keyword rules", "placeholder", placeholder)
	return fallbackClassification(placeholder, semanticMeaning)
}

// fallbackClassification applies ordered keyword rules; order matters since
// the first hit wins.
func fallbackClassification(placeholder, semanticMeaning string) Classification {
	text := strings.ToLower(placeholder + " " + semanticMeaning)

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("email", "e-mail"):
		return Classification{Type: domain.TypeEmail, Confidence: 0.9, Reasoning: "Contains email-related keywords"}
	case contains("phone", "telephone", "mobile", "cell"):
		return Classification{Type: domain.TypePhone, Confidence: 0.9, Reasoning: "Contains phone-related keywords"}
	case contains("address", "street", "city", "state", "zip"):
		return Classification{Type: domain.TypeAddress, Confidence: 0.8, Reasoning: "Contains address-related keywords"}
	case contains("date", "day", "month", "year", "when"):
		return Classification{Type: domain.TypeDate, Confidence: 0.8, Reasoning: "Contains date-related keywords"}
	case contains("number", "amount", "quantity", "count", "price", "cost"):
		return Classification{Type: domain.TypeNumber, Confidence: 0.7, Reasoning: "Contains number-related keywords"}
	case contains("yes/no", "true/false", "boolean", "confirm"):
		return Classification{Type: domain.TypeBoolean, Confidence: 0.7, Reasoning: "Contains boolean-related keywords"}
	default:
		return Classification{Type: domain.TypeText, Confidence: 0.6, Reasoning: "Default to TEXT type"}
	}
}
