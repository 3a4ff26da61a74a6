package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

// ContextAnalysis captures what the text surrounding a candidate says about
// the value it expects.
type ContextAnalysis struct {
	SemanticMeaning string `json:"semantic_meaning"`
	LegalPurpose    string `json:"legal_purpose"`
	RequiredFormat  string `json:"required_format"`
	ValidationHints string `json:"validation_hints"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON pulls the outermost JSON object out of a model reply, which
// may wrap it in prose or code fences.
func extractJSON(response string) (string, bool) {
	m := jsonObjectRe.FindString(response)
	return m, m != ""
}

// ContextAnalyzer derives semantic meaning, purpose, expected format and
// validation hints for one detection. It always yields a result: a keyword
// fallback covers provider failures and malformed replies.
type ContextAnalyzer struct {
	completer llm.Completer
	log       *logging.Logger
}

func NewContextAnalyzer(completer llm.Completer, log *logging.Logger) *ContextAnalyzer {
	return &ContextAnalyzer{completer: completer, log: log}
}

func (a *ContextAnalyzer) Analyze(ctx context.Context, placeholder, before, after string) ContextAnalysis {
	prompt := fmt.Sprintf(`You are analyzing a placeholder in a legal document. Provide detailed context analysis.

Placeholder: %s
Text before: %s
Text after: %s

Analyze and provide:
1. Semantic meaning: What does this placeholder represent? (e.g., "Party's full legal name", "Contract effective date")
2. Legal purpose: Why is this information needed in the legal document? (e.g., "To identify the contracting party", "To establish contract validity period")
3. Required format: What format should the value be in? (e.g., "Full name in format: First Last", "Date in MM/DD/YYYY format")
4. Validation hints: How can we validate if the provided value is correct? (e.g., "Must be alphabetic characters only", "Must be a valid date")

Respond in JSON format:
{
    "semantic_meaning": "...",
    "legal_purpose": "...",
    "required_format": "...",
    "validation_hints": "..."
}`, placeholder, before, after)

	response, err := a.completer.Complete(ctx, prompt)
	if err == nil {
		if raw, ok := extractJSON(response); ok {
			var result ContextAnalysis
			if jerr := json.Unmarshal([]byte(raw), &result); jerr == nil {
				return result
			}
		}
	}

	a.log.Warn("context analysis degraded to heuristic", "placeholder", placeholder)
	return fallbackAnalysis(placeholder)
}

func fallbackAnalysis(placeholder string) ContextAnalysis {
	lower := strings.ToLower(placeholder)

	switch {
	case strings.Contains(lower, "name"):
		return ContextAnalysis{
			SemanticMeaning: "A person's or entity's name",
			LegalPurpose:    "To identify a party in the legal document",
			RequiredFormat:  "Full name, typically First Last or Entity Name",
			ValidationHints: "Should contain alphabetic characters and possibly spaces",
		}
	case strings.Contains(lower, "date"):
		return ContextAnalysis{
			SemanticMeaning: "A date value",
			LegalPurpose:    "To establish timing or deadline in the document",
			RequiredFormat:  "Date in MM/DD/YYYY or similar format",
			ValidationHints: "Must be a valid date",
		}
	case strings.Contains(lower, "address"):
		return ContextAnalysis{
			SemanticMeaning: "A physical or mailing address",
			LegalPurpose:    "To identify location for legal purposes",
			RequiredFormat:  "Street, City, State, ZIP",
			ValidationHints: "Should contain street, city, state components",
		}
	default:
		return ContextAnalysis{
			SemanticMeaning: "A text value to be filled",
			LegalPurpose:    "Information required for document completion",
			RequiredFormat:  "Text format",
			ValidationHints: "Should be non-empty text",
		}
	}
}
