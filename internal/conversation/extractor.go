package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

const historyWindow = 4

// ExtractionResult is a candidate value pulled out of a user message.
// ExtractedValue is nil when no value could be determined.
type ExtractionResult struct {
	ExtractedValue     *string
	Confidence         float64
	NeedsClarification bool
	Reasoning          string
}

var (
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

	questionWords = []string{"what", "how", "why", "when", "where", "which", "who", "?"}

	// Ordered: specific phrasings before the generic subject-first form.
	extractionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:is|are|was|were)\s+(.+)$`),
		regexp.MustCompile(`(?i)(?:it's|its)\s+(.+)$`),
		regexp.MustCompile(`(?i)(?:called|named)\s+(.+)$`),
		regexp.MustCompile(`(?i)^(.+?)\s+(?:is|was|are).*`),
	}

	trailingClauseRe = regexp.MustCompile(`(?i)\s+and\s+it.*$`)
)

// Extractor parses a free-text reply into a candidate value for the current
// placeholder, stripping filler phrasing ("my name is X" -> "X"). Model
// failures fall back to deterministic pattern rules.
type Extractor struct {
	completer llm.Completer
	log       *logging.Logger
}

func NewExtractor(completer llm.Completer, log *logging.Logger) *Extractor {
	return &Extractor{completer: completer, log: log}
}

func (e *Extractor) Extract(ctx context.Context, userMessage string, placeholder *domain.Placeholder, history []domain.Message) ExtractionResult {
	inferredType := domain.TypeText
	var contextParts []string
	if placeholder.Analysis != nil {
		inferredType = placeholder.Analysis.InferredType
		contextParts = append(contextParts,
			fmt.Sprintf("Expected Type: %s", inferredType),
			fmt.Sprintf("Context: %s...%s", placeholder.Analysis.ContextBefore, placeholder.Analysis.ContextAfter))
		if len(placeholder.Analysis.ValidationRules) > 0 {
			contextParts = append(contextParts, "Rules: "+strings.Join(placeholder.Analysis.ValidationRules, ", "))
		}
	}

	var historyLines []string
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		historyLines = append(historyLines, msg.Role+": "+msg.Content)
	}

	prompt := fmt.Sprintf(`Extract the value from user's message.

Placeholder: %s
Type: %s
%s
Recent conversation:
%s
User said: "%s"

TASK: Extract ONLY the actual value, removing filler words.

EXAMPLES:
"My company name is Lexsy" -> "Lexsy"
"It's Acme Corporation" -> "Acme Corporation"
"The investor name is YC and it is company" -> "YC"
"John Smith" -> "John Smith"
"john@example.com" -> "john@example.com"
"The date is 12/25/2024" -> "12/25/2024"
"123 Main Street, Tempe, Arizona" -> "123 Main Street, Tempe, Arizona"
"What format?" -> null (question, needs clarification)
"I'm not sure" -> null (unclear)
"yes" -> null (ambiguous)

BE AGGRESSIVE: Extract the value even from long sentences. Look for the actual content after "is", "name is", "it's", etc.

JSON response:
{
    "extracted_value": "extracted value or null",
    "confidence": 0.9,
    "needs_clarification": false,
    "reasoning": "Extracted from sentence"
}`, placeholder.Name, inferredType, strings.Join(contextParts, "\n"), strings.Join(historyLines, "\n"), userMessage)

	response, err := e.completer.Complete(ctx, prompt)
	if err == nil {
		if result, ok := parseExtraction(response); ok {
			return result
		}
	}

	e.log.Warn("value extraction degraded to pattern rules", "placeholder", placeholder.Name)
	return fallbackExtraction(userMessage)
}

func parseExtraction(response string) (ExtractionResult, bool) {
	raw := jsonObjectRe.FindString(response)
	if raw == "" {
		return ExtractionResult{}, false
	}

	var payload struct {
		ExtractedValue     *string `json:"extracted_value"`
		Confidence         float64 `json:"confidence"`
		NeedsClarification bool    `json:"needs_clarification"`
		Reasoning          string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ExtractionResult{}, false
	}

	// Models sometimes answer with the string "null" instead of JSON null.
	if payload.ExtractedValue != nil && strings.EqualFold(strings.TrimSpace(*payload.ExtractedValue), "null") {
		payload.ExtractedValue = nil
	}

	return ExtractionResult{
		ExtractedValue:     payload.ExtractedValue,
		Confidence:         payload.Confidence,
		NeedsClarification: payload.NeedsClarification,
		Reasoning:          payload.Reasoning,
	}, true
}

// fallbackExtraction applies the deterministic ladder: question detection,
// minimum length, filler-phrase patterns, then verbatim acceptance for short
// messages at reduced confidence.
func fallbackExtraction(message string) ExtractionResult {
	message = strings.TrimSpace(message)
	lower := strings.ToLower(message)

	for _, word := range questionWords {
		if strings.Contains(lower, word) {
			return ExtractionResult{
				NeedsClarification: true,
				Reasoning:          "Message appears to be a question",
			}
		}
	}

	if len(message) < 2 {
		return ExtractionResult{
			NeedsClarification: true,
			Reasoning:          "Message too short",
		}
	}

	for _, pattern := range extractionPatterns {
		m := pattern.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		extracted := strings.TrimSpace(m[1])
		extracted = strings.TrimSpace(trailingClauseRe.ReplaceAllString(extracted, ""))
		if len(extracted) > 1 {
			return ExtractionResult{
				ExtractedValue: &extracted,
				Confidence:     0.75,
				Reasoning:      "Extracted using pattern matching",
			}
		}
	}

	if len(message) < 200 {
		return ExtractionResult{
			ExtractedValue: &message,
			Confidence:     0.6,
			Reasoning:      "Direct input without pattern",
		}
	}

	return ExtractionResult{
		NeedsClarification: true,
		Reasoning:          "Message too complex",
	}
}
