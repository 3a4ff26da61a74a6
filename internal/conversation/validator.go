package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

// ValidationResult is the outcome of hybrid validation for one value.
type ValidationResult struct {
	IsValid             bool    `json:"isValid"`
	Confidence          float64 `json:"confidence"`
	Message             string  `json:"message"`
	SuggestedCorrection string  `json:"suggestedCorrection,omitempty"`
}

type ruleResult struct {
	passed     bool
	confidence float64
	message    string
	suggestion string
}

var (
	emailRe          = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneSeparatorRe = regexp.MustCompile(`[\s\-()+ ]`)
	currencyRe       = regexp.MustCompile(`[$,€£¥\s]`)
	digitsOnlyRe     = regexp.MustCompile(`^[0-9]+$`)
	hasLetterRe      = regexp.MustCompile(`[a-zA-Z]`)
	alphaOnlyRe      = regexp.MustCompile(`^[a-zA-Z]+$`)
)

// Validator combines deterministic type rules with a model confidence score.
// A rule failure short-circuits before any model call; a rule pass is
// blended with the model's contextual plausibility score.
type Validator struct {
	completer llm.Completer
	log       *logging.Logger
}

func NewValidator(completer llm.Completer, log *logging.Logger) *Validator {
	return &Validator{completer: completer, log: log}
}

func (v *Validator) Validate(ctx context.Context, value string, ptype domain.PlaceholderType, surrounding string, rules []string) ValidationResult {
	rule := ruleCheck(value, ptype)
	if !rule.passed {
		return ValidationResult{
			IsValid:             false,
			Confidence:          0,
			Message:             rule.message,
			SuggestedCorrection: rule.suggestion,
		}
	}

	llmConfidence := v.confidenceCheck(ctx, value, ptype, surrounding)

	// Blend weights are tuned, not principled: trust the rules half-and-half
	// when they were confident, lean on the model otherwise.
	var final float64
	if rule.confidence >= 0.75 {
		final = rule.confidence*0.5 + llmConfidence*0.5
	} else {
		final = rule.confidence*0.4 + llmConfidence*0.6
	}

	return ValidationResult{
		IsValid:    final > 0.5,
		Confidence: final,
		Message:    resultMessage(final, ptype),
	}
}

func ruleCheck(value string, ptype domain.PlaceholderType) ruleResult {
	switch ptype {
	case domain.TypeEmail:
		return validateEmail(value)
	case domain.TypePhone:
		return validatePhone(value)
	case domain.TypeDate:
		return validateDate(value)
	case domain.TypeNumber:
		return validateNumber(value)
	case domain.TypeAddress:
		return validateAddress(value)
	default: // TEXT, BOOLEAN, UNKNOWN
		return validateText(value)
	}
}

func validateEmail(value string) ruleResult {
	if !emailRe.MatchString(value) {
		return ruleResult{
			message:    "Invalid email format. Please use format like: user@example.com",
			suggestion: "e.g., john@company.com",
		}
	}
	return ruleResult{passed: true, confidence: 0.95, message: "Valid email format"}
}

func validatePhone(value string) ruleResult {
	digits := phoneSeparatorRe.ReplaceAllString(value, "")

	if !digitsOnlyRe.MatchString(digits) {
		return ruleResult{
			message:    "Phone number should contain only digits and separators",
			suggestion: "e.g., +1-555-123-4567 or 5551234567",
		}
	}

	if len(digits) < 10 || len(digits) > 15 {
		return ruleResult{
			message:    fmt.Sprintf("Phone number should be 10-15 digits (got %d)", len(digits)),
			suggestion: "Include country code if international",
		}
	}

	return ruleResult{passed: true, confidence: 0.9, message: "Valid phone format"}
}

func validateDate(value string) ruleResult {
	parsed, err := dateparse.ParseAny(value)
	if err != nil {
		return ruleResult{
			message:    "Could not parse date. Please use format like: MM/DD/YYYY or YYYY-MM-DD",
			suggestion: "e.g., 12/25/2024 or 2024-12-25",
		}
	}

	currentYear := time.Now().Year()
	if parsed.Year() < 1900 || parsed.Year() > currentYear+50 {
		return ruleResult{
			message:    fmt.Sprintf("Date year %d seems unusual", parsed.Year()),
			suggestion: "Please double-check the year",
		}
	}

	return ruleResult{passed: true, confidence: 0.9, message: "Valid date format"}
}

func validateNumber(value string) ruleResult {
	cleaned := currencyRe.ReplaceAllString(value, "")

	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return ruleResult{
			message:    "Not a valid number",
			suggestion: "e.g., 1234.56 or $1,234.56",
		}
	}
	return ruleResult{passed: true, confidence: 0.95, message: "Valid number"}
}

func validateAddress(value string) ruleResult {
	trimmed := strings.TrimSpace(value)

	// Two-letter state codes are accepted as-is.
	if len(trimmed) == 2 && alphaOnlyRe.MatchString(trimmed) {
		return ruleResult{passed: true, confidence: 0.85, message: "Valid (state code)"}
	}

	if len(trimmed) < 3 {
		return ruleResult{
			message:    "Too short",
			suggestion: "AZ or 123 Main St, City, State",
		}
	}

	if !hasLetterRe.MatchString(value) {
		return ruleResult{
			message:    "Invalid format",
			suggestion: "AZ or 123 Main St, City, State",
		}
	}

	return ruleResult{passed: true, confidence: 0.85, message: "Valid"}
}

func validateText(value string) ruleResult {
	trimmed := strings.TrimSpace(value)

	if len(trimmed) == 0 {
		return ruleResult{message: "Value cannot be empty"}
	}
	if len(trimmed) == 1 {
		return ruleResult{passed: true, confidence: 0.75, message: "Valid (short input)"}
	}
	return ruleResult{passed: true, confidence: 0.9, message: "Valid"}
}

// confidenceCheck scores contextual plausibility with the model. A provider
// failure returns 0.7: the value already passed the deterministic rules, so
// the policy fails open rather than blocking the turn.
func (v *Validator) confidenceCheck(ctx context.Context, value string, ptype domain.PlaceholderType, surrounding string) float64 {
	if len(surrounding) > 200 {
		surrounding = surrounding[:200]
	}

	prompt := fmt.Sprintf(`Validate this input for a legal document.

Type: %s
Value: "%s"
Context: %s

Rate confidence 0.0-1.0:
- 0.9-1.0: Perfect match
- 0.7-0.89: Good, acceptable
- 0.5-0.69: Questionable but might work
- 0.0-0.49: Invalid

Be lenient for TEXT type. Names, companies, addresses with reasonable format should score 0.8+.

Respond with ONLY a number (e.g., 0.85):`, ptype, value, surrounding)

	response, err := v.completer.Complete(ctx, prompt)
	if err != nil {
		v.log.Warn("validation confidence check degraded", "type", string(ptype))
		return 0.7
	}

	confidence, err := strconv.ParseFloat(strings.TrimSpace(response), 64)
	if err != nil {
		return 0.7
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func resultMessage(confidence float64, ptype domain.PlaceholderType) string {
	if confidence >= 0.6 {
		return "Accepted"
	}
	return fmt.Sprintf("Invalid %s", ptype)
}
