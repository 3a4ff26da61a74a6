package parse

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

const defaultLabel = "Required Information"

// Parser runs the full detection pipeline over document text: detect
// candidates, analyze context, classify, derive names and question hints,
// and assign a document-unique marker per placeholder.
type Parser struct {
	completer  llm.Completer
	log        *logging.Logger
	detector   *Detector
	analyzer   *ContextAnalyzer
	classifier *Classifier
}

func NewParser(completer llm.Completer, log *logging.Logger) *Parser {
	return &Parser{
		completer:  completer,
		log:        log,
		detector:   NewDetector(completer, log),
		analyzer:   NewContextAnalyzer(completer, log),
		classifier: NewClassifier(completer, log),
	}
}

// Parse returns placeholders in document order. The list is empty, not an
// error, when the text contains no valid candidates.
func (p *Parser) Parse(ctx context.Context, documentText string) []domain.Placeholder {
	detections := p.detector.Detect(ctx, documentText)
	p.log.Info("placeholder detection finished", "candidates", len(detections))

	placeholders := make([]domain.Placeholder, 0, len(detections))
	for _, detection := range detections {
		analysis := p.analyzer.Analyze(ctx, detection.Text, detection.ContextBefore, detection.ContextAfter)
		classification := p.classifier.Classify(ctx, detection.Text, analysis.SemanticMeaning,
			detection.ContextBefore+" ... "+detection.ContextAfter)

		name := strings.Trim(detection.Text, "[]{}()<>_ \t")
		if name == "" {
			// Pure blank fills like [____] carry no label of their own.
			name = p.nameFromContext(ctx, detection.ContextBefore, detection.ContextAfter, analysis.SemanticMeaning)
		}

		hint := p.questionHint(ctx, detection.Text, name, analysis.SemanticMeaning, classification.Type)

		var rules []string
		if analysis.ValidationHints != "" {
			rules = []string{analysis.ValidationHints}
		}

		placeholders = append(placeholders, domain.Placeholder{
			Name:         name,
			OriginalText: detection.Text,
			UniqueMarker: NewMarker(),
			MatchPattern: regexp.QuoteMeta(detection.Text),
			Analysis: &domain.Analysis{
				ContextBefore:   detection.ContextBefore,
				ContextAfter:    detection.ContextAfter,
				InferredType:    classification.Type,
				Confidence:      min(detection.Confidence, classification.Confidence),
				ValidationRules: rules,
				QuestionHint:    hint,
			},
		})
	}

	return placeholders
}

// NewMarker returns a fresh document-unique opaque marker. Markers are never
// reused and never collide even when two placeholders share OriginalText.
func NewMarker() string {
	id := uuid.New()
	return fmt.Sprintf("{{PLACEHOLDER_%s}}", strings.ToUpper(hex.EncodeToString(id[:4])))
}

// nameFromContext asks the model for a concise label for a blank fill.
func (p *Parser) nameFromContext(ctx context.Context, before, after, semanticMeaning string) string {
	prompt := fmt.Sprintf(`Extract a short, descriptive name (2-4 words) for a blank placeholder based on context.

CONTEXT BEFORE: ...%s
[BLANK PLACEHOLDER]
CONTEXT AFTER: %s...

SEMANTIC MEANING: %s

Extract what this blank represents. Be specific and concise.

EXAMPLES:
Context: "payment by [___]" -> "Investor Name"
Context: "of $[___]" -> "Purchase Amount"
Context: "Date: [___]" -> "Date"
Context: "Company Name: [___]" -> "Company Name"

Return ONLY the name (2-4 words):`, tail(before, 100), head(after, 100), semanticMeaning)

	response, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return defaultLabel
	}
	name := strings.Trim(strings.TrimSpace(response), `"' `)
	if name == "" {
		return defaultLabel
	}
	return name
}

// questionHint precomputes the question shown when this placeholder comes up.
func (p *Parser) questionHint(ctx context.Context, placeholder, name, semanticMeaning string, ptype domain.PlaceholderType) string {
	prompt := fmt.Sprintf(`Create a clear question to ask a user to fill in this information.

Placeholder Text: %s
Field Name: %s
Meaning: %s
Type: %s

Generate a natural, professional question asking for the "%s".
Include format hints if needed (e.g., for dates, emails).

Return ONLY the question:`, placeholder, name, semanticMeaning, ptype, name)

	response, err := p.completer.Complete(ctx, prompt)
	if err == nil {
		if hint := strings.TrimSpace(response); hint != "" {
			return hint
		}
	}

	if strings.TrimSpace(name) != "" {
		return fmt.Sprintf("What is the %s?", name)
	}
	return "Please provide the required information."
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
