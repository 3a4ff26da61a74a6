package parse

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

const contextWindow = 150

// Detection is one candidate placeholder span found in the document text.
type Detection struct {
	Text          string
	StartPos      int
	EndPos        int
	ContextBefore string
	ContextAfter  string
	Confidence    float64
}

// Ordered from most to least specific. A later, broader pattern must not
// re-claim a position an earlier pattern already matched; Detect dedupes by
// start offset.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[([A-Z][A-Za-z\s]{2,50})\]`),
	regexp.MustCompile(`\[([A-Za-z_\s]{3,50})\]`),
	regexp.MustCompile(`\{([A-Za-z_\s]{3,50})\}`),
	regexp.MustCompile(`<([A-Za-z_\s]{3,50})>`),
	regexp.MustCompile(`\{\{([A-Za-z_\s]{3,50})\}\}`),
	regexp.MustCompile(`\[\[([A-Za-z_\s]{3,50})\]\]`),
	regexp.MustCompile(`\[_{2,10}\]`),
}

var (
	bracketStripRe   = regexp.MustCompile(`[\[\]{}()<>]`)
	multiSentenceRe  = regexp.MustCompile(`\.\s+[A-Z]`)
	blankFillShapeRe = regexp.MustCompile(`^[\[{<]+_+[\]}>]+$`)
)

// Detector scans document text for placeholder candidates using layered
// pattern rules, then scores each candidate with the model. Scoring failures
// fall back to a keyword heuristic so detection never blocks on the provider.
type Detector struct {
	completer llm.Completer
	log       *logging.Logger
}

func NewDetector(completer llm.Completer, log *logging.Logger) *Detector {
	return &Detector{completer: completer, log: log}
}

// Detect returns candidate placeholders with confidence > 0.5, deduplicated
// by start offset and sorted into document order.
func (d *Detector) Detect(ctx context.Context, documentText string) []Detection {
	var detections []Detection
	seen := map[int]bool{}

	for _, pattern := range placeholderPatterns {
		for _, loc := range pattern.FindAllStringIndex(documentText, -1) {
			start, end := loc[0], loc[1]
			if seen[start] {
				continue
			}

			text := documentText[start:end]
			if !validStructure(text) {
				continue
			}

			before := strings.TrimSpace(documentText[max(0, start-contextWindow):start])
			after := strings.TrimSpace(documentText[end:min(len(documentText), end+contextWindow)])

			confidence := d.score(ctx, text, before, after)
			if confidence <= 0.5 {
				continue
			}

			seen[start] = true
			detections = append(detections, Detection{
				Text:          text,
				StartPos:      start,
				EndPos:        end,
				ContextBefore: before,
				ContextAfter:  after,
				Confidence:    confidence,
			})
		}
	}

	// Document order fixes the fill sequence downstream.
	sort.Slice(detections, func(i, j int) bool {
		return detections[i].StartPos < detections[j].StartPos
	})
	return detections
}

// validStructure rejects matches that are ordinary prose rather than fill-in
// slots: overlong content, multiple sentences, URLs, or quoted passages.
func validStructure(text string) bool {
	content := strings.TrimSpace(bracketStripRe.ReplaceAllString(text, ""))

	if len(content) > 60 {
		return false
	}
	if multiSentenceRe.MatchString(content) {
		return false
	}
	if strings.Contains(content, "http://") || strings.Contains(content, "https://") || strings.Contains(content, ".com") {
		return false
	}
	if strings.Count(content, `"`) >= 2 && len(content) > 40 {
		return false
	}
	if strings.HasPrefix(content, "__]") || strings.HasSuffix(content, "[__") {
		return false
	}
	return true
}

func (d *Detector) score(ctx context.Context, text, before, after string) float64 {
	prompt := fmt.Sprintf(`Analyze if the following text is a placeholder that needs to be filled in a legal document.

Detected text: %s
Context before: %s
Context after: %s

Consider:
- Is it asking for specific information to be filled in?
- Is it a template marker or just regular text in brackets/braces?
- Does the context suggest it needs user input?

Respond with only a confidence score between 0.0 and 1.0, where:
- 1.0 = Definitely a placeholder
- 0.5 = Uncertain
- 0.0 = Definitely not a placeholder

Score:`, text, before, after)

	response, err := d.completer.Complete(ctx, prompt)
	if err == nil {
		if score, perr := strconv.ParseFloat(strings.TrimSpace(response), 64); perr == nil {
			return clamp01(score)
		}
	}

	d.log.Warn("detection scoring degraded to heuristic", "placeholder", text)
	return heuristicConfidence(text)
}

// heuristicConfidence scores a candidate without the model: domain keywords
// and blank-fill shapes are strong signals, instructional verbs weaker ones.
func heuristicConfidence(text string) float64 {
	lower := strings.ToLower(text)

	for _, word := range []string{"name", "date", "address", "phone", "email", "state", "company"} {
		if strings.Contains(lower, word) {
			return 0.9
		}
	}

	for _, word := range []string{"insert", "fill", "enter", "provide"} {
		if strings.Contains(lower, word) {
			return 0.7
		}
	}

	if blankFillShapeRe.MatchString(text) {
		return 0.9
	}

	return 0.6
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
