package conversation

import (
	"fmt"
	"strings"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
)

// Responder turns pipeline state into the next user-facing message. It is a
// pure function of its inputs so replies stay deterministic and testable.
type Responder struct{}

func NewResponder() *Responder {
	return &Responder{}
}

// Question returns the opening question for a placeholder, preferring the
// hint precomputed at parse time.
func (r *Responder) Question(p *domain.Placeholder) string {
	if p.Analysis != nil && p.Analysis.QuestionHint != "" {
		return p.Analysis.QuestionHint
	}
	if strings.TrimSpace(p.Name) != "" {
		return fmt.Sprintf("What is the %s?", p.Name)
	}
	return "Could you please provide the required information?"
}

// Accepted confirms the recorded value and asks for the next placeholder.
func (r *Responder) Accepted(value string, next *domain.Placeholder, progress domain.Progress) string {
	return fmt.Sprintf("✓ Got it: %s\n\n%s (%d/%d completed)",
		value, r.Question(next), progress.Filled, progress.Total)
}

// AcceptedFinal confirms the last value when nothing remains to fill.
func (r *Responder) AcceptedFinal(current *domain.Placeholder, value string) string {
	return fmt.Sprintf("✓ Perfect! I've recorded '%s' for %s.\n\n"+
		"🎉 That's everything! All placeholders are filled. You can now generate your completed document.",
		value, current.Name)
}

// Clarification re-asks the current question when no value was extracted.
func (r *Responder) Clarification(p *domain.Placeholder) string {
	return "I need more information. " + r.Question(p)
}

// Invalid surfaces the validator's message plus any suggested correction.
func (r *Responder) Invalid(p *domain.Placeholder, result ValidationResult) string {
	message := result.Message
	if result.SuggestedCorrection != "" {
		message += "\n\nExample: " + result.SuggestedCorrection
	}
	message += fmt.Sprintf("\n\nPlease provide a valid %s.", p.Name)
	return message
}

// Completed is the terminal summary once every placeholder holds a value.
func (r *Responder) Completed(progress domain.Progress) string {
	return fmt.Sprintf("🎉 Congratulations! All %d placeholders have been successfully filled!\n\n"+
		"Your document is ready to be generated. You can now download your completed document "+
		"with all the information you've provided.", progress.Total)
}
