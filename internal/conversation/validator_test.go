package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

func scoringCompleter(score string) llm.CompleteFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return score, nil
	}
}

func TestValidateRuleFailureShortCircuits(t *testing.T) {
	// The completer must never be called when rules already rejected.
	completer := llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("model called after rule failure")
		return "", nil
	})
	validator := NewValidator(completer, logging.NewNop())

	result := validator.Validate(context.Background(), "not-an-email", domain.TypeEmail, "", nil)

	require.False(t, result.IsValid)
	require.Zero(t, result.Confidence)
	require.Contains(t, result.Message, "Invalid email format")
	require.NotEmpty(t, result.SuggestedCorrection)
}

func TestValidateRejectsImpossibleDate(t *testing.T) {
	validator := NewValidator(scoringCompleter("0.9"), logging.NewNop())

	result := validator.Validate(context.Background(), "13/45/2024", domain.TypeDate, "", nil)

	require.False(t, result.IsValid)
	require.Contains(t, result.Message, "Could not parse date")
}

func TestValidateBlendsRuleAndModelScores(t *testing.T) {
	validator := NewValidator(scoringCompleter("0.7"), logging.NewNop())

	// Date rule confidence 0.9 >= 0.75, so the blend is half-and-half.
	result := validator.Validate(context.Background(), "12/25/2024", domain.TypeDate, "effective on", nil)

	require.True(t, result.IsValid)
	require.InDelta(t, 0.8, result.Confidence, 1e-9)
	require.Equal(t, "Accepted", result.Message)
}

func TestValidateFailsOpenOnProviderError(t *testing.T) {
	validator := NewValidator(failingCompleter(), logging.NewNop())

	// Rules passed, model down: confidence check degrades to 0.7.
	result := validator.Validate(context.Background(), "Acme Corporation", domain.TypeText, "", nil)

	require.True(t, result.IsValid)
	require.InDelta(t, 0.9*0.5+0.7*0.5, result.Confidence, 1e-9)
}

func TestValidateLowModelScoreCanDemoteMessage(t *testing.T) {
	validator := NewValidator(scoringCompleter("0.2"), logging.NewNop())

	result := validator.Validate(context.Background(), "something", domain.TypeText, "", nil)

	// 0.9*0.5 + 0.2*0.5 = 0.55: still above the validity line but below the
	// acceptance message threshold.
	require.True(t, result.IsValid)
	require.InDelta(t, 0.55, result.Confidence, 1e-9)
	require.Equal(t, "Invalid text", result.Message)
}

func TestValidateIsIdempotent(t *testing.T) {
	validator := NewValidator(scoringCompleter("0.8"), logging.NewNop())

	first := validator.Validate(context.Background(), "555-123-4567", domain.TypePhone, "", nil)
	second := validator.Validate(context.Background(), "555-123-4567", domain.TypePhone, "", nil)

	require.Equal(t, first, second)
}

func TestRuleCheckPerType(t *testing.T) {
	cases := []struct {
		value  string
		ptype  domain.PlaceholderType
		passed bool
	}{
		{"john@company.com", domain.TypeEmail, true},
		{"+1-555-123-4567", domain.TypePhone, true},
		{"555-1234", domain.TypePhone, false},
		{"2024-12-25", domain.TypeDate, true},
		{"12/25/1850", domain.TypeDate, false},
		{"$1,234.56", domain.TypeNumber, true},
		{"twelve", domain.TypeNumber, false},
		{"AZ", domain.TypeAddress, true},
		{"123 Main St, Tempe, AZ", domain.TypeAddress, true},
		{"12", domain.TypeAddress, false},
		{"", domain.TypeText, false},
		{"x", domain.TypeText, true},
		{"anything", domain.TypeUnknown, true},
	}

	for _, tc := range cases {
		result := ruleCheck(tc.value, tc.ptype)
		require.Equal(t, tc.passed, result.passed, "value=%q type=%s", tc.value, tc.ptype)
	}
}
