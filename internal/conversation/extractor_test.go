package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

func failingCompleter() llm.CompleteFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("provider unavailable")
	}
}

func textPlaceholder(name string) *domain.Placeholder {
	return &domain.Placeholder{
		Name:         name,
		OriginalText: "[" + name + "]",
		Analysis:     &domain.Analysis{InferredType: domain.TypeText},
	}
}

func TestExtractParsesModelReply(t *testing.T) {
	completer := llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"extracted_value": "Lexsy", "confidence": 0.95, "needs_clarification": false, "reasoning": "after name is"}`, nil
	})
	extractor := NewExtractor(completer, logging.NewNop())

	result := extractor.Extract(context.Background(), "My company name is Lexsy", textPlaceholder("Company Name"), nil)

	require.NotNil(t, result.ExtractedValue)
	require.Equal(t, "Lexsy", *result.ExtractedValue)
	require.InDelta(t, 0.95, result.Confidence, 1e-9)
	require.False(t, result.NeedsClarification)
}

func TestExtractAmbiguousReplyNeedsClarification(t *testing.T) {
	// "yes" carries no extractable value for a text slot.
	completer := llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"extracted_value": null, "confidence": 0.2, "needs_clarification": true, "reasoning": "ambiguous"}`, nil
	})
	extractor := NewExtractor(completer, logging.NewNop())

	result := extractor.Extract(context.Background(), "yes", textPlaceholder("Company Name"), nil)

	require.Nil(t, result.ExtractedValue)
	require.True(t, result.NeedsClarification)
}

func TestExtractTreatsNullStringAsNull(t *testing.T) {
	completer := llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{"extracted_value": "null", "confidence": 0.3, "needs_clarification": true, "reasoning": "question"}`, nil
	})
	extractor := NewExtractor(completer, logging.NewNop())

	result := extractor.Extract(context.Background(), "What format?", textPlaceholder("Date"), nil)

	require.Nil(t, result.ExtractedValue)
	require.True(t, result.NeedsClarification)
}

func TestFallbackExtractionPatterns(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"My company name is Lexsy", "Lexsy"},
		{"It's Acme Corporation", "Acme Corporation"},
		{"The investor name is YC and it is a company", "YC"},
		{"The startup, named Initech", "Initech"},
	}

	for _, tc := range cases {
		result := fallbackExtraction(tc.message)
		require.NotNil(t, result.ExtractedValue, "message=%q", tc.message)
		require.Equal(t, tc.want, *result.ExtractedValue, "message=%q", tc.message)
		require.InDelta(t, 0.75, result.Confidence, 1e-9)
	}
}

func TestFallbackExtractionQuestions(t *testing.T) {
	for _, message := range []string{"What format should I use?", "how do I answer", "???"} {
		result := fallbackExtraction(message)
		require.Nil(t, result.ExtractedValue, "message=%q", message)
		require.True(t, result.NeedsClarification, "message=%q", message)
	}
}

func TestFallbackExtractionVerbatim(t *testing.T) {
	result := fallbackExtraction("john@example.com")

	require.NotNil(t, result.ExtractedValue)
	require.Equal(t, "john@example.com", *result.ExtractedValue)
	require.InDelta(t, 0.6, result.Confidence, 1e-9)
}

func TestFallbackExtractionTooShort(t *testing.T) {
	result := fallbackExtraction("x")

	require.Nil(t, result.ExtractedValue)
	require.True(t, result.NeedsClarification)
}

func TestExtractFallsBackWhenProviderDown(t *testing.T) {
	extractor := NewExtractor(failingCompleter(), logging.NewNop())

	result := extractor.Extract(context.Background(), "My name is John Smith", textPlaceholder("Employee Name"), []domain.Message{
		{Role: "assistant", Content: "What is the Employee Name?"},
	})

	require.NotNil(t, result.ExtractedValue)
	require.Equal(t, "John Smith", *result.ExtractedValue)
}
