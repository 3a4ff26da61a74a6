package generate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/docfile"
	"github.com/vedthemaster/lexsy-backend/internal/docfile/docfiletest"
	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

func strptr(s string) *string { return &s }

func TestGenerateRefusesUnfilledPlaceholders(t *testing.T) {
	generator := NewGenerator(logging.NewNop())

	doc := &domain.Document{
		ID:          "doc1",
		WorkingPath: "unused.docx",
		Placeholders: []domain.Placeholder{
			{Name: "Company Name", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}", Value: strptr("Acme")},
			{Name: "Start Date", UniqueMarker: "{{PLACEHOLDER_BBBB0002}}"},
		},
	}

	err := generator.Generate(doc, filepath.Join(t.TempDir(), "out.docx"))
	require.ErrorIs(t, err, domain.ErrGenerationBlocked)
	require.Contains(t, err.Error(), "Start Date")
}

func TestGenerateReplacesAllMarkers(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.docx")
	output := filepath.Join(dir, "out.docx")

	docfiletest.Write(t, working,
		docfiletest.P("Between {{PLACEHOLDER_AAAA0001}} and the employee."),
		docfiletest.P("Effective {{PLACEHOLDER_BBBB0002}}."),
	)

	doc := &domain.Document{
		ID:          "doc1",
		WorkingPath: working,
		Placeholders: []domain.Placeholder{
			{Name: "Company Name", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}", Value: strptr("Acme Corporation")},
			{Name: "Start Date", UniqueMarker: "{{PLACEHOLDER_BBBB0002}}", Value: strptr("12/25/2024")},
		},
	}

	generator := NewGenerator(logging.NewNop())
	require.NoError(t, generator.Generate(doc, output))

	text, err := docfile.ExtractText(output)
	require.NoError(t, err)
	require.Contains(t, text, "Between Acme Corporation and the employee.")
	require.Contains(t, text, "Effective 12/25/2024.")
	require.NotContains(t, text, "PLACEHOLDER_")
}

func TestGenerateSkipsUnresolved(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.docx")
	output := filepath.Join(dir, "out.docx")

	docfiletest.Write(t, working,
		docfiletest.P("Signed by {{PLACEHOLDER_AAAA0001}}."),
	)

	// The unresolved placeholder never made it into the working copy, so it
	// must neither block generation nor be substituted.
	doc := &domain.Document{
		ID:          "doc1",
		WorkingPath: working,
		Placeholders: []domain.Placeholder{
			{Name: "Signer", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}", Value: strptr("John Smith")},
			{Name: "Witness", UniqueMarker: "{{PLACEHOLDER_CCCC0003}}", Unresolved: true},
		},
	}

	generator := NewGenerator(logging.NewNop())
	require.NoError(t, generator.Generate(doc, output))

	text, err := docfile.ExtractText(output)
	require.NoError(t, err)
	require.Equal(t, "Signed by John Smith.", text)
}

func TestGeneratedQuotedValuesExtractCleanly(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "working.docx")
	output := filepath.Join(dir, "out.docx")

	docfiletest.Write(t, working,
		docfiletest.P("Operating as {{PLACEHOLDER_AAAA0001}}."),
	)

	// The docx writer emits quotes as numeric references; the extracted
	// text must carry the literal characters, not &#34;.
	doc := &domain.Document{
		ID:          "doc1",
		WorkingPath: working,
		Placeholders: []domain.Placeholder{
			{Name: "Company Name", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}", Value: strptr(`"Acme" Holdings & Sons`)},
		},
	}

	generator := NewGenerator(logging.NewNop())
	require.NoError(t, generator.Generate(doc, output))

	text, err := docfile.ExtractText(output)
	require.NoError(t, err)
	require.Equal(t, `Operating as "Acme" Holdings & Sons.`, text)
}

func TestGenerateFallsBackToOriginalPath(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.docx")
	output := filepath.Join(dir, "out.docx")

	docfiletest.Write(t, original, docfiletest.P("Hello {{PLACEHOLDER_AAAA0001}}"))

	doc := &domain.Document{
		ID:           "doc1",
		OriginalPath: original,
		Placeholders: []domain.Placeholder{
			{Name: "Name", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}", Value: strptr("World")},
		},
	}

	generator := NewGenerator(logging.NewNop())
	require.NoError(t, generator.Generate(doc, output))

	text, err := docfile.ExtractText(output)
	require.NoError(t, err)
	require.Equal(t, "Hello World", text)
}
