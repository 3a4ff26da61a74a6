package parse

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/docfile"
	"github.com/vedthemaster/lexsy-backend/internal/docfile/docfiletest"
	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

func placeholderFor(text string) domain.Placeholder {
	return domain.Placeholder{
		Name:         strings.Trim(text, "[] "),
		OriginalText: text,
		UniqueMarker: NewMarker(),
	}
}

func TestCreateWorkingCopyStampsMarkers(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.docx")
	working := filepath.Join(dir, "working.docx")

	docfiletest.Write(t, original,
		docfiletest.P("Between [Company Name] and [Employee Name]."),
	)

	placeholders := []domain.Placeholder{
		placeholderFor("[Company Name]"),
		placeholderFor("[Employee Name]"),
	}

	templater := NewTemplater(logging.NewNop())
	require.NoError(t, templater.CreateWorkingCopy(original, working, placeholders))

	text, err := docfile.ExtractText(working)
	require.NoError(t, err)
	require.Contains(t, text, placeholders[0].UniqueMarker)
	require.Contains(t, text, placeholders[1].UniqueMarker)
	require.NotContains(t, text, "[Company Name]")
	require.NotContains(t, text, "[Employee Name]")

	// The original file is untouched.
	originalText, err := docfile.ExtractText(original)
	require.NoError(t, err)
	require.Contains(t, originalText, "[Company Name]")
}

func TestCreateWorkingCopyDuplicateText(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.docx")
	working := filepath.Join(dir, "working.docx")

	docfiletest.Write(t, original,
		docfiletest.P("Starts on [Date]."),
		docfiletest.P("Ends on [Date]."),
	)

	first := placeholderFor("[Date]")
	second := placeholderFor("[Date]")

	templater := NewTemplater(logging.NewNop())
	require.NoError(t, templater.CreateWorkingCopy(original, working, []domain.Placeholder{first, second}))

	paras, err := docfile.Open(working)
	require.NoError(t, err)

	// Each occurrence got its own marker, in document order.
	lines := paras.Paragraphs()
	require.Equal(t, "Starts on "+first.UniqueMarker+".", lines[0])
	require.Equal(t, "Ends on "+second.UniqueMarker+".", lines[1])
}

func TestCreateWorkingCopyFlagsUnresolved(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "original.docx")
	working := filepath.Join(dir, "working.docx")

	docfiletest.Write(t, original, docfiletest.P("Only [Company Name] here."))

	placeholders := []domain.Placeholder{
		placeholderFor("[Company Name]"),
		placeholderFor("[Missing Text]"),
	}

	templater := NewTemplater(logging.NewNop())
	require.NoError(t, templater.CreateWorkingCopy(original, working, placeholders))

	require.False(t, placeholders[0].Unresolved)
	require.True(t, placeholders[1].Unresolved)

	text, err := docfile.ExtractText(working)
	require.NoError(t, err)
	require.Contains(t, text, placeholders[0].UniqueMarker)
	require.NotContains(t, text, placeholders[1].UniqueMarker)
}
