package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
)

func TestGeneratePDFWritesFile(t *testing.T) {
	value := "Acme Corporation"
	doc := domain.Document{
		ID:        "doc1",
		Title:     "Employment Agreement",
		CreatedAt: 1700000000,
		Placeholders: []domain.Placeholder{
			{Name: "Company Name", Value: &value},
			{Name: "Start Date"},
		},
	}

	outPath := filepath.Join(t.TempDir(), "nested", "doc1.pdf")
	svc := NewPDFService()
	require.NoError(t, svc.GeneratePDF(doc, "Between Acme Corporation and the employee.", outPath))

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	header := make([]byte, 5)
	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(header)
	require.NoError(t, err)
	require.Equal(t, "%PDF-", string(header))
}
