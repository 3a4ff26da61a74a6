package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
)

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// GeneratePDF renders a preview of the completed document: a header, the
// filled placeholder values, then the document text with markers resolved.
func (s *PDFService) GeneratePDF(doc domain.Document, bodyText, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure pdf directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Document %s", doc.ID), false)
	pdf.SetAuthor("Lexsy", false)
	pdf.AddPage()

	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = "Document"
	}

	createdAt := time.Unix(doc.CreatedAt, 0).Local()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	progress := doc.FillProgress()
	pdf.Cell(0, 6, fmt.Sprintf("Placeholders: %d/%d filled", progress.Filled, progress.Total))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Created: %s", createdAt.Format("01/02/2006 15:04")))
	pdf.Ln(12)

	s.writeValues(pdf, doc.Placeholders)
	pdf.Ln(8)
	s.writeSection(pdf, "Document", bodyText)

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}

func (s *PDFService) writeValues(pdf *gofpdf.Fpdf, placeholders []domain.Placeholder) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Filled Values")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)

	if len(placeholders) == 0 {
		pdf.MultiCell(0, 6, "(none)", "", "L", false)
		return
	}

	for i := range placeholders {
		p := &placeholders[i]
		value := "(unfilled)"
		if p.Value != nil {
			value = *p.Value
		}
		pdf.MultiCell(0, 6, fmt.Sprintf("• %s: %s", p.Name, value), "", "L", false)
	}
}

func (s *PDFService) writeSection(pdf *gofpdf.Fpdf, title, content string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 {
		pdf.MultiCell(0, 6, "(empty)", "", "L", false)
		return
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
}
