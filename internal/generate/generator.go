package generate

import (
	"fmt"

	"github.com/nguyenthenguyen/docx"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

// Generator produces the filled .docx once every placeholder has a value.
// It works against the marker-stamped working copy, so each placeholder
// occurrence resolves independently even when the original text repeats.
type Generator struct {
	log *logging.Logger
}

func NewGenerator(log *logging.Logger) *Generator {
	return &Generator{log: log}
}

// Generate writes the completed document to outputPath. It refuses to run
// while any resolvable placeholder is still unfilled; partial documents are
// never produced.
func (g *Generator) Generate(doc *domain.Document, outputPath string) error {
	var missing []string
	for i := range doc.Placeholders {
		p := &doc.Placeholders[i]
		if p.Unresolved {
			continue
		}
		if !p.Filled() {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d placeholder(s) unfilled (%s): %w", len(missing), missing[0], domain.ErrGenerationBlocked)
	}

	sourcePath := doc.WorkingPath
	if sourcePath == "" {
		sourcePath = doc.OriginalPath
	}

	reader, err := docx.ReadDocxFile(sourcePath)
	if err != nil {
		return fmt.Errorf("open working document: %w", err)
	}
	defer reader.Close()

	editable := reader.Editable()
	for i := range doc.Placeholders {
		p := &doc.Placeholders[i]
		if p.Unresolved || p.Value == nil {
			continue
		}
		// Markers were written as single runs, so plain text replacement
		// cannot be defeated by run splits here.
		if err := editable.Replace(p.UniqueMarker, *p.Value, -1); err != nil {
			return fmt.Errorf("replace marker for %q: %w", p.Name, err)
		}
	}

	if err := editable.WriteToFile(outputPath); err != nil {
		return fmt.Errorf("write generated document: %w", err)
	}

	g.log.Info("document generated", "documentId", doc.ID, "output", outputPath, "placeholders", len(doc.Placeholders))
	return nil
}
