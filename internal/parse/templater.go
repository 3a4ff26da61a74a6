package parse

import (
	"fmt"

	"github.com/vedthemaster/lexsy-backend/internal/docfile"
	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
)

// Templater produces the working copy of a document in which every
// placeholder's original text has been replaced by its unique marker.
type Templater struct {
	log *logging.Logger
}

func NewTemplater(log *logging.Logger) *Templater {
	return &Templater{log: log}
}

// CreateWorkingCopy copies the original to workingPath, then substitutes
// placeholders one at a time in detection order, each against the current
// state of the working copy, replacing only the first occurrence and
// persisting before moving on. The persist-and-reopen discipline is what
// keeps two placeholders with identical original text from corrupting each
// other's substitution.
//
// Placeholders whose text cannot be located are flagged Unresolved in place;
// that is a warning, not an error.
func (t *Templater) CreateWorkingCopy(originalPath, workingPath string, placeholders []domain.Placeholder) error {
	if err := docfile.CopyFile(originalPath, workingPath); err != nil {
		return fmt.Errorf("seed working copy: %w", err)
	}

	for i := range placeholders {
		p := &placeholders[i]

		doc, err := docfile.Open(workingPath)
		if err != nil {
			return fmt.Errorf("reopen working copy: %w", err)
		}

		if !doc.ReplaceFirst(p.OriginalText, p.UniqueMarker) {
			p.Unresolved = true
			t.log.Warn("placeholder text not found in working copy",
				"placeholder", p.OriginalText, "position", i+1, "of", len(placeholders))
			continue
		}

		if err := doc.SaveTo(workingPath); err != nil {
			return fmt.Errorf("persist working copy: %w", err)
		}
		t.log.Debug("placeholder templated",
			"placeholder", p.OriginalText, "marker", p.UniqueMarker, "position", i+1, "of", len(placeholders))
	}

	return nil
}
