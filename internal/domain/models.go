package domain

// PlaceholderType is the closed set of semantic types a placeholder can take.
type PlaceholderType string

const (
	TypeText    PlaceholderType = "text"
	TypeDate    PlaceholderType = "date"
	TypeNumber  PlaceholderType = "number"
	TypeEmail   PlaceholderType = "email"
	TypePhone   PlaceholderType = "phone"
	TypeAddress PlaceholderType = "address"
	TypeBoolean PlaceholderType = "boolean"
	TypeUnknown PlaceholderType = "unknown"
)

// ParseType maps a raw type string to a PlaceholderType, defaulting to
// TypeUnknown for anything outside the closed set.
func ParseType(s string) PlaceholderType {
	switch PlaceholderType(s) {
	case TypeText, TypeDate, TypeNumber, TypeEmail, TypePhone, TypeAddress, TypeBoolean, TypeUnknown:
		return PlaceholderType(s)
	}
	return TypeUnknown
}

// Analysis holds the semantic context derived for a placeholder at parse time.
type Analysis struct {
	ContextBefore   string          `json:"contextBefore"`
	ContextAfter    string          `json:"contextAfter"`
	InferredType    PlaceholderType `json:"inferredType"`
	Confidence      float64         `json:"confidence"`
	ValidationRules []string        `json:"validationRules,omitempty"`
	QuestionHint    string          `json:"questionHint,omitempty"`
}

// Placeholder is one fillable slot detected in a source document.
//
// UniqueMarker is assigned once per placeholder and is pairwise distinct
// within a document even when OriginalText repeats, which is what makes two
// occurrences of "[Date]" individually addressable in the working copy.
type Placeholder struct {
	Name         string    `json:"name"`
	OriginalText string    `json:"originalText"`
	UniqueMarker string    `json:"uniqueMarker"`
	MatchPattern string    `json:"matchPattern"`
	Value        *string   `json:"value,omitempty"`
	Unresolved   bool      `json:"unresolved,omitempty"`
	Analysis     *Analysis `json:"analysis,omitempty"`
}

// Filled reports whether a value has been accepted for this placeholder.
func (p *Placeholder) Filled() bool { return p.Value != nil }

// Message is a single turn in a document's conversation history.
type Message struct {
	Role       string   `json:"role"` // "user" or "assistant"
	Content    string   `json:"content"`
	Timestamp  int64    `json:"timestamp"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Document is the aggregate root: an uploaded template, its detected
// placeholders in document order, and the conversation that fills them.
type Document struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	OriginalPath  string        `json:"originalPath"`
	WorkingPath   string        `json:"workingPath,omitempty"`
	GeneratedPath string        `json:"generatedPath,omitempty"`
	PDFPath       string        `json:"pdfPath,omitempty"`
	Placeholders  []Placeholder `json:"placeholders"`
	History       []Message     `json:"conversationHistory"`
	Metadata      *ParseStats   `json:"analysisMetadata,omitempty"`
	CreatedAt     int64         `json:"createdAt"`
	UpdatedAt     int64         `json:"updatedAt"`
}

// ParseStats summarizes the detection pipeline's output for a document.
type ParseStats struct {
	TotalPlaceholders int               `json:"totalPlaceholders"`
	ConfidenceScores  []float64         `json:"confidenceScores,omitempty"`
	PlaceholderTypes  []PlaceholderType `json:"placeholderTypes,omitempty"`
}

// Clone returns a copy of the document sharing no mutable state with the
// receiver. The store hands out clones so a handler mutating its copy of a
// document cannot race with another handler reading the stored one.
func (d Document) Clone() Document {
	out := d
	if d.Placeholders != nil {
		out.Placeholders = make([]Placeholder, len(d.Placeholders))
		copy(out.Placeholders, d.Placeholders)
		for i := range out.Placeholders {
			p := &out.Placeholders[i]
			if p.Value != nil {
				value := *p.Value
				p.Value = &value
			}
			if p.Analysis != nil {
				analysis := *p.Analysis
				analysis.ValidationRules = append([]string(nil), analysis.ValidationRules...)
				p.Analysis = &analysis
			}
		}
	}
	if d.History != nil {
		out.History = make([]Message, len(d.History))
		copy(out.History, d.History)
		for i := range out.History {
			if c := out.History[i].Confidence; c != nil {
				confidence := *c
				out.History[i].Confidence = &confidence
			}
		}
	}
	if d.Metadata != nil {
		meta := *d.Metadata
		meta.ConfidenceScores = append([]float64(nil), meta.ConfidenceScores...)
		meta.PlaceholderTypes = append([]PlaceholderType(nil), meta.PlaceholderTypes...)
		out.Metadata = &meta
	}
	return out
}

// CurrentPlaceholder returns the first unfilled placeholder in document
// order, or nil when every slot is filled. Progress is a pure function of
// the placeholder list; there is no separately stored cursor.
func (d *Document) CurrentPlaceholder() *Placeholder {
	for i := range d.Placeholders {
		if !d.Placeholders[i].Filled() {
			return &d.Placeholders[i]
		}
	}
	return nil
}

// Progress describes how far a fill session has advanced.
type Progress struct {
	Filled     int     `json:"filled"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// FillProgress computes the document's progress counters. Percentage is
// rounded to one decimal place.
func (d *Document) FillProgress() Progress {
	total := len(d.Placeholders)
	filled := 0
	for i := range d.Placeholders {
		if d.Placeholders[i].Filled() {
			filled++
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(int(float64(filled)/float64(total)*1000+0.5)) / 10
	}
	return Progress{Filled: filled, Total: total, Percentage: pct}
}

// Session binds a session ID to a document. Sessions are persisted so they
// survive process restarts; they are created at session start and never
// mutated afterwards.
type Session struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	CreatedAt  int64  `json:"createdAt"`
}
