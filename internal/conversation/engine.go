package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/llm"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
	"github.com/vedthemaster/lexsy-backend/internal/storage"
)

// Engine drives the slot-filling conversation: one session per document run,
// one placeholder in flight at a time. A turn moves through extract, validate,
// respond; the current placeholder is always the first unfilled one, so there
// is no cursor to corrupt.
type Engine struct {
	store     *storage.Store
	extractor *Extractor
	validator *Validator
	responder *Responder
	log       *logging.Logger

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

func NewEngine(store *storage.Store, completer llm.Completer, log *logging.Logger) *Engine {
	return &Engine{
		store:        store,
		extractor:    NewExtractor(completer, log),
		validator:    NewValidator(completer, log),
		responder:    NewResponder(),
		log:          log,
		sessionLocks: map[string]*sync.Mutex{},
	}
}

// StartResult is returned when a session is opened.
type StartResult struct {
	Session  domain.Session      `json:"session"`
	Response string              `json:"response"`
	Current  *domain.Placeholder `json:"currentPlaceholder,omitempty"`
	Progress domain.Progress     `json:"progress"`
}

// TurnResult is the outcome of processing one user message.
type TurnResult struct {
	Response           string              `json:"response"`
	Accepted           bool                `json:"accepted"`
	NeedsClarification bool                `json:"needsClarification"`
	Completed          bool                `json:"completed"`
	Confidence         float64             `json:"confidence"`
	ExtractedValue     *string             `json:"extractedValue,omitempty"`
	Validation         *ValidationResult   `json:"validation,omitempty"`
	Current            *domain.Placeholder `json:"currentPlaceholder,omitempty"`
	Progress           domain.Progress     `json:"progress"`
}

// Status is a read-only snapshot of a session.
type Status struct {
	Session   domain.Session      `json:"session"`
	Current   *domain.Placeholder `json:"currentPlaceholder,omitempty"`
	Progress  domain.Progress     `json:"progress"`
	Completed bool                `json:"completed"`
	History   []domain.Message    `json:"conversationHistory"`
}

// StartSession opens a conversation on a document and returns the opening
// question for the first unfilled placeholder.
func (e *Engine) StartSession(ctx context.Context, documentID string) (StartResult, error) {
	doc, err := e.store.GetDocument(documentID)
	if err != nil {
		return StartResult{}, err
	}

	session, err := e.store.CreateSession(documentID)
	if err != nil {
		return StartResult{}, err
	}

	progress := doc.FillProgress()
	current := doc.CurrentPlaceholder()

	var response string
	if current == nil {
		response = e.responder.Completed(progress)
	} else {
		response = e.responder.Question(current)
	}

	doc.History = append(doc.History, domain.Message{
		Role:      "assistant",
		Content:   response,
		Timestamp: time.Now().Unix(),
	})
	if _, err := e.store.UpdateDocument(doc); err != nil {
		return StartResult{}, err
	}

	e.log.Info("session started", "sessionId", session.ID, "documentId", documentID, "total", progress.Total)

	return StartResult{
		Session:  session,
		Response: response,
		Current:  current,
		Progress: progress,
	}, nil
}

// ProcessTurn runs one conversational turn for a session. Turns on the same
// session are serialized; turns on different sessions run concurrently.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, userMessage string) (TurnResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.GetSession(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	doc, err := e.store.GetDocument(session.DocumentID)
	if err != nil {
		return TurnResult{}, err
	}

	now := time.Now().Unix()
	doc.History = append(doc.History, domain.Message{
		Role:      "user",
		Content:   userMessage,
		Timestamp: now,
	})

	current := doc.CurrentPlaceholder()
	if current == nil {
		progress := doc.FillProgress()
		response := e.responder.Completed(progress)
		if err := e.appendAssistant(&doc, response, nil); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Response:  response,
			Completed: true,
			Progress:  progress,
		}, nil
	}

	extraction := e.extractor.Extract(ctx, userMessage, current, doc.History)
	if extraction.NeedsClarification || extraction.ExtractedValue == nil {
		response := e.responder.Clarification(current)
		if err := e.appendAssistant(&doc, response, nil); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Response:           response,
			NeedsClarification: true,
			Current:            current,
			Progress:           doc.FillProgress(),
		}, nil
	}

	value := *extraction.ExtractedValue
	validation := e.validator.Validate(ctx, value, placeholderType(current), surroundingContext(current), validationRules(current))
	if !validation.IsValid {
		response := e.responder.Invalid(current, validation)
		if err := e.appendAssistant(&doc, response, nil); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{
			Response:       response,
			Confidence:     validation.Confidence,
			ExtractedValue: extraction.ExtractedValue,
			Validation:     &validation,
			Current:        current,
			Progress:       doc.FillProgress(),
		}, nil
	}

	// Accept: the value lands on the placeholder, never in the document file.
	// Files are only touched at generation time.
	current.Value = &value
	confidence := extraction.Confidence * validation.Confidence

	progress := doc.FillProgress()
	next := doc.CurrentPlaceholder()

	var response string
	completed := next == nil
	if completed {
		response = e.responder.AcceptedFinal(current, value)
	} else {
		response = e.responder.Accepted(value, next, progress)
	}

	if err := e.appendAssistant(&doc, response, &confidence); err != nil {
		return TurnResult{}, err
	}

	e.log.Info("placeholder filled",
		"sessionId", sessionID,
		"placeholder", current.Name,
		"confidence", confidence,
		"filled", progress.Filled,
		"total", progress.Total,
	)

	return TurnResult{
		Response:       response,
		Accepted:       true,
		Completed:      completed,
		Confidence:     confidence,
		ExtractedValue: extraction.ExtractedValue,
		Validation:     &validation,
		Current:        next,
		Progress:       progress,
	}, nil
}

// SessionStatus returns the current state of a session without advancing it.
func (e *Engine) SessionStatus(sessionID string) (Status, error) {
	session, err := e.store.GetSession(sessionID)
	if err != nil {
		return Status{}, err
	}
	doc, err := e.store.GetDocument(session.DocumentID)
	if err != nil {
		return Status{}, err
	}

	current := doc.CurrentPlaceholder()
	return Status{
		Session:   session,
		Current:   current,
		Progress:  doc.FillProgress(),
		Completed: current == nil,
		History:   doc.History,
	}, nil
}

func (e *Engine) appendAssistant(doc *domain.Document, content string, confidence *float64) error {
	doc.History = append(doc.History, domain.Message{
		Role:       "assistant",
		Content:    content,
		Timestamp:  time.Now().Unix(),
		Confidence: confidence,
	})
	updated, err := e.store.UpdateDocument(*doc)
	if err != nil {
		return err
	}
	*doc = updated
	return nil
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.sessionLocks[sessionID] = lock
	}
	return lock
}

func placeholderType(p *domain.Placeholder) domain.PlaceholderType {
	if p.Analysis != nil {
		return p.Analysis.InferredType
	}
	return domain.TypeUnknown
}

func surroundingContext(p *domain.Placeholder) string {
	if p.Analysis == nil {
		return ""
	}
	return p.Analysis.ContextBefore + " ... " + p.Analysis.ContextAfter
}

func validationRules(p *domain.Placeholder) []string {
	if p.Analysis == nil {
		return nil
	}
	return p.Analysis.ValidationRules
}
