package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
)

type metaData struct {
	Documents map[string]domain.Document `json:"documents"`
	Sessions  map[string]domain.Session  `json:"sessions"`
}

// Store persists documents and sessions as a JSON file, last-write-wins.
// Sessions live here rather than in process memory so a fill conversation
// survives restarts.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "meta.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{
		Documents: map[string]domain.Document{},
		Sessions:  map[string]domain.Session{},
	}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return fmt.Errorf("decode meta file: %w", err)
	}

	s.ensureMaps()
	return nil
}

func (s *Store) CreateDocument(doc domain.Document) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().Unix()
	if doc.CreatedAt == 0 {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	s.data.Documents[doc.ID] = doc.Clone()

	if err := s.saveLocked(); err != nil {
		return domain.Document{}, err
	}

	return doc, nil
}

func (s *Store) GetDocument(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data.Documents[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	// Callers mutate their copy in place; never hand out the stored slices.
	return doc.Clone(), nil
}

func (s *Store) ListDocuments() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.data.Documents))
	for _, doc := range s.data.Documents {
		docs = append(docs, doc.Clone())
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt < docs[j].CreatedAt })
	return docs
}

func (s *Store) UpdateDocument(doc domain.Document) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data.Documents[doc.ID]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", doc.ID, domain.ErrDocumentNotFound)
	}

	if doc.CreatedAt == 0 {
		doc.CreatedAt = existing.CreatedAt
	}
	doc.UpdatedAt = time.Now().Unix()
	s.data.Documents[doc.ID] = doc.Clone()

	if err := s.saveLocked(); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func (s *Store) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}

	delete(s.data.Documents, id)

	// Sessions pointing at a deleted document are useless; drop them too.
	for sid, session := range s.data.Sessions {
		if session.DocumentID == id {
			delete(s.data.Sessions, sid)
		}
	}

	return s.saveLocked()
}

// CreateSession records a new session bound to a document. The record is
// immutable once written.
func (s *Store) CreateSession(documentID string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()

	if _, ok := s.data.Documents[documentID]; !ok {
		return domain.Session{}, fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotFound)
	}

	session := domain.Session{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		CreatedAt:  time.Now().Unix(),
	}
	s.data.Sessions[session.ID] = session

	if err := s.saveLocked(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data.Sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "meta-*.json")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode meta: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp meta: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace meta file: %w", err)
	}

	return nil
}

func (s *Store) ensureMaps() {
	if s.data.Documents == nil {
		s.data.Documents = map[string]domain.Document{}
	}
	if s.data.Sessions == nil {
		s.data.Sessions = map[string]domain.Session{}
	}
}
