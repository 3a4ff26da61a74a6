package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vedthemaster/lexsy-backend/internal/domain"
)

func TestCreateAndGetDocument(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	created, err := store.CreateDocument(domain.Document{Title: "NDA"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotZero(t, created.CreatedAt)

	got, err := store.GetDocument(created.ID)
	require.NoError(t, err)
	require.Equal(t, "NDA", got.Title)
}

func TestGetDocumentNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetDocument("missing")
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestUpdateDocumentPersistsPlaceholderValues(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	doc, err := store.CreateDocument(domain.Document{
		Title: "Agreement",
		Placeholders: []domain.Placeholder{
			{Name: "Company Name", OriginalText: "[Company Name]", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}"},
		},
	})
	require.NoError(t, err)

	value := "Acme"
	doc.Placeholders[0].Value = &value
	_, err = store.UpdateDocument(doc)
	require.NoError(t, err)

	// A fresh store over the same directory sees the accepted value.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	got, err := reopened.GetDocument(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Placeholders[0].Value)
	require.Equal(t, "Acme", *got.Placeholders[0].Value)
}

func TestReturnedDocumentsDoNotAliasStore(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	doc, err := store.CreateDocument(domain.Document{
		Title: "Agreement",
		Placeholders: []domain.Placeholder{
			{Name: "Company Name", OriginalText: "[Company Name]", UniqueMarker: "{{PLACEHOLDER_AAAA0001}}"},
		},
		History: []domain.Message{
			{Role: "assistant", Content: "What is the Company Name?"},
		},
	})
	require.NoError(t, err)

	// Mutating a returned copy must not change what a later read sees.
	value := "Acme"
	doc.Placeholders[0].Value = &value
	doc.History[0].Content = "scribbled"

	got, err := store.GetDocument(doc.ID)
	require.NoError(t, err)
	require.Nil(t, got.Placeholders[0].Value)
	require.Equal(t, "What is the Company Name?", got.History[0].Content)

	got.Placeholders[0].Name = "scribbled"
	again, err := store.GetDocument(doc.ID)
	require.NoError(t, err)
	require.Equal(t, "Company Name", again.Placeholders[0].Name)

	listed := store.ListDocuments()
	require.Len(t, listed, 1)
	listed[0].Placeholders[0].Name = "scribbled"
	final, err := store.GetDocument(doc.ID)
	require.NoError(t, err)
	require.Equal(t, "Company Name", final.Placeholders[0].Name)
}

func TestUpdateUnknownDocument(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.UpdateDocument(domain.Document{ID: "missing"})
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestListDocumentsSortedByCreation(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.CreateDocument(domain.Document{Title: "first", CreatedAt: 100})
	require.NoError(t, err)
	second, err := store.CreateDocument(domain.Document{Title: "second", CreatedAt: 200})
	require.NoError(t, err)

	docs := store.ListDocuments()
	require.Len(t, docs, 2)
	require.Equal(t, []string{first.ID, second.ID}, []string{docs[0].ID, docs[1].ID})
}

func TestDeleteDocumentDropsSessions(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	doc, err := store.CreateDocument(domain.Document{Title: "doc"})
	require.NoError(t, err)
	session, err := store.CreateSession(doc.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(doc.ID))

	_, err = store.GetDocument(doc.ID)
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = store.GetSession(session.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCreateSessionRequiresDocument(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.CreateSession("missing")
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	doc, err := store.CreateDocument(domain.Document{Title: "doc"})
	require.NoError(t, err)
	session, err := store.CreateSession(doc.ID)
	require.NoError(t, err)

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	got, err := reopened.GetSession(session.ID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, got.DocumentID)
}
