package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vedthemaster/lexsy-backend/internal/config"
	"github.com/vedthemaster/lexsy-backend/internal/conversation"
	"github.com/vedthemaster/lexsy-backend/internal/docfile"
	"github.com/vedthemaster/lexsy-backend/internal/domain"
	"github.com/vedthemaster/lexsy-backend/internal/generate"
	"github.com/vedthemaster/lexsy-backend/internal/logging"
	"github.com/vedthemaster/lexsy-backend/internal/parse"
	"github.com/vedthemaster/lexsy-backend/internal/services"
	"github.com/vedthemaster/lexsy-backend/internal/storage"
)

type API struct {
	cfg       config.Config
	files     *storage.FileManager
	store     *storage.Store
	parser    *parse.Parser
	templater *parse.Templater
	engine    *conversation.Engine
	generator *generate.Generator
	pdf       *services.PDFService
	share     *services.ShareService
	log       *logging.Logger
}

func NewAPI(
	cfg config.Config,
	fm *storage.FileManager,
	store *storage.Store,
	parser *parse.Parser,
	templater *parse.Templater,
	engine *conversation.Engine,
	generator *generate.Generator,
	pdf *services.PDFService,
	share *services.ShareService,
	log *logging.Logger,
) *API {
	return &API{
		cfg:       cfg,
		files:     fm,
		store:     store,
		parser:    parser,
		templater: templater,
		engine:    engine,
		generator: generator,
		pdf:       pdf,
		share:     share,
		log:       log,
	}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.POST("/documents", api.handleUploadDocument)
		apiGroup.GET("/documents", api.handleListDocuments)
		apiGroup.GET("/documents/:id", api.handleGetDocument)
		apiGroup.DELETE("/documents/:id", api.handleDeleteDocument)

		apiGroup.POST("/documents/:id/generate", api.handleGenerateDocument)
		apiGroup.GET("/documents/:id/file", api.handleDownloadDocument)
		apiGroup.POST("/documents/:id/pdf", api.handleGeneratePDF)
		apiGroup.POST("/documents/:id/share", api.handleShareDocument)

		apiGroup.POST("/sessions", api.handleStartSession)
		apiGroup.GET("/sessions/:id", api.handleSessionStatus)
		apiGroup.POST("/sessions/:id/messages", api.handleSessionMessage)
	}

	r.GET("/download/:id", api.handleServeDownload)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleUploadDocument runs the full intake pipeline: save the upload,
// extract text, detect and classify placeholders, then stamp a working copy
// with unique markers.
func (a *API) handleUploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing document file")
		return
	}

	docID := uuid.NewString()
	originalPath, err := a.files.SaveUpload(docID, fileHeader)
	if err != nil {
		a.log.Warn("upload rejected", "filename", fileHeader.Filename, "error", err)
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	text, err := docfile.ExtractText(originalPath)
	if err != nil {
		a.files.RemoveArtifacts(originalPath)
		a.log.Error("text extraction failed", "documentId", docID, "error", err)
		respondMessage(c, http.StatusBadRequest, "unable to read document content")
		return
	}

	ctx := c.Request.Context()
	placeholders := a.parser.Parse(ctx, text)
	if len(placeholders) == 0 {
		a.files.RemoveArtifacts(originalPath)
		respondError(c, http.StatusUnprocessableEntity, domain.ErrNoPlaceholders)
		return
	}

	workingPath := a.files.WorkingPath(docID)
	if err := a.templater.CreateWorkingCopy(originalPath, workingPath, placeholders); err != nil {
		a.files.RemoveArtifacts(originalPath, workingPath)
		a.log.Error("working copy failed", "documentId", docID, "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	stats := &domain.ParseStats{TotalPlaceholders: len(placeholders)}
	for i := range placeholders {
		if placeholders[i].Analysis != nil {
			stats.ConfidenceScores = append(stats.ConfidenceScores, placeholders[i].Analysis.Confidence)
			stats.PlaceholderTypes = append(stats.PlaceholderTypes, placeholders[i].Analysis.InferredType)
		}
	}

	doc := domain.Document{
		ID:           docID,
		Title:        strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename)),
		OriginalPath: originalPath,
		WorkingPath:  workingPath,
		Placeholders: placeholders,
		Metadata:     stats,
	}

	saved, err := a.store.CreateDocument(doc)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	a.log.Info("document ingested", "documentId", saved.ID, "placeholders", len(placeholders))
	c.JSON(http.StatusCreated, gin.H{"document": saved})
}

func (a *API) handleListDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.ListDocuments())
}

func (a *API) handleGetDocument(c *gin.Context) {
	doc, err := a.store.GetDocument(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *API) handleDeleteDocument(c *gin.Context) {
	docID := c.Param("id")
	doc, err := a.store.GetDocument(docID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	if err := a.store.DeleteDocument(docID); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	a.files.RemoveArtifacts(doc.OriginalPath, doc.WorkingPath, doc.GeneratedPath, doc.PDFPath)
	c.Status(http.StatusNoContent)
}

func (a *API) handleStartSession(c *gin.Context) {
	var payload struct {
		DocumentID string `json:"documentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := a.engine.StartSession(c.Request.Context(), payload.DocumentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			respondMessage(c, http.StatusNotFound, "document not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (a *API) handleSessionStatus(c *gin.Context) {
	status, err := a.engine.SessionStatus(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrDocumentNotFound) {
			respondMessage(c, http.StatusNotFound, "session not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (a *API) handleSessionMessage(c *gin.Context) {
	var payload struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := a.engine.ProcessTurn(c.Request.Context(), c.Param("id"), payload.Message)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrDocumentNotFound) {
			respondMessage(c, http.StatusNotFound, "session not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a *API) handleGenerateDocument(c *gin.Context) {
	docID := c.Param("id")
	doc, err := a.store.GetDocument(docID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	outputPath := a.files.GeneratedPath(docID)
	if err := a.generator.Generate(&doc, outputPath); err != nil {
		if errors.Is(err, domain.ErrGenerationBlocked) {
			respondMessage(c, http.StatusConflict, err.Error())
			return
		}
		a.log.Error("generation failed", "documentId", docID, "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	doc.GeneratedPath = outputPath
	saved, err := a.store.UpdateDocument(doc)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": saved, "generatedPath": outputPath})
}

func (a *API) handleDownloadDocument(c *gin.Context) {
	doc, err := a.store.GetDocument(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	if doc.GeneratedPath == "" {
		respondMessage(c, http.StatusBadRequest, "document has not been generated yet")
		return
	}
	if _, err := os.Stat(doc.GeneratedPath); err != nil {
		respondMessage(c, http.StatusNotFound, "generated file not found")
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	c.FileAttachment(doc.GeneratedPath, doc.Title+".docx")
}

func (a *API) handleGeneratePDF(c *gin.Context) {
	docID := c.Param("id")
	doc, err := a.store.GetDocument(docID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	if doc.GeneratedPath == "" {
		respondMessage(c, http.StatusBadRequest, "document has not been generated yet")
		return
	}

	bodyText, err := docfile.ExtractText(doc.GeneratedPath)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	pdfPath := a.files.PDFPath(doc.ID)
	if err := a.pdf.GeneratePDF(doc, bodyText, pdfPath); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	doc.PDFPath = pdfPath
	if _, err := a.store.UpdateDocument(doc); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pdfPath": pdfPath})
}

func (a *API) handleShareDocument(c *gin.Context) {
	docID := c.Param("id")
	doc, err := a.store.GetDocument(docID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	if doc.GeneratedPath == "" {
		respondMessage(c, http.StatusBadRequest, "document has not been generated yet")
		return
	}

	url, expiresAt, err := a.share.Generate(docID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

func (a *API) handleServeDownload(c *gin.Context) {
	docID := c.Param("id")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	path := c.Request.URL.Path
	if !a.share.Validate(path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	doc, err := a.store.GetDocument(docID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}

	filePath := doc.GeneratedPath
	if filePath == "" {
		filePath = a.files.GeneratedPath(docID)
	}
	if _, err := os.Stat(filePath); err != nil {
		respondMessage(c, http.StatusNotFound, "generated file not found")
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	c.FileAttachment(filePath, doc.Title+".docx")
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
