package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// FileManager owns the on-disk layout for document artifacts:
//
//	uploads/   original .docx files as received
//	working/   marker-stamped working copies
//	generated/ filled documents
//	pdf/       rendered PDF previews
type FileManager struct {
	baseDir  string
	maxBytes int64
}

func NewFileManager(baseDir string, maxBytes int64) (*FileManager, error) {
	for _, sub := range []string{"uploads", "working", "generated", "pdf"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}
	return &FileManager{baseDir: baseDir, maxBytes: maxBytes}, nil
}

// SaveUpload copies an uploaded .docx into uploads/ under the document ID.
// Rejects anything that is not a .docx or exceeds the configured size cap.
func (fm *FileManager) SaveUpload(docID string, header *multipart.FileHeader) (string, error) {
	if !strings.EqualFold(filepath.Ext(header.Filename), ".docx") {
		return "", fmt.Errorf("unsupported file type %q, expected .docx", filepath.Ext(header.Filename))
	}
	if fm.maxBytes > 0 && header.Size > fm.maxBytes {
		return "", fmt.Errorf("file too large: %d bytes (limit %d)", header.Size, fm.maxBytes)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(fm.baseDir, "uploads", docID+".docx")
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	limit := fm.maxBytes
	if limit <= 0 {
		limit = header.Size
	}
	written, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if fm.maxBytes > 0 && written > fm.maxBytes {
		os.Remove(dstPath)
		return "", fmt.Errorf("file too large: exceeds %d bytes", fm.maxBytes)
	}

	return dstPath, nil
}

func (fm *FileManager) WorkingPath(docID string) string {
	return filepath.Join(fm.baseDir, "working", docID+".docx")
}

func (fm *FileManager) GeneratedPath(docID string) string {
	return filepath.Join(fm.baseDir, "generated", docID+".docx")
}

func (fm *FileManager) PDFPath(docID string) string {
	return filepath.Join(fm.baseDir, "pdf", docID+".pdf")
}

// RemoveArtifacts deletes the given files. Missing files are not an error.
func (fm *FileManager) RemoveArtifacts(paths ...string) {
	for _, path := range paths {
		if path != "" {
			os.Remove(path)
		}
	}
}
