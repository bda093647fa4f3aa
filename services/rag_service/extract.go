package rag_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"

	"github.com/sawtline/callsight/models"
)

var mimeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// PageText is one extracted unit of document text. PageNumber is 1-based for
// paginated formats and nil otherwise.
type PageText struct {
	Text       string
	PageNumber *int
}

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// ExtractPages converts the file at path into (text, page) units. When meta is
// non-nil and the format is paginated, meta.TotalPages is filled in.
func (e *DocumentExtractor) ExtractPages(path string, meta *models.DocumentMetadata) ([]PageText, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".pdf":
		pages, err := e.extractPDF(path)
		if err != nil {
			return nil, &ExtractionError{Filename: filepath.Base(path), Err: err}
		}
		if meta != nil {
			total := len(pages)
			meta.TotalPages = &total
		}
		return pages, nil
	case ".doc", ".docx":
		text, err := e.extractWord(path, mimeTypes[ext])
		if err != nil {
			return nil, &ExtractionError{Filename: filepath.Base(path), Err: err}
		}
		return []PageText{{Text: text}}, nil
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ExtractionError{Filename: filepath.Base(path), Err: err}
		}
		return []PageText{{Text: string(data)}}, nil
	default:
		return nil, &UnsupportedFormatError{Extension: ext}
	}
}

func (e *DocumentExtractor) extractPDF(path string) ([]PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return nil, fmt.Errorf("failed to create PDF reader: %v", err)
	}

	totalPages := reader.NumPage()
	e.logger.Debug("Starting PDF text extraction",
		slog.Int("total_pages", totalPages))

	pages := make([]PageText, 0, totalPages)
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		pageNumber := pageIndex
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			pages = append(pages, PageText{PageNumber: &pageNumber})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to extract text from page %d: %v", pageIndex, err)
		}

		pages = append(pages, PageText{Text: text, PageNumber: &pageNumber})
	}

	e.logger.Info("Extracted text from PDF",
		slog.Int("total_pages", totalPages))

	return pages, nil
}

func (e *DocumentExtractor) extractWord(path, mimeType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert Word document: %v", err)
	}

	return result.Body, nil
}
