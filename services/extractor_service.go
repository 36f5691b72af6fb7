package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ErrUnsupportedFormat is returned when a file's extension is not in the
// supported set.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// SupportedExtensions lists the file types the extractor can load.
var SupportedExtensions = []string{".pdf", ".txt", ".csv"}

// DocumentPage is a unit of extracted text with its zero-based page number.
// Plain text files produce a single page; CSV files produce one page per row.
type DocumentPage struct {
	Text string
	Page int
}

// IsSupportedFile reports whether the file's extension is one the extractor
// handles.
func IsSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ExtractPages reads a file and returns its text content split per page.
// It automatically handles different file types.
func ExtractPages(path string) ([]DocumentPage, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		return []DocumentPage{{Text: string(content), Page: 0}}, nil
	case ".pdf":
		return extractPagesFromPDF(path)
	case ".csv":
		return extractRowsFromCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// extractPagesFromPDF uses UniPDF to get the text of each page.
func extractPagesFromPDF(path string) ([]DocumentPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %w", err)
	}

	pages := make([]DocumentPage, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, DocumentPage{Text: text, Page: i - 1})
	}

	return pages, nil
}

// extractRowsFromCSV loads a CSV file, one page per row.
func extractRowsFromCSV(path string) ([]DocumentPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	loader := documentloaders.NewCSV(f)
	docs, err := loader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load CSV: %w", err)
	}

	pages := make([]DocumentPage, 0, len(docs))
	for i, doc := range docs {
		pages = append(pages, DocumentPage{Text: doc.PageContent, Page: i})
	}
	return pages, nil
}
