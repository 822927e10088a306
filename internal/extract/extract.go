// Package extract implements format-dispatching text extraction for the
// document formats the indexing pipeline understands: PDF, DOCX, PPTX, TXT,
// and CSV. Dispatch is keyed on the document reference's file extension;
// unsupported extensions are reported via DetectFormat so callers can skip
// the document without treating it as an error.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format int

const (
	// FormatPDF is a PDF document; page texts are joined with a space.
	FormatPDF Format = iota
	// FormatDOCX is a Word document; paragraph texts are joined with newlines.
	FormatDOCX
	// FormatPPTX is a PowerPoint presentation; shape texts are joined with
	// newlines in slide order, then shape order within a slide.
	FormatPPTX
	// FormatTXT is a plain text file read verbatim.
	FormatTXT
	// FormatCSV is a CSV file; cells are joined with spaces, rows with newlines.
	FormatCSV
)

// String returns the canonical lowercase extension for the format.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatPPTX:
		return "pptx"
	case FormatTXT:
		return "txt"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// DetectFormat maps a document reference to its Format by file extension.
// The second return value is false for unsupported extensions, which the
// caller must treat as a silent skip, not an error.
func DetectFormat(ref string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	case ".pptx":
		return FormatPPTX, true
	case ".txt":
		return FormatTXT, true
	case ".csv":
		return FormatCSV, true
	default:
		return 0, false
	}
}

// Text extracts the full text content of the local file at path using the
// rules for the given format. Extraction failures (including a failure on any
// single PDF page) are returned as errors rather than silently producing an
// empty document.
func Text(path string, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return pdfText(path)
	case FormatDOCX:
		return docxText(path)
	case FormatPPTX:
		return pptxText(path)
	case FormatTXT:
		return txtText(path)
	case FormatCSV:
		return csvText(path)
	default:
		return "", fmt.Errorf("extract: unknown format %d", format)
	}
}
