package constants

import (
	"mime"
	"strings"
)

// PDF is the only accepted document format.
const PDF = "PDF"

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeJSON = "application/json"
)

// Extraction methods recorded on each document outcome.
const (
	MethodPDFText   = "pdf-text"   // embedded text layer, structural parse
	MethodPDFLayout = "pdf-layout" // pdftotext -layout
	MethodPDFOCR    = "pdf-ocr"    // rasterized pages + OCR
)

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFMediaType reports whether a declared content type names a PDF.
// Parameters (e.g. "; name=x") are ignored.
func IsPDFMediaType(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(mediaType))
	if err != nil {
		return false
	}
	return mt == MediaTypePDF
}

// MediaTypeForExt maps a file extension to the media type a browser would declare for it.
func MediaTypeForExt(ext string) string {
	ext = NormalizeExt(ext)
	if ext == "pdf" {
		return MediaTypePDF
	}
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
