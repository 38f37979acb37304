package constants

// DocumentStatus is the terminal state of one uploaded document inside a submission.
type DocumentStatus string

// Stable values (these strings appear in logs and metrics labels).
const (
	DocumentAccepted            DocumentStatus = "ACCEPTED"              // native text was enough
	DocumentAcceptedWithWarning DocumentStatus = "ACCEPTED_WITH_WARNING" // OCR fallback produced text
	DocumentSkipped             DocumentStatus = "SKIPPED"               // wrong media type
	DocumentSkippedWithWarning  DocumentStatus = "SKIPPED_WITH_WARNING"  // OCR failed or no text at all
)

// Accepted reports whether the document contributes text to the submission.
func (s DocumentStatus) Accepted() bool {
	return s == DocumentAccepted || s == DocumentAcceptedWithWarning
}
