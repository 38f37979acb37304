package entity

import "github.com/joseph-ayodele/proforma-consolidator/constants"

// UploadedDocument is one file of a submission, held in memory for the request lifetime.
type UploadedDocument struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Size returns the document size in bytes.
func (d UploadedDocument) Size() int64 { return int64(len(d.Data)) }

// ExtractionResult is the text produced for a single document by one extractor.
type ExtractionResult struct {
	Text     string
	Method   string
	Pages    int
	Warnings []string
}

// DocumentOutcome records what the aggregator decided for one document.
type DocumentOutcome struct {
	Filename string
	Status   constants.DocumentStatus
	Method   string
	Text     string
	Warnings []string
}

// AggregatedSubmission is the combined extraction output of a submission.
// Text is non-empty iff at least one outcome was accepted.
type AggregatedSubmission struct {
	Text       string
	Warnings   []string
	Outcomes   []DocumentOutcome
	TotalBytes int64
}

// AcceptedCount returns how many documents contributed text.
func (a *AggregatedSubmission) AcceptedCount() int {
	n := 0
	for _, o := range a.Outcomes {
		if o.Status.Accepted() {
			n++
		}
	}
	return n
}
