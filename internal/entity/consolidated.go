package entity

// ConsolidatedRecord is the structured pro forma returned by the LLM and rendered to XLSX.
type ConsolidatedRecord struct {
	Meta ConsolidatedMeta  `json:"meta"`
	Rows []ConsolidatedRow `json:"rows"`
}

// ConsolidatedMeta carries submission-wide facts about the statements.
type ConsolidatedMeta struct {
	Units      *string  `json:"units"`
	TTMPresent bool     `json:"ttm_present"`
	Warnings   []string `json:"warnings"`
}

// ConsolidatedRow is a single account line. Nil means the value was not present in the source.
type ConsolidatedRow struct {
	AccountNumber     *string  `json:"account_number"`
	AccountName       string   `json:"account_name"`
	Y2022             *float64 `json:"y2022"`
	Y2023             *float64 `json:"y2023"`
	Y2024             *float64 `json:"y2024"`
	TTM               *float64 `json:"ttm"`
	MappedCOACode     *string  `json:"mapped_coa_code"`
	MappedCOAName     *string  `json:"mapped_coa_name"`
	MappingConfidence *float64 `json:"mapping_confidence"`
	Confidence        *float64 `json:"confidence"`
	Notes             *string  `json:"notes"`
}

// MergeWarnings appends each warning unless Meta.Warnings already held it before the call.
// Repeats among the appended warnings are kept.
func (r *ConsolidatedRecord) MergeWarnings(warnings ...string) {
	existing := make(map[string]struct{}, len(r.Meta.Warnings))
	for _, w := range r.Meta.Warnings {
		existing[w] = struct{}{}
	}
	for _, w := range warnings {
		if _, ok := existing[w]; ok {
			continue
		}
		r.Meta.Warnings = append(r.Meta.Warnings, w)
	}
	if r.Meta.Warnings == nil {
		r.Meta.Warnings = []string{}
	}
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
