package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

// ParseRecord turns a raw model reply into a ConsolidatedRecord: fences are stripped, the
// payload is sanitized, validated against the schema and decoded.
func ParseRecord(raw string, logger *slog.Logger) (entity.ConsolidatedRecord, error) {
	content := []byte(StripCodeFences(raw))
	if !json.Valid(content) {
		return entity.ConsolidatedRecord{}, fmt.Errorf("reply is not valid JSON")
	}

	cleaned, _, err := NormalizeAndSanitizeJSON(content, logger)
	if err != nil {
		return entity.ConsolidatedRecord{}, err
	}
	if err := ValidateConsolidatedJSON(cleaned); err != nil {
		return entity.ConsolidatedRecord{}, err
	}

	var out entity.ConsolidatedRecord
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return entity.ConsolidatedRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	if out.Meta.Warnings == nil {
		out.Meta.Warnings = []string{}
	}
	if out.Rows == nil {
		out.Rows = []entity.ConsolidatedRow{}
	}
	return out, nil
}
