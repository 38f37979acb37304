package llm

import (
	"encoding/json"
	"strings"
)

// DefaultMaxPromptChars bounds the document text embedded in the prompt.
const DefaultMaxPromptChars = 200000

// BuildConsolidationPrompt renders the extraction prompt. Text longer than maxChars
// characters is cut; maxChars <= 0 uses DefaultMaxPromptChars.
func BuildConsolidationPrompt(req ConsolidationRequest, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	coa := req.COACSV
	if coa == "" {
		coa = "(none)"
	}
	warnings := req.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	var b strings.Builder
	b.WriteString("\nYou are a financial statement extraction engine.\n")
	b.WriteString("Return JSON only.\n")
	b.WriteString("Use this exact schema shape: ")
	b.WriteString(mustJSON(SchemaHint()))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Never guess missing numbers; use null.\n")
	b.WriteString("- Convert parentheses to negative numbers.\n")
	b.WriteString("- Detect units (ones/thousands/millions), normalize values consistently, set meta.units.\n")
	b.WriteString("- Only include TTM if explicitly present.\n")
	b.WriteString("- Merge duplicates cautiously; if unsure keep separate and note.\n")
	b.WriteString("- mapping_confidence and confidence should be 0..1.\n")
	b.WriteString("\nCOA CSV (may be empty):\n")
	b.WriteString(coa)
	b.WriteString("\n\nSource text:\n")
	b.WriteString(truncateRunes(req.Text, maxChars))
	b.WriteString("\n\nExisting warnings from parsing pipeline:\n")
	b.WriteString(mustJSON(warnings))
	b.WriteString("\n")
	return b.String()
}

// BuildRepairPrompt asks the model to fix its own malformed reply.
func BuildRepairPrompt(raw string) string {
	return "Return valid JSON only, no markdown, matching the schema exactly. Repair this:\n" + raw
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
