package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reCodeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")
	reNumNoise  = regexp.MustCompile(`[\s,$€£]`)
)

var (
	rowNumberFields = []string{"y2022", "y2023", "y2024", "ttm", "mapping_confidence", "confidence"}
	rowStringFields = []string{"account_number", "mapped_coa_code", "mapped_coa_name", "notes"}
	rowAllowed      = map[string]struct{}{
		"account_number": {}, "account_name": {}, "y2022": {}, "y2023": {}, "y2024": {}, "ttm": {},
		"mapped_coa_code": {}, "mapped_coa_name": {}, "mapping_confidence": {}, "confidence": {}, "notes": {},
	}
	metaAllowed = map[string]struct{}{"units": {}, "ttm_present": {}, "warnings": {}}
)

// StripCodeFences removes a surrounding ```json ... ``` block, if any.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// NormalizeAndSanitizeJSON
// - Coerces numeric strings ("1,234", "(500.00)", "$12") to numbers; unparsable ones become null
// - Turns empty optional strings into null and numbers in string fields into strings
// - Coerces "true"/"false" for meta.ttm_present and defaults missing warnings to []
// - Removes unknown keys
// It never invents values: anything it cannot interpret is nulled, not guessed.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	note := func(s string) { changed = append(changed, s) }

	for k := range maps.Clone(m) {
		if k != "meta" && k != "rows" {
			delete(m, k)
			note(k + "(unknown)")
		}
	}

	if meta, ok := m["meta"].(map[string]any); ok {
		sanitizeMeta(meta, note)
	}

	if rows, ok := m["rows"].([]any); ok {
		for i, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				continue
			}
			sanitizeRow(row, func(s string) { note(fmt.Sprintf("rows[%d].%s", i, s)) })
		}
	} else if m["rows"] == nil {
		if _, present := m["rows"]; present {
			m["rows"] = []any{}
			note("rows(null)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changed", changed)
	}
	return out, changed, nil
}

func sanitizeMeta(meta map[string]any, note func(string)) {
	for k := range maps.Clone(meta) {
		if _, ok := metaAllowed[k]; !ok {
			delete(meta, k)
			note("meta." + k + "(unknown)")
		}
	}
	if s, ok := meta["units"].(string); ok {
		if s = strings.TrimSpace(s); s == "" {
			meta["units"] = nil
			note("meta.units(empty)")
		} else {
			meta["units"] = s
		}
	}
	if s, ok := meta["ttm_present"].(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			meta["ttm_present"] = b
			note("meta.ttm_present(string)")
		}
	}
	if v, present := meta["warnings"]; !present || v == nil {
		meta["warnings"] = []any{}
	}
}

func sanitizeRow(row map[string]any, note func(string)) {
	for k := range maps.Clone(row) {
		if _, ok := rowAllowed[k]; !ok {
			delete(row, k)
			note(k + "(unknown)")
		}
	}

	for _, k := range rowNumberFields {
		v, ok := row[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil, float64:
		case string:
			if d, ok := parseAmount(t); ok {
				row[k] = d.InexactFloat64()
				note(k + "(string)")
			} else {
				row[k] = nil
				note(k + "(unparsable)")
			}
		default:
			row[k] = nil
			note(k + "(type)")
		}
	}

	for _, k := range rowStringFields {
		v, ok := row[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
		case string:
			if s := strings.TrimSpace(t); s == "" || strings.EqualFold(s, "null") {
				row[k] = nil
				note(k + "(empty)")
			} else {
				row[k] = s
			}
		case float64:
			row[k] = strconv.FormatFloat(t, 'f', -1, 64)
			note(k + "(number)")
		default:
			row[k] = nil
			note(k + "(type)")
		}
	}

	if s, ok := row["account_name"].(string); ok {
		row["account_name"] = strings.TrimSpace(s)
	}
}

// parseAmount reads statement-style numbers: thousands separators, currency symbols,
// accounting parentheses and a trailing or leading minus. Dashes and blanks are not numbers.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = reNumNoise.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" || s == "-" || s == "—" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
		return decimal.Decimal{}, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}
