package coa

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

// Reconcile aligns the mapped COA fields of rec with the chart and returns the warnings it raised.
//
//   - a row with a known code gets the chart's name for that code
//   - a row with an unknown code keeps it and raises a warning
//   - a row without a code gets one only when its mapped name matches one chart entry exactly,
//     or is within maxNameDistance edits of a single closest entry; the account name is never used
//
// Nothing is changed when the chart is empty.
func Reconcile(rec *entity.ConsolidatedRecord, chart *Chart, logger *slog.Logger) []string {
	if rec == nil || chart == nil || chart.Len() == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	var warnings []string
	var canonicalized, filled int
	for i := range rec.Rows {
		row := &rec.Rows[i]

		if row.MappedCOACode != nil && strings.TrimSpace(*row.MappedCOACode) != "" {
			code := strings.TrimSpace(*row.MappedCOACode)
			e, ok := chart.Lookup(code)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("Mapped COA code %s for %q is not in the chart of accounts", code, row.AccountName))
				continue
			}
			row.MappedCOACode = entity.StrPtr(e.Code)
			if e.Name != "" && (row.MappedCOAName == nil || *row.MappedCOAName != e.Name) {
				row.MappedCOAName = entity.StrPtr(e.Name)
				canonicalized++
			}
			continue
		}

		if row.MappedCOAName == nil {
			continue
		}
		if e, ok := chart.matchName(*row.MappedCOAName); ok {
			row.MappedCOACode = entity.StrPtr(e.Code)
			if e.Name != "" {
				row.MappedCOAName = entity.StrPtr(e.Name)
			}
			filled++
		}
	}

	logger.Debug("coa.reconcile.ok",
		"rows", len(rec.Rows),
		"chart_entries", chart.Len(),
		"canonicalized", canonicalized,
		"filled", filled,
		"warnings", len(warnings),
	)
	return warnings
}

// maxNameDistance bounds the edit distance of a ranked name match.
const maxNameDistance = 2

// matchName returns the single entry whose name matches query. A case-insensitive match after
// whitespace normalization wins; otherwise the closest ranked fuzzy hit is used when it is within
// maxNameDistance and no other entry is as close. Ambiguous or missing matches return false.
func (c *Chart) matchName(query string) (Entry, bool) {
	q := normalizeName(query)
	if q == "" {
		return Entry{}, false
	}

	var exact []Entry
	for _, e := range c.entries {
		if strings.EqualFold(normalizeName(e.Name), q) {
			exact = append(exact, e)
		}
	}
	if len(exact) == 1 {
		return exact[0], true
	}
	if len(exact) > 1 {
		return Entry{}, false
	}

	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = strings.ToLower(normalizeName(e.Name))
	}
	lq := strings.ToLower(q)

	// best distance per entry, in either subsequence direction
	dist := make(map[int]int)
	for _, r := range fuzzy.RankFindNormalizedFold(lq, names) {
		dist[r.OriginalIndex] = r.Distance
	}
	for i, name := range names {
		if name == "" {
			continue
		}
		for _, r := range fuzzy.RankFindNormalizedFold(name, []string{lq}) {
			if d, ok := dist[i]; !ok || r.Distance < d {
				dist[i] = r.Distance
			}
		}
	}

	var ranked fuzzy.Ranks
	for i, d := range dist {
		if d <= maxNameDistance {
			ranked = append(ranked, fuzzy.Rank{Target: names[i], OriginalIndex: i, Distance: d})
		}
	}
	if len(ranked) == 0 {
		return Entry{}, false
	}
	sort.Sort(ranked)
	if len(ranked) > 1 && ranked[0].Distance == ranked[1].Distance {
		return Entry{}, false
	}
	return c.entries[ranked[0].OriginalIndex], true
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
