package coa

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Entry is one account of the reference chart.
type Entry struct {
	Code string
	Name string
}

// Chart is a parsed chart of accounts keyed by code.
type Chart struct {
	entries []Entry
	byCode  map[string]Entry
}

// entryRow accepts the usual header spellings. Headers are lower-cased and trimmed before matching.
type entryRow struct {
	Code          string `csv:"code"`
	AccountCode   string `csv:"account_code"`
	AccountCode2  string `csv:"account code"`
	AccountNumber string `csv:"account_number"`
	AccountNo     string `csv:"account number"`
	COACode       string `csv:"coa_code"`

	Name         string `csv:"name"`
	AccountName  string `csv:"account_name"`
	AccountName2 string `csv:"account name"`
	Description  string `csv:"description"`
	COAName      string `csv:"coa_name"`
}

func (r entryRow) code() string {
	return firstNonEmpty(r.Code, r.AccountCode, r.AccountCode2, r.AccountNumber, r.AccountNo, r.COACode)
}

func (r entryRow) name() string {
	return firstNonEmpty(r.Name, r.AccountName, r.AccountName2, r.Description, r.COAName)
}

func init() {
	gocsv.SetHeaderNormalizer(func(h string) string {
		return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	})
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1
		return r
	})
}

// Parse reads a code,name chart. Blank input yields an empty chart; rows without a code are skipped
// and the first occurrence of a duplicated code wins.
func Parse(text string) (*Chart, error) {
	c := &Chart{byCode: map[string]Entry{}}
	if strings.TrimSpace(text) == "" {
		return c, nil
	}

	var rows []entryRow
	if err := gocsv.UnmarshalString(text, &rows); err != nil {
		return nil, fmt.Errorf("parse COA CSV: %w", err)
	}
	for _, r := range rows {
		e := Entry{Code: r.code(), Name: r.name()}
		if e.Code == "" {
			continue
		}
		if _, dup := c.byCode[e.Code]; dup {
			continue
		}
		c.byCode[e.Code] = e
		c.entries = append(c.entries, e)
	}
	return c, nil
}

func (c *Chart) Len() int { return len(c.entries) }

func (c *Chart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Chart) Lookup(code string) (Entry, bool) {
	e, ok := c.byCode[strings.TrimSpace(code)]
	return e, ok
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
