package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

// SheetName is the single worksheet of the export.
const SheetName = "Consolidated"

// Headers is the header row, in column order A..K.
var Headers = []string{
	"Account Number",
	"Account Name",
	"2022",
	"2023",
	"2024",
	"TTM",
	"Mapped COA Code",
	"Mapped COA Name",
	"Mapping Confidence",
	"Confidence",
	"Notes",
}

var colWidths = []float64{18, 30, 12, 12, 12, 12, 18, 24, 18, 12, 30}

const (
	amountFormat     = "#,##0.00_);(#,##0.00)"
	confidenceFormat = "0.00"
)

// Service renders consolidated records to XLSX.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RenderXLSX returns the workbook bytes for rec. Nil values leave their cells empty.
func (s *Service) RenderXLSX(_ context.Context, rec entity.ConsolidatedRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, r := range rec.Rows {
		write := func(col int, v any) error {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			return f.SetCellValue(SheetName, cell, v)
		}
		cells := []any{
			deref(r.AccountNumber),
			r.AccountName,
			derefF(r.Y2022),
			derefF(r.Y2023),
			derefF(r.Y2024),
			derefF(r.TTM),
			deref(r.MappedCOACode),
			deref(r.MappedCOAName),
			derefF(r.MappingConfidence),
			derefF(r.Confidence),
			deref(r.Notes),
		}
		for i, v := range cells {
			if v == nil {
				continue
			}
			if err := write(i+1, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		row++
	}
	lastRow := row - 1

	if err := s.applyLayout(f, lastRow); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rec.Rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) applyLayout(f *excelize.File, lastRow int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "K1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return fmt.Errorf("column width %s: %w", col, err)
		}
	}

	if lastRow >= 2 {
		amountFmt, confFmt := amountFormat, confidenceFormat
		amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
		if err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
		conf, err := f.NewStyle(&excelize.Style{CustomNumFmt: &confFmt})
		if err != nil {
			return fmt.Errorf("confidence style: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "C2", fmt.Sprintf("F%d", lastRow), amount); err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "I2", fmt.Sprintf("J%d", lastRow), conf); err != nil {
			return fmt.Errorf("confidence style: %w", err)
		}
	}

	last := lastRow
	if last < 1 {
		last = 1
	}
	if err := f.AutoFilter(SheetName, fmt.Sprintf("A1:K%d", last), nil); err != nil {
		return fmt.Errorf("auto filter: %w", err)
	}
	return nil
}

// ReadXLSX parses a workbook produced by RenderXLSX back into a record. Only rows are
// stored in the sheet: Meta.TTMPresent is derived from the TTM column and Meta.Units is nil.
func ReadXLSX(r io.Reader) (entity.ConsolidatedRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return entity.ConsolidatedRecord{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return entity.ConsolidatedRecord{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return entity.ConsolidatedRecord{}, fmt.Errorf("sheet %q is empty", SheetName)
	}
	for i, h := range Headers {
		if i >= len(rows[0]) || rows[0][i] != h {
			return entity.ConsolidatedRecord{}, fmt.Errorf("unexpected header in column %d", i+1)
		}
	}

	out := entity.ConsolidatedRecord{
		Meta: entity.ConsolidatedMeta{Warnings: []string{}},
		Rows: make([]entity.ConsolidatedRow, 0, len(rows)-1),
	}
	for n, cells := range rows[1:] {
		get := func(i int) string {
			if i < len(cells) {
				return strings.TrimSpace(cells[i])
			}
			return ""
		}
		num := func(i int) (*float64, error) {
			s := get(i)
			if s == "" {
				return nil, nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", n+2, Headers[i], err)
			}
			return &v, nil
		}

		row := entity.ConsolidatedRow{
			AccountNumber: optStr(get(0)),
			AccountName:   get(1),
			MappedCOACode: optStr(get(6)),
			MappedCOAName: optStr(get(7)),
			Notes:         optStr(get(10)),
		}
		targets := map[int]**float64{
			2: &row.Y2022, 3: &row.Y2023, 4: &row.Y2024, 5: &row.TTM,
			8: &row.MappingConfidence, 9: &row.Confidence,
		}
		for col, dst := range targets {
			v, err := num(col)
			if err != nil {
				return entity.ConsolidatedRecord{}, err
			}
			*dst = v
		}
		if row.TTM != nil {
			out.Meta.TTMPresent = true
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefF(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
