package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

func sampleRecord() entity.ConsolidatedRecord {
	return entity.ConsolidatedRecord{
		Meta: entity.ConsolidatedMeta{Units: entity.StrPtr("thousands"), TTMPresent: true, Warnings: []string{}},
		Rows: []entity.ConsolidatedRow{
			{
				AccountNumber:     entity.StrPtr("4000"),
				AccountName:       "Revenue",
				Y2022:             entity.FloatPtr(1234567.891),
				Y2023:             entity.FloatPtr(-250.5),
				Y2024:             entity.FloatPtr(0),
				TTM:               entity.FloatPtr(99.999),
				MappedCOACode:     entity.StrPtr("4000"),
				MappedCOAName:     entity.StrPtr("Sales"),
				MappingConfidence: entity.FloatPtr(0.875),
				Confidence:        entity.FloatPtr(1),
				Notes:             entity.StrPtr("merged two lines"),
			},
			{AccountName: "Cost of sales", Y2023: entity.FloatPtr(-12.34)},
		},
	}
}

func TestRenderXLSX_RoundTrip(t *testing.T) {
	in := sampleRecord()
	data, err := NewService(nil).RenderXLSX(context.Background(), in)
	require.NoError(t, err)

	out, err := ReadXLSX(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, out.Rows, len(in.Rows))

	for i := range in.Rows {
		want, got := in.Rows[i], out.Rows[i]
		assert.Equal(t, want.AccountName, got.AccountName)
		assert.Equal(t, want.AccountNumber, got.AccountNumber)
		assert.Equal(t, want.MappedCOACode, got.MappedCOACode)
		assert.Equal(t, want.MappedCOAName, got.MappedCOAName)
		assert.Equal(t, want.Notes, got.Notes)
		for _, pair := range [][2]*float64{
			{want.Y2022, got.Y2022}, {want.Y2023, got.Y2023}, {want.Y2024, got.Y2024},
			{want.TTM, got.TTM}, {want.MappingConfidence, got.MappingConfidence}, {want.Confidence, got.Confidence},
		} {
			if pair[0] == nil {
				assert.Nil(t, pair[1])
				continue
			}
			require.NotNil(t, pair[1])
			assert.InDelta(t, *pair[0], *pair[1], 0.01)
		}
	}
	assert.True(t, out.Meta.TTMPresent)
}

func TestRenderXLSX_Layout(t *testing.T) {
	data, err := NewService(nil).RenderXLSX(context.Background(), sampleRecord())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, Headers, rows[0])

	// header bold
	styleID, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	// number formats
	for cell, want := range map[string]string{"C2": amountFormat, "F3": amountFormat, "I2": confidenceFormat, "J2": confidenceFormat} {
		id, err := f.GetCellStyle(SheetName, cell)
		require.NoError(t, err)
		st, err := f.GetStyle(id)
		require.NoError(t, err)
		require.NotNil(t, st.CustomNumFmt, cell)
		assert.Equal(t, want, *st.CustomNumFmt, cell)
	}

	// frozen header
	panes, err := f.GetPanes(SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)

	// widths
	for i, want := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w, err := f.GetColWidth(SheetName, col)
		require.NoError(t, err)
		assert.InDelta(t, want, w, 0.01, col)
	}

	// absent values stay empty
	v, err := f.GetCellValue(SheetName, "A3")
	require.NoError(t, err)
	assert.Empty(t, v)
	v, err = f.GetCellValue(SheetName, "C3")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = f.GetCellValue(SheetName, "D2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "-250.5", v)
}

func TestRenderXLSX_NoRows(t *testing.T) {
	data, err := NewService(nil).RenderXLSX(context.Background(), entity.ConsolidatedRecord{})
	require.NoError(t, err)

	out, err := ReadXLSX(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, out.Rows)
	assert.False(t, out.Meta.TTMPresent)
}

func TestReadXLSX_RejectsForeignWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetName))
	require.NoError(t, f.SetCellValue(SheetName, "A1", "Something else"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ReadXLSX(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}
