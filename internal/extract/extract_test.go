package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/testutil"
)

// countingExtractor returns a canned result and counts invocations.
type countingExtractor struct {
	res   entity.ExtractionResult
	err   error
	calls int
}

func (c *countingExtractor) Extract(context.Context, []byte) (entity.ExtractionResult, error) {
	c.calls++
	return c.res, c.err
}

func text(n int) string { return strings.Repeat("x", n) }

func TestPlainTextExtractor(t *testing.T) {
	data := testutil.MinimalPDF("Income Statement\nRevenue 1,000.00", "Balance Sheet\nCash (250.00)")

	res, err := NewPlainTextExtractor(60, nil).Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, constants.MethodPDFText, res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "Revenue 1,000.00")
	assert.Contains(t, res.Text, "Cash (250.00)")
	assert.Equal(t, strings.TrimSpace(res.Text), res.Text)
}

func TestPlainTextExtractor_PageLimit(t *testing.T) {
	data := testutil.MinimalPDF("first page", "second page", "third page")

	res, err := NewPlainTextExtractor(2, nil).Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "second page")
	assert.NotContains(t, res.Text, "third page")
}

func TestPlainTextExtractor_ImageOnly(t *testing.T) {
	res, err := NewPlainTextExtractor(60, nil).Extract(context.Background(), testutil.MinimalPDF("", ""))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestPlainTextExtractor_NotAPDF(t *testing.T) {
	res, err := NewPlainTextExtractor(60, nil).Extract(context.Background(), []byte("definitely not a pdf, just some bytes"))
	require.Error(t, err)
	assert.Empty(t, res.Text)
}

func TestNativeExtractor(t *testing.T) {
	tests := []struct {
		name        string
		plain       *countingExtractor
		layout      *countingExtractor
		wantText    string
		wantMethod  string
		layoutCalls int
	}{
		{
			name:        "parser text over threshold skips layout",
			plain:       &countingExtractor{res: entity.ExtractionResult{Text: text(101), Method: constants.MethodPDFText}},
			layout:      &countingExtractor{res: entity.ExtractionResult{Text: "unused", Method: constants.MethodPDFLayout}},
			wantText:    text(101),
			wantMethod:  constants.MethodPDFText,
			layoutCalls: 0,
		},
		{
			name:        "exactly 100 chars falls through",
			plain:       &countingExtractor{res: entity.ExtractionResult{Text: text(100), Method: constants.MethodPDFText}},
			layout:      &countingExtractor{res: entity.ExtractionResult{Text: "  layout text \n", Method: constants.MethodPDFLayout}},
			wantText:    "layout text",
			wantMethod:  constants.MethodPDFLayout,
			layoutCalls: 1,
		},
		{
			name:        "parser error falls through",
			plain:       &countingExtractor{err: errors.New("malformed"), res: entity.ExtractionResult{Method: constants.MethodPDFText}},
			layout:      &countingExtractor{res: entity.ExtractionResult{Text: "short", Method: constants.MethodPDFLayout}},
			wantText:    "short",
			wantMethod:  constants.MethodPDFLayout,
			layoutCalls: 1,
		},
		{
			name:        "parser text read before a failure over threshold skips layout",
			plain:       &countingExtractor{err: errors.New("page 3: bad stream"), res: entity.ExtractionResult{Text: text(150), Method: constants.MethodPDFText}},
			layout:      &countingExtractor{res: entity.ExtractionResult{Text: "unused", Method: constants.MethodPDFLayout}},
			wantText:    text(150),
			wantMethod:  constants.MethodPDFText,
			layoutCalls: 0,
		},
		{
			name:        "short parser text read before a failure falls through",
			plain:       &countingExtractor{err: errors.New("page 2: bad stream"), res: entity.ExtractionResult{Text: text(50), Method: constants.MethodPDFText}},
			layout:      &countingExtractor{res: entity.ExtractionResult{Text: "layout", Method: constants.MethodPDFLayout}},
			wantText:    "layout",
			wantMethod:  constants.MethodPDFLayout,
			layoutCalls: 1,
		},
		{
			name:        "both fail yields empty text without error",
			plain:       &countingExtractor{err: errors.New("malformed")},
			layout:      &countingExtractor{err: errors.New("exit status 1"), res: entity.ExtractionResult{Text: "garbage", Method: constants.MethodPDFLayout}},
			wantText:    "",
			wantMethod:  constants.MethodPDFLayout,
			layoutCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewNativeExtractor(tt.plain, tt.layout, 100, nil)
			res, trace, err := chain.Run(context.Background(), []byte("%PDF"))
			require.NoError(t, err)

			assert.Equal(t, tt.wantText, res.Text)
			assert.Equal(t, tt.wantMethod, res.Method)
			assert.Equal(t, 1, tt.plain.calls)
			assert.Equal(t, tt.layoutCalls, tt.layout.calls)
			assert.Equal(t, tt.layoutCalls == 1, trace.Ran(StageLayout))
		})
	}
}

func TestNativeExtractor_RealParser(t *testing.T) {
	layout := &countingExtractor{}
	chain := NewNativeExtractor(NewPlainTextExtractor(60, nil), layout, 100, nil)

	res, err := chain.Extract(context.Background(), testutil.MinimalPDF(testutil.Lines("Revenue", 5)))
	require.NoError(t, err)
	assert.Equal(t, constants.MethodPDFText, res.Method)
	assert.Zero(t, layout.calls)
}

func TestChain_RecoverDiscardsTextUnlessKeepPartial(t *testing.T) {
	failing := func() *countingExtractor {
		return &countingExtractor{err: errors.New("broken"), res: entity.ExtractionResult{Text: "partial"}}
	}
	for _, keep := range []bool{false, true} {
		chain := NewChain(nil,
			Stage{Name: "a", Extractor: failing(), Accept: AtLeastChars(1), Recover: true, KeepPartial: keep},
			Stage{Name: "b", Extractor: &countingExtractor{res: entity.ExtractionResult{Text: "fallback"}}},
		)
		res, trace, err := chain.Run(context.Background(), nil)
		require.NoError(t, err)

		att, ok := trace.Find("a")
		require.True(t, ok)
		assert.Error(t, att.Err)
		if keep {
			assert.Equal(t, "partial", res.Text)
			assert.False(t, trace.Ran("b"))
		} else {
			assert.Equal(t, "fallback", res.Text)
			assert.Empty(t, att.Result.Text)
		}
	}
}

func TestChain_StopsOnUnrecoveredError(t *testing.T) {
	boom := errors.New("ocr failed")
	first := &countingExtractor{res: entity.ExtractionResult{Text: "tiny"}}
	second := &countingExtractor{err: boom}
	third := &countingExtractor{}

	chain := NewChain(nil,
		Stage{Name: "a", Extractor: first, Accept: AtLeastChars(300), Recover: true},
		Stage{Name: "b", Extractor: second, Accept: AtLeastChars(1)},
		Stage{Name: "c", Extractor: third},
	)
	_, trace, err := chain.Run(context.Background(), nil)

	require.ErrorIs(t, err, boom)
	require.Len(t, trace, 2)
	att, ok := trace.Find("b")
	require.True(t, ok)
	assert.ErrorIs(t, att.Err, boom)
	assert.False(t, trace.Ran("c"))
	assert.Zero(t, third.calls)
}

func TestChain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := &countingExtractor{}

	_, trace, err := NewChain(nil, Stage{Name: "a", Extractor: first}).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, trace)
	assert.Zero(t, first.calls)
}

func TestPredicatesCountRunes(t *testing.T) {
	r := entity.ExtractionResult{Text: strings.Repeat("é", 3)}
	assert.True(t, AtLeastChars(3)(r))
	assert.False(t, MinChars(3)(r))
	assert.True(t, MinChars(2)(r))
}
