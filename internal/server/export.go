package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/llm"
)

const (
	exportFilename = "consolidated.xlsx"
	maxExportBody  = 16 << 20
)

// handleExportXLSX renders a posted ConsolidatedRecord as a workbook download.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.LoggerFromContext(ctx, s.logger)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExportBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, logger, common.NewAppError("PAYLOAD_TOO_LARGE", "Request body too large", common.ErrPayloadTooLarge))
			return
		}
		writeError(w, logger, common.InvalidInputf("Could not read request body"))
		return
	}
	if err := llm.ValidateConsolidatedJSON(raw); err != nil {
		logger.Warn("export.xlsx.invalid_body", "err", err)
		writeError(w, logger, common.NewAppError("VALIDATION", "Body is not a valid consolidated record", errors.Join(common.ErrValidation, err)))
		return
	}
	var rec entity.ConsolidatedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		writeError(w, logger, common.InvalidInputf("Invalid JSON body"))
		return
	}

	data, err := s.renderer.RenderXLSX(ctx, rec)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", constants.MediaTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
