package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/pipeline"
)

const (
	formFieldPDFs   = "pdfs"
	formFieldCOACSV = "coa_csv"

	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// handleConsolidate accepts repeated "pdfs" file parts and an optional "coa_csv" field.
func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := common.LoggerFromContext(ctx, s.logger)

	// the transport cap covers every part, non-PDF uploads included
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxTotalBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, logger, common.PayloadTooLarge(s.opts.MaxTotalBytes))
			return
		}
		// a body without any parts is the same as uploading nothing
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, io.EOF) {
			writeError(w, logger, common.NoDocuments())
			return
		}
		writeError(w, logger, common.InvalidInputf("Invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	docs, err := readDocuments(r.MultipartForm.File[formFieldPDFs])
	if err != nil {
		writeError(w, logger, err)
		return
	}

	res, err := s.processor.Process(ctx, pipeline.Submission{
		Documents: docs,
		COACSV:    r.FormValue(formFieldCOACSV),
	})
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Record)
}

func readDocuments(headers []*multipart.FileHeader) ([]entity.UploadedDocument, error) {
	docs := make([]entity.UploadedDocument, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, common.InvalidInputf("Could not read %s: %v", fh.Filename, err)
		}
		mediaType := fh.Header.Get("Content-Type")
		if mediaType == "" || mediaType == "application/octet-stream" {
			mediaType = constants.MediaTypeForExt(filepath.Ext(fh.Filename))
		}
		docs = append(docs, entity.UploadedDocument{
			Filename:  fh.Filename,
			MediaType: mediaType,
			Data:      data,
		})
	}
	return docs, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
