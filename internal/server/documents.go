package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/citecheck/constants"
	"github.com/joseph-ayodele/citecheck/internal/pdfdoc"
	"github.com/joseph-ayodele/citecheck/internal/pipeline"
)

// VerifyDocument handles POST /api/documents: multipart PDF upload, full
// pipeline run, JSON result. Extraction failure is an error response;
// verification failure is reported alongside the extracted text so the
// caller can still use and export it.
func (s *Service) VerifyDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}
	if fileHeader.Size > s.maxUploadMB<<20 {
		errorResponse(c, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "File exceeds upload limit")
		return
	}

	mediaType := fileHeader.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = constants.MediaTypePDF
	}

	f, err := fileHeader.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "UNREADABLE_FILE", "Could not open uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "UNREADABLE_FILE", "Could not read uploaded file")
		return
	}

	res, err := s.processor.ProcessDocument(c.Request.Context(), data, mediaType, fileHeader.Filename)
	if err != nil {
		status, code := extractionErrorStatus(err)
		s.logger.Warn("server.document.extract_failed", "filename", fileHeader.Filename, "code", code, "error", err)
		errorResponse(c, status, code, err.Error())
		return
	}

	resp := gin.H{
		"success":    true,
		"run_id":     res.RunID,
		"page_count": len(res.Document.Pages),
		"text":       res.Document.Text,
	}
	if res.VerifyErr != nil {
		resp["verification"] = gin.H{
			"ok":      false,
			"code":    verificationErrorCode(res.VerifyErr),
			"message": res.VerifyErr.Error(),
		}
	} else {
		resp["verification"] = gin.H{"ok": true}
		resp["citations"] = res.Records
		resp["summary"] = res.Summary
	}
	c.JSON(http.StatusOK, resp)
}

func extractionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, pdfdoc.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE"
	case errors.Is(err, pdfdoc.ErrDocumentOpen):
		return http.StatusBadRequest, "DOCUMENT_OPEN_FAILED"
	case errors.Is(err, pipeline.ErrInsufficientText):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_TEXT"
	case isCancelled(err):
		return 499, "CANCELLED" // client closed request
	default:
		return http.StatusInternalServerError, "EXTRACTION_FAILED"
	}
}
