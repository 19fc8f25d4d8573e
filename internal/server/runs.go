package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/citecheck/internal/common"
	"github.com/joseph-ayodele/citecheck/internal/oracle"
	"github.com/joseph-ayodele/citecheck/internal/verify"
)

// GetRun handles GET /api/runs/:id.
func (s *Service) GetRun(c *gin.Context) {
	id, ok := s.runID(c)
	if !ok {
		return
	}
	row, err := s.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "RUN_NOT_FOUND", "No such run")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	records, err := s.runs.ListCitations(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run": gin.H{
			"id":         row.ID,
			"filename":   row.Filename,
			"status":     row.Status,
			"page_count": row.PageCount,
			"text_chars": row.TextChars,
			"error":      row.ErrorMessage,
			"created_at": row.CreatedAt,
			"updated_at": row.UpdatedAt,
		},
		"citations": records,
		"summary":   verify.Summarize(records),
	})
}

// ExportRun handles GET /api/runs/:id/export?format=xlsx|csv.
func (s *Service) ExportRun(c *gin.Context) {
	id, ok := s.runID(c)
	if !ok {
		return
	}
	row, err := s.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "RUN_NOT_FOUND", "No such run")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	records, err := s.runs.ListCitations(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	var payload []byte
	var contentType, filename string
	switch format {
	case "xlsx":
		payload, err = s.export.CitationsXLSX(row.Filename, records, verify.Summarize(records))
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = fmt.Sprintf("citations-%s.xlsx", row.ID)
	case "csv":
		payload, err = s.export.CitationsCSV(records)
		contentType = "text/csv"
		filename = fmt.Sprintf("citations-%s.csv", row.ID)
	default:
		errorResponse(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return
	}
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "EXPORT_FAILED", err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}

func (s *Service) runID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_RUN_ID", "Invalid run id format")
		return uuid.Nil, false
	}
	return id, true
}

func verificationErrorCode(err error) string {
	switch {
	case errors.Is(err, oracle.ErrRateLimited):
		return "ORACLE_RATE_LIMITED"
	case errors.Is(err, oracle.ErrInputTooLarge):
		return "INPUT_TOO_LARGE"
	case errors.Is(err, oracle.ErrMalformed):
		return "ORACLE_MALFORMED_RESPONSE"
	case errors.Is(err, oracle.ErrUnavailable):
		return "ORACLE_UNAVAILABLE"
	case isCancelled(err):
		return "CANCELLED"
	default:
		return "VERIFICATION_FAILED"
	}
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
