package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"entityaudit/internal/audit"
	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/pagination"
	"entityaudit/internal/services"
)

// AuditLogHandler serves the read-only audit log API.
type AuditLogHandler struct {
	auditLogService services.AuditLogServicer
}

// NewAuditLogHandler creates a new AuditLogHandler.
func NewAuditLogHandler(auditLogService services.AuditLogServicer) *AuditLogHandler {
	return &AuditLogHandler{auditLogService: auditLogService}
}

// SubjectURI identifies the audited subject. An empty SubjectID selects
// records of subjects that had no primary key yet.
type SubjectURI struct {
	SubjectType string `uri:"subject_type" binding:"required,subject_type"`
	SubjectID   string `uri:"subject_id"`
}

// AuditLogQuery holds the query string of the subject history endpoint.
type AuditLogQuery struct {
	pagination.PageRequest
	Action  string `form:"action" binding:"omitempty,audit_action"`
	Success *bool  `form:"success"`
	Format  string `form:"format" binding:"omitempty,oneof=json diff"`
}

// AuditLogEntry is an audit record as returned by the API. Diff is set when
// the diff format is requested and the record carries metadata.
type AuditLogEntry struct {
	audit.Record
	Diff string `json:"diff,omitempty"`
}

// GetSubjectLogs returns a subject's audit history, newest first.
// @Summary     List a subject's audit logs
// @Description Audit records of one entity, newest first
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       subject_type path  string true  "Entity type"
// @Param       subject_id   path  string true  "Entity primary key"
// @Param       action       query string false "Only this action"
// @Param       success      query bool   false "Only successful or failed attempts"
// @Param       format       query string false "json (default) or diff"
// @Param       page         query int    false "Page number"
// @Param       page_size    query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[AuditLogEntry]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/{subject_type}/{subject_id} [get]
func (h *AuditLogHandler) GetSubjectLogs(c *gin.Context) {
	var uri SubjectURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var query AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	query.Defaults()

	filter := services.AuditLogFilter{Action: query.Action, Success: query.Success}
	page, err := h.auditLogService.GetSubjectLogs(c.Request.Context(), uri.SubjectType, uri.SubjectID, filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEntries(page, query.Format == "diff"))
}

// GetRecentLogs returns the newest records across all subjects.
// @Summary     List recent audit logs
// @Description Newest audit records across every entity
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[AuditLogEntry]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     501 {object} ErrorResponse "Store cannot list across subjects"
// @Router      /audit-logs [get]
func (h *AuditLogHandler) GetRecentLogs(c *gin.Context) {
	var req pagination.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	req.Defaults()

	page, err := h.auditLogService.GetRecentLogs(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEntries(page, false))
}

func toEntries(page *pagination.PageResponse[audit.Record], withDiff bool) pagination.PageResponse[AuditLogEntry] {
	entries := make([]AuditLogEntry, 0, len(page.Data))
	for _, rec := range page.Data {
		entry := AuditLogEntry{Record: rec}
		if withDiff {
			entry.Diff = audit.Diff(rec.Metadata)
		}
		entries = append(entries, entry)
	}
	return pagination.PageResponse[AuditLogEntry]{
		Data:       entries,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
}
