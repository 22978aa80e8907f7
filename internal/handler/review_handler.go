package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoiceview/internal/domain"
	"invoiceview/internal/export"
	"invoiceview/internal/review"
)

// ReviewHandler handles the review session endpoints.
type ReviewHandler struct {
	reviews review.Service
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews review.Service) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// sessionID parses the :id path parameter. Returns uuid.Nil and writes the
// error response when the id is malformed.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/reviews
// @Summary Create a review session
// @Description Start a fresh invoice review session at the upload step
// @Tags reviews
// @Produce json
// @Success 201 {object} APIResponse{data=review.SessionView} "Session created"
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	view := h.reviews.Create(c.Request.Context())
	RespondCreated(c, view)
}

// Get handles GET /api/v1/reviews/:id
// @Summary Get a review session
// @Description Snapshot of the session including upload progress and the record under review
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Session snapshot"
// @Failure 404 {object} APIResponse "Session not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// Upload handles POST /api/v1/reviews/:id/upload
// @Summary Upload an invoice document
// @Description Upload a PDF, JPG or PNG (max 10MB) and start extraction in the background
// @Tags reviews
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param file formData file true "Invoice document"
// @Success 202 {object} APIResponse{data=review.SessionView} "Extraction started"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 409 {object} APIResponse "Upload already in progress"
// @Failure 413 {object} APIResponse "File too large"
// @Router /reviews/{id}/upload [post]
func (h *ReviewHandler) Upload(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	view, err := h.reviews.StartUpload(c.Request.Context(), id, review.UploadInput{
		File:   file,
		Header: header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: view})
}

// CancelUpload handles POST /api/v1/reviews/:id/cancel
// @Summary Cancel the in-flight upload
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Upload cancelled"
// @Router /reviews/{id}/cancel [post]
func (h *ReviewHandler) CancelUpload(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.reviews.CancelUpload(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// Reset handles POST /api/v1/reviews/:id/reset
// @Summary Reset the session to the upload step
// @Description Discards the record and any upload state; used for "upload another invoice"
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Session reset"
// @Router /reviews/{id}/reset [post]
func (h *ReviewHandler) Reset(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.reviews.Reset(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// UpdateRecord handles PUT /api/v1/reviews/:id/record
// @Summary Apply form edits to the record
// @Description Validates the submitted draft; numeric fields must parse as finite numbers
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param draft body domain.RecordDraft true "Edited record"
// @Success 200 {object} APIResponse{data=review.SessionView} "Record updated"
// @Failure 400 {object} APIResponse "Validation failed; error.fields has per-field messages"
// @Router /reviews/{id}/record [put]
func (h *ReviewHandler) UpdateRecord(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var draft domain.RecordDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed record draft: "+err.Error())
		return
	}

	view, err := h.reviews.ApplyDraft(c.Request.Context(), id, &draft)
	if err != nil {
		h.respondMaybeValidation(c, view, err)
		return
	}
	RespondOK(c, view)
}

// respondMaybeValidation renders validation failures with the session view
// and the per-field messages; everything else goes through HandleError.
func (h *ReviewHandler) respondMaybeValidation(c *gin.Context, view *review.SessionView, err error) {
	if errors.Is(err, domain.ErrValidationFailed) && view != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Data:    view,
			Error: &APIError{
				Code:    "VALIDATION_FAILED",
				Message: "record validation failed",
				Fields:  view.Form.FieldErrors,
			},
		})
		return
	}
	HandleError(c, err)
}

// RefreshRecord handles POST /api/v1/reviews/:id/refresh
// @Summary Reload the stored extraction result
// @Description Re-fetches the invoice from the extraction service and discards unsaved edits
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Record reloaded"
// @Failure 409 {object} APIResponse "No record under review"
// @Failure 502 {object} APIResponse "Extraction service unavailable"
// @Router /reviews/{id}/refresh [post]
func (h *ReviewHandler) RefreshRecord(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.reviews.RefreshRecord(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// AddLineItem handles POST /api/v1/reviews/:id/line-items
// @Summary Append an empty line item
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Line item added"
// @Router /reviews/{id}/line-items [post]
func (h *ReviewHandler) AddLineItem(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.reviews.AppendLineItem(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// RemoveLineItem handles DELETE /api/v1/reviews/:id/line-items/:index
// @Summary Remove a line item by position
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param index path int true "Line item index (0-based)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Line item removed"
// @Failure 400 {object} APIResponse "Index out of range"
// @Router /reviews/{id}/line-items/{index} [delete]
func (h *ReviewHandler) RemoveLineItem(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INDEX", "line item index must be an integer")
		return
	}
	view, err := h.reviews.RemoveLineItem(c.Request.Context(), id, index)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// submitRequest is the optional JSON body for Submit.
type submitRequest struct {
	UserID string `json:"user_id"`
	Notes  string `json:"notes"`
}

// Submit handles POST /api/v1/reviews/:id/submit
// @Summary Submit the reviewed record
// @Description Sends the full current record to the extraction service's corrections endpoint
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param body body submitRequest false "Reviewer metadata"
// @Success 200 {object} APIResponse{data=review.SessionView} "Corrections saved"
// @Failure 400 {object} APIResponse "Unresolved validation errors"
// @Failure 502 {object} APIResponse "Submission failed; edits preserved, retry allowed"
// @Router /reviews/{id}/submit [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req submitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed submit body: "+err.Error())
			return
		}
	}

	view, err := h.reviews.Submit(c.Request.Context(), id, review.SubmitInput{
		UserID: req.UserID,
		Notes:  req.Notes,
	})
	if err != nil {
		h.respondMaybeValidation(c, view, err)
		return
	}
	RespondOK(c, view)
}

// DismissWarning handles POST /api/v1/reviews/:id/dismiss-warning
// @Summary Dismiss the low-confidence banner
// @Tags reviews
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Success 200 {object} APIResponse{data=review.SessionView} "Warning dismissed"
// @Router /reviews/{id}/dismiss-warning [post]
func (h *ReviewHandler) DismissWarning(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.reviews.DismissWarning(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// TransformPreview handles POST /api/v1/reviews/:id/preview/transform
// @Summary Apply a preview transform operation
// @Description Zoom is clamped to [0.5, 3.0]; rotate turns 90 degrees clockwise
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Session ID (UUID)"
// @Param op body review.PreviewOp true "Operation: zoom_in, zoom_out, pan, rotate or reset"
// @Success 200 {object} APIResponse{data=review.SessionView} "Transform applied"
// @Router /reviews/{id}/preview/transform [post]
func (h *ReviewHandler) TransformPreview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var op review.PreviewOp
	if err := c.ShouldBindJSON(&op); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed preview operation: "+err.Error())
		return
	}

	view, err := h.reviews.TransformPreview(c.Request.Context(), id, op)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// Export handles GET /api/v1/reviews/:id/export
// @Summary Download the current record
// @Description Streams the record as CSV or an Excel workbook
// @Tags reviews
// @Produce octet-stream
// @Param id path string true "Session ID (UUID)"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} binary "Exported record"
// @Failure 409 {object} APIResponse "No record under review"
// @Router /reviews/{id}/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	rec, invoiceID, err := h.reviews.ExportRecord(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	name := invoiceID
	if rec.InvoiceNumber != nil {
		name = *rec.InvoiceNumber
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		var buf bytes.Buffer
		buf.Write(export.BOM)
		if err := export.WriteCSV(&buf, rec); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(name, "csv")+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())

	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteExcel(&buf, rec); err != nil {
			HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(name, "xlsx")+`"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
	}
}
