package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceview/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response. Fields carries per-field
// validation messages when the error is a rejected form.
type APIError struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  domain.FieldErrors `json:"fields,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "review session not found"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadInFlight):
		return http.StatusConflict, "UPLOAD_IN_FLIGHT", "an upload is already in progress for this session"
	case errors.Is(err, domain.ErrUploadTimeout):
		return http.StatusGatewayTimeout, "UPLOAD_TIMEOUT", "extraction timed out; try again"
	case errors.Is(err, domain.ErrMaskedExtraction):
		return http.StatusBadGateway, "MASKED_EXTRACTION_ERROR", "extraction service returned an error disguised as a result"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusBadGateway, "EXTRACTION_FAILED", "extraction failed"
	case errors.Is(err, domain.ErrNotReviewing):
		return http.StatusConflict, "NOT_REVIEWING", "session has no record under review"
	case errors.Is(err, domain.ErrSubmitInFlight):
		return http.StatusConflict, "SUBMIT_IN_FLIGHT", "a submission is already in progress"
	case errors.Is(err, domain.ErrSubmitFailed):
		return http.StatusBadGateway, "SUBMIT_FAILED", "saving corrections failed; please retry"
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest, "VALIDATION_FAILED", "record validation failed"
	case errors.Is(err, domain.ErrLineItemIndex):
		return http.StatusBadRequest, "LINE_ITEM_INDEX", "line item index out of range"
	case errors.Is(err, domain.ErrInvalidPreviewOp):
		return http.StatusBadRequest, "INVALID_PREVIEW_OP", "unknown preview operation; allowed: zoom_in, zoom_out, pan, rotate, reset"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
