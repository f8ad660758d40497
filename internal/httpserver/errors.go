package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/domain"
)

type errorBody struct {
	StatusCode int         `json:"statusCode"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Field      string      `json:"field,omitempty"`
	Errors     []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps domain errors to HTTP statuses. A submission failure is
// checked first because it also wraps the transport error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSubmissionFailed):
		return http.StatusBadGateway, "SubmissionFailed"
	case errors.Is(err, domain.ErrMissingField):
		return http.StatusUnprocessableEntity, "MissingField"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, "InvalidQuantity"
	case errors.Is(err, domain.ErrDuplicateItem):
		return http.StatusUnprocessableEntity, "DuplicateItem"
	case errors.Is(err, domain.ErrNoCredential):
		return http.StatusUnauthorized, "NoCredential"
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, "Busy"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, "RemoteUnavailable"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	body := errorBody{StatusCode: status, Code: code, Message: err.Error()}

	var mf *domain.MissingFieldError
	if errors.As(err, &mf) {
		body.Field = mf.Field
	}
	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		body.Message = subErr.Message
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		body.Message = "internal error"
	}
	body.Errors = []errorItem{{Code: code, Message: body.Message}}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{
		StatusCode: http.StatusBadRequest,
		Code:       "InvalidInput",
		Message:    msg,
		Errors:     []errorItem{{Code: "InvalidInput", Message: msg}},
	})
}
