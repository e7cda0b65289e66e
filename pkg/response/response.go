package response

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/videotube/pkg/apperror"
)

type APIResponse[T any] struct {
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	Errors     []any  `json:"errors"`
}

// Success writes the success envelope and returns it for callers that want to inspect it.
func Success[T any](ctx *gin.Context, status int, data T, message string) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes the error envelope. errs may be nil, a slice, or a single value.
func Error(ctx *gin.Context, status int, message string, errs any) ErrorResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := ErrorResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     toList(errs),
	}
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}

// Fail maps a service error to its HTTP status. Internal causes are logged, never returned.
func Fail(ctx *gin.Context, logger *logrus.Logger, err error) ErrorResponse {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal && logger != nil {
		logger.WithError(err).
			WithField("request_id", ctx.GetString("request_id")).
			WithField("path", ctx.FullPath()).
			Error("request failed")
	}
	return Error(ctx, kind.HTTPStatus(), apperror.MessageOf(err), nil)
}

func toList(errs any) []any {
	switch v := errs.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []string:
		out := make([]any, 0, len(v))
		for _, s := range v {
			out = append(out, s)
		}
		return out
	case map[string]string:
		fields := make([]string, 0, len(v))
		for field := range v {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		out := make([]any, 0, len(v))
		for _, field := range fields {
			out = append(out, map[string]string{"field": field, "message": v[field]})
		}
		return out
	default:
		return []any{v}
	}
}
