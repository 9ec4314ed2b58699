package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/workflow"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
)

type HTTPResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HTTPResponse{Status: true, Message: message, Body: body})
}

// ErrorResponse переводит ошибку в ответ UI. Сообщение бэкенда показывается
// пользователю как есть.
func ErrorResponse(c echo.Context, err error, logger *zap.Logger) error {
	if reqLogger, ok := c.Get("logger").(*zap.Logger); ok {
		logger = reqLogger
	}

	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Err != nil {
			logger.Error("HTTP Error",
				zap.Int("code", httpErr.Code),
				zap.String("message", httpErr.Message),
				zap.Error(httpErr.Err),
			)
		}
		return c.JSON(httpErr.Code, &HTTPResponse{Status: false, Message: httpErr.Message, Body: httpErr.Details})
	}

	var formErrs workflow.ValidationErrors
	if errors.As(err, &formErrs) {
		return c.JSON(http.StatusUnprocessableEntity, &HTTPResponse{
			Status:  false,
			Message: formErrs.Error(),
			Body:    map[string]interface{}{"fields": formErrs.ByField()},
		})
	}

	var formErr *workflow.ValidationError
	if errors.As(err, &formErr) {
		return c.JSON(http.StatusUnprocessableEntity, &HTTPResponse{
			Status:  false,
			Message: formErr.Message,
			Body:    map[string]interface{}{"fields": map[string]string{formErr.Field: formErr.Message}},
		})
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var msgs []string
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
		}
		return c.JSON(http.StatusBadRequest, &HTTPResponse{Status: false, Message: "Validation failed: " + strings.Join(msgs, "; ")})
	}

	var upstream *restclient.RequestError
	if errors.As(err, &upstream) {
		logger.Warn("Ошибка бэкенда", zap.String("request", upstream.Describe()), zap.Error(upstream.Err))
		httpErr = apperrors.NewUpstreamError(upstream.Message, upstream)
		if restclient.IsNotFound(upstream) {
			httpErr.Code = http.StatusNotFound
		}
		return c.JSON(httpErr.Code, &HTTPResponse{Status: false, Message: httpErr.Message})
	}

	if errors.Is(err, restclient.ErrMalformedCreateResponse) {
		httpErr = apperrors.NewUpstreamError(err.Error(), err)
		return c.JSON(httpErr.Code, &HTTPResponse{Status: false, Message: httpErr.Message})
	}

	for sentinel, code := range apperrors.StatusByError {
		if errors.Is(err, sentinel) {
			return c.JSON(code, &HTTPResponse{Status: false, Message: err.Error()})
		}
	}

	logger.Error("Unexpected Error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, &HTTPResponse{Status: false, Message: "Internal server error."})
}
