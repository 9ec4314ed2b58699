package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/services"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/utils"
)

type JournalController struct {
	journalService services.JournalServiceInterface
	logger         *zap.Logger
}

func NewJournalController(journalService services.JournalServiceInterface, logger *zap.Logger) *JournalController {
	return &JournalController{journalService: journalService, logger: logger}
}

type linkFailuresPage struct {
	Items []dto.LinkFailureDTO `json:"items"`
	Total uint64               `json:"total"`
}

func (ctrl *JournalController) ListFailures(c echo.Context) error {
	var filter dto.LinkFailureFilterDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid filter parameters."), ctrl.logger)
	}
	if err := c.Validate(&filter); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	items, total, err := ctrl.journalService.ListFailures(c.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, linkFailuresPage{Items: items, Total: total}, "Журнал связей получен", http.StatusOK)
}

func (ctrl *JournalController) Retry(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusBadRequest, "Invalid id.", err, map[string]interface{}{"param": c.Param("id")}),
			ctrl.logger,
		)
	}

	outcome, err := ctrl.journalService.RetryFailure(c.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	message := "Связь восстановлена"
	if !outcome.OK {
		message = outcome.Error
	}
	return utils.SuccessResponse(c, outcome, message, http.StatusOK)
}
