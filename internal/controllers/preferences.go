package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/services"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/utils"
)

type PreferencesController struct {
	preferencesService services.PreferencesServiceInterface
	logger             *zap.Logger
}

func NewPreferencesController(preferencesService services.PreferencesServiceInterface, logger *zap.Logger) *PreferencesController {
	return &PreferencesController{preferencesService: preferencesService, logger: logger}
}

func (ctrl *PreferencesController) Get(c echo.Context) error {
	res, err := ctrl.preferencesService.Get(c.Request().Context(), c.Param("entity"))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Настройки получены", http.StatusOK)
}

func (ctrl *PreferencesController) Update(c echo.Context) error {
	var payload dto.UpdatePreferencesDTO
	if err := c.Bind(&payload); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid request body."), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	res, err := ctrl.preferencesService.Update(c.Request().Context(), c.Param("entity"), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Настройки сохранены", http.StatusOK)
}
