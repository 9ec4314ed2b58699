package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/entities"
	"fieldservice-admin/internal/services"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/utils"
)

type RecordController struct {
	workflowService services.WorkflowServiceInterface
	logger          *zap.Logger
}

func NewRecordController(workflowService services.WorkflowServiceInterface, logger *zap.Logger) *RecordController {
	return &RecordController{workflowService: workflowService, logger: logger}
}

// Definitions — схемы и связи всех сущностей для построения форм.
func (ctrl *RecordController) Definitions(c echo.Context) error {
	defs := make([]entities.Definition, 0)
	for _, name := range entities.Names() {
		def, _ := entities.Lookup(name)
		defs = append(defs, def)
	}
	return utils.SuccessResponse(c, defs, "Описания сущностей", http.StatusOK)
}

// Create — создание записи и привязка выбранных ассоциаций. Частичный сбой
// привязок возвращается 201 с отчётом.
func (ctrl *RecordController) Create(c echo.Context) error {
	var payload dto.CreateRecordDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Warn("Create: ошибка привязки данных", zap.Error(err))
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid request body."), ctrl.logger)
	}
	if err := c.Validate(&payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	report, err := ctrl.workflowService.Create(c.Request().Context(), c.Param("entity"), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	message := "Запись создана"
	if !report.Complete {
		message = "Запись создана, но часть связей не сохранена"
	}
	return utils.SuccessResponse(c, report, message, http.StatusCreated)
}

func (ctrl *RecordController) Delete(c echo.Context) error {
	if err := ctrl.workflowService.Delete(c.Request().Context(), c.Param("entity"), c.Param("id")); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, nil, "Запись удалена", http.StatusOK)
}
