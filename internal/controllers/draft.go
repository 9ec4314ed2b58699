package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/services"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/utils"
)

// Вторая отправка черновика, пока первая в полёте, получает 409.
const submitLockTTL = time.Minute

type DraftController struct {
	draftService services.DraftServiceInterface
	submits      *RequestDeduplicator
	logger       *zap.Logger
}

func NewDraftController(draftService services.DraftServiceInterface, logger *zap.Logger) *DraftController {
	return &DraftController{draftService: draftService, submits: NewRequestDeduplicator(), logger: logger}
}

func (ctrl *DraftController) bind(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		ctrl.logger.Warn("Draft: ошибка привязки данных", zap.Error(err))
		return apperrors.NewBadRequestError("Invalid request body.")
	}
	return c.Validate(payload)
}

func (ctrl *DraftController) Create(c echo.Context) error {
	draft, err := ctrl.draftService.Create(c.Request().Context(), c.Param("entity"))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, draft, "Черновик создан", http.StatusCreated)
}

func (ctrl *DraftController) Get(c echo.Context) error {
	draft, err := ctrl.draftService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, draft, "Черновик получен", http.StatusOK)
}

func (ctrl *DraftController) SetPayload(c echo.Context) error {
	var payload dto.DraftPayloadDTO
	if err := ctrl.bind(c, &payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	draft, err := ctrl.draftService.SetPayload(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, draft, "Черновик обновлён", http.StatusOK)
}

func (ctrl *DraftController) AddInline(c echo.Context) error {
	var payload dto.InlineAssociationDTO
	if err := ctrl.bind(c, &payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	draft, err := ctrl.draftService.AddInline(c.Request().Context(), c.Param("id"), c.Param("assoc"), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, draft, "Запись добавлена и выбрана", http.StatusCreated)
}

func (ctrl *DraftController) Select(c echo.Context) error {
	var payload dto.DraftSelectionDTO
	if err := ctrl.bind(c, &payload); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	draft, err := ctrl.draftService.Select(c.Request().Context(), c.Param("id"), c.Param("assoc"), payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, draft, "Выбор сохранён", http.StatusOK)
}

func (ctrl *DraftController) Deselect(c echo.Context) error {
	optionID := restclient.ID(strings.TrimSpace(c.Param("optionId")))
	if optionID.IsZero() {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Option id is required."), ctrl.logger)
	}
	draft, err := ctrl.draftService.Deselect(c.Request().Context(), c.Param("id"), c.Param("assoc"), optionID)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, draft, "Выбор снят", http.StatusOK)
}

func (ctrl *DraftController) Submit(c echo.Context) error {
	draftID := c.Param("id")
	if !ctrl.submits.TryAcquire(draftID, submitLockTTL) {
		return utils.ErrorResponse(c,
			apperrors.NewHttpError(http.StatusConflict, "This draft is already being submitted.", nil, nil),
			ctrl.logger,
		)
	}
	defer ctrl.submits.Release(draftID)

	report, err := ctrl.draftService.Submit(c.Request().Context(), draftID)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	message := "Запись создана"
	if !report.Complete {
		message = "Запись создана, но часть связей не сохранена"
	}
	return utils.SuccessResponse(c, report, message, http.StatusCreated)
}
