package controllers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/dto"
	"fieldservice-admin/internal/services"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Параметры списка, которые не являются фильтрами.
var listControlParams = map[string]bool{"q": true, "sortKey": true, "sortDirection": true, "format": true}

type ListingController struct {
	listingService services.ListingServiceInterface
	logger         *zap.Logger
}

func NewListingController(listingService services.ListingServiceInterface, logger *zap.Logger) *ListingController {
	return &ListingController{listingService: listingService, logger: logger}
}

func classifierParams(query url.Values) url.Values {
	filters := url.Values{}
	for key, values := range query {
		if !listControlParams[key] {
			filters[key] = values
		}
	}
	return filters
}

func (ctrl *ListingController) List(c echo.Context) error {
	var query dto.ListQueryDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return utils.ErrorResponse(c, apperrors.NewBadRequestError("Invalid list parameters."), ctrl.logger)
	}
	if err := c.Validate(&query); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	reqCtx := c.Request().Context()
	entity := c.Param("entity")
	filters := classifierParams(c.QueryParams())

	if query.Format == "xlsx" {
		f, fileName, err := ctrl.listingService.Export(reqCtx, entity, query, filters)
		if err != nil {
			return utils.ErrorResponse(c, err, ctrl.logger)
		}
		defer f.Close()

		c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", fileName))
		c.Response().WriteHeader(http.StatusOK)
		return f.Write(c.Response().Writer)
	}

	res, err := ctrl.listingService.List(reqCtx, entity, query, filters)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, res, "Список получен", http.StatusOK)
}
