package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"salesWarehouse/business/pipeline"
	"salesWarehouse/business/validation"
	"salesWarehouse/domain"
	"salesWarehouse/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

type (
	PipelineHandler struct {
		validate          *validator.Validate
		pipelineService   PipelineService
		validationService ValidationService
		timeout           time.Duration
	}

	PipelineService interface {
		StartAsync(stages []string) (pipeline.RunStatus, error)
		Status() (pipeline.RunStatus, bool)
	}

	ValidationService interface {
		ValidateOrderCounts(ctx context.Context) (domain.ValidationReport, error)
	}

	RunInput struct {
		Stages []string `json:"stages" validate:"omitempty,dive,oneof=extract normalize transform"`
	}
)

func NewPipelineHandler(pipelineService PipelineService, validationService ValidationService) *PipelineHandler {
	return &PipelineHandler{
		validate:          validator.New(),
		pipelineService:   pipelineService,
		validationService: validationService,
		timeout:           30 * time.Second,
	}
}

// TriggerRun starts a pipeline run in the background. A subset of stages
// can be requested, e.g. {"stages": ["transform"]} for a dimension
// catch-up run; an empty body runs all stages.
func (h *PipelineHandler) TriggerRun(c echo.Context) error {
	var request RunInput

	if err := c.Bind(&request); err != nil {
		logger.Error("Invalid run request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&request); err != nil {
		logger.Error("Failed to validate run request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	status, err := h.pipelineService.StartAsync(request.Stages)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to start pipeline run", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusAccepted, fres.Response.StatusOK(status))
}

func (h *PipelineHandler) GetStatus(c echo.Context) error {
	status, found := h.pipelineService.Status()
	if !found {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no pipeline run recorded yet"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(status))
}

// ValidateOrderCounts runs the staging-vs-fact consistency check. A count
// mismatch is reported as 409 together with both counts.
func (h *PipelineHandler) ValidateOrderCounts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.validationService.ValidateOrderCounts(ctx)
	if err != nil {
		if errors.Is(err, validation.ErrOrderCountMismatch) {
			return c.JSON(http.StatusConflict, fres.Response.StatusOK(report))
		}
		logger.Error("Failed to run validation check", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}
