// Package contractcreate реализует HTTP-обработчик создания клиента с контрактом.
//
// Даты принимаются в формате RFC 3339 или YYYY-MM-DD. Клиент с таким email
// переиспользуется; email сотрудника даёт 409.
package contractcreate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/date"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Handler обрабатывает запросы на создание контракта.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики контрактов.
type Service interface {
	CreateClientContract(ctx context.Context, req models.NewClientContract) (*models.Contract, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание клиента с контрактом
// @Tags Contracts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyClientContract true "Клиент и условия контракта"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Площадка не найдена"
// @Failure 409 {object} response.ErrorResponse "Email принадлежит сотруднику"
// @Failure 422 {object} response.ErrorResponse
// @Router /clients/contracts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contracts.contractcreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyClientContract
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	startDate, err := date.Parse(req.StartDate)
	if err != nil {
		log.Warn("invalid start date", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field StartDate: "+err.Error()))
		return
	}
	endDate, err := date.Parse(req.EndDate)
	if err != nil {
		log.Warn("invalid end date", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field EndDate: "+err.Error()))
		return
	}

	contract, err := h.service.CreateClientContract(r.Context(), models.NewClientContract{
		FullName:   req.FullName,
		Email:      req.Email,
		SiteID:     req.SiteID,
		StartDate:  startDate,
		EndDate:    endDate,
		MonthlyFee: req.MonthlyFee,
		PlanName:   req.PlanName,
	})
	if err != nil {
		log.Error("failed to create contract", sl.Err(err))
		status, resp := response.ServiceError(err, "could not create contract")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("contract created", slog.String("contract_id", contract.ID), slog.String("status", string(contract.Status)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(contract))
}
