// Package contractrenew реализует HTTP-обработчик продления контракта.
package contractrenew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/date"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	RenewContract(ctx context.Context, contractID string, req models.Renewal) (*models.Contract, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Продление контракта
// @Description Новая дата окончания может быть и в прошлом.
// @Tags Contracts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID контракта"
// @Param request body models.DummyRenewal true "Новая дата окончания, дата оплаты, плата"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /clients/contracts/{id}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contracts.contractrenew"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Warn("invalid contract id", slog.String("id", id))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid contract id"))
		return
	}

	var req models.DummyRenewal
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

	newEndDate, err := date.Parse(req.NewEndDate)
	if err != nil {
		log.Warn("invalid new end date", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field NewEndDate: "+err.Error()))
		return
	}
	paymentDate, err := date.Parse(req.PaymentDate)
	if err != nil {
		log.Warn("invalid payment date", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field PaymentDate: "+err.Error()))
		return
	}

	contract, err := h.service.RenewContract(r.Context(), id, models.Renewal{
		NewEndDate:  newEndDate,
		PaymentDate: paymentDate,
		MonthlyFee:  req.MonthlyFee,
	})
	if err != nil {
		log.Error("failed to renew contract", sl.Err(err))
		status, resp := response.ServiceError(err, "could not renew contract")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("contract renewed", slog.String("contract_id", id), slog.String("status", string(contract.Status)))
	render.JSON(w, r, response.StatusOKWithData(contract))
}
