// Package tariffset реализует HTTP-обработчик установки тарифа площадки.
// Тариф для пары (площадка, тип транспорта) создаётся или перезаписывается.
package tariffset

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
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	SetTariff(ctx context.Context, siteID string, req models.DummyTariff) (*models.Tariff, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Установка тарифа
// @Tags Parking
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID площадки"
// @Param request body models.DummyTariff true "Тариф"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /parking/sites/{id}/tariffs [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.parking.tariffset"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	siteID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(siteID); err != nil {
		log.Warn("invalid site id", slog.String("id", siteID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid site id"))
		return
	}

	var req models.DummyTariff
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

	tariff, err := h.service.SetTariff(r.Context(), siteID, req)
	if err != nil {
		log.Error("failed to set tariff", sl.Err(err))
		status, resp := response.ServiceError(err, "could not set tariff")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("tariff set", slog.String("site_id", siteID), slog.String("vehicle_type", req.VehicleType))
	render.JSON(w, r, response.StatusOKWithData(tariff))
}
