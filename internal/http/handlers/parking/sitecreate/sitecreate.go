// Package sitecreate реализует HTTP-обработчик создания парковочной площадки.
package sitecreate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

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
	CreateSite(ctx context.Context, req models.DummySite) (*models.Site, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание площадки
// @Tags Parking
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummySite true "Площадка"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /parking/sites [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.parking.sitecreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySite
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

	site, err := h.service.CreateSite(r.Context(), req)
	if err != nil {
		log.Error("failed to create site", sl.Err(err))
		status, resp := response.ServiceError(err, "could not create site")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("site created", slog.String("site_id", site.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(site))
}
