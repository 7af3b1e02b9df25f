// Package siteread реализует HTTP-обработчик получения площадки по ID.
package siteread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	GetSite(ctx context.Context, id string) (*models.Site, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Площадка по ID
// @Tags Parking
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID площадки"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /parking/sites/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.parking.siteread"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Warn("invalid site id", slog.String("id", id))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid site id"))
		return
	}

	site, err := h.service.GetSite(r.Context(), id)
	if err != nil {
		log.Error("failed to read site", sl.Err(err))
		status, resp := response.ServiceError(err, "could not read site")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(site))
}
