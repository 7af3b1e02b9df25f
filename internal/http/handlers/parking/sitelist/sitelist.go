// Package sitelist реализует HTTP-обработчик списка площадок с их тарифами.
package sitelist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	ListSites(ctx context.Context) ([]*models.Site, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список площадок
// @Tags Parking
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /parking/sites [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.parking.sitelist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sites, err := h.service.ListSites(r.Context())
	if err != nil {
		log.Error("failed to list sites", sl.Err(err))
		status, resp := response.ServiceError(err, "could not list sites")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	if sites == nil {
		sites = []*models.Site{}
	}
	render.JSON(w, r, response.StatusOKWithData(sites))
}
