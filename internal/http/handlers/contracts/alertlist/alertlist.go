// Package alertlist реализует HTTP-обработчик списка активных уведомлений по контрактам.
package alertlist

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
	ListAlerts(ctx context.Context) ([]*models.ContractAlert, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Уведомления по контрактам
// @Tags Contracts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /clients/alerts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contracts.alertlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	alerts, err := h.service.ListAlerts(r.Context())
	if err != nil {
		log.Error("failed to list alerts", sl.Err(err))
		status, resp := response.ServiceError(err, "could not list alerts")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	if alerts == nil {
		alerts = []*models.ContractAlert{}
	}
	render.JSON(w, r, response.StatusOKWithData(alerts))
}
