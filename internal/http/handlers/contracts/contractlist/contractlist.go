// Package contractlist реализует HTTP-обработчик списка контрактов.
// Перед выдачей статусы всех контрактов пересчитываются.
package contractlist

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
	ListContracts(ctx context.Context) ([]*models.Contract, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список контрактов
// @Tags Contracts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /clients/contracts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contracts.contractlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	contracts, err := h.service.ListContracts(r.Context())
	if err != nil {
		log.Error("failed to list contracts", sl.Err(err))
		status, resp := response.ServiceError(err, "could not list contracts")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	if contracts == nil {
		contracts = []*models.Contract{}
	}
	log.Info("contracts listed", slog.Int("count", len(contracts)))
	render.JSON(w, r, response.StatusOKWithData(contracts))
}
