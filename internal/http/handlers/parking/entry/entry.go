// Package entry реализует HTTP-обработчик регистрации въезда.
//
// Handler принимает номер, тип транспорта и площадку, открывает тикет и
// возвращает его. Повторный въезд при открытом тикете даёт 409.
package entry

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

// Handler обрабатывает запросы на регистрацию въезда.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики въезда.
type Service interface {
	RegisterEntry(ctx context.Context, req models.DummyEntry) (*models.Ticket, error)
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
// @Summary Регистрация въезда
// @Tags Parking
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyEntry true "Номер, тип транспорта, площадка"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Площадка не найдена"
// @Failure 409 {object} response.ErrorResponse "У транспорта уже есть открытый тикет"
// @Failure 422 {object} response.ErrorResponse
// @Router /parking/entries [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.parking.entry"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEntry
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

	ticket, err := h.service.RegisterEntry(r.Context(), req)
	if err != nil {
		log.Error("failed to register entry", sl.Err(err))
		status, resp := response.ServiceError(err, "could not register entry")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("entry registered", slog.String("ticket_id", ticket.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(ticket))
}
