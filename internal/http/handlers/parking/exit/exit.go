// Package exit реализует HTTP-обработчик регистрации выезда.
//
// Handler закрывает открытый тикет по номеру транспорта и возвращает
// длительность стоянки и сумму к оплате.
package exit

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

// Handler обрабатывает запросы на регистрацию выезда.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики выезда.
type Service interface {
	RegisterExit(ctx context.Context, plate string) (*models.ExitResult, error)
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
// @Summary Регистрация выезда
// @Tags Parking
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyExit true "Номер транспорта"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Нет открытого тикета"
// @Failure 409 {object} response.ErrorResponse "Тикет уже закрыт параллельным запросом"
// @Router /parking/exits [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.parking.exit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyExit
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

	res, err := h.service.RegisterExit(r.Context(), req.Plate)
	if err != nil {
		log.Error("failed to register exit", sl.Err(err))
		status, resp := response.ServiceError(err, "could not register exit")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("exit registered",
		slog.String("ticket_id", res.Ticket.ID),
		slog.Int64("duration_minutes", res.Exit.DurationMinutes),
		slog.Int64("total_amount", res.Exit.TotalAmount),
	)
	render.JSON(w, r, response.StatusOKWithData(res))
}
