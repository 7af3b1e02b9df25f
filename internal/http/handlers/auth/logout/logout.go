// Package logout реализует HTTP-обработчик выхода из системы.
// Выход закрывает последнюю открытую отметку присутствия пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/parking-manager/internal/http/response"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Logout(ctx context.Context, userID string) (*models.Attendance, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход из системы
// @Description Закрывает открытую отметку присутствия. Без открытой отметки отвечает 200 без данных.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Warn("user id missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	attendance, err := h.service.Logout(r.Context(), userID)
	if err != nil {
		log.Error("failed to close attendance", slog.String("user_id", userID), sl.Err(err))
		status, resp := response.ServiceError(err, "could not log out")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("logout success", slog.String("user_id", userID))
	if attendance == nil {
		render.JSON(w, r, response.Response{Status: response.StatusOK})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(attendance))
}
