// Package userlist реализует HTTP-обработчик списка пользователей
// с необязательными фильтрами ?role= и ?is_active=.
package userlist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

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
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param role query string false "Роль"
// @Param is_active query bool false "Активность"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.userlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var filter models.UserFilter
	query := r.URL.Query()
	if v := query.Get("role"); v != "" {
		role := models.Role(v)
		if !role.Valid() {
			log.Warn("invalid role filter", slog.String("role", v))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid role filter"))
			return
		}
		filter.Role = &role
	}
	if v := query.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			log.Warn("invalid is_active filter", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid is_active filter"))
			return
		}
		filter.IsActive = &active
	}

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		status, resp := response.ServiceError(err, "could not list users")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	if users == nil {
		users = []*models.User{}
	}
	render.JSON(w, r, response.StatusOKWithData(users))
}
