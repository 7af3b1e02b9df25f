// Package parkingmanager собирает HTTP API: маршруты, сервисы и жизненный цикл сервера.
package parkingmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/auth/passwordrequest"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/auth/passwordreset"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/contracts/alertlist"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/contracts/contractcreate"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/contracts/contractlist"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/contracts/contractrenew"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/health"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/parking/entry"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/parking/exit"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/parking/sitecreate"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/parking/sitelist"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/parking/siteread"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/parking/tariffset"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/users/usercreate"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/users/userlist"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/users/userrole"
	"github.com/magabrotheeeer/parking-manager/internal/http/handlers/users/userstatus"
	"github.com/magabrotheeeer/parking-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/parking-manager/internal/metrics"
	"github.com/magabrotheeeer/parking-manager/internal/models"
	contractservice "github.com/magabrotheeeer/parking-manager/internal/services/contracts"
	parkingservice "github.com/magabrotheeeer/parking-manager/internal/services/parking"
	userservice "github.com/magabrotheeeer/parking-manager/internal/services/users"
)

// Services набор сервисов, которые обслуживают маршруты.
type Services struct {
	Parking   *parkingservice.ParkingService
	Contracts *contractservice.ContractService
	Users     *userservice.UserService
	Tokens    middlewarectx.TokenParser
	DB        health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/login", login.New(logger, s.Users).ServeHTTP)
			r.Post("/auth/password/request", passwordrequest.New(logger, s.Users).ServeHTTP)
			r.Post("/auth/password/reset", passwordreset.New(logger, s.Users).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))

			// Любой аутентифицированный пользователь
			r.Post("/auth/logout", logout.New(logger, s.Users).ServeHTTP)
			r.Get("/auth/me", me.New(logger, s.Users).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleSuperAdmin, models.RoleAdminParking, models.RoleOperator))
				r.Post("/parking/sites", sitecreate.New(logger, s.Parking).ServeHTTP)
				r.Get("/parking/sites", sitelist.New(logger, s.Parking).ServeHTTP)
				r.Get("/parking/sites/{id}", siteread.New(logger, s.Parking).ServeHTTP)
				r.Put("/parking/sites/{id}/tariffs", tariffset.New(logger, s.Parking).ServeHTTP)
				r.Post("/parking/entries", entry.New(logger, s.Parking).ServeHTTP)
				r.Post("/parking/exits", exit.New(logger, s.Parking).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleSuperAdmin, models.RoleAdminParking))
				r.Post("/clients/contracts", contractcreate.New(logger, s.Contracts).ServeHTTP)
				r.Get("/clients/contracts", contractlist.New(logger, s.Contracts).ServeHTTP)
				r.Post("/clients/contracts/{id}/renew", contractrenew.New(logger, s.Contracts).ServeHTTP)
				r.Get("/clients/alerts", alertlist.New(logger, s.Contracts).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoles(logger, models.RoleSuperAdmin))
				r.Post("/users", usercreate.New(logger, s.Users).ServeHTTP)
				r.Get("/users", userlist.New(logger, s.Users).ServeHTTP)
				r.Patch("/users/{id}/role", userrole.New(logger, s.Users).ServeHTTP)
				r.Patch("/users/{id}/status", userstatus.New(logger, s.Users).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
