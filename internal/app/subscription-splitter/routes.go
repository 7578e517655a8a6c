package subscriptionsplitter

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/auth/register"
	memberadd "github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/member/add"
	memberlist "github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/member/list"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/history"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/subscription-splitter/internal/services/auth"
	memberservice "github.com/magabrotheeeer/subscription-splitter/internal/services/member"
	subservice "github.com/magabrotheeeer/subscription-splitter/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, maker jwt.Maker,
	db *repository.Storage,
	authService *authservice.AuthService,
	subscriptionService *subservice.SubscriptionService,
	memberService *memberservice.MemberService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/subscriptions", create.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/list", list.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}/history", history.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/{id}/members", memberadd.New(logger, memberService).ServeHTTP)
			r.Get("/members/list", memberlist.New(logger, memberService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
