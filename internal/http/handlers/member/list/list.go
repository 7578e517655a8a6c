// Package list реализует HTTP-обработчик получения участников пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/response"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// Service описывает интерфейс бизнес-логики списка участников.
type Service interface {
	ListMembers(ctx context.Context, username string) ([]*models.Member, error)
}

// Handler управляет HTTP-запросами на получение списка участников.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список участников
// @Description Возвращает всех участников пользователя.
// @Tags Members
// @Produce  json
// @Success 200 {object} map[string]any "Список участников"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /members/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.ListMembers(r.Context(), username)
	if err != nil {
		log.Error("failed to list members", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list"))
		return
	}

	log.Info("list members", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(res),
		"members":    res,
	}))
}
