// Package add реализует HTTP-обработчик присоединения участника к подписке.
//
// Участник ищется по имени и создаётся, если отсутствует. Операция
// неидемпотентна: повторный запрос создаёт вторую связь с подпиской.
package add

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/http/response"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики присоединения участника.
type Service interface {
	AddMember(ctx context.Context, subscriptionID int, username string, req models.DummyAddMember) (*models.SubscriptionMember, error)
}

// Handler управляет HTTP-запросами на присоединение участников.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Присоединить участника к подписке
// @Description Находит участника по имени или создаёт нового и присоединяет его к подписке с указанной долей.
// @Tags Members
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписки"
// @Param request body models.DummyAddMember true "Имя участника и доля"
// @Success 200 {object} map[string]any "Созданная связь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/{id}/members [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.member.add"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAddMember
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	res, err := h.service.AddMember(r.Context(), id, username, req)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			log.Error("subscription not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription not found"))
			return
		}
		log.Error("failed to add member", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not add member"))
		return
	}

	log.Info("member joined subscription",
		slog.Int("subscription_id", id),
		slog.Int("member_id", res.MemberID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"member": res,
	}))
}
