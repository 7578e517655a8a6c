// Package services содержит бизнес-логику для управления подписками,
// расчётом даты следующего платежа и кешированием.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/recurrence"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

// dateLayout — формат дат во входных запросах.
const dateLayout = "2006-01-02"

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateEntry атомарно создаёт правило повторения, подписку и связи
	// с участниками, возвращает ID подписки.
	CreateEntry(ctx context.Context, sub models.Subscription, interval models.IntervalPeriod, members []models.SubscriptionMember) (int, error)
	// ReadEntry возвращает подписку пользователя по ID.
	ReadEntry(ctx context.Context, id int, username string) (*models.Subscription, error)
	// UpdateEntry применяет частичное обновление, при наличии цены в
	// обновлении фиксирует запись в истории цен.
	UpdateEntry(ctx context.Context, id int, username string, upd models.UpdateSubscription) (int, *models.PriceHistory, error)
	// ListEntries возвращает подписки пользователя, свежесозданные первыми.
	ListEntries(ctx context.Context, username string, limit, offset int) ([]*models.Subscription, error)
	// ListPriceHistory возвращает журнал изменений цены подписки.
	ListPriceHistory(ctx context.Context, subscriptionID int, username string) ([]*models.PriceHistory, error)
}

// UserRepository используется для получения адреса почты при отправке
// уведомления об изменении цены.
type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Publisher публикует события приложения в очередь уведомлений.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo      SubscriptionRepository
	users     UserRepository
	cache     Cache
	publisher Publisher
	log       *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
// publisher может быть nil: тогда события изменения цены не публикуются.
func NewSubscriptionService(repo SubscriptionRepository, users UserRepository, cache Cache, publisher Publisher, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		users:     users,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// Create создаёт подписку пользователя вместе с правилом повторения и
// долями участников, возвращает ID. Дата следующего платежа вычисляется
// из даты последнего платежа и правила повторения и сохраняется.
func (s *SubscriptionService) Create(ctx context.Context, username string, req models.DummySubscription) (int, error) {
	lastPaymentDate, err := time.Parse(dateLayout, req.LastPaymentDate)
	if err != nil {
		return 0, fmt.Errorf("invalid last payment date: %w", err)
	}
	startDate, err := time.Parse(dateLayout, req.IntervalPeriod.StartDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date: %w", err)
	}
	freq, err := recurrence.ParseFrequency(req.IntervalPeriod.RepeatFrequency)
	if err != nil {
		return 0, err
	}

	members := make([]models.SubscriptionMember, 0, len(req.Members))
	for _, m := range req.Members {
		if m.MemberID == nil {
			return 0, fmt.Errorf("member without id: %w", repository.ErrMemberNotFound)
		}
		members = append(members, models.SubscriptionMember{
			MemberID: *m.MemberID,
			Share:    m.Share,
		})
	}

	nextPaymentDate := recurrence.NextPaymentDate(lastPaymentDate, freq, req.IntervalPeriod.IntervalCount)
	sub := models.Subscription{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Username:        username,
		LastPaymentDate: lastPaymentDate,
		NextPaymentDate: nextPaymentDate,
	}
	interval := models.IntervalPeriod{
		RepeatFrequency: freq,
		IntervalCount:   req.IntervalPeriod.IntervalCount,
		DayOfMonth:      req.IntervalPeriod.DayOfMonth,
		StartDate:       startDate,
	}

	id, err := s.repo.CreateEntry(ctx, sub, interval, members)
	if err != nil {
		return 0, err
	}

	s.log.Info("created new subscription", slog.Int("id", id))
	return id, nil
}

// Read возвращает подписку по ID, используя кеш или репозиторий.
func (s *SubscriptionService) Read(ctx context.Context, id int, username string) (*models.Subscription, error) {
	var result *models.Subscription
	cacheKey := s.cacheKey(id, username)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ReadEntry(ctx, id, username)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Update применяет частичное обновление подписки и возвращает
// количество изменённых строк. Если обновляется дата последнего
// платежа, дата следующего платежа пересчитывается по правилу
// повторения. Зафиксированное изменение цены публикуется в очередь
// уведомлений, публикация не влияет на результат запроса.
func (s *SubscriptionService) Update(ctx context.Context, id int, username string, req models.DummyUpdateSubscription) (int, error) {
	upd := models.UpdateSubscription{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}

	if req.LastPaymentDate != nil {
		lastPaymentDate, err := time.Parse(dateLayout, *req.LastPaymentDate)
		if err != nil {
			return 0, fmt.Errorf("invalid last payment date: %w", err)
		}
		entry, err := s.repo.ReadEntry(ctx, id, username)
		if err != nil {
			return 0, err
		}
		nextPaymentDate := recurrence.NextPaymentDate(lastPaymentDate,
			entry.IntervalPeriod.RepeatFrequency, entry.IntervalPeriod.IntervalCount)
		upd.LastPaymentDate = &lastPaymentDate
		upd.NextPaymentDate = &nextPaymentDate
	}

	rows, history, err := s.repo.UpdateEntry(ctx, id, username, upd)
	if err != nil {
		return 0, err
	}
	s.log.Info("updated subscription in storage", slog.Int("id", id), slog.Int("rows", rows))

	cacheKey := s.cacheKey(id, username)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}

	if history != nil {
		s.publishPriceChange(ctx, id, username, history)
	}
	return rows, nil
}

// List возвращает список подписок пользователя с пагинацией.
func (s *SubscriptionService) List(ctx context.Context, username string, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListEntries(ctx, username, limit, offset)
}

// PriceHistory возвращает журнал изменений цены подписки пользователя.
// Для несуществующей подписки возвращается ошибка, а не пустой журнал.
func (s *SubscriptionService) PriceHistory(ctx context.Context, id int, username string) ([]*models.PriceHistory, error) {
	if _, err := s.repo.ReadEntry(ctx, id, username); err != nil {
		return nil, err
	}
	return s.repo.ListPriceHistory(ctx, id, username)
}

func (s *SubscriptionService) cacheKey(id int, username string) string {
	return fmt.Sprintf("subscription:%s:%d", username, id)
}

// publishPriceChange отправляет событие изменения цены в очередь
// уведомлений. Журнал аудита best-effort: любые ошибки только логируются.
func (s *SubscriptionService) publishPriceChange(ctx context.Context, id int, username string, history *models.PriceHistory) {
	if s.publisher == nil {
		return
	}

	event := models.PriceChangeEvent{
		SubscriptionID: id,
		Username:       username,
		OldPrice:       history.OldPrice,
		NewPrice:       history.NewPrice,
	}
	if entry, err := s.repo.ReadEntry(ctx, id, username); err == nil {
		event.Name = entry.Name
	}
	if user, err := s.users.GetUserByUsername(ctx, username); err == nil && user != nil {
		event.Email = user.Email
	}

	if err := s.publisher.Publish(rabbitmq.NotificationsExchange, rabbitmq.PriceChangedRoutingKey, event); err != nil {
		s.log.Warn("failed to publish price change event", slog.Int("id", id), sl.Err(err))
		return
	}
	s.log.Info("published price change event", slog.Int("id", id))
}
