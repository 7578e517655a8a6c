// Package models содержит доменные структуры подписки, правила повторения
// и истории изменения цены, а также вспомогательные типы для приёма
// данных из JSON-запросов.
package models

import (
	"time"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/recurrence"
)

// Subscription представляет основную модель подписки,
// используемую в бизнес-логике и хранилище.
// NextPaymentDate — кешируемое производное поле: оно обязано совпадать
// с расчётом по правилу повторения на момент последней записи,
// при чтении не перепроверяется.
type Subscription struct {
	ID               int                  `json:"id"`                    // Идентификатор подписки
	Name             string               `json:"name"`                  // Название сервиса
	Description      *string              `json:"description,omitempty"` // Необязательное описание
	Price            float64              `json:"price"`                 // Цена подписки
	Username         string               `json:"username"`              // Владелец подписки
	LastPaymentDate  time.Time            `json:"last_payment_date"`     // Дата последнего платежа
	NextPaymentDate  time.Time            `json:"next_payment_date"`     // Дата следующего платежа (производное поле)
	IntervalPeriodID int                  `json:"interval_period_id"`    // Ссылка на правило повторения
	IntervalPeriod   *IntervalPeriod      `json:"interval_period,omitempty"`
	Members          []SubscriptionMember `json:"members,omitempty"` // Доли участников
	CreatedAt        time.Time            `json:"created_at"`
}

// IntervalPeriod описывает правило повторения подписки: каждые
// IntervalCount единиц частоты RepeatFrequency начиная со StartDate.
// DayOfMonth принимается и сохраняется, но в расчёте даты следующего
// платежа не участвует (зарезервировано под привязку к дню месяца).
type IntervalPeriod struct {
	ID              int                  `json:"id"`
	RepeatFrequency recurrence.Frequency `json:"repeat_frequency"`
	IntervalCount   int                  `json:"interval_count"`
	DayOfMonth      *int                 `json:"day_of_month,omitempty"`
	StartDate       time.Time            `json:"start_date"`
}

// PriceHistory — запись журнала изменения цены подписки.
// Журнал только пополняется, записи создаются автоматически при
// обновлении подписки с полем price.
type PriceHistory struct {
	ID             int       `json:"id"`
	SubscriptionID int       `json:"subscription_id"`
	OldPrice       float64   `json:"old_price"`
	NewPrice       float64   `json:"new_price"`
	CreatedAt      time.Time `json:"created_at"`
}

// DummyIntervalPeriod используется для приёма правила повторения из
// JSON-запроса. Дата приходит строкой и парсится вручную.
type DummyIntervalPeriod struct {
	RepeatFrequency string `json:"repeat_frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"` // Частота повторения
	IntervalCount   int    `json:"interval_count" validate:"required,gt=0"`                                // Каждые N единиц
	DayOfMonth      *int   `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`               // Зарезервировано
	StartDate       string `json:"start_date" validate:"required,datetime=2006-01-02"`                     // Дата начала в формате 2006-01-02
}

// DummySubscription используется для приёма данных создания подписки
// из JSON-запроса, прежде чем конвертировать их в Subscription.
type DummySubscription struct {
	Name            string              `json:"name" validate:"required"`
	Description     *string             `json:"description,omitempty"`
	Price           float64             `json:"price" validate:"required,gt=0"`
	LastPaymentDate string              `json:"last_payment_date" validate:"required,datetime=2006-01-02"`
	IntervalPeriod  DummyIntervalPeriod `json:"interval_period" validate:"required"`
	Members         []DummyMemberShare  `json:"members" validate:"omitempty,dive"`
}

// DummyUpdateSubscription используется для частичного обновления
// подписки: nil означает «поле не менять». Присутствие поля price
// включает запись в историю цен независимо от того, изменилось ли
// значение.
type DummyUpdateSubscription struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Description     *string  `json:"description,omitempty"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	LastPaymentDate *string  `json:"last_payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateSubscription — разобранные поля частичного обновления для
// передачи в хранилище.
type UpdateSubscription struct {
	Name            *string
	Description     *string
	Price           *float64
	LastPaymentDate *time.Time
	NextPaymentDate *time.Time
}

// PriceChangeEvent публикуется в очередь уведомлений после фиксации
// изменения цены подписки.
type PriceChangeEvent struct {
	SubscriptionID int     `json:"subscription_id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	OldPrice       float64 `json:"old_price"`
	NewPrice       float64 `json:"new_price"`
}
