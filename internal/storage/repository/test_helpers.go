package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/subscription-splitter/internal/migrations"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// setupTestDatabase поднимает контейнер PostgreSQL, применяет миграции
// и возвращает готовое хранилище с функцией очистки.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err, "failed to create storage")

	require.NoError(t, migrations.Run(storage.DB, "../../../migrations"))

	cleanup := func() {
		_ = storage.DB.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, username, email string) string {
	t.Helper()
	uid := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`,
		uid, username, email, "hashedpassword", "user")
	require.NoError(t, err)
	return uid
}

// CreateMember создает тестового участника
func (f *TestDataFactory) CreateMember(t *testing.T, name, username string) int {
	t.Helper()
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO members (name, username)
		VALUES ($1, $2) RETURNING id`, name, username).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription создает тестовую подписку вместе с правилом повторения
func (f *TestDataFactory) CreateSubscription(t *testing.T, name string, price float64, username string,
	lastPaymentDate, nextPaymentDate time.Time, frequency string, intervalCount int) int {
	t.Helper()
	var intervalID int
	err := f.storage.DB.QueryRow(`INSERT INTO interval_periods
		(repeat_frequency, interval_count, start_date)
		VALUES ($1, $2, $3) RETURNING id`,
		frequency, intervalCount, lastPaymentDate).Scan(&intervalID)
	require.NoError(t, err)

	var id int
	err = f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(name, price, username, last_payment_date, next_payment_date, interval_period_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		name, price, username, lastPaymentDate, nextPaymentDate, intervalID).Scan(&id)
	require.NoError(t, err)
	return id
}

// CountRows возвращает количество строк в таблице
func (f *TestDataFactory) CountRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	require.NoError(t, f.storage.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&count))
	return count
}

// GetPriceHistory возвращает все записи истории цен подписки
func (f *TestDataFactory) GetPriceHistory(t *testing.T, subscriptionID int) []models.PriceHistory {
	t.Helper()
	rows, err := f.storage.DB.Query(`SELECT id, subscription_id, old_price, new_price, created_at
		FROM price_history WHERE subscription_id = $1 ORDER BY id`, subscriptionID)
	require.NoError(t, err)
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PriceHistory
	for rows.Next() {
		var h models.PriceHistory
		require.NoError(t, rows.Scan(&h.ID, &h.SubscriptionID, &h.OldPrice, &h.NewPrice, &h.CreatedAt))
		result = append(result, h)
	}
	require.NoError(t, rows.Err())
	return result
}
