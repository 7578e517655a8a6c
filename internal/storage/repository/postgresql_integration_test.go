package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/recurrence"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

func ptrFloat(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

func TestStorage_CreateEntry(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")
	aliceID := factory.CreateMember(t, "Alice", "testuser")
	bobID := factory.CreateMember(t, "Bob", "testuser")

	lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	nextPayment := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	sub := models.Subscription{
		Name:            "Netflix",
		Price:           18,
		Username:        "testuser",
		LastPaymentDate: lastPayment,
		NextPaymentDate: nextPayment,
	}
	interval := models.IntervalPeriod{
		RepeatFrequency: recurrence.Monthly,
		IntervalCount:   1,
		StartDate:       lastPayment,
	}
	members := []models.SubscriptionMember{
		{MemberID: aliceID, Share: 50},
		{MemberID: bobID, Share: 50},
	}

	gotID, err := storage.CreateEntry(context.Background(), sub, interval, members)
	require.NoError(t, err)
	assert.Equal(t, 1, gotID)

	saved, err := storage.ReadEntry(context.Background(), gotID, "testuser")
	require.NoError(t, err)
	assert.Equal(t, "Netflix", saved.Name)
	assert.InDelta(t, 18.0, saved.Price, 0.001)
	assert.Equal(t, "2024-02-15", saved.NextPaymentDate.Format("2006-01-02"))
	require.NotNil(t, saved.IntervalPeriod)
	assert.Equal(t, recurrence.Monthly, saved.IntervalPeriod.RepeatFrequency)
	assert.Equal(t, 1, saved.IntervalPeriod.IntervalCount)
	require.Len(t, saved.Members, 2)
	assert.InDelta(t, 50.0, saved.Members[0].Share, 0.001)
	assert.InDelta(t, 50.0, saved.Members[1].Share, 0.001)
}

// Несуществующий участник откатывает всю транзакцию: не должно
// остаться ни правила повторения, ни подписки, ни связей.
func TestStorage_CreateEntry_UnknownMemberRollsBack(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")
	aliceID := factory.CreateMember(t, "Alice", "testuser")

	lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	sub := models.Subscription{
		Name:            "Netflix",
		Price:           18,
		Username:        "testuser",
		LastPaymentDate: lastPayment,
		NextPaymentDate: lastPayment.AddDate(0, 1, 0),
	}
	interval := models.IntervalPeriod{
		RepeatFrequency: recurrence.Monthly,
		IntervalCount:   1,
		StartDate:       lastPayment,
	}
	members := []models.SubscriptionMember{
		{MemberID: aliceID, Share: 50},
		{MemberID: 999, Share: 50},
	}

	_, err := storage.CreateEntry(context.Background(), sub, interval, members)
	require.ErrorIs(t, err, ErrMemberNotFound)

	assert.Equal(t, 0, factory.CountRows(t, "subscriptions"))
	assert.Equal(t, 0, factory.CountRows(t, "interval_periods"))
	assert.Equal(t, 0, factory.CountRows(t, "subscription_members"))
}

// Участник чужого пользователя не разрешается, даже если существует.
func TestStorage_CreateEntry_ForeignMemberNotResolvable(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")
	factory.CreateUser(t, "otheruser", "other@example.com")
	foreignID := factory.CreateMember(t, "Alice", "otheruser")

	lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	sub := models.Subscription{
		Name:            "Netflix",
		Price:           18,
		Username:        "testuser",
		LastPaymentDate: lastPayment,
		NextPaymentDate: lastPayment.AddDate(0, 1, 0),
	}
	interval := models.IntervalPeriod{
		RepeatFrequency: recurrence.Monthly,
		IntervalCount:   1,
		StartDate:       lastPayment,
	}

	_, err := storage.CreateEntry(context.Background(), sub, interval,
		[]models.SubscriptionMember{{MemberID: foreignID, Share: 100}})
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestStorage_UpdateEntry_PriceHistory(t *testing.T) {
	tests := []struct {
		name         string
		upd          models.UpdateSubscription
		wantRows     int
		wantHistory  bool
		wantOldPrice float64
		wantNewPrice float64
	}{
		{
			name:         "price change writes one history row",
			upd:          models.UpdateSubscription{Price: ptrFloat(22)},
			wantRows:     1,
			wantHistory:  true,
			wantOldPrice: 18,
			wantNewPrice: 22,
		},
		{
			name:         "identical price still writes history",
			upd:          models.UpdateSubscription{Price: ptrFloat(18)},
			wantRows:     1,
			wantHistory:  true,
			wantOldPrice: 18,
			wantNewPrice: 18,
		},
		{
			name:        "update without price writes no history",
			upd:         models.UpdateSubscription{Name: ptrString("Netflix Premium")},
			wantRows:    1,
			wantHistory: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			factory.CreateUser(t, "testuser", "test@example.com")
			lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
			subID := factory.CreateSubscription(t, "Netflix", 18, "testuser",
				lastPayment, lastPayment.AddDate(0, 1, 0), "MONTHLY", 1)

			rows, history, err := storage.UpdateEntry(context.Background(), subID, "testuser", tt.upd)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, rows)

			saved := factory.GetPriceHistory(t, subID)
			if tt.wantHistory {
				require.NotNil(t, history)
				require.Len(t, saved, 1)
				assert.InDelta(t, tt.wantOldPrice, saved[0].OldPrice, 0.001)
				assert.InDelta(t, tt.wantNewPrice, saved[0].NewPrice, 0.001)
			} else {
				assert.Nil(t, history)
				assert.Empty(t, saved)
			}
		})
	}
}

func TestStorage_UpdateEntry_MissingSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")

	rows, history, err := storage.UpdateEntry(context.Background(), 42, "testuser",
		models.UpdateSubscription{Price: ptrFloat(22)})
	require.NoError(t, err)
	assert.Equal(t, 0, rows)
	assert.Nil(t, history)
	assert.Equal(t, 0, factory.CountRows(t, "price_history"))
}

// Обновление не должно видеть подписку чужого пользователя.
func TestStorage_UpdateEntry_ForeignUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "owner", "owner@example.com")
	factory.CreateUser(t, "intruder", "intruder@example.com")
	lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	subID := factory.CreateSubscription(t, "Netflix", 18, "owner",
		lastPayment, lastPayment.AddDate(0, 1, 0), "MONTHLY", 1)

	rows, history, err := storage.UpdateEntry(context.Background(), subID, "intruder",
		models.UpdateSubscription{Price: ptrFloat(22)})
	require.NoError(t, err)
	assert.Equal(t, 0, rows)
	assert.Nil(t, history)
}

func TestStorage_ListEntries(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")
	aliceID := factory.CreateMember(t, "Alice", "testuser")

	lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	firstID := factory.CreateSubscription(t, "Netflix", 18, "testuser",
		lastPayment, lastPayment.AddDate(0, 1, 0), "MONTHLY", 1)
	secondID := factory.CreateSubscription(t, "Spotify", 10, "testuser",
		lastPayment, lastPayment.AddDate(0, 0, 7), "WEEKLY", 1)

	_, err := storage.CreateSubscriptionMember(context.Background(), firstID, aliceID, 50)
	require.NoError(t, err)

	got, err := storage.ListEntries(context.Background(), "testuser", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Свежесозданная подписка идёт первой.
	assert.Equal(t, secondID, got[0].ID)
	assert.Equal(t, "Spotify", got[0].Name)
	assert.Empty(t, got[0].Members)
	require.NotNil(t, got[0].IntervalPeriod)
	assert.Equal(t, recurrence.Weekly, got[0].IntervalPeriod.RepeatFrequency)

	assert.Equal(t, firstID, got[1].ID)
	require.Len(t, got[1].Members, 1)
	assert.Equal(t, "Alice", got[1].Members[0].MemberName)

	empty, err := storage.ListEntries(context.Background(), "nonexistent", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStorage_ReadEntry_NotFound(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")

	_, err := storage.ReadEntry(context.Background(), 42, "testuser")
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestStorage_Members(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")

	found, err := storage.FindMemberByName(context.Background(), "Alice", "testuser")
	require.NoError(t, err)
	assert.Nil(t, found)

	aliceID, err := storage.CreateMember(context.Background(), "Alice", "testuser")
	require.NoError(t, err)

	found, err = storage.FindMemberByName(context.Background(), "Alice", "testuser")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, aliceID, found.ID)

	// Участник виден только своему пользователю.
	foreign, err := storage.FindMemberByName(context.Background(), "Alice", "otheruser")
	require.NoError(t, err)
	assert.Nil(t, foreign)

	members, err := storage.ListMembers(context.Background(), "testuser")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Alice", members[0].Name)
}

// Уникальности пары (подписка, участник) нет: два одинаковых вызова
// создают две связи.
func TestStorage_CreateSubscriptionMember_AllowsDuplicates(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "testuser", "test@example.com")
	aliceID := factory.CreateMember(t, "Alice", "testuser")
	lastPayment := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	subID := factory.CreateSubscription(t, "Netflix", 18, "testuser",
		lastPayment, lastPayment.AddDate(0, 1, 0), "MONTHLY", 1)

	first, err := storage.CreateSubscriptionMember(context.Background(), subID, aliceID, 30)
	require.NoError(t, err)
	second, err := storage.CreateSubscriptionMember(context.Background(), subID, aliceID, 30)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, factory.CountRows(t, "subscription_members"))
}

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	uid, err := storage.RegisterUser(context.Background(), models.User{
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		Role:         "user",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	user, err := storage.GetUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, uid, user.UUID)
	assert.Equal(t, "test@example.com", user.Email)

	absent, err := storage.GetUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, absent)
}
