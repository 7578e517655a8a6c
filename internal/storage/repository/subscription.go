package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// CreateEntry в одной транзакции создаёт правило повторения, подписку
// со ссылкой на него и связи с участниками, возвращает ID подписки.
//
// Порядок фиксирован: правило повторения создаётся первым, потому что
// подписка хранит на него внешний ключ. Участник, не существующий у
// пользователя, откатывает всю транзакцию с ErrMemberNotFound —
// частично созданных строк не остаётся.
func (s *Storage) CreateEntry(ctx context.Context, sub models.Subscription, interval models.IntervalPeriod, members []models.SubscriptionMember) (int, error) {
	const op = "storage.CreateEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var intervalID int
	query := `INSERT INTO interval_periods (repeat_frequency, interval_count, day_of_month, start_date)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, query,
		interval.RepeatFrequency, interval.IntervalCount, interval.DayOfMonth,
		interval.StartDate).Scan(&intervalID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var newID int
	query = `INSERT INTO subscriptions (name, description, price, username,
			      last_payment_date, next_payment_date, interval_period_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	if err := tx.QueryRowContext(ctx, query,
		sub.Name, sub.Description, sub.Price, sub.Username,
		sub.LastPaymentDate, sub.NextPaymentDate, intervalID).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, m := range members {
		var exists bool
		query = `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1 AND username = $2)`
		if err := tx.QueryRowContext(ctx, query, m.MemberID, sub.Username).Scan(&exists); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return 0, fmt.Errorf("%s: member %d: %w", op, m.MemberID, ErrMemberNotFound)
		}

		query = `INSERT INTO subscription_members (subscription_id, member_id, share)
				 VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, newID, m.MemberID, m.Share); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadEntry возвращает подписку пользователя по ID вместе с правилом
// повторения и долями участников.
func (s *Storage) ReadEntry(ctx context.Context, id int, username string) (*models.Subscription, error) {
	const op = "storage.ReadEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, s.description, s.price, s.username,
			      s.last_payment_date, s.next_payment_date, s.interval_period_id, s.created_at,
			      ip.repeat_frequency, ip.interval_count, ip.day_of_month, ip.start_date
			  FROM subscriptions s
			  JOIN interval_periods ip ON ip.id = s.interval_period_id
			  WHERE s.id = $1 AND s.username = $2`
	row := s.DB.QueryRowContext(ctx, query, id, username)

	var result models.Subscription
	var interval models.IntervalPeriod
	if err := row.Scan(&result.ID, &result.Name, &result.Description, &result.Price,
		&result.Username, &result.LastPaymentDate, &result.NextPaymentDate,
		&result.IntervalPeriodID, &result.CreatedAt,
		&interval.RepeatFrequency, &interval.IntervalCount, &interval.DayOfMonth,
		&interval.StartDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	interval.ID = result.IntervalPeriodID
	result.IntervalPeriod = &interval

	members, err := s.listSubscriptionMembers(ctx, result.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.Members = members

	return &result, nil
}

// UpdateEntry применяет частичное обновление подписки в одной
// транзакции и возвращает количество изменённых строк вместе с
// записанной строкой истории цен (nil, если история не записывалась).
//
// Если обновление содержит поле price, текущая цена читается с
// блокировкой строки и фиксируется в price_history до применения
// обновления — даже когда новая цена совпадает со старой: условием
// служит присутствие поля, а не изменение значения. Отсутствующая
// строка подписки молча пропускает запись истории, само обновление
// затронет ноль строк.
func (s *Storage) UpdateEntry(ctx context.Context, id int, username string, upd models.UpdateSubscription) (int, *models.PriceHistory, error) {
	const op = "storage.UpdateEntry"
	select {
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var history *models.PriceHistory
	if upd.Price != nil {
		var oldPrice float64
		query := `SELECT price FROM subscriptions WHERE id = $1 AND username = $2 FOR UPDATE`
		err := tx.QueryRowContext(ctx, query, id, username).Scan(&oldPrice)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Подписки нет: журнал пропускается, обновление ниже затронет ноль строк.
		case err != nil:
			return 0, nil, fmt.Errorf("%s: %w", op, err)
		default:
			h := models.PriceHistory{
				SubscriptionID: id,
				OldPrice:       oldPrice,
				NewPrice:       *upd.Price,
			}
			query = `INSERT INTO price_history (subscription_id, old_price, new_price)
					 VALUES ($1, $2, $3)
					 RETURNING id, created_at`
			if err := tx.QueryRowContext(ctx, query, id, oldPrice, *upd.Price).Scan(&h.ID, &h.CreatedAt); err != nil {
				return 0, nil, fmt.Errorf("%s: %w", op, err)
			}
			history = &h
		}
	}

	query := `UPDATE subscriptions
			  SET name = COALESCE($1, name),
			      description = COALESCE($2, description),
			      price = COALESCE($3, price),
			      last_payment_date = COALESCE($4, last_payment_date),
			      next_payment_date = COALESCE($5, next_payment_date)
			  WHERE id = $6 AND username = $7`
	result, err := tx.ExecContext(ctx, query,
		upd.Name, upd.Description, upd.Price, upd.LastPaymentDate, upd.NextPaymentDate,
		id, username)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), history, nil
}

// ListEntries возвращает подписки пользователя с правилами повторения
// и долями участников, свежесозданные первыми, с пагинацией.
func (s *Storage) ListEntries(ctx context.Context, username string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, s.description, s.price, s.username,
			      s.last_payment_date, s.next_payment_date, s.interval_period_id, s.created_at,
			      ip.repeat_frequency, ip.interval_count, ip.day_of_month, ip.start_date,
			      sm.id, sm.member_id, sm.share, m.name
			  FROM (SELECT * FROM subscriptions
			        WHERE username = $1
			        ORDER BY created_at DESC, id DESC
			        LIMIT $2 OFFSET $3) s
			  JOIN interval_periods ip ON ip.id = s.interval_period_id
			  LEFT JOIN subscription_members sm ON sm.subscription_id = s.id
			  LEFT JOIN members m ON m.id = sm.member_id
			  ORDER BY s.created_at DESC, s.id DESC, sm.id`
	rows, err := s.DB.QueryContext(ctx, query, username, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	byID := make(map[int]*models.Subscription)
	for rows.Next() {
		var item models.Subscription
		var interval models.IntervalPeriod
		var smID, smMemberID sql.NullInt64
		var smShare sql.NullFloat64
		var memberName sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
			&item.Username, &item.LastPaymentDate, &item.NextPaymentDate,
			&item.IntervalPeriodID, &item.CreatedAt,
			&interval.RepeatFrequency, &interval.IntervalCount, &interval.DayOfMonth,
			&interval.StartDate,
			&smID, &smMemberID, &smShare, &memberName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sub, ok := byID[item.ID]
		if !ok {
			interval.ID = item.IntervalPeriodID
			item.IntervalPeriod = &interval
			sub = &item
			byID[item.ID] = sub
			result = append(result, sub)
		}
		if smID.Valid {
			sub.Members = append(sub.Members, models.SubscriptionMember{
				ID:             int(smID.Int64),
				SubscriptionID: sub.ID,
				MemberID:       int(smMemberID.Int64),
				MemberName:     memberName.String,
				Share:          smShare.Float64,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPriceHistory возвращает журнал изменений цены подписки
// пользователя, новые записи первыми.
func (s *Storage) ListPriceHistory(ctx context.Context, subscriptionID int, username string) ([]*models.PriceHistory, error) {
	const op = "storage.ListPriceHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ph.id, ph.subscription_id, ph.old_price, ph.new_price, ph.created_at
			  FROM price_history ph
			  JOIN subscriptions s ON s.id = ph.subscription_id
			  WHERE ph.subscription_id = $1 AND s.username = $2
			  ORDER BY ph.created_at DESC, ph.id DESC`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PriceHistory
	for rows.Next() {
		var item models.PriceHistory
		if err := rows.Scan(&item.ID, &item.SubscriptionID, &item.OldPrice,
			&item.NewPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Storage) listSubscriptionMembers(ctx context.Context, subscriptionID int) ([]models.SubscriptionMember, error) {
	query := `SELECT sm.id, sm.member_id, sm.share, m.name
			  FROM subscription_members sm
			  JOIN members m ON m.id = sm.member_id
			  WHERE sm.subscription_id = $1
			  ORDER BY sm.id`
	rows, err := s.DB.QueryContext(ctx, query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.SubscriptionMember
	for rows.Next() {
		var item models.SubscriptionMember
		if err := rows.Scan(&item.ID, &item.MemberID, &item.Share, &item.MemberName); err != nil {
			return nil, err
		}
		item.SubscriptionID = subscriptionID
		result = append(result, item)
	}
	return result, rows.Err()
}
