package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// FindMemberByName ищет участника по имени в рамках пользователя.
// Возвращает (nil, nil), если участник не найден.
func (s *Storage) FindMemberByName(ctx context.Context, name, username string) (*models.Member, error) {
	const op = "storage.FindMemberByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, username
			  FROM members
			  WHERE name = $1 AND username = $2
			  ORDER BY id
			  LIMIT 1`
	var result models.Member
	err := s.DB.QueryRowContext(ctx, query, name, username).Scan(&result.ID, &result.Name, &result.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// CreateMember сохраняет нового участника и возвращает его ID.
func (s *Storage) CreateMember(ctx context.Context, name, username string) (int, error) {
	const op = "storage.CreateMember"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO members (name, username)
			  VALUES ($1, $2)
			  RETURNING id`
	var newID int
	if err := s.DB.QueryRowContext(ctx, query, name, username).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListMembers возвращает всех участников пользователя.
func (s *Storage) ListMembers(ctx context.Context, username string) ([]*models.Member, error) {
	const op = "storage.ListMembers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, username
			  FROM members
			  WHERE username = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Member
	for rows.Next() {
		var item models.Member
		if err := rows.Scan(&item.ID, &item.Name, &item.Username); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateSubscriptionMember создаёт связь подписки и участника с долей
// стоимости и возвращает её ID. Уникальность пары не проверяется:
// повторный вызов создаёт вторую связь.
func (s *Storage) CreateSubscriptionMember(ctx context.Context, subscriptionID, memberID int, share float64) (int, error) {
	const op = "storage.CreateSubscriptionMember"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_members (subscription_id, member_id, share)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID int
	if err := s.DB.QueryRowContext(ctx, query, subscriptionID, memberID, share).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
