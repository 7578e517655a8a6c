// Package repository реализует хранилище данных на основе PostgreSQL
// для управления подписками, правилами повторения, участниками,
// долями стоимости и историей изменения цен, а также пользователями.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrSubscriptionNotFound возвращается, когда подписка с данным ID
// не существует либо принадлежит другому пользователю.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// ErrMemberNotFound возвращается, когда ссылка на участника
// не разрешается в существующую запись пользователя.
var ErrMemberNotFound = errors.New("member not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с подписками, участниками и пользователями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscriptions missing or query error: %w", err)
	}
	return nil
}
