// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи и хэш пароля.
package models

import "time"

// DummyRegisterUser представляет запрос на регистрацию пользователя.
type DummyRegisterUser struct {
	Email    string `json:"email" validate:"required,email"`    // Электронная почта
	Username string `json:"username" validate:"required,min=3"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"` // Пароль в открытом виде
}

// DummyLoginUser представляет запрос на вход пользователя.
type DummyLoginUser struct {
	Username string `json:"username" validate:"required"` // Имя пользователя
	Password string `json:"password" validate:"required"` // Пароль в открытом виде
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	CreatedAt    time.Time // Дата регистрации
}
