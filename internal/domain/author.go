package domain

import "time"

// AuthorStatus статус учетной записи автора
type AuthorStatus string

const (
	AuthorStatusActive    AuthorStatus = "active"
	AuthorStatusInactive  AuthorStatus = "inactive"
	AuthorStatusSuspended AuthorStatus = "suspended"
)

// Role роль автора на платформе
type Role string

const (
	RoleAuthor Role = "author"
	RoleAdmin  Role = "admin"
)

// Author автор платформы
type Author struct {
	ID           int64        `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password"`
	Status       AuthorStatus `json:"status" db:"status"`
	Role         Role         `json:"role" db:"role"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// CanAct может ли автор выполнять действия
func (a *Author) CanAct() bool {
	return a != nil && a.Status == AuthorStatusActive
}

// Actor тот, кто выполняет действие
func (a *Author) Actor() Actor {
	return Actor{AuthorID: a.ID, Admin: a.Role == RoleAdmin}
}
