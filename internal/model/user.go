package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleExpert Role = "expert"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Role          Role      `json:"role"`
	RatePerMinute int64     `json:"rate_per_minute"` // только для экспертов, в минорных единицах
	Currency      string    `json:"currency"`
	IsActive      bool      `json:"is_active"`
	TelegramID    *int64    `json:"-"` // куда слать уведомления эксперту
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) IsExpert() bool {
	return u.Role == RoleExpert
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ExpertUpdate частичное обновление эксперта администратором
type ExpertUpdate struct {
	FullName      *string
	RatePerMinute *int64
	Currency      *string
	IsActive      *bool
	TelegramID    *int64
}
