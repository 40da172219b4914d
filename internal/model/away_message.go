package model

import (
	"time"

	"github.com/google/uuid"
)

// AwayMessage сообщение, оставленное эксперту пока он не в сети
type AwayMessage struct {
	ID        uuid.UUID  `json:"id"`
	ExpertID  uuid.UUID  `json:"expert_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (m *AwayMessage) IsRead() bool {
	return m.ReadAt != nil
}
