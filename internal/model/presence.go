package model

import (
	"time"

	"github.com/google/uuid"
)

type PresenceStatus string

const (
	PresenceAvailable PresenceStatus = "available"
	PresenceBusy      PresenceStatus = "busy"
	PresenceAway      PresenceStatus = "away"
	PresenceOffline   PresenceStatus = "offline"
)

func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceAvailable, PresenceBusy, PresenceAway, PresenceOffline:
		return true
	}
	return false
}

type Presence struct {
	ExpertID  uuid.UUID      `json:"expert_id"`
	Status    PresenceStatus `json:"status"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsOnline онлайн только в статусе available
func (p Presence) IsOnline() bool {
	return p.Status == PresenceAvailable
}

// OfflinePresence значение по умолчанию, если эксперт ни разу не выставлял статус
func OfflinePresence(expertID uuid.UUID) Presence {
	return Presence{ExpertID: expertID, Status: PresenceOffline}
}
