package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

// ExpertCard эксперт в каталоге вместе с текущим статусом
type ExpertCard struct {
	*model.User
	Presence model.PresenceStatus `json:"presence"`
	Online   bool                 `json:"is_online"`
}

type ExpertService struct {
	users    UserStore
	presence PresenceStore
	logger   *zap.Logger
}

func NewExpertService(users UserStore, presence PresenceStore, logger *zap.Logger) *ExpertService {
	return &ExpertService{
		users:    users,
		presence: presence,
		logger:   logger,
	}
}

// Catalogue активные эксперты со статусами
func (s *ExpertService) Catalogue(ctx context.Context) ([]ExpertCard, error) {
	const op = "expert.catalogue"

	experts, err := s.users.ListExperts(ctx, true)
	if err != nil {
		return nil, classify(op, err)
	}

	statuses, err := s.presence.ListAll(ctx)
	if err != nil {
		return nil, classify(op, err)
	}

	cards := make([]ExpertCard, 0, len(experts))
	for _, e := range experts {
		p, ok := statuses[e.ID]
		if !ok {
			p = model.OfflinePresence(e.ID)
		}
		cards = append(cards, ExpertCard{User: e, Presence: p.Status, Online: p.IsOnline()})
	}
	return cards, nil
}

// Get эксперт по ID; обычный пользователь с этим ID считается не найденным
func (s *ExpertService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const op = "expert.get"

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, classify(op, err)
	}
	if user == nil || !user.IsExpert() {
		return nil, apperr.NotFound(op, "expert not found")
	}
	return user, nil
}

// GetUser любой пользователь, для профиля и авторизации
func (s *ExpertService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const op = "user.get"

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, classify(op, err)
	}
	if user == nil {
		return nil, apperr.NotFound(op, "user not found")
	}
	return user, nil
}

// AdminUpdate изменение карточки эксперта администратором
func (s *ExpertService) AdminUpdate(ctx context.Context, actor *model.User, expertID uuid.UUID, upd model.ExpertUpdate) (*model.User, error) {
	const op = "expert.admin_update"

	if actor == nil || !actor.IsAdmin() {
		return nil, apperr.Forbidden(op, "admin role required")
	}

	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, apperr.Validation(op, "full_name must not be empty")
		}
		upd.FullName = &name
	}
	if upd.RatePerMinute != nil && *upd.RatePerMinute < 0 {
		return nil, apperr.Validation(op, "rate_per_minute must not be negative")
	}
	if upd.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*upd.Currency))
		if len(cur) != 3 {
			return nil, apperr.Validation(op, "currency must be a 3-letter ISO code")
		}
		upd.Currency = &cur
	}

	updated, err := s.users.UpdateExpert(ctx, expertID, upd)
	if err != nil {
		return nil, classify(op, err)
	}

	s.logger.Info("Expert updated by admin",
		zap.String("expert_id", expertID.String()),
		zap.String("admin_id", actor.ID.String()),
		zap.Int64("rate_per_minute", updated.RatePerMinute),
		zap.Bool("is_active", updated.IsActive),
	)
	return updated, nil
}

// GetByTelegram эксперт, привязанный к аккаунту Telegram
func (s *ExpertService) GetByTelegram(ctx context.Context, telegramID int64) (*model.User, error) {
	const op = "expert.get_by_telegram"

	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, classify(op, err)
	}
	if user == nil || !user.IsExpert() {
		return nil, apperr.NotFound(op, "no expert is linked to this Telegram account")
	}
	return user, nil
}
