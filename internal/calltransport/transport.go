// Package calltransport выдаёт участникам звонка билеты на вход в медиа-канал.
// Сам медиа-поток идёт через внешний SDK; имя канала = id сессии звонка.
package calltransport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
)

var ErrInvalidTicket = errors.New("invalid join ticket")

type JoinTicket struct {
	Channel   string    `json:"channel"`
	UID       string    `json:"uid"`
	Token     string    `json:"token"`
	Video     bool      `json:"video"`
	ExpiresAt time.Time `json:"expires_at"`
}

type JoinRequest struct {
	Channel       string
	ParticipantID uuid.UUID
	Role          Role
	Video         bool
}

// Transport capability медиа-слоя
type Transport interface {
	Join(ctx context.Context, req JoinRequest) (*JoinTicket, error)
}

type ticketClaims struct {
	Channel string `json:"channel"`
	Role    Role   `json:"role"`
	Video   bool   `json:"video"`
	jwt.RegisteredClaims
}

// TokenTransport подписывает билеты HS256; медиа-шлюз проверяет их тем же секретом
type TokenTransport struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenTransport(secret string, ttl time.Duration) *TokenTransport {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TokenTransport{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "wellness-api",
		now:    time.Now,
	}
}

func (t *TokenTransport) Join(ctx context.Context, req JoinRequest) (*JoinTicket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Channel == "" || req.ParticipantID == uuid.Nil {
		return nil, fmt.Errorf("%w: channel and participant are required", ErrInvalidTicket)
	}

	now := t.now()
	expires := now.Add(t.ttl)
	claims := ticketClaims{
		Channel: req.Channel,
		Role:    req.Role,
		Video:   req.Video,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   req.ParticipantID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign join ticket: %w", err)
	}

	return &JoinTicket{
		Channel:   req.Channel,
		UID:       req.ParticipantID.String(),
		Token:     token,
		Video:     req.Video,
		ExpiresAt: expires,
	}, nil
}

// Verify разбирает билет; используется медиа-шлюзом и в тестах
func (t *TokenTransport) Verify(token string) (channel string, participant uuid.UUID, err error) {
	var claims ticketClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}

	participant, err = uuid.Parse(claims.Subject)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidTicket)
	}
	return claims.Channel, participant, nil
}
