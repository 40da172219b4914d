// Package keyboard inline клавиатуры бота
package keyboard

import (
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/wellness_api/internal/controller/formatting"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

// PresencePrefix callback data кнопок статуса: presence:available
const PresencePrefix = "presence:"

type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет ряд; пустые ряды пропускаются
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: b.rows}
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// Presence кнопки смены статуса, текущий отмечен галочкой
func Presence(current model.PresenceStatus) *models.InlineKeyboardMarkup {
	button := func(s model.PresenceStatus) models.InlineKeyboardButton {
		label := formatting.PresenceDisplay(s).String()
		if s == current {
			label = "✓ " + label
		}
		return Button(label, PresencePrefix+string(s))
	}

	return NewBuilder().
		Row(button(model.PresenceAvailable), button(model.PresenceBusy)).
		Row(button(model.PresenceAway), button(model.PresenceOffline)).
		Build()
}
