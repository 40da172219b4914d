package handlers

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/wellness_api/internal/controller/formatting"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

// FormatAppointment одна запись в списке /appointments
func FormatAppointment(a *model.Appointment) string {
	display := formatting.AppointmentDisplay(a.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s, %s UTC\n",
		display.Emoji,
		formatting.FormatDate(a.AppointmentDate),
		formatting.FormatTimeRange(a.StartTime, a.EndTime),
	)
	fmt.Fprintf(&sb, "   %s · %s", display.Text, formatting.FormatMoneyShort(a.Amount, a.Currency))
	if a.Notes != nil {
		fmt.Fprintf(&sb, "\n   📝 %s", *a.Notes)
	}
	return sb.String()
}
