package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

// FormatDateTime время в UTC, как его хранит сервер
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04") + " UTC"
}

func FormatDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006")
}

func FormatTimeRange(start, end model.ClockTime) string {
	return fmt.Sprintf("%s–%s", start, end)
}

// FormatDuration длительность в минутах: 90 -> "1 h 30 min"
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}
