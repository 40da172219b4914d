package formatting

import "github.com/Freeeeeet/wellness_api/internal/model"

type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

var presenceDisplays = map[model.PresenceStatus]StatusDisplay{
	model.PresenceAvailable: {"🟢", "Available"},
	model.PresenceBusy:      {"🔴", "Busy"},
	model.PresenceAway:      {"🟡", "Away"},
	model.PresenceOffline:   {"⚫️", "Offline"},
}

// PresenceDisplay emoji и текст статуса эксперта
func PresenceDisplay(status model.PresenceStatus) StatusDisplay {
	if d, ok := presenceDisplays[status]; ok {
		return d
	}
	return StatusDisplay{"❓", "Unknown"}
}

func AppointmentDisplay(status model.AppointmentStatus) StatusDisplay {
	displays := map[model.AppointmentStatus]StatusDisplay{
		model.AppointmentPending:   {"⏳", "Awaiting payment"},
		model.AppointmentConfirmed: {"✅", "Confirmed"},
		model.AppointmentCompleted: {"✔️", "Completed"},
		model.AppointmentCancelled: {"❌", "Cancelled"},
	}
	if d, ok := displays[status]; ok {
		return d
	}
	return StatusDisplay{"❓", "Unknown"}
}

func CallKindDisplay(kind string) StatusDisplay {
	switch model.CallKind(kind) {
	case model.CallKindVideo:
		return StatusDisplay{"📹", "video"}
	case model.CallKindVoice:
		return StatusDisplay{"📞", "voice"}
	}
	return StatusDisplay{"📞", "call"}
}
