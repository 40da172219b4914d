// Package calendar дублирует подтверждённые записи в Google Calendar эксперта.
package calendar

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

// Entry то, что попадает в событие календаря
type Entry struct {
	Appointment model.Appointment
	ExpertName  string
	UserName    string
}

type Syncer interface {
	// Upsert возвращает id события в календаре
	Upsert(ctx context.Context, e Entry) (string, error)
	Remove(ctx context.Context, eventID string) error
}

type GoogleSyncer struct {
	events     *gcal.EventsService
	calendarID string
}

// NewGoogleSyncer авторизуется сервисным аккаунтом из JSON-файла
func NewGoogleSyncer(ctx context.Context, credentialsFile, calendarID string) (*GoogleSyncer, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}

	cfg, err := google.JWTConfigFromJSON(b, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleSyncer{events: svc.Events, calendarID: calendarID}, nil
}

func (s *GoogleSyncer) Upsert(ctx context.Context, e Entry) (string, error) {
	ev := eventFor(e)

	if id := e.Appointment.CalendarEventID; id != nil && *id != "" {
		updated, err := s.events.Update(s.calendarID, *id, ev).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update calendar event: %w", err)
		}
		return updated.Id, nil
	}

	created, err := s.events.Insert(s.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

func (s *GoogleSyncer) Remove(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	if err := s.events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

func eventFor(e Entry) *gcal.Event {
	a := e.Appointment
	desc := fmt.Sprintf("Client: %s\nAppointment: %s", e.UserName, a.ID)
	if a.Notes != nil && *a.Notes != "" {
		desc += "\n\n" + *a.Notes
	}

	return &gcal.Event{
		Summary:     fmt.Sprintf("Session with %s", e.UserName),
		Description: desc,
		Start:       &gcal.EventDateTime{DateTime: a.StartsAt().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &gcal.EventDateTime{DateTime: a.EndsAt().Format(time.RFC3339), TimeZone: "UTC"},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{
				"appointment_id": a.ID.String(),
				"expert":         e.ExpertName,
			},
		},
	}
}

// NoopSyncer когда GOOGLE_CREDENTIALS_FILE не задан
type NoopSyncer struct{}

func (NoopSyncer) Upsert(context.Context, Entry) (string, error) { return "", nil }
func (NoopSyncer) Remove(context.Context, string) error           { return nil }
