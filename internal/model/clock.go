package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ClockTime время суток в минутах от полуночи.
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClock разбирает строку вида "09:30"; "24:00" означает конец суток.
func ParseClock(s string) (ClockTime, error) {
	if s == "24:00" {
		return minutesPerDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// MustClock для констант в тестах и дефолтах.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On возвращает момент времени c в день date.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ScanTime позволяет pgx сканировать колонку TIME.
func (c *ClockTime) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		*c = 0
		return nil
	}
	minutes := v.Microseconds / int64(time.Minute/time.Microsecond)
	if minutes > minutesPerDay {
		return fmt.Errorf("time value out of range: %d", v.Microseconds)
	}
	*c = ClockTime(minutes)
	return nil
}

// TimeValue позволяет pgx писать ClockTime в колонку TIME.
func (c ClockTime) TimeValue() (pgtype.Time, error) {
	return pgtype.Time{
		Microseconds: int64(c) * int64(time.Minute/time.Microsecond),
		Valid:        true,
	}, nil
}

// DateOf обрезает время до начала дня в UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате 2006-01-02.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
