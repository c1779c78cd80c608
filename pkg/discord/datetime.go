package discord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rollcall/pkg/tz"
)

var ErrDateTimeInPast = errors.New("la date et l'heure doivent être dans le futur")

// ParseEventDateTime parses date (JJ/MM/AAAA) and time (HH:MM) in the event zone.
// Returns an error if format is invalid or if the date/time is not after now.
func ParseEventDateTime(dateStr, timeStr string, now time.Time) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" || timeStr == "" {
		return time.Time{}, fmt.Errorf("date et heure requises (JJ/MM/AAAA et HH:MM)")
	}
	tDate, err := time.Parse("02/01/2006", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("date invalide (attendu JJ/MM/AAAA, ex: 15/02/2026)")
	}
	tTime, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("heure invalide (attendu HH:MM, ex: 14:00)")
	}
	dt := time.Date(tDate.Year(), tDate.Month(), tDate.Day(),
		tTime.Hour(), tTime.Minute(), 0, 0, tz.Events())
	if !dt.After(now) {
		return time.Time{}, ErrDateTimeInPast
	}
	return dt.UTC(), nil
}

func FormatEventDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(tz.Events()).Format("02/01/2006 à 15:04")
}
