package helpers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"rsvpdesk/internal/domain"
)

// statusLabelsBG are the Bulgarian status labels used in the exported CSV.
var statusLabelsBG = map[domain.RSVPStatus]string{
	domain.StatusAttending: "Присъства",
	domain.StatusMaybe:     "Може би",
	domain.StatusDeclined:  "Отказал",
}

// StatusLabelBG returns the localized label for a status, falling back to the
// raw value for unknown statuses.
func StatusLabelBG(status domain.RSVPStatus) string {
	if label, ok := statusLabelsBG[status]; ok {
		return label
	}
	return string(status)
}

// WriteRSVPsCSV streams the response list as a CSV attachment. A UTF-8 BOM is
// prepended so spreadsheet applications detect the encoding of the Cyrillic
// labels. Column order: name, email, localized status, creation time.
func WriteRSVPsCSV(w http.ResponseWriter, filename string, rsvps []*domain.RSVP) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write([]byte("\ufeff")); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Име", "Email", "Статус", "Дата на създаване"}); err != nil {
		return err
	}
	for _, rsvp := range rsvps {
		record := []string{
			rsvp.Name,
			rsvp.Email,
			StatusLabelBG(rsvp.Status),
			rsvp.CreatedAt.Format("2.01.2006 г., 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename builds the download name for an event's RSVP export,
// e.g. "rsvps_Team Meetup_2025-06-01.csv".
func ExportFilename(eventTitle string, now time.Time) string {
	return fmt.Sprintf("rsvps_%s_%s.csv", eventTitle, now.Format("2006-01-02"))
}
