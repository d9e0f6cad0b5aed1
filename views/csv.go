package views

import (
	"encoding/csv"
	"io"
	"regexp"
	"time"

	"github.com/LovationAdmin/triptrack-api/models"
)

var CSVHeader = []string{"User Name", "Target Amount", "Current Savings", "Completion %", "Last Updated"}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFilename replaces each whitespace run in the trip name with "_".
func ExportFilename(tripName string) string {
	return whitespaceRun.ReplaceAllString(tripName, "_") + "_savings.csv"
}

// WriteSavingsCSV writes one row per member in member order.
func WriteSavingsCSV(w io.Writer, trip models.Trip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, m := range trip.Members {
		name := UnknownTraveler
		if m.User != nil {
			name = m.User.Name
		}
		record := []string{
			name,
			trip.TargetAmount.StringFixed(2),
			m.CurrentSavings.StringFixed(2),
			ProgressPercent(m.CurrentSavings, trip.TargetAmount).StringFixed(2) + "%",
			m.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
