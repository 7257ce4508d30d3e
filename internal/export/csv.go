package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/orwex/calldeck/internal/api"
)

// LeadsToCSV writes the given leads to path, one row per lead.
func LeadsToCSV(leads []api.Lead, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Name", "Phone", "Email", "Language", "Status", "Created"}); err != nil {
		return err
	}

	for _, l := range leads {
		row := []string{
			fmt.Sprintf("%d", l.ID),
			l.Name,
			l.Phone,
			l.Email,
			l.Language,
			l.Status,
			l.CreatedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// CallsToCSV writes the given calls to path.
func CallsToCSV(calls []api.Call, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Lead ID", "Outcome", "Duration (s)", "Language", "Started", "Ended"}); err != nil {
		return err
	}

	for _, c := range calls {
		durStr := ""
		if c.Duration != nil {
			durStr = fmt.Sprintf("%.0f", *c.Duration)
		}
		endStr := ""
		if c.EndedAt != nil {
			endStr = *c.EndedAt
		}
		row := []string{
			fmt.Sprintf("%d", c.ID),
			fmt.Sprintf("%d", c.LeadID),
			c.Outcome,
			durStr,
			c.Language,
			c.StartedAt,
			endStr,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// WriteTemplate writes a sample upload CSV in the backend's expected
// column order (name,phone,email).
func WriteTemplate(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	rows := [][]string{
		{"name", "phone", "email"},
		{"John Doe", "+15551234567", "john@example.com"},
		{"Dana Levi", "+972521234567", ""},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
