package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/orwex/calldeck/internal/api"
)

func sampleLeads() []api.Lead {
	return []api.Lead{
		{ID: 1, Name: "John Doe", Phone: "+1234567890", Email: "john@example.com", Language: "en", Status: "pending", CreatedAt: "2026-01-01T00:00:00"},
		{ID: 2, Name: "Dana Levi", Phone: "+972521234567", Language: "he", Status: "contacted", CreatedAt: "2026-01-02T00:00:00"},
	}
}

func TestLeadsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	if err := LeadsToCSV(sampleLeads(), path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Name" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][2] != "+1234567890" {
		t.Fatalf("unexpected phone %q", rows[1][2])
	}
}

func TestLeadsToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	if err := LeadsToJSON(sampleLeads(), path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out leadsExport
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Leads) != 2 {
		t.Fatalf("unexpected export %+v", out)
	}
	if out.ExportedAt == "" {
		t.Fatal("missing exported_at")
	}
}

func TestCallsToCSV(t *testing.T) {
	dur := 62.5
	end := "2026-01-01T10:01:02"
	calls := []api.Call{
		{ID: 3, LeadID: 1, Outcome: "interested", Duration: &dur, Language: "en", StartedAt: "2026-01-01T10:00:00", EndedAt: &end},
		{ID: 4, LeadID: 2, Outcome: "no_answer", StartedAt: "2026-01-01T11:00:00"},
	}

	path := filepath.Join(t.TempDir(), "calls.csv")
	if err := CallsToCSV(calls, path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][3] != "63" && rows[1][3] != "62" {
		t.Fatalf("unexpected duration %q", rows[1][3])
	}
	if rows[2][6] != "" {
		t.Fatalf("missing end time should be empty, got %q", rows[2][6])
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.csv")
	if err := WriteTemplate(path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "name" || rows[0][1] != "phone" || rows[0][2] != "email" {
		t.Fatalf("unexpected template header %v", rows[0])
	}
}
