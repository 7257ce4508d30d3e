package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/orwex/calldeck/internal/api"
)

type leadsExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Leads      []api.Lead `json:"leads"`
}

// LeadsToJSON writes the given leads to path as indented JSON.
func LeadsToJSON(leads []api.Lead, path string) error {
	export := leadsExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(leads),
		Leads:      leads,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

type callsExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Calls      []api.Call `json:"calls"`
}

// CallsToJSON writes the given calls to path as indented JSON.
func CallsToJSON(calls []api.Call, path string) error {
	export := callsExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(calls),
		Calls:      calls,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
