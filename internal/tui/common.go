package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orwex/calldeck/internal/query"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewLeads
	viewCalls
	viewMeetings
	viewAnalytics
	viewSettings
)

var viewNames = []string{"Dashboard", "Leads", "Calls", "Meetings", "Analytics", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

// pollMsg drives the periodic refetch of polled queries.
type pollMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatSeconds(secs float64) string {
	d := time.Duration(secs) * time.Second
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatTimestamp renders the backend's ISO-8601 strings compactly;
// unparseable values pass through untouched.
func formatTimestamp(iso string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Local().Format("Jan 02 15:04")
		}
	}
	return iso
}

// statusLabel turns snake_case backend statuses into badges like
// "Meeting Scheduled".
func statusLabel(status string) string {
	words := strings.Split(status, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// mutationError labels a failed write for the status line. A rejected
// re-trigger gets a gentler message than a real failure.
func mutationError(action string, err error) string {
	if errors.Is(err, query.ErrPending) {
		return action + " already in progress"
	}
	return fmt.Sprintf("%s failed: %v", action, err)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
