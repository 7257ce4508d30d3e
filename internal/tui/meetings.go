package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
)

// meetingsModel is a read-only paginated table; bookings are created by
// the calling agent, not from the dashboard.
type meetingsModel struct {
	data   *source
	width  int
	height int

	list    api.MeetingList
	page    int
	cursor  int
	loaded  bool
	loadErr error
}

func newMeetingsModel(data *source) meetingsModel {
	return meetingsModel{data: data, page: 1}
}

func (m *meetingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m meetingsModel) queryKeys() []query.Key {
	return []query.Key{keyMeetings(m.page, m.data.cfg.PageSize)}
}

type meetingsDataMsg struct {
	list api.MeetingList
	err  error
}

func (m meetingsModel) refresh() tea.Cmd {
	data := m.data
	page := m.page
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		list, err := data.meetings(ctx, page)
		if err != nil {
			logger.Error("meetings fetch failed", "page", page, "error", err)
		}
		return meetingsDataMsg{list: list, err: err}
	}
}

func (m meetingsModel) update(msg tea.Msg) (meetingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case meetingsDataMsg:
		m.loaded = true
		m.loadErr = msg.err
		if msg.err == nil || len(msg.list.Meetings) > 0 {
			m.list = msg.list
		}
		if m.cursor >= len(m.list.Meetings) {
			m.cursor = max(0, len(m.list.Meetings)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.list.Meetings)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Left):
			if m.page > 1 {
				return m.setPage(m.page - 1)
			}
		case key.Matches(msg, keys.Right):
			if m.page*m.list.PageSize < m.list.Total {
				return m.setPage(m.page + 1)
			}
		}
	}
	return m, nil
}

func (m meetingsModel) setPage(page int) (meetingsModel, tea.Cmd) {
	m.data.cache.Unsubscribe(keyMeetings(m.page, m.data.cfg.PageSize))
	m.page = page
	m.cursor = 0
	m.data.cache.Subscribe(keyMeetings(m.page, m.data.cfg.PageSize))
	return m, m.refresh()
}

func (m meetingsModel) view() string {
	w := m.width - 4

	title := titleStyle.Render("Meetings")
	pageInfo := mutedStyle.Render(fmt.Sprintf("  page %d  ·  %d total", m.page, m.list.Total))
	header := title + pageInfo

	if !m.loaded {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading...")),
		)
	}

	var rows []string
	rows = append(rows, header)

	if m.loadErr != nil && len(m.list.Meetings) == 0 {
		rows = append(rows, "", errorStyle.Render("Could not load meetings: "+m.loadErr.Error()))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}
	if m.loadErr != nil {
		rows = append(rows, errorStyle.Render("  refresh failed, showing last known data"))
	}

	if len(m.list.Meetings) == 0 {
		rows = append(rows, "", mutedStyle.Render("No meetings booked yet."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-22s %-18s %-8s %-10s %s",
		"Lead", "Scheduled", "Length", "Type", "Status")))

	for i, meeting := range m.list.Meetings {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		length := "—"
		if meeting.Duration != nil {
			length = fmt.Sprintf("%d min", *meeting.Duration)
		}
		badge := statusStyle(meeting.Status).Render(statusLabel(meeting.Status))
		row := style.Render(fmt.Sprintf("%s  %-22s %-18s %-8s %-10s ",
			cursor, truncate(meeting.LeadName, 22), formatTimestamp(meeting.ScheduledAt),
			length, meetingPlace(meeting))) + badge
		rows = append(rows, row)
	}

	if len(m.list.Meetings) > 0 && m.cursor < len(m.list.Meetings) {
		if detail := meetingDetail(m.list.Meetings[m.cursor]); detail != "" {
			rows = append(rows, "", mutedStyle.Render("  "+detail))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: page"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func meetingPlace(m api.Meeting) string {
	if m.MeetingType == "" {
		return "—"
	}
	return statusLabel(m.MeetingType)
}

// meetingDetail renders the cursor row's link, location and notes,
// which do not fit in the table.
func meetingDetail(m api.Meeting) string {
	var parts []string
	if m.MeetingLink != "" {
		parts = append(parts, m.MeetingLink)
	}
	if m.Location != "" {
		parts = append(parts, m.Location)
	}
	if m.Notes != "" {
		parts = append(parts, truncate(m.Notes, 60))
	}
	return strings.Join(parts, "  ·  ")
}
