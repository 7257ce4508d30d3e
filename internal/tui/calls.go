package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/export"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
)

type callsModel struct {
	data   *source
	width  int
	height int

	calls   []api.Call
	page    int
	cursor  int
	loaded  bool
	loadErr error

	// Detail mode: a call is opened and its transcript shown.
	showingDetail bool
	detail        api.CallDetail
	detailErr     error
	transcript    viewport.Model

	exportPicking bool
	exportCursor  int
}

func newCallsModel(data *source) callsModel {
	return callsModel{
		data:       data,
		page:       1,
		transcript: viewport.New(80, 20),
	}
}

func (c *callsModel) setSize(w, h int) {
	c.width = w
	c.height = h
	c.transcript.Width = max(20, w-10)
	c.transcript.Height = max(5, h-14)
}

func (c callsModel) queryKeys() []query.Key {
	callKeys := []query.Key{keyCalls(c.page, c.data.cfg.PageSize)}
	if c.showingDetail {
		callKeys = append(callKeys, keyCallDetail(c.detail.ID))
	}
	return callKeys
}

type callsDataMsg struct {
	calls []api.Call
	err   error
}

type callDetailMsg struct {
	detail api.CallDetail
	err    error
}

func (c callsModel) refresh() tea.Cmd {
	data := c.data
	page := c.page
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		calls, err := data.calls(ctx, page)
		if err != nil {
			logger.Error("calls fetch failed", "page", page, "error", err)
		}
		return callsDataMsg{calls: calls, err: err}
	}
}

func (c callsModel) loadDetail(id int) tea.Cmd {
	data := c.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		detail, err := data.callDetail(ctx, id)
		if err != nil {
			logger.Error("call detail fetch failed", "id", id, "error", err)
		}
		return callDetailMsg{detail: detail, err: err}
	}
}

func (c callsModel) update(msg tea.Msg) (callsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case callsDataMsg:
		c.loaded = true
		c.loadErr = msg.err
		if msg.err == nil || len(msg.calls) > 0 {
			c.calls = msg.calls
		}
		if c.cursor >= len(c.calls) {
			c.cursor = max(0, len(c.calls)-1)
		}
		return c, nil

	case callDetailMsg:
		c.detailErr = msg.err
		if msg.err == nil {
			c.detail = msg.detail
			c.transcript.SetContent(c.renderTranscript())
			c.transcript.GotoTop()
		}
		return c, nil

	case tea.KeyMsg:
		if c.showingDetail {
			return c.updateDetail(msg)
		}
		if c.exportPicking {
			return c.updateExportPicker(msg)
		}
		return c.updateList(msg)
	}
	return c, nil
}

func (c callsModel) updateList(msg tea.KeyMsg) (callsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, keys.Down):
		if c.cursor < len(c.calls)-1 {
			c.cursor++
		}
	case key.Matches(msg, keys.Left):
		if c.page > 1 {
			return c.setPage(c.page - 1)
		}
	case key.Matches(msg, keys.Right):
		if len(c.calls) == c.data.cfg.PageSize {
			return c.setPage(c.page + 1)
		}
	case key.Matches(msg, keys.Enter):
		if len(c.calls) > 0 {
			call := c.calls[c.cursor]
			c.showingDetail = true
			c.detail = api.CallDetail{Call: call}
			c.detailErr = nil
			c.data.cache.Subscribe(keyCallDetail(call.ID))
			return c, c.loadDetail(call.ID)
		}
	case key.Matches(msg, keys.Export):
		c.exportPicking = true
		c.exportCursor = 0
	}
	return c, nil
}

func (c callsModel) updateExportPicker(msg tea.KeyMsg) (callsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if c.exportCursor > 0 {
			c.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if c.exportCursor < 1 {
			c.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		c.exportPicking = false
		return c, c.doExport(c.exportCursor)
	case key.Matches(msg, keys.Back):
		c.exportPicking = false
	}
	return c, nil
}

func (c callsModel) updateDetail(msg tea.KeyMsg) (callsModel, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		c.data.cache.Unsubscribe(keyCallDetail(c.detail.ID))
		c.showingDetail = false
		return c, nil
	}
	var cmd tea.Cmd
	c.transcript, cmd = c.transcript.Update(msg)
	return c, cmd
}

func (c callsModel) setPage(page int) (callsModel, tea.Cmd) {
	c.data.cache.Unsubscribe(keyCalls(c.page, c.data.cfg.PageSize))
	c.page = page
	c.cursor = 0
	c.data.cache.Subscribe(keyCalls(c.page, c.data.cfg.PageSize))
	return c, c.refresh()
}

func (c callsModel) doExport(format int) tea.Cmd {
	calls := c.calls
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		var err error
		if format == 1 {
			path = filepath.Join(home, fmt.Sprintf("calldeck-calls-%s.json", dateStr))
			err = export.CallsToJSON(calls, path)
		} else {
			path = filepath.Join(home, fmt.Sprintf("calldeck-calls-%s.csv", dateStr))
			err = export.CallsToCSV(calls, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

// --- View ---

func (c callsModel) view() string {
	w := c.width - 4

	if c.showingDetail {
		return c.viewDetail(w)
	}

	if c.exportPicking {
		options := []string{"CSV", "JSON"}
		rows := []string{titleStyle.Render("Export Calls"), ""}
		for i, o := range options {
			cursor := "  "
			style := normalItemStyle
			if i == c.exportCursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rows = append(rows, style.Render(cursor+o))
		}
		rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))
		return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	title := titleStyle.Render("Calls")
	pageInfo := mutedStyle.Render(fmt.Sprintf("  page %d", c.page))
	header := title + pageInfo

	if !c.loaded {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading...")),
		)
	}

	var rows []string
	rows = append(rows, header)

	if c.loadErr != nil && len(c.calls) == 0 {
		rows = append(rows, "", errorStyle.Render("Could not load calls: "+c.loadErr.Error()))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}
	if c.loadErr != nil {
		rows = append(rows, errorStyle.Render("  refresh failed, showing last known data"))
	}

	if len(c.calls) == 0 {
		rows = append(rows, "", mutedStyle.Render("No calls recorded yet."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-8s %-10s %-8s %-18s %s",
		"Lead", "Duration", "Lang", "Started", "Outcome")))

	for i, call := range c.calls {
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		duration := "—"
		if call.Duration != nil {
			duration = formatSeconds(*call.Duration)
		}
		badge := statusStyle(call.Outcome).Render(statusLabel(call.Outcome))
		row := style.Render(fmt.Sprintf("%s  #%-7d %-10s %-8s %-18s ",
			cursor, call.LeadID, duration, call.Language, formatTimestamp(call.StartedAt))) + badge
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: transcript  e: export  ←/→: page"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c callsModel) viewDetail(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render(fmt.Sprintf("Call #%d · lead #%d", c.detail.ID, c.detail.LeadID)))

	duration := "in progress"
	if c.detail.Duration != nil {
		duration = formatSeconds(*c.detail.Duration)
	}
	meta := fmt.Sprintf("%s  ·  %s",
		duration, formatTimestamp(c.detail.StartedAt))
	rows = append(rows, mutedStyle.Render(meta)+"  "+statusStyle(c.detail.Outcome).Render(statusLabel(c.detail.Outcome)))
	rows = append(rows, "")

	if c.detailErr != nil {
		rows = append(rows, errorStyle.Render("Could not load transcript: "+c.detailErr.Error()))
	} else if len(c.detail.ConversationHistory) == 0 {
		rows = append(rows, mutedStyle.Render("No transcript recorded."))
	} else {
		rows = append(rows, c.transcript.View())
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ↑/↓: scroll  esc: back"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c callsModel) renderTranscript() string {
	var b strings.Builder
	for _, turn := range c.detail.ConversationHistory {
		speaker := accentStyle.Render("Agent")
		if turn.Role == "user" {
			speaker = titleStyle.Render("Lead")
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", speaker, mutedStyle.Render(formatTimestamp(turn.CreatedAt))))
		b.WriteString(turn.Message)
		b.WriteString("\n\n")
	}
	return b.String()
}
