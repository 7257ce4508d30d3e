package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
)

type dashboardModel struct {
	data   *source
	width  int
	height int

	loaded       bool
	loadErr      error
	overview     api.AnalyticsOverview
	activity     []api.ActivityItem
	campaigns    []api.Campaign
	statusCounts map[string]int
}

func newDashboardModel(data *source) dashboardModel {
	return dashboardModel{data: data}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) queryKeys() []query.Key {
	return []query.Key{keyOverview, keyActivity, keyCampaigns, keyCampaignStatus}
}

type dashboardDataMsg struct {
	overview     api.AnalyticsOverview
	activity     []api.ActivityItem
	campaigns    []api.Campaign
	statusCounts map[string]int
	err          error
}

func (d dashboardModel) refresh() tea.Cmd {
	data := d.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()

		msg := dashboardDataMsg{}

		overview, err := data.overview(ctx)
		if err != nil {
			logger.Error("dashboard overview fetch failed", "error", err)
			msg.err = err
		}
		msg.overview = overview

		if activity, err := data.recentActivity(ctx); err == nil {
			msg.activity = activity.Activities
		} else {
			logger.Error("recent activity fetch failed", "error", err)
			msg.err = err
		}

		if campaigns, err := data.activeCampaigns(ctx); err == nil {
			msg.campaigns = campaigns.Campaigns
		} else {
			msg.err = err
		}

		if status, err := data.campaignStatus(ctx); err == nil {
			msg.statusCounts = status.StatusCounts
		} else {
			msg.err = err
		}

		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loaded = true
		d.loadErr = msg.err
		d.overview = msg.overview
		if msg.activity != nil {
			d.activity = msg.activity
		}
		if msg.campaigns != nil {
			d.campaigns = msg.campaigns
		}
		if msg.statusCounts != nil {
			d.statusCounts = msg.statusCounts
		}
		return d, nil
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	if !d.loaded {
		return panelStyle.Width(d.width - 4).Render(mutedStyle.Render("Loading..."))
	}

	contentWidth := d.width - 4

	statsPanel := d.renderStatsPanel(contentWidth)
	campaignPanel := d.renderCampaignPanel(contentWidth)
	activityPanel := d.renderActivityPanel(contentWidth)

	sections := []string{statsPanel, campaignPanel, activityPanel}
	if d.loadErr != nil {
		sections = append(sections,
			errorStyle.Render("  Some data failed to load: "+d.loadErr.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (d dashboardModel) renderStatsPanel(w int) string {
	ov := d.overview
	stats := []struct {
		label string
		value string
	}{
		{"Leads", fmt.Sprintf("%d", ov.TotalLeads)},
		{"Calls", fmt.Sprintf("%d", ov.TotalCalls)},
		{"Meetings", fmt.Sprintf("%d", ov.TotalMeetings)},
		{"Calls Today", fmt.Sprintf("%d", ov.CallsToday)},
		{"Conversion", fmt.Sprintf("%.1f%%", ov.ConversionRate)},
		{"Avg Duration", formatSeconds(ov.AverageCallDuration)},
	}

	cellW := max(10, (w-4)/len(stats)-2)
	var cells []string
	for _, s := range stats {
		cell := lipgloss.JoinVertical(lipgloss.Center,
			statValueStyle.Width(cellW).Render(s.value),
			statLabelStyle.Width(cellW).Render(s.label),
		)
		cells = append(cells, cell)
	}

	return panelStyle.Width(w).Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

func (d dashboardModel) renderCampaignPanel(w int) string {
	title := titleStyle.Render("Active Campaigns")

	var rows []string
	rows = append(rows, title)

	if len(d.campaigns) == 0 {
		rows = append(rows, mutedStyle.Render("No active campaigns"))
	}
	for _, c := range d.campaigns {
		bar := renderProgress(c.Completed, c.Total, 24)
		state := successStyle.Render("●")
		if !c.IsActive {
			state = mutedStyle.Render("○")
		}
		rows = append(rows, fmt.Sprintf("  %s %-20s %s  queued %d  calling %d  done %d/%d",
			state, truncate(c.Name, 20), bar, c.Queued, c.Calling, c.Completed, c.Total))
	}

	if len(d.statusCounts) > 0 {
		rows = append(rows, "")
		var parts []string
		for _, status := range []string{api.LeadQueued, api.LeadCalling, api.LeadContacted, api.LeadPending} {
			if n, ok := d.statusCounts[status]; ok {
				parts = append(parts, fmt.Sprintf("%s %d", statusStyle(status).Render(statusLabel(status)), n))
			}
		}
		rows = append(rows, "  "+strings.Join(parts, "  "))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderActivityPanel(w int) string {
	title := titleStyle.Render("Recent Activity")

	if len(d.activity) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No recent activity"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, item := range d.activity {
		ts := mutedStyle.Render(formatTimestamp(item.Timestamp))
		rows = append(rows, fmt.Sprintf("  %s  %s", ts, truncate(item.Description, w-24)))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func renderProgress(done, total, width int) string {
	if total <= 0 {
		return mutedStyle.Render(strings.Repeat("░", width))
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}
