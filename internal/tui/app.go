package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/config"
	"github.com/orwex/calldeck/internal/query"
)

// App is the root Bubble Tea model.
type App struct {
	data   *source
	width  int
	height int

	activeView viewState
	showHelp   bool

	dashboard dashboardModel
	leads     leadsModel
	calls     callsModel
	meetings  meetingsModel
	analytics analyticsModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(cache *query.Cache, client *api.Client, cfg *config.Config) App {
	h := help.New()
	h.ShowAll = false

	data := newSource(cache, client, cfg)

	a := App{
		data:       data,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(data),
		leads:      newLeadsModel(data),
		calls:      newCallsModel(data),
		meetings:   newMeetingsModel(data),
		analytics:  newAnalyticsModel(data),
		settings:   newSettingsModel(data),
		help:       h,
	}
	a.retainView(viewDashboard)
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.refresh(),
		a.pollCmd(),
	)
}

// pollCmd schedules the next poll tick. Polled query keys are marked
// stale on each tick; ticking stops with the program so no timer
// outlives the UI.
func (a App) pollCmd() tea.Cmd {
	return tea.Tick(a.data.cfg.PollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.leads.setSize(a.width, contentHeight)
		a.calls.setSize(a.width, contentHeight)
		a.meetings.setSize(a.width, contentHeight)
		a.analytics.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Refresh):
			return a, a.forceRefresh()
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewLeads)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewCalls)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewMeetings)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewAnalytics)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % 6)
		}

	case pollMsg:
		a.data.invalidatePolled()
		cmds := []tea.Cmd{a.pollCmd()}
		// Background refetch for the views that render polled data;
		// they keep showing current data while it runs.
		switch a.activeView {
		case viewDashboard:
			cmds = append(cmds, a.dashboard.refresh())
		case viewAnalytics:
			cmds = append(cmds, a.analytics.refresh())
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// switchTo activates a view and moves the cache subscriptions over so
// entries only the old view consumed can be evicted on invalidation.
func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	if v < viewDashboard || v > viewSettings {
		v = viewDashboard
	}
	a.releaseView(a.activeView)
	a.activeView = v
	a.retainView(v)
	return a, a.refreshCurrentView()
}

func (a *App) retainView(v viewState) {
	for _, k := range a.viewKeys(v) {
		a.data.cache.Subscribe(k)
	}
}

func (a *App) releaseView(v viewState) {
	for _, k := range a.viewKeys(v) {
		a.data.cache.Unsubscribe(k)
	}
}

func (a *App) viewKeys(v viewState) []query.Key {
	switch v {
	case viewDashboard:
		return a.dashboard.queryKeys()
	case viewLeads:
		return a.leads.queryKeys()
	case viewCalls:
		return a.calls.queryKeys()
	case viewMeetings:
		return a.meetings.queryKeys()
	case viewAnalytics:
		return a.analytics.queryKeys()
	case viewSettings:
		return a.settings.queryKeys()
	}
	return nil
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewLeads:
		return a.leads.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.refresh()
	case viewLeads:
		return a.leads.refresh()
	case viewCalls:
		return a.calls.refresh()
	case viewMeetings:
		return a.meetings.refresh()
	case viewAnalytics:
		return a.analytics.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

// forceRefresh invalidates the active view's keys before reloading.
func (a App) forceRefresh() tea.Cmd {
	for _, k := range a.viewKeys(a.activeView) {
		a.data.cache.Invalidate(k)
	}
	return a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewLeads:
		a.leads, cmd = a.leads.update(msg)
	case viewCalls:
		a.calls, cmd = a.calls.update(msg)
	case viewMeetings:
		a.meetings, cmd = a.meetings.update(msg)
	case viewAnalytics:
		a.analytics, cmd = a.analytics.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewLeads:
		content = a.leads.view()
	case viewCalls:
		content = a.calls.view()
	case viewMeetings:
		content = a.meetings.view()
	case viewAnalytics:
		content = a.analytics.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("calldeck")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + truncate(a.status, max(20, a.width/2)))
	}

	pending := ""
	if a.anyMutationPending() {
		pending = warningStyle.Render(" ● saving")
	}

	left := footerStyle.Render(helpView)
	right := pending + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) anyMutationPending() bool {
	for _, m := range []*query.Mutation{
		a.data.createLead, a.data.uploadLeads, a.data.deleteLead,
		a.data.startCampaign, a.data.savePrompt, a.data.saveVoice,
		a.data.clearSettings,
	} {
		if m.Pending() {
			return true
		}
	}
	return false
}
