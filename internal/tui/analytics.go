package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
)

type chartMode int

const (
	chartOutcomes chartMode = iota
	chartLeadStatus
	chartOverTime
)

var chartNames = []string{"Outcomes", "Lead Status", "Calls / Day"}

// overTimeDays is the window of the calls-per-day chart.
const overTimeDays = 14

type analyticsModel struct {
	data   *source
	width  int
	height int

	mode    chartMode
	loaded  bool
	loadErr error

	outcomes  api.CallOutcomes
	statuses  api.LeadStatusDistribution
	overTime  api.CallsOverTime
	languages api.LanguageDistribution

	chart barchart.Model
}

func newAnalyticsModel(data *source) analyticsModel {
	return analyticsModel{
		data:  data,
		chart: barchart.New(60, 12),
	}
}

func (a *analyticsModel) setSize(w, h int) {
	a.width = w
	a.height = h
	a.buildChart()
}

func (a analyticsModel) queryKeys() []query.Key {
	return []query.Key{keyCallOutcomes, keyLeadStatus, keyCallsOverTime, keyLanguages}
}

type analyticsDataMsg struct {
	outcomes  api.CallOutcomes
	statuses  api.LeadStatusDistribution
	overTime  api.CallsOverTime
	languages api.LanguageDistribution
	err       error
}

func (a analyticsModel) refresh() tea.Cmd {
	data := a.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()

		var msg analyticsDataMsg
		var err error
		if msg.outcomes, err = data.callOutcomes(ctx); err != nil {
			msg.err = err
		}
		if msg.statuses, err = data.leadStatusDistribution(ctx); err != nil {
			msg.err = err
		}
		if msg.overTime, err = data.callsOverTime(ctx, overTimeDays); err != nil {
			msg.err = err
		}
		if msg.languages, err = data.languages(ctx); err != nil {
			msg.err = err
		}
		if msg.err != nil {
			logger.Error("analytics fetch failed", "error", msg.err)
		}
		return msg
	}
}

func (a analyticsModel) update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analyticsDataMsg:
		a.loaded = true
		a.loadErr = msg.err
		if len(msg.outcomes.Outcomes) > 0 || msg.err == nil {
			a.outcomes = msg.outcomes
		}
		if len(msg.statuses.Statuses) > 0 || msg.err == nil {
			a.statuses = msg.statuses
		}
		if len(msg.overTime.Data) > 0 || msg.err == nil {
			a.overTime = msg.overTime
		}
		if len(msg.languages.Languages) > 0 || msg.err == nil {
			a.languages = msg.languages
		}
		a.buildChart()
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			a.mode = chartMode((int(a.mode) + len(chartNames) - 1) % len(chartNames))
			a.buildChart()
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Tab):
			a.mode = chartMode((int(a.mode) + 1) % len(chartNames))
			a.buildChart()
		}
	}
	return a, nil
}

func (a *analyticsModel) buildChart() {
	chartWidth := a.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if a.height > 30 {
		chartHeight = 16
	}

	a.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	switch a.mode {
	case chartLeadStatus:
		for _, s := range a.statuses.Statuses {
			style := lipgloss.NewStyle().Foreground(statusColor(s.Status))
			bars = append(bars, barchart.BarData{
				Label:  truncate(statusLabel(s.Status), 10),
				Values: []barchart.BarValue{{Name: s.Status, Value: float64(s.Count), Style: style}},
			})
		}
	case chartOverTime:
		for _, d := range a.overTime.Data {
			label := d.Date
			if len(label) >= 10 {
				label = label[5:10] // MM-DD
			}
			bars = append(bars, barchart.BarData{
				Label:  label,
				Values: []barchart.BarValue{{Name: d.Date, Value: float64(d.Count), Style: accentStyle}},
			})
		}
	default:
		for _, o := range a.outcomes.Outcomes {
			style := lipgloss.NewStyle().Foreground(statusColor(o.Outcome))
			bars = append(bars, barchart.BarData{
				Label:  truncate(statusLabel(o.Outcome), 10),
				Values: []barchart.BarValue{{Name: o.Outcome, Value: float64(o.Count), Style: style}},
			})
		}
	}

	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: mutedStyle}},
		}}
	}

	a.chart.PushAll(bars)
	a.chart.Draw()
}

func (a analyticsModel) view() string {
	w := a.width - 4

	var tabs []string
	for i, name := range chartNames {
		if chartMode(i) == a.mode {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Analytics"), "  ",
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)

	if !a.loaded {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading...")),
		)
	}

	sections := []string{header, ""}
	if a.loadErr != nil {
		sections = append(sections, errorStyle.Render("  refresh failed, showing last known data"), "")
	}
	sections = append(sections, a.chart.View(), "", a.renderLanguages(w))
	sections = append(sections, "", mutedStyle.Render("  ←/→: switch chart"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (a analyticsModel) renderLanguages(w int) string {
	if len(a.languages.Languages) == 0 {
		return mutedStyle.Render("  No language data yet")
	}

	total := 0
	for _, l := range a.languages.Languages {
		total += l.Count
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %8s %8s", "Language", "Calls", "Share")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(max(0, w-6), 32))))
	for _, l := range a.languages.Languages {
		share := 0.0
		if total > 0 {
			share = float64(l.Count) / float64(total) * 100
		}
		rows = append(rows, fmt.Sprintf("  %-12s %8d %7.1f%%", l.Language, l.Count, share))
	}
	return strings.Join(rows, "\n")
}
