package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/export"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
)

type leadsModel struct {
	data   *source
	width  int
	height int

	list     api.LeadList
	page     int
	cursor   int
	selected map[int]bool
	loaded   bool
	loadErr  error

	formActive bool
	form       *huh.Form
	formKind   string // "lead", "upload", "campaign"

	// Form field pointers (survive value copies)
	formName     *string
	formPhone    *string
	formEmail    *string
	formPath     *string
	formCampaign *string

	exportPicking bool
	exportCursor  int
}

func newLeadsModel(data *source) leadsModel {
	name, phone, email, path, campaign := "", "", "", "", ""
	return leadsModel{
		data:         data,
		page:         1,
		selected:     make(map[int]bool),
		formName:     &name,
		formPhone:    &phone,
		formEmail:    &email,
		formPath:     &path,
		formCampaign: &campaign,
	}
}

func (l *leadsModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l leadsModel) queryKeys() []query.Key {
	return []query.Key{keyLeads(l.page, l.data.cfg.PageSize)}
}

type leadsDataMsg struct {
	list api.LeadList
	err  error
}

// leadMutatedMsg reports a successful write; the list key is already
// invalidated, so the triggered refresh goes to the network.
type leadMutatedMsg struct {
	text string
}

func (l leadsModel) refresh() tea.Cmd {
	data := l.data
	page := l.page
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		list, err := data.leads(ctx, page)
		if err != nil {
			logger.Error("leads fetch failed", "page", page, "error", err)
		}
		return leadsDataMsg{list: list, err: err}
	}
}

func (l leadsModel) update(msg tea.Msg) (leadsModel, tea.Cmd) {
	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}
	if l.exportPicking {
		if msg, ok := msg.(tea.KeyMsg); ok {
			return l.updateExportPicker(msg)
		}
	}

	switch msg := msg.(type) {
	case leadsDataMsg:
		l.loaded = true
		l.loadErr = msg.err
		if msg.err == nil || len(msg.list.Leads) > 0 {
			l.list = msg.list
		}
		if l.cursor >= len(l.list.Leads) {
			l.cursor = max(0, len(l.list.Leads)-1)
		}
		return l, nil

	case leadMutatedMsg:
		return l, tea.Batch(
			l.refresh(),
			func() tea.Msg { return statusMsg{text: msg.text} },
		)

	case tea.KeyMsg:
		return l.updateList(msg)
	}
	return l, nil
}

func (l leadsModel) updateList(msg tea.KeyMsg) (leadsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, keys.Down):
		if l.cursor < len(l.list.Leads)-1 {
			l.cursor++
		}
	case key.Matches(msg, keys.Left):
		if l.page > 1 {
			return l.setPage(l.page - 1)
		}
	case key.Matches(msg, keys.Right):
		if l.page*l.list.PageSize < l.list.Total {
			return l.setPage(l.page + 1)
		}
	case key.Matches(msg, keys.Select):
		if len(l.list.Leads) > 0 {
			id := l.list.Leads[l.cursor].ID
			if l.selected[id] {
				delete(l.selected, id)
			} else {
				l.selected[id] = true
			}
		}
	case key.Matches(msg, keys.New):
		return l.showLeadForm()
	case key.Matches(msg, keys.Upload):
		return l.showUploadForm()
	case key.Matches(msg, keys.Campaign):
		return l.startCampaignFlow()
	case key.Matches(msg, keys.Delete):
		if len(l.list.Leads) > 0 {
			return l, l.deleteLead(l.list.Leads[l.cursor].ID)
		}
	case key.Matches(msg, keys.Export):
		l.exportPicking = true
		l.exportCursor = 0
	}
	return l, nil
}

func (l leadsModel) setPage(page int) (leadsModel, tea.Cmd) {
	l.data.cache.Unsubscribe(keyLeads(l.page, l.data.cfg.PageSize))
	l.page = page
	l.cursor = 0
	l.data.cache.Subscribe(keyLeads(l.page, l.data.cfg.PageSize))
	return l, l.refresh()
}

// --- Forms ---

func (l leadsModel) showLeadForm() (leadsModel, tea.Cmd) {
	*l.formName = ""
	*l.formPhone = ""
	*l.formEmail = ""
	l.formKind = "lead"

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(l.formName),
			huh.NewInput().Title("Phone (+ and country code)").Value(l.formPhone),
			huh.NewInput().Title("Email (optional)").Value(l.formEmail),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l leadsModel) showUploadForm() (leadsModel, tea.Cmd) {
	*l.formPath = ""
	l.formKind = "upload"

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("CSV file path (name,phone,email)").Value(l.formPath),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

// startCampaignFlow collects the eligible lead set and opens the name
// form. An empty set is rejected here, before any network traffic.
func (l leadsModel) startCampaignFlow() (leadsModel, tea.Cmd) {
	if len(l.eligibleLeadIDs()) == 0 {
		return l, func() tea.Msg {
			return statusMsg{text: "No eligible leads: select leads in pending or no-answer status", isError: true}
		}
	}

	*l.formCampaign = ""
	l.formKind = "campaign"

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Campaign name").Value(l.formCampaign),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

// eligibleLeadIDs returns the selected leads that can be queued, or
// every eligible lead on the page when nothing is selected.
func (l leadsModel) eligibleLeadIDs() []int {
	eligible := func(lead api.Lead) bool {
		return lead.Status == api.LeadPending || lead.Status == api.LeadNoAnswer
	}
	var ids []int
	for _, lead := range l.list.Leads {
		if !eligible(lead) {
			continue
		}
		if len(l.selected) > 0 && !l.selected[lead.ID] {
			continue
		}
		ids = append(ids, lead.ID)
	}
	return ids
}

func (l leadsModel) updateForm(msg tea.Msg) (leadsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			l.formActive = false
			l.form = nil
			return l, nil
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		switch l.formKind {
		case "lead":
			return l, l.submitCreate()
		case "upload":
			return l, l.submitUpload()
		case "campaign":
			return l, l.submitCampaign()
		}
	}

	return l, cmd
}

// --- Mutations ---

func (l leadsModel) submitCreate() tea.Cmd {
	data := l.data
	lead := api.NewLead{
		Name:  strings.TrimSpace(*l.formName),
		Phone: strings.TrimSpace(*l.formPhone),
		Email: strings.TrimSpace(*l.formEmail),
	}
	return func() tea.Msg {
		// Shape check happens before any POST is issued.
		if err := api.ValidateNewLead(lead); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}

		ctx, cancel := data.ctx()
		defer cancel()
		var created api.Lead
		err := data.createLead.Run(ctx, func(ctx context.Context) error {
			var err error
			created, err = data.client.CreateLead(ctx, lead)
			return err
		})
		if err != nil {
			return statusMsg{text: mutationError("Create lead", err), isError: true}
		}
		logger.Info("lead created", "id", created.ID, "name", created.Name)
		return leadMutatedMsg{text: fmt.Sprintf("Lead %q created", created.Name)}
	}
}

func (l leadsModel) submitUpload() tea.Cmd {
	data := l.data
	path := strings.TrimSpace(*l.formPath)
	return func() tea.Msg {
		// Local guard: only .csv files leave the machine.
		if !api.ValidCSVName(path) {
			return statusMsg{text: "File must be a CSV", isError: true}
		}
		f, err := os.Open(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Open file: %v", err), isError: true}
		}
		defer f.Close()

		ctx, cancel := data.ctx()
		defer cancel()
		var summary api.UploadSummary
		err = data.uploadLeads.Run(ctx, func(ctx context.Context) error {
			var err error
			summary, err = data.client.UploadLeads(ctx, path, f)
			return err
		})
		if err != nil {
			return statusMsg{text: mutationError("Upload", err), isError: true}
		}

		logger.Info("csv uploaded", "created", summary.LeadsCreated, "errors", len(summary.Errors))
		text := fmt.Sprintf("Uploaded: %d leads created", summary.LeadsCreated)
		if len(summary.Errors) > 0 {
			text += fmt.Sprintf(", %d rows skipped (%s)", len(summary.Errors), summary.Errors[0])
		}
		return leadMutatedMsg{text: text}
	}
}

func (l leadsModel) submitCampaign() tea.Cmd {
	data := l.data
	name := strings.TrimSpace(*l.formCampaign)
	ids := l.eligibleLeadIDs()
	return func() tea.Msg {
		if name == "" {
			return statusMsg{text: "Campaign name is required", isError: true}
		}
		if len(ids) == 0 {
			return statusMsg{text: "No eligible leads to queue", isError: true}
		}

		ctx, cancel := data.ctx()
		defer cancel()
		var result api.CampaignResult
		err := data.startCampaign.Run(ctx, func(ctx context.Context) error {
			var err error
			result, err = data.client.StartCampaign(ctx, name, ids)
			return err
		})
		if err != nil {
			return statusMsg{text: mutationError("Campaign", err), isError: true}
		}

		logger.Info("campaign started", "name", name, "queued", result.QueuedLeads)
		// The backend's confirmation text is shown verbatim.
		return leadMutatedMsg{text: result.Message}
	}
}

func (l leadsModel) deleteLead(id int) tea.Cmd {
	data := l.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		err := data.deleteLead.Run(ctx, func(ctx context.Context) error {
			_, err := data.client.DeleteLead(ctx, id)
			return err
		})
		if err != nil {
			return statusMsg{text: mutationError("Delete", err), isError: true}
		}
		logger.Info("lead deleted", "id", id)
		return leadMutatedMsg{text: "Lead deleted"}
	}
}

// --- Export ---

func (l leadsModel) updateExportPicker(msg tea.KeyMsg) (leadsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.exportCursor > 0 {
			l.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if l.exportCursor < 2 {
			l.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		l.exportPicking = false
		return l, l.doExport(l.exportCursor)
	case key.Matches(msg, keys.Back):
		l.exportPicking = false
	}
	return l, nil
}

func (l leadsModel) doExport(format int) tea.Cmd {
	leads := l.list.Leads
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		var err error
		switch format {
		case 0:
			path = filepath.Join(home, fmt.Sprintf("calldeck-leads-%s.csv", dateStr))
			err = export.LeadsToCSV(leads, path)
		case 1:
			path = filepath.Join(home, fmt.Sprintf("calldeck-leads-%s.json", dateStr))
			err = export.LeadsToJSON(leads, path)
		default:
			path = filepath.Join(home, "calldeck-upload-template.csv")
			err = export.WriteTemplate(path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

// --- View ---

func (l leadsModel) view() string {
	w := l.width - 4

	if l.formActive && l.form != nil {
		title := titleStyle.Render("New Lead")
		switch l.formKind {
		case "upload":
			title = titleStyle.Render("Upload Leads CSV")
		case "campaign":
			title = titleStyle.Render(fmt.Sprintf("Start Campaign (%d leads)", len(l.eligibleLeadIDs())))
		}
		formView := l.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	if l.exportPicking {
		return l.renderExportPicker(w)
	}

	title := titleStyle.Render("Leads")
	pageInfo := mutedStyle.Render(fmt.Sprintf("  page %d  ·  %d total", l.page, l.list.Total))
	header := title + pageInfo

	if !l.loaded {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading...")),
		)
	}

	var rows []string
	rows = append(rows, header)

	if l.loadErr != nil && len(l.list.Leads) == 0 {
		rows = append(rows, "", errorStyle.Render("Could not load leads: "+l.loadErr.Error()))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}
	if l.loadErr != nil {
		rows = append(rows, errorStyle.Render("  refresh failed, showing last known data"))
	}

	if len(l.list.Leads) == 0 {
		rows = append(rows, "", mutedStyle.Render("No leads yet. Press n to create or u to upload a CSV."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("      %-22s %-16s %-24s %-8s %s",
		"Name", "Phone", "Email", "Lang", "Status")))

	for i, lead := range l.list.Leads {
		cursor := "  "
		style := normalItemStyle
		if i == l.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := " "
		if l.selected[lead.ID] {
			mark = accentStyle.Render("✓")
		}
		badge := statusStyle(lead.Status).Render(statusLabel(lead.Status))
		row := style.Render(fmt.Sprintf("%s%s  %-22s %-16s %-24s %-8s ",
			cursor, mark, truncate(lead.Name, 22), lead.Phone, truncate(lead.Email, 24), lead.Language)) + badge
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  u: upload  d: delete  space: select  c: campaign  e: export  ←/→: page"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (l leadsModel) renderExportPicker(w int) string {
	title := titleStyle.Render("Export Leads")
	options := []string{"CSV", "JSON", "Upload template CSV"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, o := range options {
		cursor := "  "
		style := normalItemStyle
		if i == l.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+o))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
