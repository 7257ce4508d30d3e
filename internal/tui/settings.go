package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/orwex/calldeck/internal/api"
	"github.com/orwex/calldeck/internal/logger"
	"github.com/orwex/calldeck/internal/query"
)

const (
	focusPrompt = iota
	focusVoice
)

// settingsModel edits the agent's system prompt and voice. Each value
// has its own dirty tracker: the edit buffer is local until saved, and
// a failed save keeps the user's edits.
type settingsModel struct {
	data   *source
	width  int
	height int

	loaded  bool
	loadErr error

	prompt *query.Tracker[string]
	voice  *query.Tracker[api.Voice]
	voices api.VoiceList

	focus int

	formActive bool
	form       *huh.Form
	formKind   string // "prompt", "voice"
	promptBuf  *string
	voiceID    *string
}

func newSettingsModel(data *source) settingsModel {
	promptBuf, voiceID := "", ""
	return settingsModel{
		data:      data,
		prompt:    &query.Tracker[string]{},
		voice:     &query.Tracker[api.Voice]{},
		promptBuf: &promptBuf,
		voiceID:   &voiceID,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) queryKeys() []query.Key {
	return []query.Key{keySystemPrompt, keyVoices, keyVoice}
}

type settingsDataMsg struct {
	prompt api.Setting
	voices api.VoiceList
	voice  api.Voice
	err    error
}

type defaultPromptMsg struct {
	value string
	err   error
}

type settingSavedMsg struct {
	kind string // "prompt", "voice"
	err  error
}

type cacheClearedMsg struct {
	message string
	err     error
}

func (s settingsModel) refresh() tea.Cmd {
	data := s.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()

		var msg settingsDataMsg
		var err error
		if msg.prompt, err = data.systemPrompt(ctx); err != nil {
			msg.err = err
		}
		if msg.voices, err = data.voices(ctx); err != nil {
			msg.err = err
		}
		if msg.voice, err = data.voice(ctx); err != nil {
			msg.err = err
		}
		if msg.err != nil {
			logger.Error("settings fetch failed", "error", msg.err)
		}
		return msg
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsDataMsg:
		s.loaded = true
		s.loadErr = msg.err
		if msg.err == nil {
			// Sync keeps any edits the user already typed; only the
			// confirmed side moves.
			s.prompt.Sync(msg.prompt.Value)
			s.voice.Sync(msg.voice)
			s.voices = msg.voices
		}
		return s, nil

	case defaultPromptMsg:
		if msg.err != nil {
			return s, func() tea.Msg {
				return statusMsg{text: "Load default prompt: " + msg.err.Error(), isError: true}
			}
		}
		s.prompt.LoadDefault(msg.value)
		return s, nil

	case settingSavedMsg:
		return s.applySaved(msg)

	case cacheClearedMsg:
		if msg.err != nil {
			return s, func() tea.Msg {
				return statusMsg{text: mutationError("Clear cache", msg.err), isError: true}
			}
		}
		return s, func() tea.Msg { return statusMsg{text: msg.message} }

	case tea.KeyMsg:
		if s.formActive && s.form != nil {
			return s.updateForm(msg)
		}
		return s.updateKeys(msg)
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}
	return s, nil
}

func (s settingsModel) applySaved(msg settingSavedMsg) (settingsModel, tea.Cmd) {
	var tracker interface {
		SaveSucceeded()
		SaveFailed()
	}
	label := "Prompt"
	if msg.kind == "voice" {
		tracker = s.voice
		label = "Voice"
	} else {
		tracker = s.prompt
	}

	if msg.err != nil {
		tracker.SaveFailed()
		return s, func() tea.Msg {
			return statusMsg{text: mutationError(label+" save", msg.err), isError: true}
		}
	}
	tracker.SaveSucceeded()
	return s, tea.Batch(
		s.refresh(),
		func() tea.Msg { return statusMsg{text: label + " saved"} },
	)
}

func (s settingsModel) updateKeys(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if s.focus > 0 {
			s.focus--
		}
	case key.Matches(msg, keys.Down):
		if s.focus < focusVoice {
			s.focus++
		}
	case key.Matches(msg, keys.Enter):
		if s.focus == focusVoice {
			return s.showVoiceForm()
		}
		return s.showPromptForm()
	case key.Matches(msg, keys.Save):
		return s.save()
	case key.Matches(msg, keys.Reset):
		if s.focus == focusPrompt {
			return s, s.loadDefaultPrompt()
		}
	case key.Matches(msg, keys.Clear):
		return s, s.clearServerCache()
	}
	return s, nil
}

// --- Forms ---

func (s settingsModel) showPromptForm() (settingsModel, tea.Cmd) {
	*s.promptBuf = s.prompt.Buffer()
	s.formKind = "prompt"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("System prompt").
				Lines(12).
				CharLimit(0).
				Value(s.promptBuf),
		),
	).WithShowHelp(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showVoiceForm() (settingsModel, tea.Cmd) {
	if len(s.voices.Voices) == 0 {
		return s, func() tea.Msg {
			return statusMsg{text: "No voices available", isError: true}
		}
	}

	*s.voiceID = s.voice.Buffer().VoiceID
	options := make([]huh.Option[string], 0, len(s.voices.Voices))
	for _, v := range s.voices.Voices {
		options = append(options, huh.NewOption(v.VoiceName, v.VoiceID))
	}

	s.formKind = "voice"
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Agent voice").
				Options(options...).
				Value(s.voiceID),
		),
	).WithShowHelp(true)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	// Dirty tracks every keystroke, not just form completion.
	switch s.formKind {
	case "prompt":
		if *s.promptBuf != s.prompt.Buffer() {
			s.prompt.Edit(*s.promptBuf)
		}
	case "voice":
		if *s.voiceID != s.voice.Buffer().VoiceID {
			s.voice.Edit(s.voiceByID(*s.voiceID))
		}
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
	}
	return s, cmd
}

func (s settingsModel) voiceByID(id string) api.Voice {
	for _, v := range s.voices.Voices {
		if v.VoiceID == id {
			return v
		}
	}
	return api.Voice{VoiceID: id}
}

// --- Commands ---

func (s settingsModel) save() (settingsModel, tea.Cmd) {
	data := s.data
	switch s.focus {
	case focusVoice:
		if !s.voice.BeginSave() {
			return s, nil
		}
		value := s.voice.Buffer()
		return s, func() tea.Msg {
			ctx, cancel := data.ctx()
			defer cancel()
			err := data.saveVoice.Run(ctx, func(ctx context.Context) error {
				_, err := data.client.UpdateVoice(ctx, value)
				return err
			})
			return settingSavedMsg{kind: "voice", err: err}
		}
	default:
		if !s.prompt.BeginSave() {
			return s, nil
		}
		value := s.prompt.Buffer()
		return s, func() tea.Msg {
			ctx, cancel := data.ctx()
			defer cancel()
			err := data.savePrompt.Run(ctx, func(ctx context.Context) error {
				_, err := data.client.UpdateSystemPrompt(ctx, value)
				return err
			})
			return settingSavedMsg{kind: "prompt", err: err}
		}
	}
}

func (s settingsModel) loadDefaultPrompt() tea.Cmd {
	data := s.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		def, err := data.defaultPrompt(ctx)
		return defaultPromptMsg{value: def.DefaultPrompt, err: err}
	}
}

func (s settingsModel) clearServerCache() tea.Cmd {
	data := s.data
	return func() tea.Msg {
		ctx, cancel := data.ctx()
		defer cancel()
		var result api.CacheClearResult
		err := data.clearSettings.Run(ctx, func(ctx context.Context) error {
			var err error
			result, err = data.client.ClearSettingsCache(ctx)
			return err
		})
		if err != nil {
			return cacheClearedMsg{err: err}
		}
		logger.Info("server settings cache cleared")
		return cacheClearedMsg{message: result.Message}
	}
}

// --- View ---

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := "Edit System Prompt"
		if s.formKind == "voice" {
			title = "Select Voice"
		}
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", s.form.View()),
		)
	}

	if !s.loaded {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", mutedStyle.Render("Loading...")),
		)
	}

	var sections []string
	sections = append(sections, titleStyle.Render("Settings"))
	if s.loadErr != nil {
		sections = append(sections, errorStyle.Render("  refresh failed, showing last known data"))
	}
	sections = append(sections, "")
	sections = append(sections, s.renderPromptPanel(w))
	sections = append(sections, "")
	sections = append(sections, s.renderVoicePanel(w))
	sections = append(sections, "")
	sections = append(sections, mutedStyle.Render("  enter: edit  s: save  r: reset to default  x: clear server cache"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (s settingsModel) renderPromptPanel(w int) string {
	marker := "  "
	style := normalItemStyle
	if s.focus == focusPrompt {
		marker = "> "
		style = selectedItemStyle
	}

	preview := s.prompt.Buffer()
	preview = strings.ReplaceAll(preview, "\n", " ")
	preview = truncate(preview, max(10, w-20))
	if preview == "" {
		preview = mutedStyle.Render("(empty)")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		style.Render(marker+"System Prompt  ")+saveBadge(s.prompt.State()),
		"    "+preview,
	)
}

func (s settingsModel) renderVoicePanel(w int) string {
	marker := "  "
	style := normalItemStyle
	if s.focus == focusVoice {
		marker = "> "
		style = selectedItemStyle
	}

	v := s.voice.Buffer()
	name := v.VoiceName
	if name == "" {
		name = v.VoiceID
	}
	if name == "" {
		name = "(not set)"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		style.Render(marker+"Agent Voice  ")+saveBadge(s.voice.State()),
		"    "+name+mutedStyle.Render(fmt.Sprintf("  ·  %d available", len(s.voices.Voices))),
	)
}

// saveBadge renders the tracker state next to a setting's title.
func saveBadge(state query.SaveState) string {
	switch state {
	case query.StateDirty:
		return warningStyle.Render("● unsaved")
	case query.StateSaving:
		return accentStyle.Render("saving…")
	default:
		return mutedStyle.Render("saved")
	}
}
