// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/lib/clock"
	"github.com/bureau-foundation/supportchat/lib/tui"
)

// Session is the part of *chat.Session the TUI drives.
type Session interface {
	View() chat.View
	Subscribe() (<-chan chat.View, func())
	SetInput(text string)
	Submit(ctx context.Context, text string) (*chat.Outgoing, error)
	Rate(ctx context.Context, stars int) error
}

// Config configures a Model.
type Config struct {
	Session Session

	// Context bounds submissions and ratings started from the UI.
	Context context.Context

	Theme  tui.Theme
	Keys   KeyMap
	Clock  clock.Clock
	Logger *slog.Logger
}

type (
	viewMsg          chat.View
	sessionClosedMsg struct{}
	freshTickMsg     struct{}

	submitDoneMsg struct {
		text     string
		outgoing *chat.Outgoing
		err      error
	}

	rateDoneMsg struct {
		stars int
		err   error
	}
)

// headerHeight is the header line plus its rule; footerHeight is the
// input line plus the status line.
const (
	headerHeight = 2
	footerHeight = 2
)

// Model is the bubbletea model of one chat session.
type Model struct {
	session Session
	ctx     context.Context
	theme   tui.Theme
	keys    KeyMap
	clock   clock.Clock
	logger  *slog.Logger

	updates     <-chan chat.View
	unsubscribe func()

	view     chat.View
	input    textinput.Model
	viewport viewport.Model
	fresh    *tui.FreshTracker
	freshRun bool

	width, height int

	// ratingCursor is the star count highlighted in the rating box.
	ratingCursor int

	// status replaces the help line while set. statusSequence guards
	// against an older fade clearing a newer message.
	status         string
	statusLevel    slog.Level
	statusSequence int
}

// NewModel subscribes to the session and returns the model. Call
// Close after the program exits to release the subscription.
func NewModel(config Config) *Model {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Theme == (tui.Theme{}) {
		config.Theme = tui.DefaultTheme
	}
	if config.Keys.Send.Keys() == nil {
		config.Keys = DefaultKeyMap
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 4000
	input.Focus()

	updates, unsubscribe := config.Session.Subscribe()
	model := &Model{
		session:     config.Session,
		ctx:         config.Context,
		theme:       config.Theme,
		keys:        config.Keys,
		clock:       config.Clock,
		logger:      config.Logger,
		updates:     updates,
		unsubscribe: unsubscribe,
		input:       input,
		viewport:    viewport.New(0, 0),
		fresh:       tui.NewFreshTracker(),
	}
	model.applyView(config.Session.View())
	if model.view.PendingInput != "" {
		model.input.SetValue(model.view.PendingInput)
	}
	return model
}

// Close releases the view subscription.
func (model *Model) Close() {
	model.unsubscribe()
}

func (model *Model) Init() tea.Cmd {
	return tea.Batch(model.listen(), textinput.Blink)
}

// listen waits for the next view. A closed channel means the session
// was closed and the program should exit.
func (model *Model) listen() tea.Cmd {
	updates := model.updates
	return func() tea.Msg {
		view, ok := <-updates
		if !ok {
			return sessionClosedMsg{}
		}
		return viewMsg(view)
	}
}

func (model *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.width, model.height = msg.Width, msg.Height
		model.resize()
		return model, nil

	case viewMsg:
		arrived := model.applyView(chat.View(msg))
		commands := []tea.Cmd{model.listen()}
		if arrived > 0 && !model.freshRun {
			model.freshRun = true
			commands = append(commands, freshTick())
		}
		return model, tea.Batch(commands...)

	case sessionClosedMsg:
		return model, tea.Quit

	case freshTickMsg:
		model.refreshContent()
		if model.fresh.Active(model.clock.Now()) {
			return model, freshTick()
		}
		model.freshRun = false
		return model, nil

	case submitDoneMsg:
		return model, model.submitDone(msg)

	case rateDoneMsg:
		if msg.err != nil {
			return model, model.setStatus(slog.LevelError, "Rating not saved: "+describe(msg.err))
		}
		return model, nil

	case logRecordMsg:
		return model, model.setStatus(msg.Level, msg.Summary)

	case logRecordFadeMsg:
		if msg.Sequence == model.statusSequence {
			model.status = ""
		}
		return model, nil

	case tea.KeyMsg:
		return model, model.handleKey(msg)

	case tea.MouseMsg:
		var command tea.Cmd
		model.viewport, command = model.viewport.Update(msg)
		return model, command
	}

	var command tea.Cmd
	model.input, command = model.input.Update(msg)
	return model, command
}

func (model *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, model.keys.Quit):
		return tea.Quit
	case key.Matches(msg, model.keys.PageUp):
		model.viewport.PageUp()
		return nil
	case key.Matches(msg, model.keys.PageDown):
		model.viewport.PageDown()
		return nil
	case key.Matches(msg, model.keys.Top):
		model.viewport.GotoTop()
		return nil
	case key.Matches(msg, model.keys.Bottom):
		model.viewport.GotoBottom()
		return nil
	}

	if model.view.RatingAvailable() {
		return model.handleRatingKey(msg)
	}

	if key.Matches(msg, model.keys.Send) {
		return model.submit()
	}
	if !model.view.InputEnabled() {
		return nil
	}

	before := model.input.Value()
	var command tea.Cmd
	model.input, command = model.input.Update(msg)
	if after := model.input.Value(); after != before {
		model.session.SetInput(after)
	}
	return command
}

func (model *Model) handleRatingKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, model.keys.RateStars):
		model.ratingCursor = int(msg.String()[0] - '0')
		return model.rate(model.ratingCursor)
	case key.Matches(msg, model.keys.RateLeft):
		model.ratingCursor = max(model.ratingCursor-1, 1)
	case key.Matches(msg, model.keys.RateRight):
		model.ratingCursor = min(model.ratingCursor+1, 5)
	case key.Matches(msg, model.keys.Send):
		if model.ratingCursor > 0 {
			return model.rate(model.ratingCursor)
		}
	}
	return nil
}

func (model *Model) submit() tea.Cmd {
	text := model.input.Value()
	if strings.TrimSpace(text) == "" || !model.view.InputEnabled() {
		return nil
	}
	model.input.Reset()
	session, ctx := model.session, model.ctx
	return func() tea.Msg {
		outgoing, err := session.Submit(ctx, text)
		return submitDoneMsg{text: text, outgoing: outgoing, err: err}
	}
}

func (model *Model) submitDone(msg submitDoneMsg) tea.Cmd {
	if msg.err == nil {
		if msg.outgoing != nil && msg.outgoing.FellBack {
			return model.setStatus(slog.LevelWarn, "AI reply unavailable, sent your prompt as typed")
		}
		return nil
	}
	if model.input.Value() == "" {
		model.input.SetValue(msg.text)
		model.input.CursorEnd()
	}
	return model.setStatus(slog.LevelError, "Not sent: "+describe(msg.err))
}

func (model *Model) rate(stars int) tea.Cmd {
	session, ctx := model.session, model.ctx
	return func() tea.Msg {
		return rateDoneMsg{stars: stars, err: session.Rate(ctx, stars)}
	}
}

// describe turns session errors into status-line text.
func describe(err error) string {
	var writeErr *chat.WriteError
	switch {
	case errors.Is(err, chat.ErrTicketResolved):
		return "the ticket is resolved"
	case errors.Is(err, chat.ErrGenerating):
		return "an AI reply is still being generated"
	case errors.Is(err, chat.ErrTicketGone):
		return "the ticket no longer exists"
	case errors.As(err, &writeErr) && writeErr.Conflict():
		return "the ticket changed, try again"
	case errors.As(err, &writeErr):
		return "the server did not accept it, try again"
	}
	return err.Error()
}

func (model *Model) setStatus(level slog.Level, text string) tea.Cmd {
	model.statusSequence++
	model.status = text
	model.statusLevel = level
	sequence := model.statusSequence
	return tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
		return logRecordFadeMsg{Sequence: sequence}
	})
}

func freshTick() tea.Cmd {
	return tea.Tick(tui.FreshTickInterval, func(time.Time) tea.Msg {
		return freshTickMsg{}
	})
}

// applyView stores view and redraws the thread. It returns how many
// messages arrived since the previous view of the same ticket.
func (model *Model) applyView(view chat.View) int {
	if view.TicketID != model.view.TicketID {
		model.fresh.Reset()
		model.ratingCursor = 0
	}
	model.view = view
	if model.ratingCursor == 0 {
		model.ratingCursor = view.RatingSelection
	}

	ids := make([]string, len(view.Messages))
	for index := range view.Messages {
		ids[index] = view.Messages[index].ID.String()
	}
	arrived := model.fresh.Observe(ids, model.clock.Now())

	model.input.Placeholder = view.InputPlaceholder()
	if view.InputEnabled() {
		model.input.Focus()
	} else {
		model.input.Blur()
	}
	model.refreshContent()
	return arrived
}

func (model *Model) resize() {
	model.viewport.Width = max(model.width-1, 0)
	model.viewport.Height = max(model.height-headerHeight-footerHeight, 0)
	model.input.Width = max(model.width-ansi.StringWidth(model.input.Prompt)-1, 1)
	model.refreshContent()
}

// refreshContent re-renders the thread, keeping the reader at the
// bottom if they were there.
func (model *Model) refreshContent() {
	if model.viewport.Width <= 0 {
		return
	}
	follow := model.viewport.AtBottom() || model.viewport.TotalLineCount() == 0
	model.viewport.SetContent(renderThread(model.theme, model.view, model.fresh, model.clock.Now(), model.viewport.Width))
	if follow {
		model.viewport.GotoBottom()
	}
}

func (model *Model) View() string {
	if model.width <= 0 || model.height <= 0 {
		return ""
	}

	scrollbar := tui.RenderScrollbar(model.theme, model.viewport.Height,
		model.viewport.TotalLineCount(), model.viewport.Height, model.viewport.YOffset,
		model.viewport.AtBottom())
	body := lipgloss.NewStyle().Height(model.viewport.Height).Width(model.viewport.Width).
		Render(model.viewport.View())
	body = lipgloss.JoinHorizontal(lipgloss.Top, body, scrollbar)

	if model.view.RatingAvailable() {
		box := renderRatingBox(model.theme, model.view, model.ratingCursor)
		body = tui.Center(body, box, model.width, model.viewport.Height)
	}

	return strings.Join([]string{
		renderHeader(model.theme, model.view, model.clock.Now(), model.width),
		body,
		model.input.View(),
		model.statusLine(),
	}, "\n")
}

func (model *Model) statusLine() string {
	if model.status != "" {
		color := model.theme.FaintText
		if model.statusLevel >= slog.LevelWarn {
			color = model.theme.ErrorText
		}
		return lipgloss.NewStyle().Foreground(color).Render(ansi.Truncate(model.status, model.width, "…"))
	}

	bindings := []key.Binding{model.keys.Send, model.keys.PageUp, model.keys.PageDown, model.keys.Quit}
	if model.view.RatingAvailable() {
		bindings = []key.Binding{model.keys.RateStars, model.keys.RateLeft, model.keys.RateRight, model.keys.Quit}
	}
	var parts []string
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).
		Render(ansi.Truncate(strings.Join(parts, "  "), model.width, "…"))
}
