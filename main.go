// ricky - terminal chat for local language models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ricky/internal/backend"
	"github.com/jeranaias/ricky/internal/cli"
	"github.com/jeranaias/ricky/internal/config"
	"github.com/jeranaias/ricky/internal/model"
	"github.com/jeranaias/ricky/internal/session"
	"github.com/jeranaias/ricky/internal/ui/chat"
	"github.com/jeranaias/ricky/internal/ui/components"
	"github.com/jeranaias/ricky/internal/ui/styles"
)

// Global program reference for delivering session events from worker
// goroutines into the Bubble Tea loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func main() {
	args := cli.Parse()

	// Wire-level diagnostics (skipped stream lines and the like) go
	// through the default logger. They are stderr noise for one-shot
	// commands unless asked for; the TUI reroutes them to a file below.
	if !args.Verbose {
		log.SetOutput(io.Discard)
	}

	var err error
	switch args.Command {
	case cli.CmdTUI, cli.CmdChat:
		// The full-screen TUI needs a real terminal on both ends;
		// --plain or piped IO drops to the line-mode REPL.
		if args.Plain || !cli.CanPrompt() {
			err = cli.HandleChatCommand(args)
		} else {
			err = runTUI(args)
		}
	case cli.CmdAsk:
		err = cli.HandleAskCommand(args)
	case cli.CmdServe:
		err = cli.HandleServeCommand(args)
	case cli.CmdModels:
		err = cli.HandleModelsCommand(args)
	case cli.CmdStatus:
		err = cli.HandleStatusCommand(args)
	case cli.CmdConfig:
		err = cli.HandleConfigCommand(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		err = runTUI(args)
	}

	if err != nil {
		printCommandError(err)
		os.Exit(cli.ExitCodeForError(err))
	}
}

func printCommandError(err error) {
	var usageErr *cli.UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "Error: %s\n\nRun 'ricky help' for usage.\n", usageErr.Msg)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", cli.FormatError(err, config.Global().Backend.Endpoint))
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// runTUI starts the full-screen chat interface.
func runTUI(args cli.Args) error {
	cfg := config.Global()
	theme := styles.NewTheme(cfg.UI.Theme)

	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL: cfg.Backend.Endpoint,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	})

	modelName := cfg.Chat.Model
	if args.Model != "" {
		modelName = args.Model
	}

	sess := session.NewSession(client, session.Config{
		Model:       modelName,
		Temperature: cfg.Chat.Temperature,
		Logger:      setupLogger(),
	})

	m := NewModel(theme, cfg, sess)
	wireSessionEvents(sess)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	setProgram(p)
	defer setProgram(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ricky: %w", err)
	}
	return nil
}

// setupLogger opens the session log under the config dir. The TUI owns the
// terminal, so logs must never touch stderr; the default logger is
// redirected to the same file so stray writes from any package cannot
// corrupt the alternate screen. On any failure logs are discarded instead.
func setupLogger() *log.Logger {
	discard := func() *log.Logger {
		log.SetOutput(io.Discard)
		return log.New(io.Discard, "", 0)
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return discard()
	}
	if err := config.EnsureConfigDir(); err != nil {
		return discard()
	}
	f, err := os.OpenFile(filepath.Join(dir, "ricky.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return discard()
	}
	log.SetOutput(f)
	return log.New(f, "", log.LstdFlags)
}

func setProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// SESSION EVENT BRIDGE
// =============================================================================

// sessionBridge translates session turn snapshots into the chat view's
// stream messages. The session reports whole turns; the view wants deltas,
// so the bridge tracks how much of each streaming turn it has forwarded.
type sessionBridge struct {
	mu   sync.Mutex
	seen map[string]int // turn ID -> bytes of text already forwarded
}

// wireSessionEvents registers session callbacks that feed the program.
// Callbacks fire on session worker goroutines; Program.Send is safe there.
func wireSessionEvents(sess *session.Session) {
	bridge := &sessionBridge{seen: make(map[string]int)}

	sess.SetTurnUpdateCallback(bridge.onTurnUpdate)
	sess.SetLoadingCallback(func(loading bool) {
		sendToProgram(chat.LoadingMsg{Loading: loading})
	})
	sess.SetModelsCallback(func(models []backend.Model, defaultModel string) {
		sendToProgram(chat.ModelsMsg{Models: models, Default: defaultModel})
	})
	sess.SetResetCallback(func() {
		sendToProgram(chat.SessionResetMsg{})
	})
}

func (b *sessionBridge) onTurnUpdate(t model.Turn) {
	if t.Role == model.RoleUser {
		sendToProgram(chat.TurnAddedMsg{Turn: t})
		return
	}

	b.mu.Lock()
	emitted, tracked := b.seen[t.ID]

	if t.Streaming {
		if !tracked {
			b.seen[t.ID] = 0
			emitted = 0
		}
		delta := ""
		if len(t.Text) > emitted {
			delta = t.Text[emitted:]
			b.seen[t.ID] = len(t.Text)
		}
		b.mu.Unlock()

		if !tracked {
			sendToProgram(chat.StreamStartMsg{TurnID: t.ID})
		}
		if delta != "" {
			sendToProgram(chat.StreamTokenMsg{TurnID: t.ID, Token: delta, IsFirst: emitted == 0})
		}
		return
	}

	delete(b.seen, t.ID)
	b.mu.Unlock()

	if t.Failed {
		sendToProgram(chat.StreamErrorMsg{Turn: t})
		return
	}
	sendToProgram(chat.StreamCompleteMsg{Turn: t})
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents the current application state.
type State int

const (
	StateWelcome State = iota // Welcome screen
	StateChat                 // Chat view
	StateError                // Backend connection error
)

// Model is the main Bubble Tea model for the application.
type Model struct {
	state State

	theme *styles.Theme

	width  int
	height int

	cfg  *config.Config
	sess *session.Session

	chatModel    chat.Model
	welcome      components.Welcome
	errorDisplay components.ErrorDisplay
}

// NewModel creates the application model.
func NewModel(theme *styles.Theme, cfg *config.Config, sess *session.Session) *Model {
	welcome := components.NewWelcome()
	welcome.SetVersion(cli.Version)
	welcome.SetEndpoint(cfg.Backend.Endpoint)

	modelName := sess.Model()
	if modelName == "" {
		modelName = "(backend default)"
	}
	welcome.SetModelName(modelName)

	return &Model{
		state:        StateWelcome,
		theme:        theme,
		cfg:          cfg,
		sess:         sess,
		chatModel:    chat.New(theme, sess),
		welcome:      welcome,
		errorDisplay: components.NewErrorDisplay(),
	}
}

// Init starts the background checks alongside the chat view.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.chatModel.Init(),
		m.checkBackend(),
		m.refreshModels(),
	)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.welcome.SetSize(msg.Width, msg.Height)
		m.errorDisplay.SetSize(msg.Width, msg.Height)
		return m.forwardToChat(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case chat.BackendStatusMsg:
		return m.handleBackendStatus(msg)
	}

	// Everything else (stream events, ticks, mouse) belongs to the chat
	// view regardless of which screen is showing, so its state never
	// falls behind the session.
	return m.forwardToChat(msg)
}

// handleKeyPress routes keys by state. The chat view gets keys only when
// it is the active screen.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		default:
			// Any other key opens the chat.
			return m.enterChat()
		}

	case StateError:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.checkBackend()
		case "esc", "enter":
			// Continue into chat anyway; the status bar keeps showing
			// the backend as down until a later check succeeds.
			m.errorDisplay.Hide()
			return m.enterChat()
		}
		return m, nil

	default:
		return m.forwardToChat(msg)
	}
}

// enterChat switches to the chat view and hands it the current window size.
func (m *Model) enterChat() (tea.Model, tea.Cmd) {
	m.state = StateChat
	return m.forwardToChat(tea.WindowSizeMsg{Width: m.width, Height: m.height})
}

func (m *Model) forwardToChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.chatModel.Update(msg)
	m.chatModel = updated.(chat.Model)
	return m, cmd
}

// handleBackendStatus surfaces startup connection failures full-screen and
// clears them when a later check succeeds. The message is also forwarded
// so the chat status bar tracks backend health.
func (m *Model) handleBackendStatus(msg chat.BackendStatusMsg) (tea.Model, tea.Cmd) {
	if msg.Up() {
		if m.state == StateError {
			m.errorDisplay.Hide()
			_, cmd := m.enterChat()
			fwd, fwdCmd := m.forwardToChat(msg)
			return fwd, tea.Batch(cmd, fwdCmd)
		}
		return m.forwardToChat(msg)
	}

	m.errorDisplay = components.ConnectionErrorWithDetails(
		m.cfg.Backend.Endpoint,
		describeBackendFailure(msg, m.cfg.Backend.Endpoint),
	)
	m.errorDisplay.SetSize(m.width, m.height)
	m.errorDisplay.Show()
	// An active chat stays usable; only the pre-chat screens divert.
	if m.state != StateChat {
		m.state = StateError
	}
	return m.forwardToChat(msg)
}

// View renders the current state.
func (m *Model) View() string {
	switch m.state {
	case StateWelcome:
		return m.welcome.View()
	case StateError:
		return m.errorDisplay.View()
	default:
		return m.chatModel.View()
	}
}

// =============================================================================
// BACKGROUND COMMANDS
// =============================================================================

// checkBackend probes the backend and reports the result to the program.
func (m *Model) checkBackend() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status, err := sess.CheckStatus(ctx)
		return chat.BackendStatusMsg{Status: status, Err: err}
	}
}

// refreshModels loads the model catalog. Results arrive through the
// session's models callback, so the command itself has nothing to report.
func (m *Model) refreshModels() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sess.RefreshModels(ctx)
		return nil
	}
}

func describeBackendFailure(msg chat.BackendStatusMsg, endpoint string) string {
	if msg.Err != nil {
		return cli.FormatError(msg.Err, endpoint)
	}
	if msg.Status != nil {
		if msg.Status.Error != "" {
			return msg.Status.Error
		}
		if msg.Status.Message != "" {
			return msg.Status.Message
		}
		return "The server reports it is " + msg.Status.Status + "."
	}
	return "The server did not report a status."
}
