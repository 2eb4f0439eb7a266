// Package tui provides terminal output for the genesis CLI.
// It detects terminal capabilities and disables rich output when piping or
// redirecting.
//
// The package is script-friendly:
//   - Progress messages only appear when stderr is a TTY
//   - Colors are disabled when piping or when NO_COLOR is set
//   - Worker replies can be rendered as markdown
//
// Environment Variables:
//   - NO_COLOR or GENESIS_NO_COLOR: Disable colors (respects https://no-color.org/)
//   - TERM=dumb: Disable colors
//   - GENESIS_QUIET: Disable all UI output (progress messages)
package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/aurakai/genesis/internal/bus"
	"github.com/aurakai/genesis/internal/core"
)

var (
	colorRed   = lipgloss.ANSIColor(1)
	colorGreen = lipgloss.ANSIColor(2)
	colorBlue  = lipgloss.ANSIColor(4)
	colorCyan  = lipgloss.ANSIColor(6)
	colorGray  = lipgloss.ANSIColor(8)
)

const (
	spinnerInterval = 100 * time.Millisecond
	defaultWidth    = 80
	timestampFormat = "15:04:05"
)

// UI provides terminal output with automatic TTY detection
type UI struct {
	stdoutIsTTY  bool
	stderrIsTTY  bool
	enabled      bool // TTY and not quiet
	colorEnabled bool
	showProgress bool

	errOut io.Writer

	mu               sync.Mutex
	currentSpinner   *spinnerState
	markdownRenderer *glamour.TermRenderer
}

type spinnerState struct {
	started time.Time
	ticker  clockwork.Ticker
	message string
	done    chan struct{}
	stopped chan struct{}
}

var (
	defaultUI    *UI
	spinnerClock clockwork.Clock = clockwork.NewRealClock()

	// stderrRenderer detects color support on stderr, so progress stays
	// colored when stdout is piped.
	stderrRenderer = lipgloss.NewRenderer(os.Stderr)

	successStyle = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorGreen).Bold(true)
	failureStyle = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorRed).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Renderer(stderrRenderer).Foreground(colorBlue)

	senderStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorGray)
	alertStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func init() {
	defaultUI = New()
}

// New creates a new UI instance with automatic TTY detection
func New() *UI {
	stdoutIsTTY := IsTerminal(os.Stdout)
	stderrIsTTY := IsTerminal(os.Stderr)
	stdinIsTTY := IsTerminal(os.Stdin)

	// Piped stdin usually means a script, so progress is suppressed too.
	enabled := stderrIsTTY && stdinIsTTY && !isDisabled()
	colorEnabled := stderrIsTTY && !isColorDisabled()

	ui := &UI{
		stdoutIsTTY:  stdoutIsTTY,
		stderrIsTTY:  stderrIsTTY,
		enabled:      enabled,
		colorEnabled: colorEnabled,
		errOut:       os.Stderr,
	}

	if colorEnabled && stdoutIsTTY {
		width := defaultWidth
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			ui.markdownRenderer = renderer
		}
	}

	return ui
}

// IsTerminal checks if a file descriptor is connected to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isDisabled checks if UI is explicitly disabled via environment variables
func isDisabled() bool {
	if val := os.Getenv(core.EnvPrefix + "_QUIET"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		return true // Any non-empty value means disabled
	}
	return false
}

// isColorDisabled checks if colors are explicitly disabled
func isColorDisabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	if os.Getenv(core.EnvPrefix+"_NO_COLOR") != "" {
		return true
	}
	return os.Getenv("TERM") == "dumb"
}

// Enabled returns whether UI output should be shown
func (u *UI) Enabled() bool {
	return u.enabled
}

// ColorEnabled returns whether colors should be used
func (u *UI) ColorEnabled() bool {
	return u.colorEnabled
}

// StdoutIsTTY returns whether stdout is a terminal
func (u *UI) StdoutIsTTY() bool {
	return u.stdoutIsTTY
}

// StderrIsTTY returns whether stderr is a terminal
func (u *UI) StderrIsTTY() bool {
	return u.stderrIsTTY
}

// SetShowProgress turns progress messages on. They still require a TTY.
func (u *UI) SetShowProgress(show bool) {
	u.showProgress = show
}

func (u *UI) progressVisible() bool {
	return u.showProgress && u.enabled
}

func (u *UI) spinnerFrame(started time.Time) string {
	if !u.colorEnabled {
		return "..."
	}
	elapsed := spinnerClock.Since(started)
	frame := int(elapsed/spinner.Line.FPS) % len(spinner.Line.Frames)
	return spinnerStyle.Render(spinner.Line.Frames[frame])
}

// Progress shows message next to a spinner that animates in the background
// until ProgressSuccess or ProgressFailure. A new message replaces the
// current spinner.
func (u *UI) Progress(message string) {
	if !u.progressVisible() {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.currentSpinner != nil && u.currentSpinner.message == message {
		core.MustFprintf(u.errOut, "\r%s %s", u.spinnerFrame(u.currentSpinner.started), message)
		return
	}
	u.stopSpinnerLocked()

	state := &spinnerState{
		started: spinnerClock.Now(),
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		ticker:  spinnerClock.NewTicker(spinnerInterval),
	}
	u.currentSpinner = state

	core.MustFprintf(u.errOut, "\r%s %s", u.spinnerFrame(state.started), state.message)

	go func() {
		defer close(state.stopped)
		for {
			select {
			case <-state.ticker.Chan():
				u.mu.Lock()
				if u.currentSpinner == state {
					core.MustFprintf(u.errOut, "\r%s %s", u.spinnerFrame(state.started), state.message)
				}
				u.mu.Unlock()
			case <-state.done:
				return
			}
		}
	}()
}

// stopSpinnerLocked stops the animation and clears the spinner line. The
// animation goroutine takes u.mu, so it is not waited for here.
func (u *UI) stopSpinnerLocked() *spinnerState {
	state := u.currentSpinner
	if state == nil {
		return nil
	}
	state.ticker.Stop()
	close(state.done)
	core.MustFprintf(u.errOut, "\r%s", ansi.EraseLine(2))
	u.currentSpinner = nil
	return state
}

// ProgressSuccess stops the spinner and prints a checkmark with message, or
// with the spinner message when message is empty.
func (u *UI) ProgressSuccess(message string) {
	u.finish(message, "✓", successStyle)
}

// ProgressFailure stops the spinner and prints a cross with message.
func (u *UI) ProgressFailure(message string) {
	u.finish(message, "✗", failureStyle)
}

func (u *UI) finish(message, symbol string, style lipgloss.Style) {
	if !u.progressVisible() {
		return
	}

	u.mu.Lock()
	if u.currentSpinner == nil {
		u.mu.Unlock()
		zap.L().Error("Progress finished without a spinner", zap.String("symbol", symbol))
		return
	}
	if message == "" {
		message = u.currentSpinner.message
	}
	state := u.stopSpinnerLocked()
	if message != "" {
		if u.colorEnabled {
			symbol = style.Render(symbol)
		}
		core.MustFprintf(u.errOut, "%s %s\n", symbol, message)
	}
	u.mu.Unlock()

	<-state.stopped
}

// Info prints an informational message to stderr, even when it is not a
// TTY. GENESIS_QUIET silences it.
func (u *UI) Info(format string, args ...any) {
	if isDisabled() {
		return
	}
	core.MustFprintf(u.errOut, format, args...)
}

// RenderMarkdown renders markdown with glamour. It returns content unchanged
// when stdout is not a TTY or colors are disabled.
func (u *UI) RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("width must be greater than 0")
	}

	if !u.stdoutIsTTY || !u.colorEnabled {
		return content, nil
	}

	renderer := u.markdownRenderer
	if renderer == nil {
		var err error
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content, err
		}
	}

	return renderer.Render(content)
}

// RenderMessage formats one bus message as a single log line:
//
//	12:00:00 Kai -> * [alert p10] SECURITY ALERT: ...
func (u *UI) RenderMessage(m bus.Message) string {
	to := "*"
	if !m.IsBroadcast() {
		to = m.To
	}

	stamp := m.Timestamp.Local().Format(timestampFormat)
	route := fmt.Sprintf("%s -> %s", m.From, to)
	kind := fmt.Sprintf("[%s p%d]", m.Type, m.Priority)
	content := strings.TrimSpace(m.Content)

	if !u.colorEnabled {
		return fmt.Sprintf("%s %s %s %s", stamp, route, kind, content)
	}

	if m.Type == bus.TypeAlert {
		content = alertStyle.Render(content)
	}
	return fmt.Sprintf("%s %s %s %s",
		mutedStyle.Render(stamp), senderStyle.Render(route), mutedStyle.Render(kind), content)
}

// RenderTable lays rows out under headers with a rounded border. Styling is
// dropped when colors are disabled.
func (u *UI) RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow && u.colorEnabled {
				return headerStyle
			}
			return cellStyle
		})
	if u.colorEnabled {
		t = t.BorderStyle(mutedStyle)
	}
	return t.String()
}

// Default returns the default UI instance
func Default() *UI {
	return defaultUI
}

// Reset resets the default UI instance (useful for testing)
func Reset() {
	defaultUI = New()
}

// Info prints an informational message using the default UI
func Info(format string, args ...any) {
	defaultUI.Info(format, args...)
}

// SetShowProgress sets whether the default UI shows progress messages
func SetShowProgress(show bool) {
	defaultUI.SetShowProgress(show)
}

// Progress prints a progress message using the default UI
func Progress(message string) {
	defaultUI.Progress(message)
}

// ProgressSuccess stops the spinner and shows success using the default UI
func ProgressSuccess(message string) {
	defaultUI.ProgressSuccess(message)
}

// ProgressFailure stops the spinner and shows failure using the default UI
func ProgressFailure(message string) {
	defaultUI.ProgressFailure(message)
}

// RenderMarkdown renders markdown content using the default UI
func RenderMarkdown(content string, width int) (string, error) {
	return defaultUI.RenderMarkdown(content, width)
}

// RenderMessage formats a bus message using the default UI
func RenderMessage(m bus.Message) string {
	return defaultUI.RenderMessage(m)
}

// RenderTable renders a table using the default UI
func RenderTable(headers []string, rows [][]string) string {
	return defaultUI.RenderTable(headers, rows)
}
