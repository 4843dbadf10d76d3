// internal/tui/view.go
//
// Rendering for every screen. The layout follows the same panel composition
// everywhere: header, screen content, the recent logbook tail, and a footer
// status line.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rebound/internal/sim"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E6E650")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	logHeadStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	logBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)

	hudStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	recStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#DC3232"))
)

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case statePlaying:
		content = a.renderMatch()
	case stateReplayPicker:
		content = a.replayMenu.View()
	case stateReplaying:
		content = a.renderPlayback()
	case stateControls:
		content = a.renderControls()
	}

	sections := []string{headerStyle.Render("◉ REBOUND"), content}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, footerStyle.Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

// renderMatch draws the live arena plus its HUD line.
func (a *App) renderMatch() string {
	if a.world == nil {
		return "Preparing the arena..."
	}
	frame := a.world.Snapshot()
	arena := a.renderArenaPanel(frame, a.world.Tuning())

	hud := fmt.Sprintf("tick %d · ball %.0f u/s · energy %.0f",
		frame.Tick, a.world.BallSpeed(), a.world.KineticEnergy())
	if a.recorder != nil {
		hud += " · " + recStyle.Render("● REC")
	}
	if a.paused {
		hud += " · PAUSED"
	}
	return lipgloss.JoinVertical(lipgloss.Left, arena, hudStyle.Render(hud))
}

// renderPlayback draws the last decoded replay frame.
func (a *App) renderPlayback() string {
	if a.reader == nil {
		return "Loading replay..."
	}
	arena := a.renderArenaPanel(a.playFrame, a.reader.Header().Tuning)
	hud := fmt.Sprintf("replay tick %d · t=%.1fs", a.playFrame.Tick, a.playFrame.Elapsed)
	if a.replayDone {
		hud += " · END"
	} else if a.paused {
		hud += " · PAUSED"
	}
	return lipgloss.JoinVertical(lipgloss.Left, arena, hudStyle.Render(hud))
}

func (a *App) renderArenaPanel(frame sim.Frame, tuning sim.Tuning) string {
	// Leave room for the border, HUD, log panel, and footer.
	maxCols := a.width - 4
	maxRows := a.height - 14
	if maxCols < 20 {
		maxCols = 76
	}
	if maxRows < 8 {
		maxRows = 20
	}
	canvas := newCanvas(tuning, a.cfg.File.Display, maxCols, maxRows)
	return panelStyle.Render(canvas.render(frame))
}

func (a *App) renderControls() string {
	keys := a.cfg.File.Keys
	lines := []string{
		"Player 1 (red box)",
		fmt.Sprintf("  %s / %s / %s / %s", keys.PlayerOne.Up, keys.PlayerOne.Left, keys.PlayerOne.Down, keys.PlayerOne.Right),
		"",
		"Player 2 (blue box)",
		fmt.Sprintf("  %s / %s / %s / %s", keys.PlayerTwo.Up, keys.PlayerTwo.Left, keys.PlayerTwo.Down, keys.PlayerTwo.Right),
		"",
		"In match: p pause · r reset · esc menu",
		"Edit " + a.cfg.ConfigPath() + " to rebind or retune; changes apply live.",
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.book == nil {
		return ""
	}
	lines := a.book.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := logHeadStyle.Render("LOG")
	body := logBodyStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(head + "\n" + body)
}
