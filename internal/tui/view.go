package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/race"
	"github.com/typedash/typedash/internal/settle"
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	countdownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	winStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	loseStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return m.place(fmt.Sprintf("%s\n\n%s",
			incorrectStyle.Render(fmt.Sprintf("Error: %v", m.err)),
			footerStyle.Render("Press Ctrl+C to quit.")))
	}

	switch m.phase {
	case phaseEnterCode:
		return m.place(m.viewEnterCode())
	case phaseConnecting:
		return m.place(footerStyle.Render("Connecting to relay..."))
	case phaseWaiting:
		return m.place(m.status)
	}

	switch m.ctrl.State() {
	case model.StateCountdown:
		return m.place(m.viewCountdown())
	case model.StateRacing:
		return m.place(m.viewRacing())
	case model.StateFinished:
		return m.place(m.viewFinished())
	}
	return ""
}

func (m *Model) viewEnterCode() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Join a duel"))
	b.WriteString("\n\nEnter the room code:\n")
	b.WriteString(m.codeInput.View())
	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(footerStyle.Render(m.status))
	}
	return b.String()
}

func (m *Model) viewCountdown() string {
	return fmt.Sprintf("%s\n\n%s",
		titleStyle.Render("Get ready"),
		countdownStyle.Render(fmt.Sprintf("%d", m.ctrl.Countdown())))
}

func (m *Model) viewRacing() string {
	var b strings.Builder

	local := m.ctrl.Local()
	opp := m.ctrl.Opponent()
	b.WriteString(m.racerLine(local, m.localBar))
	b.WriteString("\n")
	b.WriteString(m.racerLine(opp, m.oppBar))
	b.WriteString("\n\n")

	cells := buildTrackCells(local, m.ctrl.CurrentWord(), m.ctrl.Upcoming(6))
	b.WriteString(wrapCells(cells, m.contentWidth()))
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) racerLine(p model.PlayerState, bar progress.Model) string {
	label := fmt.Sprintf("%-12s %3d wpm", p.Username, p.WPM)
	return fmt.Sprintf("%s\n%s", footerStyle.Render(label), bar.ViewAs(p.Progress/100))
}

func (m *Model) renderFooter() string {
	local := m.ctrl.Local()
	segments := []string{
		fmt.Sprintf("Accuracy %d%%", local.Accuracy),
		fmt.Sprintf("Streak %d", local.Streak),
		fmt.Sprintf("%ds", m.ctrl.ElapsedSeconds()),
	}
	if m.ctrl.Stake() > 0 {
		segments = append(segments, fmt.Sprintf("Stake %d", m.ctrl.Stake()))
	}
	if m.status != "" {
		segments = append(segments, m.status)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) viewFinished() string {
	result := m.ctrl.Result()
	if result == nil {
		return ""
	}
	var b strings.Builder
	if result.WinnerID == m.opts.LocalID {
		b.WriteString(winStyle.Render("You won!"))
	} else {
		b.WriteString(loseStyle.Render(fmt.Sprintf("%s won.", result.WinnerUsername)))
	}
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%-12s %3d wpm  %3d%%\n", result.WinnerUsername, result.WinnerWPM, result.WinnerAccuracy))
	b.WriteString(fmt.Sprintf("%-12s %3d wpm  %3d%%\n", result.LoserUsername, result.LoserWPM, result.LoserAccuracy))
	b.WriteString(footerStyle.Render(fmt.Sprintf("Duration %.1fs", result.Duration)))

	if result.StakeAmount > 0 {
		b.WriteString("\n")
		if m.receipt != nil {
			b.WriteString(winStyle.Render(fmt.Sprintf("Payout %d (tx %s)", m.receipt.Amount, m.receipt.TxID)))
		} else if result.WinnerID == m.opts.LocalID {
			b.WriteString(footerStyle.Render(fmt.Sprintf("Payout %d pending...", settle.Payout(result.StakeAmount))))
		}
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(footerStyle.Render(m.status))
	}

	b.WriteString("\n\n")
	if m.ctrl.ModeOf() == race.ModeBot {
		b.WriteString(footerStyle.Render("r rematch  ·  q quit"))
	} else {
		b.WriteString(footerStyle.Render("q quit"))
	}
	return b.String()
}

func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
