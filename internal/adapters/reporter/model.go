package reporter

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/pacquet/internal/core/domain"
)

// Messages sent from the engine into the TUI model.
type (
	// MsgResolved reports a selected version.
	MsgResolved struct{ Name, Version string }
	// MsgFetched reports a tarball present in the store.
	MsgFetched struct {
		Name, Version string
		Reused        bool
	}
	// MsgLinked reports a completed virtual-store entry.
	MsgLinked struct{ Name, Version string }
	// MsgSummary closes the install and quits the program.
	MsgSummary struct{ Summary domain.InstallSummary }
)

var (
	countStyle   = lipgloss.NewStyle().Bold(true)
	packageStyle = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22A06B"))
)

// Model is the TUI state: live counters plus the most recent package.
type Model struct {
	Resolved   int
	Downloaded int
	Reused     int
	Linked     int
	Current    string
	Summary    *domain.InstallSummary
}

// NewModel creates an empty progress model.
func NewModel() Model {
	return Model{}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case MsgResolved:
		m.Resolved++
		m.Current = msg.Name + "@" + msg.Version

	case MsgFetched:
		if msg.Reused {
			m.Reused++
		} else {
			m.Downloaded++
		}

	case MsgLinked:
		m.Linked++
		m.Current = msg.Name + "@" + msg.Version

	case MsgSummary:
		summary := msg.Summary
		m.Summary = &summary
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.Summary != nil {
		return doneStyle.Render(fmt.Sprintf(
			"✓ resolved %d, downloaded %d, reused %d, linked %d",
			m.Summary.Resolved, m.Summary.Downloaded, m.Summary.Reused, m.Summary.Linked,
		)) + "\n"
	}

	line := fmt.Sprintf(
		"resolving %s  downloading %s  linking %s",
		countStyle.Render(fmt.Sprintf("%d", m.Resolved)),
		countStyle.Render(fmt.Sprintf("%d", m.Downloaded+m.Reused)),
		countStyle.Render(fmt.Sprintf("%d", m.Linked)),
	)
	if m.Current != "" {
		line += "\n" + packageStyle.Render(m.Current)
	}
	return line + "\n"
}
