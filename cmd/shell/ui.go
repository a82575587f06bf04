package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"necroshell/pkg/trials"
	"necroshell/pkg/ui"
)

const PlaceHolderText = "Type a command (help for the list)..."

// ShellUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ShellUI struct {
	session       *session
	transcript    []string
	storyViewport viewport.Model
	metaViewport  viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int

	// Quit confirmation state
	showQuitModal bool
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // off-white

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // bright green

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewShellUI(s *session) ShellUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ShellUI{
		session:       s,
		textarea:      ta,
		storyViewport: storyVp,
		metaViewport:  metaVp,
		ready:         false,
	}
}

func sceneStyleFor(style ui.SceneStyle) lipgloss.Style {
	switch style {
	case ui.StyleInfo:
		return infoStyle
	case ui.StyleSuccess:
		return successStyle
	case ui.StyleWarning:
		return warningStyle
	default:
		return neutralStyle
	}
}

func (m *ShellUI) appendScene(scene ui.ScenePresentation) {
	body := strings.Join(scene.Paragraphs, "\n")
	block := sceneTitleStyle.Render(scene.Title) + "\n" + sceneStyleFor(scene.Style).Render(body)
	m.transcript = append(m.transcript, block)
	m.session.journalScene(scene)
}

// writeStoryContent builds the transcript for the current viewport width
func (m *ShellUI) writeStoryContent() {
	storyWidth := m.storyViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("NECROMANCER'S SHELL") + "\n\n")
	content.WriteString("You are dead, and the Death Network has noticed.\n")
	content.WriteString("Type commands below to walk one of the seven paths.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(storyWidth-6, 1))) + "\n\n")

	for _, block := range m.transcript {
		content.WriteString(wordwrap.String(block, storyWidth) + "\n\n")
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

func (m *ShellUI) writeMetadata() string {
	st := m.session.eng.QueryStatus()
	var content strings.Builder
	content.WriteString(titleStyle.Render("RUN STATE") + "\n\n")

	content.WriteString("Run ID:\n")
	content.WriteString(st.RunID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Day: %d\n", st.Day))
	content.WriteString(fmt.Sprintf("Corruption: %d%%\n", st.Corruption))
	content.WriteString(fmt.Sprintf("Stability: %.0f%%\n\n", m.session.world.ConsciousnessStability()))

	content.WriteString(fmt.Sprintf("Souls: %d\n", m.session.world.TotalSoulsHarvested()))
	content.WriteString(fmt.Sprintf("Energy: %d\n\n", m.session.world.SoulEnergy))

	content.WriteString(fmt.Sprintf("Events fired: %d\n", st.TriggeredEvents))
	content.WriteString(fmt.Sprintf("Trials: %s\n", st.TrialProgress.State.String()))
	if st.TrialProgress.State == trials.SequenceActive {
		content.WriteString(fmt.Sprintf("Completed: %d/%d\n", m.session.eng.Trials().CountCompleted(), trials.NumTrials))
	}

	if st.GameEnded {
		content.WriteString("\n" + warningStyle.Render("GAME OVER") + "\n")
		content.WriteString(fmt.Sprintf("Ending: %s\n", st.Ending.String()))
		content.WriteString(fmt.Sprintf("Day: %d\n", st.EndingDay))
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Run command\n")
	content.WriteString("• help: Command list\n")

	return content.String()
}

func (m ShellUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ShellUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to the story viewport for scrolling and
		// text selection; the component ignores events outside its bounds.
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		storyWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - storyWidth - 6

		m.storyViewport.Width = storyWidth - 2
		m.storyViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(storyWidth - 4)

		m.ready = true
		m.writeStoryContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m.runCommand(input)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ShellUI) runCommand(input string) (tea.Model, tea.Cmd) {
	m.transcript = append(m.transcript, commandStyle.Render(":: "+input))

	result := m.session.execute(input)
	if result.quit {
		return m, tea.Quit
	}
	for _, scene := range result.scenes {
		m.appendScene(scene)
	}
	if result.output != "" {
		line := result.output
		if strings.HasPrefix(line, "Error: ") {
			line = errorStyle.Render(line)
		}
		m.transcript = append(m.transcript, line)
	}

	m.writeStoryContent()
	m.metaViewport.SetContent(m.writeMetadata())
	return m, nil
}

func (m ShellUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ShellUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Shell?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved progress will be lost. Save first?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ShellUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}
