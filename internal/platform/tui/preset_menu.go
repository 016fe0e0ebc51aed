package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tilt2048/internal/config"
)

var (
	menuTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	menuSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	menuDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// PresetModel lets the player choose a board preset before a game.
type PresetModel struct {
	presets   []config.Preset
	cursor    int
	width     int
	height    int
	keys      MenuKeyMap
	scores    key.Binding
	help      help.Model
	selected  *config.Preset
	quitting  bool
	back      bool
	scoreView bool
}

// NewPresetModel creates a preset selector with the cursor on current, or on
// the default preset when current is unknown.
func NewPresetModel(current string, width, height int) PresetModel {
	m := PresetModel{
		presets: config.Presets,
		width:   width,
		height:  height,
		keys:    DefaultMenuKeyMap(),
		scores: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "high scores"),
		),
		help: help.New(),
	}
	if current == "" {
		current = config.DefaultPresetID
	}
	for i, p := range m.presets {
		if p.ID == current {
			m.cursor = i
		}
	}
	return m
}

// Init initializes the model.
func (m PresetModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PresetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.scores) {
			m.scoreView = true
			return m, tea.Quit
		}
		return m.handleAction(m.keys.Action(msg))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m PresetModel) handleAction(action MenuAction) (tea.Model, tea.Cmd) {
	switch action {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case MenuActionDown:
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case MenuActionSelect:
		p := m.presets[m.cursor]
		m.selected = &p
		return m, tea.Quit
	case MenuActionBack:
		m.back = true
		return m, tea.Quit
	}
	return m, nil
}

// Highlighted returns the preset under the cursor.
func (m PresetModel) Highlighted() config.Preset {
	return m.presets[m.cursor]
}

// View renders the preset list.
func (m PresetModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(menuTitleStyle.Render("T I L T   2 0 4 8"), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Choose a board:", m.width))
	b.WriteString("\n\n")

	for i, p := range m.presets {
		line := fmt.Sprintf("%-18s %dx%d  to %-5d  %2.0f%% fours", p.Name, p.Size, p.Size, p.Target, p.Spawn4*100)
		if i == m.cursor {
			line = menuSelectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	helpLine := m.help.ShortHelpView(append(m.keys.ShortHelp(), m.scores))
	b.WriteString(centerText(menuDimStyle.Render(helpLine), m.width))

	return b.String()
}

// Selected returns the chosen preset, if any.
func (m PresetModel) Selected() (config.Preset, bool) {
	if m.selected == nil {
		return config.Preset{}, false
	}
	return *m.selected, true
}

// IsQuitting returns true if the player quit from the menu.
func (m PresetModel) IsQuitting() bool {
	return m.quitting
}

// WantsScores returns true if the player asked for the scoreboard.
func (m PresetModel) WantsScores() bool {
	return m.scoreView
}

// centerText pads text on the left to center it in width columns.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}

// RunPresetSelector shows the preset menu and returns the chosen preset.
// ok is false if the player quit or went back.
func RunPresetSelector(current string, width, height int) (p config.Preset, ok bool, err error) {
	final, err := tea.NewProgram(NewPresetModel(current, width, height), tea.WithAltScreen()).Run()
	if err != nil {
		return config.Preset{}, false, err
	}
	m, isPreset := final.(PresetModel)
	if !isPreset {
		return config.Preset{}, false, nil
	}
	p, ok = m.Selected()
	return p, ok, nil
}
