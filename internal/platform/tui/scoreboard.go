package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tilt2048/internal/core"
	"github.com/vovakirdan/tilt2048/internal/storage"
)

const (
	boardListMinWidth = 90 // Narrower terminals show the board name above the table
	boardListWidth    = 20
	scoreboardRows    = 100
	scoreboardChrome  = 10 // Title, stats, frame and help lines around the table
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette[core.ColorDarkGray]).
			Padding(0, 1)
	emptyBoardStyle = menuDimStyle.Italic(true).Padding(2, 4)
)

// ScoreboardModel shows the leaderboard of one board variant at a time and
// pages through every variant with recorded scores.
type ScoreboardModel struct {
	store    *storage.Store
	variants []string
	cursor   int

	scores []storage.ScoreEntry
	stats  *storage.VariantStats

	table table.Model
	help  help.Model
	keys  ScoreboardKeyMap

	width, height int
	wide          bool
	quitting      bool
	goingBack     bool
}

// NewScoreboardModel opens the scoreboard on variant. The variant is listed
// even when nothing has been recorded for it.
func NewScoreboardModel(store *storage.Store, variant string, width, height int) ScoreboardModel {
	var variants []string
	if store != nil {
		if vs, err := store.Variants(); err == nil {
			variants = vs
		}
	}
	if variant != "" && !slices.Contains(variants, variant) {
		variants = append(variants, variant)
		slices.Sort(variants)
	}

	m := ScoreboardModel{
		store:    store,
		variants: variants,
		cursor:   max(0, slices.Index(variants, variant)),
		help:     help.New(),
		keys:     DefaultScoreboardKeyMap(),
	}
	m.resize(width, height)
	m.loadScores()
	return m
}

// Variant returns the variant on screen, or "" when there is none.
func (m ScoreboardModel) Variant() string {
	if len(m.variants) == 0 {
		return ""
	}
	return m.variants[m.cursor]
}

// resize rebuilds the table for a new terminal size.
func (m *ScoreboardModel) resize(width, height int) {
	m.width, m.height = width, height
	m.wide = width >= boardListMinWidth
	m.help.Width = width

	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Score", Width: 8},
		{Title: "Tile", Width: 6},
		{Title: "Moves", Width: 6},
		{Title: "Player", Width: 10},
		{Title: "Date", Width: 13},
	}
	avail := width - 4
	if m.wide {
		avail -= boardListWidth + 3
	}
	if extra := avail - 60; extra > 0 {
		columns[4].Width += min(extra, 10)
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette[core.ColorDarkGray]).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(palette[core.ColorBrightWhite]).
		Background(palette[core.ColorDarkOrange]).
		Bold(true)

	m.table = table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, height-scoreboardChrome)),
		table.WithStyles(styles),
	)
	m.table.SetRows(m.rows())
}

// loadScores reads the scores and stats of the current variant.
func (m *ScoreboardModel) loadScores() {
	m.scores, m.stats = nil, nil
	if v := m.Variant(); m.store != nil && v != "" {
		if scores, err := m.store.TopScores(v, scoreboardRows); err == nil {
			m.scores = scores
		}
		if stats, err := m.store.Stats(v); err == nil {
			m.stats = stats
		}
	}
	m.table.SetRows(m.rows())
	m.table.GotoTop()
}

// rows formats the scores; a "*" after the tile marks a win.
func (m ScoreboardModel) rows() []table.Row {
	rows := make([]table.Row, len(m.scores))
	for i, e := range m.scores {
		player := e.Player
		if player == "" {
			player = "-"
		}
		tile := strconv.Itoa(e.MaxTile)
		if e.Won {
			tile += "*"
		}
		rows[i] = table.Row{
			"#" + strconv.Itoa(i+1),
			strconv.Itoa(e.Score),
			tile,
			strconv.Itoa(e.Moves),
			player,
			e.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	return rows
}

// page moves the cursor by delta variants, wrapping around.
func (m *ScoreboardModel) page(delta int) {
	if n := len(m.variants); n > 0 {
		m.cursor = (m.cursor + delta + n) % n
		m.loadScores()
	}
}

func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextBoard):
			m.page(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevBoard):
			m.page(-1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	title := "HIGH SCORES"
	if v := m.Variant(); v != "" {
		title += " - " + v
	}

	var b strings.Builder
	b.WriteString(centerText(menuTitleStyle.Render(title), m.width))
	b.WriteString("\n")
	b.WriteString(centerText(menuDimStyle.Render(m.statsLine()), m.width))
	b.WriteString("\n\n")

	body := frameStyle.Render(m.tableView())
	if m.wide {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.boardList(), "  ", body)
	} else if v := m.Variant(); v != "" {
		b.WriteString(centerText(variantStyle(v).Render("< "+v+" >"), m.width))
		b.WriteString("\n\n")
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(menuDimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ScoreboardModel) statsLine() string {
	st := m.stats
	if st == nil || st.GamesCount == 0 {
		return ""
	}
	return fmt.Sprintf("games %d  wins %d  best tile %d  avg %.0f",
		st.GamesCount, st.Wins, st.BestTile, st.AvgScore)
}

// boardList renders the variant sidebar.
func (m ScoreboardModel) boardList() string {
	var b strings.Builder
	b.WriteString("Boards\n")
	b.WriteString(strings.Repeat("─", boardListWidth-4))
	for i, v := range m.variants {
		b.WriteString("\n")
		if i == m.cursor {
			b.WriteString(variantStyle(v).Render("> " + v))
		} else {
			b.WriteString("  " + v)
		}
	}
	return frameStyle.Width(boardListWidth).Render(b.String())
}

func (m ScoreboardModel) tableView() string {
	if len(m.scores) == 0 {
		return emptyBoardStyle.Render("No scores recorded yet.\nReach a game over to set a high score!")
	}
	return m.table.View()
}

// variantStyle colours a variant name like its target tile.
func variantStyle(variant string) lipgloss.Style {
	target := 0
	if _, t, ok := strings.Cut(variant, "-"); ok {
		target, _ = strconv.Atoi(t)
	}
	return lipglossStyle(tileStyle(target)).Bold(true).Padding(0, 1)
}

// IsGoingBack reports whether the user asked to return to the menu.
func (m ScoreboardModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting reports whether the user asked to quit.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// RunScoreboard shows the scoreboard full screen. goBack is true when the
// user left with Back rather than Quit.
func RunScoreboard(store *storage.Store, variant string, width, height int) (goBack bool, err error) {
	final, err := tea.NewProgram(NewScoreboardModel(store, variant, width, height), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ScoreboardModel)
	return ok && m.IsGoingBack(), nil
}
