package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/picgraph/pkg/builder"
	"github.com/matzehuels/picgraph/pkg/render/nodelink"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PassModel - Interactive pass explorer
// =============================================================================

// PassModel is the bubbletea model for stepping through update passes.
// The left column lists passes; the right shows the pictures of the selected
// pass, or the surface table when toggled with "s".
type PassModel struct {
	Report       *builder.Report
	Cursor       int
	ShowSurfaces bool
	Height       int
	Offset       int

	byName map[string]builder.PictureReport
}

// NewPassModel creates a pass explorer for a frame report.
func NewPassModel(r *builder.Report) PassModel {
	byName := make(map[string]builder.PictureReport, len(r.Pictures))
	for _, p := range r.Pictures {
		byName[p.Name] = p
	}
	return PassModel{Report: r, Height: 15, byName: byName}
}

func (m PassModel) Init() tea.Cmd {
	return nil
}

func (m PassModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Report.Passes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n := len(m.Report.Passes); n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, m.Cursor-m.Height+1)
			}
		case "s":
			m.ShowSurfaces = !m.ShowSurfaces
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m PassModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Frame " + m.Report.Scene))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d passes · %d surfaces · %d pruned",
		m.Report.Stats.Passes, m.Report.Stats.Surfaces, m.Report.Stats.Pruned)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ pass  s surfaces  q quit"))
	b.WriteString("\n\n")

	if len(m.Report.Passes) == 0 {
		b.WriteString(StyleWarning.Render("Nothing scheduled: every root was pruned."))
		b.WriteString("\n")
		return b.String()
	}

	var left strings.Builder
	end := min(m.Offset+m.Height, len(m.Report.Passes))
	for i := m.Offset; i < end; i++ {
		line := fmt.Sprintf("pass %-3d %3d", i, len(m.Report.Passes[i]))
		if i == m.Cursor {
			left.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			left.WriteString(listNormalStyle.Render("  " + line))
		}
		left.WriteString("\n")
	}

	right := m.passDetail()
	if m.ShowSurfaces {
		right = surfaceTable(m.Report)
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left.String(), "  ", right))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Report.Passes))))
	return b.String()
}

// passDetail renders the pictures of the selected pass.
func (m PassModel) passDetail() string {
	rows := [][]string{}
	for _, name := range m.Report.Passes[m.Cursor] {
		p := m.byName[name]
		parent := p.Parent
		if parent == "" {
			parent = "-"
		}
		rows = append(rows, []string{name, p.Composite, parent, fmt.Sprint(p.Surface), p.LocalRect.String()})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Picture", "Composite", "Parent", "Surface", "Local rect").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 3 && row < len(rows) {
				p := m.byName[rows[row][0]]
				return lipgloss.NewStyle().Foreground(surfaceSwatch(p.Surface))
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// surfaceSwatch maps the diagram fill color of a surface to a terminal color.
func surfaceSwatch(surface int) lipgloss.Color {
	switch nodelink.SurfaceColor(surface) {
	case "lightblue", "lightcyan":
		return colorBlue
	case "palegreen":
		return colorGreen
	case "lightyellow", "peachpuff":
		return colorYellow
	case "pink", "lavender":
		return colorRed
	}
	return colorWhite
}
