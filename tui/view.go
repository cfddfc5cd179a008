package tui

import (
	"cmp"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"exposuretrack/model"
)

const historyRows = 8

// frame holds the outer and inner sizes of the bordered area.
type frame struct {
	width  int
	outerW int
	innerW int
	outerH int
	innerH int
}

func (m *Model) frame() frame {
	f := frame{width: m.viewportWidth()}
	f.outerW = f.width - 6
	if f.outerW < 40 {
		f.outerW = f.width
	}
	f.innerW = f.outerW - 2
	if f.innerW < 20 {
		f.innerW = f.outerW
	}
	f.outerH = max(m.height-6, 8)
	f.innerH = max(f.outerH-2, 6)
	return f
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	f := m.frame()

	body := m.renderBorderedBody(f)
	if m.showHelp || m.showInsights {
		body = lipgloss.Place(f.width, f.outerH, lipgloss.Center, lipgloss.Center, m.renderOverlay(f.width))
	}

	parts := []string{m.renderHeader(), body, m.renderStatusLine()}
	if m.mode == modeConfirmDelete {
		prompt := fmt.Sprintf("Delete task \"%s\" and its history? [y/N]", m.confirmName)
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Width(f.width).Render(prompt))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader() string {
	summary := fmt.Sprintf("list: %s • sort: %s", m.focus.String(), strings.ToLower(string(m.sort)))
	if t, ok := m.svc.Ongoing(); ok {
		summary += " • in progress: " + t.Title
	}
	return lipgloss.NewStyle().Bold(true).Render("exposuretrack") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary)
}

func (m *Model) renderBorderedBody(f frame) string {
	var inner string
	switch m.mode {
	case modeSession:
		inner = m.renderSessionPanel(f.innerW, f.innerH)
	default:
		const gap = 1
		leftW, rightW := m.paneWidths(f.innerW, gap)
		right := m.renderDetailPanel(rightW, f.innerH)
		if m.mode == modeForm {
			right = m.renderFormPanel(rightW, f.innerH)
		}
		divider := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("│")
		inner = lipgloss.JoinHorizontal(lipgloss.Top, m.renderListPanel(leftW, f.innerH), divider, right)
	}

	border := lipgloss.Color("240")
	if m.mode == modeNormal {
		border = lipgloss.Color("39")
	} else if m.mode == modeSession {
		border = lipgloss.Color("10")
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(f.outerW).
		Height(f.outerH).
		Render(inner)
	if pad := f.width - f.outerW; pad > 0 {
		box = lipgloss.JoinHorizontal(lipgloss.Top, box, strings.Repeat(" ", pad))
	}
	return box
}

func (m *Model) renderOverlay(viewW int) string {
	w := min(viewW-8, 72)
	if w < 40 {
		w = viewW - 2
	}
	if m.showInsights {
		return m.renderInsightsOverlay(w)
	}
	return m.renderHelpOverlay(w)
}

func (m *Model) renderStatusLine() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	hint := "? shortcuts"
	if m.showHelp || m.showInsights {
		hint = "Esc close"
	}
	return m.renderFooter(m.status, style, hint)
}

func (m *Model) viewportWidth() int {
	// One column is kept free so the right border does not wrap.
	return max(m.width-1, 1)
}

// paneWidths splits total between the list and the detail pane. Wide
// terminals give the list two fifths, capped so the detail keeps most room.
func (m *Model) paneWidths(total, gap int) (int, int) {
	if total <= 0 {
		return 24, 30
	}
	usable := total - max(gap, 0)
	if usable < 54 {
		left := max(usable/3, 10)
		return left, max(usable-left, 12)
	}
	left := clamp(usable*2/5, 28, 44)
	return left, usable - left
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	width := m.viewportWidth()
	left := cmp.Or(strings.TrimSpace(statusText), "Ready")
	right := cmp.Or(strings.TrimSpace(rightHint), "? shortcuts")
	rightW := utf8.RuneCountInString(right)

	left = truncateRunes(left, max(width-rightW-1, 8))
	gap := max(width-utf8.RuneCountInString(left)-rightW, 1)

	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(right)
	return lipgloss.NewStyle().Width(width).Render(statusStyle.Render(left) + strings.Repeat(" ", gap) + hint)
}

func (m *Model) renderHelpOverlay(width int) string {
	title := lipgloss.NewStyle().Bold(true).Render("Shortcuts")
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	line := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	rows := []string{
		title,
		"",
		section.Render("Lists"),
		line.Render("  Tab available/archived • j/k move • o sort • q quit"),
		line.Render("  u undo • i insights • ? shortcuts • Esc close"),
		"",
		section.Render("Tasks"),
		line.Render("  a new • e edit • Enter/s start exposure • c log completion"),
		line.Render("  r archive or restore • d delete • y copy steps"),
		"",
		section.Render("Exposure in progress"),
		line.Render("  c complete • x cancel • q quit and resume later"),
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(1, 2)

	return style.Width(width).Render(strings.Join(rows, "\n"))
}

func (m *Model) renderInsightsOverlay(width int) string {
	ins := m.svc.Insights()
	title := lipgloss.NewStyle().Bold(true).Render("Insights")
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	value := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))

	days := "days"
	if ins.CurrentStreak == 1 {
		days = "day"
	}
	rows := []string{
		title,
		"",
		label.Render("Current streak   ") + value.Render(fmt.Sprintf("%d %s", ins.CurrentStreak, days)),
		label.Render("Top category     ") + value.Render(ins.TopCategory),
		label.Render("Total completed  ") + value.Render(fmt.Sprintf("%d", ins.TotalCompleted)),
		label.Render("Last 7 days      ") + value.Render(fmt.Sprintf("%d", ins.ThisWeek)),
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2)

	return style.Width(width).Render(strings.Join(rows, "\n"))
}

func (m *Model) renderListPanel(width, height int) string {
	tasks := m.visibleTasks()
	title := "Available"
	if m.focus == focusArchived {
		title = "Archived"
	}
	title = fmt.Sprintf("%s (%d)", title, len(tasks))

	lines := make([]string, 0, len(tasks)+2)
	lines = append(lines, panelTitleStyled(title, m.mode == modeNormal))
	if len(tasks) == 0 {
		empty := "No tasks. Press 'a' to add one."
		if m.focus == focusArchived {
			empty = "Nothing archived."
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(empty))
	}

	for i, t := range tasks {
		cursor := " "
		if i == m.cursor {
			cursor = "▸"
		}
		dot := lipgloss.NewStyle().Foreground(colorForCategory(t.Category)).Render("●")
		name := truncateRunes(t.Title, width-12)
		line := fmt.Sprintf("%s %s %s", cursor, dot, name)

		style := lipgloss.NewStyle()
		if t.Status == model.StatusArchived {
			style = style.Faint(true)
		}
		if i == m.cursor {
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}
		level := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(fmt.Sprintf(" %d", t.AnxietyLevel))
		lines = append(lines, style.Render(line)+level)
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderDetailPanel(width, height int) string {
	task, ok := m.selectedTask()
	if !ok {
		return lipgloss.NewStyle().Width(width).Height(height).
			Foreground(lipgloss.Color("244")).
			Render("Select a task to see its details.")
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	lines := []string{
		panelTitleStyled(task.Title, false),
		fmt.Sprintf("%s %s • anxiety %s • %d min",
			lipgloss.NewStyle().Foreground(colorForCategory(task.Category)).Render("●"),
			task.Category.Label(),
			anxietyMeter(task.AnxietyLevel),
			task.Duration,
		),
		"",
		label.Render("Trigger"),
		wrapIndented(task.Trigger, width-2),
		label.Render("Goal"),
		wrapIndented(task.Goal, width-2),
		"",
		label.Render("Steps"),
	}
	for i, step := range task.Instructions {
		lines = append(lines, wrapIndented(fmt.Sprintf("%d. %s", i+1, step), width-2))
	}

	lines = append(lines, "", label.Render(fmt.Sprintf("Completions (%d)", len(task.Completions))))
	if len(task.Completions) == 0 {
		lines = append(lines, muted.Render("  Not attempted yet"))
	}
	for i, c := range task.Completions {
		if i == historyRows {
			lines = append(lines, muted.Render(fmt.Sprintf("  … %d more", len(task.Completions)-historyRows)))
			break
		}
		lines = append(lines, "  "+formatCompletion(c))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func panelTitleStyled(title string, active bool) string {
	base := lipgloss.NewStyle().Bold(true)
	if !active {
		return base.Render(title)
	}
	text := base.Foreground(lipgloss.Color("229")).Render(title)
	marker := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("*")
	return lipgloss.JoinHorizontal(lipgloss.Left, text, " ", marker)
}

func formatCompletion(t time.Time) string {
	return t.Local().Format("Mon 02 Jan 2006 15:04")
}

func anxietyMeter(level int8) string {
	n := clamp(int(level), 0, 5)
	on := lipgloss.NewStyle().Foreground(anxietyColor(level)).Render(strings.Repeat("●", n))
	off := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(strings.Repeat("○", 5-n))
	return on + off
}

func anxietyColor(level int8) lipgloss.Color {
	switch {
	case level >= 5:
		return lipgloss.Color("203")
	case level >= 4:
		return lipgloss.Color("209")
	case level >= 3:
		return lipgloss.Color("220")
	default:
		return lipgloss.Color("114")
	}
}

func colorForCategory(c model.Category) lipgloss.Color {
	switch c {
	case model.CategoryContamination:
		return lipgloss.Color("10")
	case model.CategoryChecking:
		return lipgloss.Color("12")
	case model.CategorySymmetry:
		return lipgloss.Color("13")
	case model.CategoryRuminations:
		return lipgloss.Color("11")
	case model.CategoryHoarding:
		return lipgloss.Color("14")
	default:
		return lipgloss.Color("7")
	}
}

func wrapIndented(text string, width int) string {
	if width < 10 {
		width = 10
	}
	return lipgloss.NewStyle().PaddingLeft(2).Width(width).Render(text)
}
