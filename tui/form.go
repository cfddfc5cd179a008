package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"exposuretrack/model"
)

type formField int

const (
	fieldTitle formField = iota
	fieldCategory
	fieldTrigger
	fieldGoal
	fieldInstructions
	fieldDuration
	fieldAnxiety
	fieldCount
)

func (f formField) String() string {
	switch f {
	case fieldTitle:
		return "Title"
	case fieldCategory:
		return "Category"
	case fieldTrigger:
		return "Trigger"
	case fieldGoal:
		return "Goal"
	case fieldInstructions:
		return "Steps"
	case fieldDuration:
		return "Minutes"
	case fieldAnxiety:
		return "Anxiety"
	default:
		return ""
	}
}

type formAction int

const (
	formContinue formAction = iota
	formSubmit
	formCancel
)

const maxDuration = 999

// taskForm edits a Draft. editID is empty when creating.
type taskForm struct {
	draft  model.Draft
	editID string
	field  formField
	step   string
}

func newTaskForm(d model.Draft, editID string) *taskForm {
	return &taskForm{draft: d, editID: editID}
}

func (f *taskForm) text() *string {
	switch f.field {
	case fieldTitle:
		return &f.draft.Title
	case fieldTrigger:
		return &f.draft.Trigger
	case fieldGoal:
		return &f.draft.Goal
	case fieldInstructions:
		return &f.step
	}
	return nil
}

// commitStep moves the step being typed into the instruction list.
func (f *taskForm) commitStep() {
	step := strings.TrimSpace(f.step)
	if step != "" {
		f.draft.Instructions = append(f.draft.Instructions, step)
	}
	f.step = ""
}

func (f *taskForm) move(delta int) {
	f.field = formField((int(f.field) + delta + int(fieldCount)) % int(fieldCount))
}

func (f *taskForm) cycleCategory(delta int) {
	cats := model.Categories()
	idx := 0
	for i, c := range cats {
		if c == f.draft.Category {
			idx = i
			break
		}
	}
	f.draft.Category = cats[(idx+delta+len(cats))%len(cats)]
}

func (f *taskForm) adjust(delta int) {
	switch f.field {
	case fieldCategory:
		f.cycleCategory(delta)
	case fieldDuration:
		f.draft.Duration = clamp(f.draft.Duration+delta, 1, maxDuration)
	case fieldAnxiety:
		f.draft.AnxietyLevel = int8(clamp(int(f.draft.AnxietyLevel)+delta, 1, 5))
	}
}

func (f *taskForm) update(msg tea.KeyMsg) formAction {
	switch msg.String() {
	case "esc", "ctrl+c":
		return formCancel
	case "ctrl+s":
		return formSubmit
	case "tab", "down":
		f.move(1)
		return formContinue
	case "shift+tab", "up":
		f.move(-1)
		return formContinue
	case "left":
		f.adjust(-1)
		return formContinue
	case "right":
		f.adjust(1)
		return formContinue
	case "enter":
		switch f.field {
		case fieldInstructions:
			if strings.TrimSpace(f.step) == "" {
				f.move(1)
				return formContinue
			}
			f.commitStep()
		case fieldAnxiety:
			return formSubmit
		default:
			f.move(1)
		}
		return formContinue
	}

	switch msg.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		f.backspace()
	case tea.KeySpace:
		if p := f.text(); p != nil {
			*p += " "
		}
	case tea.KeyRunes:
		f.typeRunes(msg.Runes)
	}
	return formContinue
}

func (f *taskForm) backspace() {
	switch f.field {
	case fieldInstructions:
		if f.step == "" && len(f.draft.Instructions) > 0 {
			last := len(f.draft.Instructions) - 1
			f.step = f.draft.Instructions[last]
			f.draft.Instructions = f.draft.Instructions[:last]
			return
		}
		f.step = trimLastRune(f.step)
	case fieldDuration:
		f.draft.Duration /= 10
	default:
		if p := f.text(); p != nil {
			*p = trimLastRune(*p)
		}
	}
}

func (f *taskForm) typeRunes(rs []rune) {
	switch f.field {
	case fieldCategory:
		for _, r := range rs {
			switch r {
			case 'h':
				f.cycleCategory(-1)
			case 'l':
				f.cycleCategory(1)
			}
		}
	case fieldDuration:
		for _, r := range rs {
			if r < '0' || r > '9' {
				continue
			}
			next := f.draft.Duration*10 + int(r-'0')
			if next > maxDuration {
				next = maxDuration
			}
			f.draft.Duration = next
		}
	case fieldAnxiety:
		for _, r := range rs {
			if r >= '1' && r <= '5' {
				f.draft.AnxietyLevel = int8(r - '0')
			}
		}
	default:
		if p := f.text(); p != nil {
			*p += string(rs)
		}
	}
}

func (m *Model) updateFormMode(msg tea.KeyMsg) {
	if m.form == nil {
		m.mode = modeNormal
		return
	}
	switch m.form.update(msg) {
	case formCancel:
		m.closeForm()
		m.setStatus("Cancelled", false)
	case formSubmit:
		m.submitForm()
	}
}

func formError(err error) string {
	msg := err.Error()
	if errors.Is(err, model.ErrInvalidDraft) {
		msg = strings.TrimPrefix(msg, model.ErrInvalidDraft.Error()+": ")
	}
	return "Check the form: " + msg
}

func (m *Model) renderFormPanel(width, height int) string {
	f := m.form
	if f == nil {
		return lipgloss.NewStyle().Width(width).Height(height).Render("")
	}
	title := "New task"
	if f.editID != "" {
		title = "Edit task"
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	lines := []string{panelTitleStyled(title, true), ""}
	for field := fieldTitle; field < fieldCount; field++ {
		active := field == f.field
		cursor := " "
		ls := labelStyle
		if active {
			cursor = "▸"
			ls = activeLabel
		}
		label := ls.Render(fmt.Sprintf("%-9s", field.String()))

		var value string
		switch field {
		case fieldTitle:
			value = f.draft.Title
		case fieldTrigger:
			value = f.draft.Trigger
		case fieldGoal:
			value = f.draft.Goal
		case fieldCategory:
			value = fmt.Sprintf("%s %s",
				lipgloss.NewStyle().Foreground(colorForCategory(f.draft.Category)).Render("●"),
				f.draft.Category.Label())
			if active {
				value = "◂ " + value + " ▸"
			}
		case fieldDuration:
			value = fmt.Sprintf("%d", f.draft.Duration)
		case fieldAnxiety:
			value = anxietyMeter(f.draft.AnxietyLevel)
		case fieldInstructions:
			value = fmt.Sprintf("%d added", len(f.draft.Instructions))
		}
		if active && f.text() != nil && field != fieldInstructions {
			value += "▌"
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s", cursor, label, value))

		if field == fieldInstructions {
			for i, step := range f.draft.Instructions {
				lines = append(lines, "              "+truncateRunes(fmt.Sprintf("%d. %s", i+1, step), width-14))
			}
			if active {
				lines = append(lines, "              + "+f.step+"▌")
			}
		}
	}

	lines = append(lines, "",
		muted.Render("Tab/↑↓ move • ←/→ adjust • Enter next or add step"),
		muted.Render("Ctrl+S save • Esc cancel"),
	)
	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
