package tui

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"exposuretrack/app"
	"exposuretrack/model"
	"exposuretrack/session"
)

type focusPane int

const (
	focusAvailable focusPane = iota
	focusArchived
)

func (f focusPane) String() string {
	if f == focusArchived {
		return "archived"
	}
	return "available"
}

func (f focusPane) status() model.Status {
	if f == focusArchived {
		return model.StatusArchived
	}
	return model.StatusAvailable
}

type uiMode int

const (
	modeNormal uiMode = iota
	modeForm
	modeConfirmDelete
	modeSession
)

type Option func(*Model)

// WithClock sets the time source of session countdowns.
func WithClock(c session.Clock) Option {
	return func(m *Model) {
		if c != nil {
			m.clock = c
		}
	}
}

type Model struct {
	svc         *app.Service
	clock       session.Clock
	unsubscribe func()

	focus  focusPane
	sort   model.SortOrder
	mode   uiMode
	cursor int

	form *taskForm

	confirmID   string
	confirmName string

	sess    *activeSession
	sessGen int
	bar     progress.Model
	initCmd tea.Cmd

	showHelp     bool
	showInsights bool

	status    string
	statusErr bool

	width  int
	height int
}

func NewModel(svc *app.Service, startupStatus string, opts ...Option) *Model {
	status := strings.TrimSpace(startupStatus)
	if status == "" {
		status = "Ready"
	}

	m := &Model{
		svc:    svc,
		clock:  session.SystemClock{},
		focus:  focusAvailable,
		sort:   model.SortByTitle,
		mode:   modeNormal,
		status: status,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.unsubscribe = svc.Subscribe(m.onStoreEvent)

	if task, ok := svc.Ongoing(); ok {
		m.initCmd = m.beginSession(task)
		m.setStatus(fmt.Sprintf("Resumed session for %q", task.Title), false)
	} else if len(svc.All()) == 0 {
		m.setStatus("No tasks yet. Press 'a' to create your first exposure.", false)
	}
	m.ensureSelection()
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.initCmd
}

// Close stops any running countdown and detaches from the store.
func (m *Model) Close() {
	m.endSession()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, m.handleTick(msg)
	case clipboardMsg:
		m.handleClipboard(msg)
	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			m.updateFormMode(msg)
		case modeConfirmDelete:
			m.updateConfirmMode(msg)
		case modeSession:
			if quit := m.updateSessionMode(msg); quit {
				m.Close()
				return m, tea.Quit
			}
		default:
			quit, cmd := m.updateNormalMode(msg)
			if quit {
				m.Close()
				return m, tea.Quit
			}
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) (bool, tea.Cmd) {
	if m.showHelp || m.showInsights {
		switch msg.String() {
		case "ctrl+c", "q":
			return true, nil
		case "esc", "?", "i":
			m.showHelp = false
			m.showInsights = false
			m.setStatus("Overlay closed", false)
		}
		return false, nil
	}

	var cmd tea.Cmd
	switch msg.String() {
	case "ctrl+c", "q":
		return true, nil
	case "tab":
		if m.focus == focusAvailable {
			m.focus = focusArchived
		} else {
			m.focus = focusAvailable
		}
		m.cursor = 0
		m.setStatus(fmt.Sprintf("Showing %s tasks", m.focus.String()), false)
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.visibleTasks()) - 1
	case "o":
		m.sort = m.sort.Next()
		m.setStatus("Sorted by "+strings.ToLower(string(m.sort)), false)
	case "a":
		m.startAdd()
	case "e":
		m.startEdit()
	case "enter", "s":
		cmd = m.startSession()
	case "c":
		m.logCompletion()
	case "r":
		m.toggleArchived()
	case "d":
		m.startDeleteConfirm()
	case "u":
		cmd = m.undo()
	case "y":
		cmd = m.copyInstructions()
	case "i":
		m.showInsights = true
		m.setStatus("Insights (press i or Esc to close)", false)
	case "?":
		m.showHelp = true
		m.setStatus("Shortcuts (press ? or Esc to close)", false)
	}

	m.ensureSelection()
	return false, cmd
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.confirmDelete()
	case "n", "esc", "enter":
		m.confirmID = ""
		m.confirmName = ""
		m.mode = modeNormal
		m.setStatus("Cancelled", false)
	}
}

func (m *Model) moveCursor(delta int) {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(tasks)-1)
}

func (m *Model) startAdd() {
	if m.focus == focusArchived {
		m.setStatus("New tasks go to the available list. Press Tab to switch.", false)
		return
	}
	m.form = newTaskForm(model.NewDraft(), "")
	m.mode = modeForm
	m.setStatus("New task", false)
}

func (m *Model) startEdit() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.form = newTaskForm(model.DraftFrom(task), task.ID)
	m.mode = modeForm
	m.setStatus(fmt.Sprintf("Editing %q", task.Title), false)
}

func (m *Model) submitForm() {
	f := m.form
	if f == nil {
		m.mode = modeNormal
		return
	}
	f.commitStep()

	if f.editID == "" {
		task, err := f.draft.NewTask()
		if err != nil {
			m.setStatus(formError(err), true)
			return
		}
		added := m.svc.Add(task)
		m.closeForm()
		m.focus = focusAvailable
		m.cursor = m.indexOfTask(added.ID)
		m.setStatus(fmt.Sprintf("Added %q", added.Title), false)
		return
	}

	current, err := m.svc.Get(f.editID)
	if err != nil {
		m.closeForm()
		m.report("edit", err)
		return
	}
	edited, err := f.draft.ApplyTo(current)
	if err != nil {
		m.setStatus(formError(err), true)
		return
	}
	if err := m.svc.Update(edited); err != nil {
		m.closeForm()
		m.report("edit", err)
		return
	}
	m.closeForm()
	m.cursor = m.indexOfTask(edited.ID)
	m.setStatus(fmt.Sprintf("Saved %q • u undoes", edited.Title), false)
}

func (m *Model) closeForm() {
	m.form = nil
	m.mode = modeNormal
}

func (m *Model) logCompletion() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	done, err := m.svc.MarkCompleted(task.ID)
	if err != nil {
		m.report("complete", err)
		return
	}
	m.focus = focusAvailable
	m.cursor = m.indexOfTask(done.ID)
	m.setStatus(fmt.Sprintf("Logged a completion for %q • u undoes", done.Title), false)
}

func (m *Model) toggleArchived() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	if task.Status == model.StatusArchived {
		if err := m.svc.Unarchive(task.ID); err != nil {
			m.report("restore", err)
			return
		}
		m.setStatus(fmt.Sprintf("Restored %q • u undoes", task.Title), false)
		return
	}
	if err := m.svc.Archive(task.ID); err != nil {
		m.report("archive", err)
		return
	}
	m.setStatus(fmt.Sprintf("Archived %q • u undoes", task.Title), false)
}

func (m *Model) startDeleteConfirm() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.mode = modeConfirmDelete
	m.confirmID = task.ID
	m.confirmName = task.Title
}

func (m *Model) confirmDelete() {
	if err := m.svc.Delete(m.confirmID); err != nil {
		m.report("delete", err)
	} else {
		m.setStatus(fmt.Sprintf("Deleted %q • u undoes", m.confirmName), false)
	}
	m.mode = modeNormal
	m.confirmID = ""
	m.confirmName = ""
	m.ensureSelection()
}

// undo reverts the last change. A task that comes back as ongoing gets its
// session screen back, the same way it does on launch.
func (m *Model) undo() tea.Cmd {
	if err := m.svc.Undo(); err != nil {
		if errors.Is(err, app.ErrNothingToUndo) {
			m.setStatus("Nothing to undo", false)
			return nil
		}
		m.report("undo", err)
		return nil
	}
	if task, ok := m.svc.Ongoing(); ok && m.sess == nil {
		m.setStatus(fmt.Sprintf("Undone • session for %q resumed", task.Title), false)
		return m.beginSession(task)
	}
	m.setStatus("Undone", false)
	return nil
}

func (m *Model) copyInstructions() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	if len(task.Instructions) == 0 {
		m.setStatus("This task has no instructions to copy", false)
		return nil
	}
	var b strings.Builder
	b.WriteString(task.Title)
	for i, step := range task.Instructions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, strings.ReplaceAll(step, "\n", " "))
	}
	m.setStatus("Copying steps...", false)
	return copyCmd(b.String(), len(task.Instructions))
}

// report turns a store error into a status line.
func (m *Model) report(action string, err error) {
	switch {
	case errors.Is(err, app.ErrTaskNotFound):
		m.setStatus("That task no longer exists", true)
	case errors.Is(err, app.ErrSessionActive):
		m.setStatus("Another exposure is already in progress", true)
	default:
		m.setStatus(fmt.Sprintf("Could not %s: %v", action, err), true)
	}
}

func (m *Model) onStoreEvent(ev app.Event) {
	if m.sess != nil {
		if t, ok := m.svc.Ongoing(); !ok || t.ID != m.sess.taskID {
			m.endSession()
			m.mode = modeNormal
			if ev.Kind == app.EventUndone {
				m.setStatus("Session closed by undo", false)
			}
		}
	}
	m.ensureSelection()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) ensureSelection() {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(tasks)-1)
}

func (m *Model) visibleTasks() []model.Task {
	return m.svc.Tasks(m.focus.status(), m.sort)
}

func (m *Model) selectedTask() (model.Task, bool) {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	if m.cursor < 0 || m.cursor >= len(tasks) {
		m.cursor = 0
	}
	return tasks[m.cursor], true
}

func (m *Model) indexOfTask(taskID string) int {
	tasks := m.visibleTasks()
	for i, t := range tasks {
		if t.ID == taskID {
			return i
		}
	}
	if len(tasks) == 0 {
		return 0
	}
	return len(tasks) - 1
}

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	switch {
	case n <= 0:
		return ""
	case utf8.RuneCountInString(s) <= n:
		return s
	case n == 1:
		return "…"
	}
	return string([]rune(s)[:n-1]) + "…"
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func trimLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
