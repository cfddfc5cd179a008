package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"exposuretrack/model"
	"exposuretrack/session"
)

type activeSession struct {
	gen     int
	taskID  string
	task    model.Task
	timer   *session.Timer
	ticks   chan session.Snapshot
	expired bool
}

type tickMsg struct {
	gen  int
	snap session.Snapshot
}

func waitForTick(gen int, ticks <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ticks
		if !ok {
			return nil
		}
		return tickMsg{gen: gen, snap: snap}
	}
}

// offer keeps only the newest snapshot when the UI falls behind.
func offer(ticks chan session.Snapshot, snap session.Snapshot) {
	select {
	case ticks <- snap:
		return
	default:
	}
	select {
	case <-ticks:
	default:
	}
	select {
	case ticks <- snap:
	default:
	}
}

func (m *Model) startSession() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	if task.Status == model.StatusArchived {
		m.setStatus("Restore the task with 'r' before starting it", false)
		return nil
	}
	started, err := m.svc.Start(task.ID)
	if err != nil {
		m.report("start", err)
		return nil
	}
	m.setStatus(fmt.Sprintf("Exposure started: %s", started.Title), false)
	return m.beginSession(started)
}

func (m *Model) beginSession(task model.Task) tea.Cmd {
	m.endSession()
	m.sessGen++

	s := &activeSession{
		gen:    m.sessGen,
		taskID: task.ID,
		task:   task,
		timer:  session.New(task.Duration, m.clock),
		ticks:  make(chan session.Snapshot, 1),
	}
	m.sess = s
	m.mode = modeSession

	ticks := s.ticks
	if !s.timer.Start(func(snap session.Snapshot) { offer(ticks, snap) }) {
		s.expired = s.timer.Expired()
		return nil
	}
	return waitForTick(s.gen, s.ticks)
}

func (m *Model) endSession() {
	if m.sess == nil {
		return
	}
	m.sess.timer.Stop()
	close(m.sess.ticks)
	m.sess = nil
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if m.sess == nil || msg.gen != m.sess.gen {
		return nil
	}
	if msg.snap.Expired {
		m.sess.expired = true
		m.setStatus("Time's up. Press c to log the completion.", false)
		return nil
	}
	return waitForTick(m.sess.gen, m.sess.ticks)
}

func (m *Model) updateSessionMode(msg tea.KeyMsg) bool {
	if m.sess == nil {
		m.mode = modeNormal
		return false
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return true
	case "c", "enter":
		id, title := m.sess.taskID, m.sess.task.Title
		m.endSession()
		m.mode = modeNormal
		done, err := m.svc.MarkCompleted(id)
		if err != nil {
			m.report("complete", err)
			return false
		}
		m.focus = focusAvailable
		m.cursor = m.indexOfTask(done.ID)
		m.setStatus(fmt.Sprintf("Completed %q. Well done.", title), false)
	case "x", "esc":
		id := m.sess.taskID
		m.endSession()
		m.mode = modeNormal
		if _, err := m.svc.Cancel(id); err != nil {
			m.report("cancel", err)
			return false
		}
		m.setStatus("Session cancelled, no completion recorded", false)
	}
	m.ensureSelection()
	return false
}

func (m *Model) renderSessionPanel(width, height int) string {
	s := m.sess
	if s == nil {
		return lipgloss.NewStyle().Width(width).Height(height).Render("")
	}
	t := s.task
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)

	clock := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Render(s.timer.Format())
	if s.expired || s.timer.Expired() {
		clock = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("00:00  time's up")
	}

	barW := width - 4
	if barW > 60 {
		barW = 60
	}
	if barW < 10 {
		barW = 10
	}
	m.bar.Width = barW

	lines := []string{
		panelTitleStyled("Exposure in progress", true),
		"",
		lipgloss.NewStyle().Bold(true).Render(t.Title),
		fmt.Sprintf("%s %s • anxiety %s • %d min",
			lipgloss.NewStyle().Foreground(colorForCategory(t.Category)).Render("●"),
			t.Category.Label(),
			anxietyMeter(t.AnxietyLevel),
			t.Duration,
		),
		"",
		clock,
		m.bar.ViewAs(s.timer.Progress()),
		"",
		label.Render("Goal"),
		wrapIndented(t.Goal, width-2),
		"",
		label.Render("Steps"),
	}
	for i, step := range t.Instructions {
		lines = append(lines, wrapIndented(fmt.Sprintf("%d. %s", i+1, step), width-2))
	}
	lines = append(lines, "", muted.Render("c complete • x cancel • q quit (session resumes next launch)"))

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
