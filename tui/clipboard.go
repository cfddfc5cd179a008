package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var errNoClipboard = errors.New("no clipboard command found (install wl-copy or xclip)")

// clipboardTools are tried in order; the first one on PATH wins.
var clipboardTools = [][]string{
	{"wl-copy", "--type", "text/plain"},
	{"xclip", "-in", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
	{"pbcopy"},
}

type clipboardMsg struct {
	lines int
	err   error
}

// copyCmd pipes text into the first available clipboard tool off the UI
// goroutine and reports back with a clipboardMsg.
func copyCmd(text string, lines int) tea.Cmd {
	return func() tea.Msg {
		for _, tool := range clipboardTools {
			bin, err := exec.LookPath(tool[0])
			if err != nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			cmd := exec.CommandContext(ctx, bin, tool[1:]...)
			cmd.Stdin = strings.NewReader(text)
			if err := cmd.Run(); err != nil {
				return clipboardMsg{err: fmt.Errorf("%s: %w", tool[0], err)}
			}
			return clipboardMsg{lines: lines}
		}
		return clipboardMsg{err: errNoClipboard}
	}
}

func (m *Model) handleClipboard(msg clipboardMsg) {
	if msg.err != nil {
		m.setStatus("Copy failed: "+msg.err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %d steps to the clipboard", msg.lines), false)
}
