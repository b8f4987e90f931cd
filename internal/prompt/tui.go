// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/tapscan/internal/scan"
)

// TUI shows each prompt as a modal dialog with one button per choice.
type TUI struct {
	in  io.Reader
	out io.Writer
}

func NewTUI(in io.Reader, out io.Writer) *TUI {
	return &TUI{in: in, out: out}
}

func (t *TUI) Confirm(ctx context.Context, p scan.Prompt) (scan.Decision, error) {
	prog := tea.NewProgram(newDialog(p),
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return scan.Cancel, ctx.Err()
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return scan.Cancel, nil
		}
		return scan.Cancel, fmt.Errorf("run prompt dialog: %w", err)
	}
	d, ok := final.(dialog)
	if !ok || !d.done {
		return scan.Cancel, nil
	}
	return d.decision, nil
}

// dialog is the bubbletea model behind TUI.
type dialog struct {
	prompt  scan.Prompt
	choices []scan.Decision
	focus   int
	width   int

	keys keyMap
	help help.Model

	done     bool
	decision scan.Decision
}

func newDialog(p scan.Prompt) dialog {
	return dialog{
		prompt:   p,
		choices:  choices(p),
		width:    60,
		keys:     defaultKeyMap,
		help:     help.New(),
		decision: scan.Cancel,
	}
}

func (d dialog) Init() tea.Cmd { return nil }

func (d dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = min(max(msg.Width-4, 30), 80)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, d.keys.Left):
			d.focus = (d.focus + len(d.choices) - 1) % len(d.choices)
		case key.Matches(msg, d.keys.Right):
			d.focus = (d.focus + 1) % len(d.choices)
		case key.Matches(msg, d.keys.Confirm):
			d.done = true
			d.decision = d.choices[d.focus]
			return d, tea.Quit
		case key.Matches(msg, d.keys.Cancel):
			d.done = true
			d.decision = scan.Cancel
			if d.prompt.Kind == scan.PromptAttestationWarning {
				d.decision = scan.Accept
			}
			return d, tea.Quit
		}
	}
	return d, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("60")).
			Bold(true)
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("239")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("239")).
			Padding(0, 3)
	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color("60")).
				BorderForeground(lipgloss.Color("60"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
)

func (d dialog) View() string {
	if d.done {
		return ""
	}
	titleColor := titleStyle
	if d.prompt.Kind == scan.PromptUntrustedCard {
		titleColor = titleColor.Background(lipgloss.Color("124"))
	}
	header := titleColor.Width(d.width).Render(" " + d.prompt.Title)
	message := lipgloss.NewStyle().Width(d.width-4).Padding(1, 2, 0, 2).Render(d.prompt.Message)

	buttons := make([]string, 0, 2*len(d.choices))
	for i, c := range d.choices {
		style := buttonStyle
		if i == d.focus {
			style = focusedButtonStyle
		}
		if i > 0 {
			buttons = append(buttons, "  ")
		}
		buttons = append(buttons, style.Render(Label(d.prompt, c)))
	}
	row := lipgloss.NewStyle().Padding(1, 2, 0, 2).Render(lipgloss.JoinHorizontal(lipgloss.Center, buttons...))
	helpLine := lipgloss.NewStyle().Padding(1, 2, 0, 2).Render(d.help.View(d.keys))

	return boxStyle.Width(d.width).Render(lipgloss.JoinVertical(lipgloss.Left, header, message, row, helpLine)) + "\n"
}
