// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/toeirei/tapscan/internal/scan"
)

var (
	offline = scan.Prompt{
		Kind:    scan.PromptOfflineVerification,
		CardID:  "AB01000000012345",
		Title:   "Offline verification",
		Message: "verify?",
		Choices: []scan.Decision{scan.Accept, scan.Retry, scan.Cancel},
	}
	untrusted = scan.Prompt{
		Kind:    scan.PromptUntrustedCard,
		Title:   "Unverified card",
		Choices: []scan.Decision{scan.Cancel, scan.Accept},
	}
	warning = scan.Prompt{
		Kind:    scan.PromptAttestationWarning,
		Title:   "Attestation warning",
		Choices: []scan.Decision{scan.Accept},
	}
)

func TestStatic(t *testing.T) {
	cases := []struct {
		name   string
		answer scan.Decision
		prompt scan.Prompt
		want   scan.Decision
	}{
		{"accept offered", scan.Accept, offline, scan.Accept},
		{"retry offered", scan.Retry, offline, scan.Retry},
		{"retry not offered", scan.Retry, untrusted, scan.Cancel},
		{"warning always acknowledged", scan.Cancel, warning, scan.Accept},
		{"cancel", scan.Cancel, untrusted, scan.Cancel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Static{Decision: c.answer}.Confirm(context.Background(), c.prompt)
			if err != nil || got != c.want {
				t.Fatalf("Confirm = %v, %v; want %v", got, err, c.want)
			}
		})
	}
}

func TestLine_Answers(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  scan.Decision
	}{
		{"number", "2\n", scan.Retry},
		{"empty picks default", "\n", scan.Accept},
		{"decision name", "cancel\n", scan.Cancel},
		{"invalid then valid", "9\nfoo\n3\n", scan.Cancel},
		{"end of input cancels", "", scan.Cancel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			l := NewLine(strings.NewReader(c.input), &out)
			got, err := l.Confirm(context.Background(), offline)
			if err != nil || got != c.want {
				t.Fatalf("Confirm = %v, %v; want %v", got, err, c.want)
			}
			if !strings.Contains(out.String(), "1) ") || !strings.Contains(out.String(), offline.Title) {
				t.Fatalf("prompt not rendered: %q", out.String())
			}
		})
	}
}

func TestLine_InvalidAnswerIsReported(t *testing.T) {
	var out bytes.Buffer
	l := NewLine(strings.NewReader("7\n1\n"), &out)
	if _, err := l.Confirm(context.Background(), untrusted); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !strings.Contains(out.String(), `"7"`) {
		t.Fatalf("invalid answer not echoed: %q", out.String())
	}
}

func TestLine_ReusedAcrossPrompts(t *testing.T) {
	l := NewLine(strings.NewReader("2\n1\n"), io.Discard)
	ctx := context.Background()
	if d, _ := l.Confirm(ctx, offline); d != scan.Retry {
		t.Fatalf("first answer = %v", d)
	}
	if d, _ := l.Confirm(ctx, offline); d != scan.Accept {
		t.Fatalf("second answer = %v", d)
	}
}

func TestLine_ContextCancel(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	d, err := NewLine(r, io.Discard).Confirm(ctx, offline)
	if !errors.Is(err, context.DeadlineExceeded) || d != scan.Cancel {
		t.Fatalf("Confirm = %v, %v", d, err)
	}
}

func press(t *testing.T, d dialog, keys ...tea.KeyMsg) (dialog, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var m tea.Model
		m, cmd = d.Update(k)
		d = m.(dialog)
	}
	return d, cmd
}

func TestDialog_Navigation(t *testing.T) {
	right := tea.KeyMsg{Type: tea.KeyRight}
	left := tea.KeyMsg{Type: tea.KeyLeft}
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	esc := tea.KeyMsg{Type: tea.KeyEsc}

	cases := []struct {
		name   string
		prompt scan.Prompt
		keys   []tea.KeyMsg
		want   scan.Decision
	}{
		{"default choice", offline, []tea.KeyMsg{enter}, scan.Accept},
		{"move right", offline, []tea.KeyMsg{right, enter}, scan.Retry},
		{"wrap left", offline, []tea.KeyMsg{left, enter}, scan.Cancel},
		{"escape cancels", offline, []tea.KeyMsg{right, esc}, scan.Cancel},
		{"escape acknowledges warning", warning, []tea.KeyMsg{esc}, scan.Accept},
		{"untrusted default is cancel", untrusted, []tea.KeyMsg{enter}, scan.Cancel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, cmd := press(t, newDialog(c.prompt), c.keys...)
			if !d.done || d.decision != c.want {
				t.Fatalf("decision = %v (done %v), want %v", d.decision, d.done, c.want)
			}
			if cmd == nil {
				t.Fatalf("expected quit command")
			}
		})
	}
}

func TestDialog_View(t *testing.T) {
	d := newDialog(offline)
	view := d.View()
	for _, want := range []string{offline.Title, "Accept", "Retry online", "Cancel"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
	d, _ = press(t, d, tea.KeyMsg{Type: tea.KeyEnter})
	if d.View() != "" {
		t.Fatalf("finished dialog must render nothing")
	}
}

func TestFromConfig(t *testing.T) {
	f, err := openDevNull(t)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for mode, want := range map[string]string{
		"":       "*prompt.Line",
		"auto":   "*prompt.Line",
		"line":   "*prompt.Line",
		"tui":    "*prompt.TUI",
		"accept": "prompt.Static",
		"Cancel": "prompt.Static",
	} {
		c, err := FromConfig(mode, f, f)
		if err != nil {
			t.Fatalf("FromConfig(%q): %v", mode, err)
		}
		if got := typeName(c); got != want {
			t.Fatalf("FromConfig(%q) = %s, want %s", mode, got, want)
		}
	}
	if _, err := FromConfig("gui", f, f); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
