// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/toeirei/tapscan/internal/i18n"
	"github.com/toeirei/tapscan/internal/scan"
)

type lineResult struct {
	text string
	err  error
}

// Line asks on a plain text stream. Choices are numbered from 1; an empty
// answer picks the first one. End of input cancels.
type Line struct {
	out io.Writer
	in  io.Reader

	once  sync.Once
	lines chan lineResult
}

func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: in, out: out}
}

// pump reads lines in the background so Confirm can honour ctx while the
// reader blocks.
func (l *Line) pump() {
	l.lines = make(chan lineResult)
	go func() {
		sc := bufio.NewScanner(l.in)
		for sc.Scan() {
			l.lines <- lineResult{text: sc.Text()}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		for {
			l.lines <- lineResult{err: err}
		}
	}()
}

func (l *Line) Confirm(ctx context.Context, p scan.Prompt) (scan.Decision, error) {
	l.once.Do(l.pump)
	opts := choices(p)

	fmt.Fprintf(l.out, "\n%s\n%s\n", p.Title, p.Message)
	keys := make([]string, len(opts))
	for i, d := range opts {
		fmt.Fprintf(l.out, "  %d) %s\n", i+1, Label(p, d))
		keys[i] = strconv.Itoa(i + 1)
	}

	for {
		fmt.Fprint(l.out, i18n.T("prompt.line.select", strings.Join(keys, "/")))
		var res lineResult
		select {
		case <-ctx.Done():
			return scan.Cancel, ctx.Err()
		case res = <-l.lines:
		}
		if res.err == io.EOF {
			return scan.Cancel, nil
		}
		if res.err != nil {
			return scan.Cancel, res.err
		}
		if d, ok := parseAnswer(p, opts, res.text); ok {
			return d, nil
		}
		fmt.Fprintln(l.out, i18n.T("prompt.line.invalid", res.text))
	}
}

// parseAnswer accepts a choice number, a decision name or its label.
func parseAnswer(p scan.Prompt, opts []scan.Decision, text string) (scan.Decision, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return opts[0], true
	}
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(opts) {
			return opts[n-1], true
		}
		return scan.Cancel, false
	}
	for _, d := range opts {
		if strings.EqualFold(text, d.String()) || strings.EqualFold(text, Label(p, d)) {
			return d, true
		}
	}
	return scan.Cancel, false
}
