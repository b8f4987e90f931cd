// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the locale files against the message ids the Go code
// passes to i18n.T. It fails when code uses an id the primary locale lacks,
// when a secondary locale misses an id, or when a translation takes
// different arguments than the primary message.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

// Location is where a message id is used.
type Location struct {
	Filepath string
	Line     int
}

// Report collects everything the linter found.
type Report struct {
	Used      map[string][]Location
	Unknown   []string            // used in code, absent from the primary locale
	Orphaned  []string            // in the primary locale, never used
	Missing   map[string][]string // locale file -> ids it lacks
	Mismatch  map[string][]string // locale file -> ids whose arguments differ
	Primaries int
}

// Failed reports whether the report contains errors. Orphaned ids only warn.
func (r Report) Failed() bool {
	if len(r.Unknown) > 0 {
		return true
	}
	for _, ids := range r.Missing {
		if len(ids) > 0 {
			return true
		}
	}
	for _, ids := range r.Mismatch {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

var (
	callRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)
	verbRe = regexp.MustCompile(`%[-+# 0-9.]*[a-zA-Z]`)
	tmplRe = regexp.MustCompile(`\{\{\s*\.(\w+)\s*\}\}`)
)

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	report, err := Lint(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(1)
	}
	Print(os.Stdout, report)
	if report.Failed() {
		os.Exit(1)
	}
}

// Lint scans the Go sources below root and the locale files in root's
// locale directory.
func Lint(root string) (Report, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return Report{}, fmt.Errorf("scan sources: %w", err)
	}
	dir := filepath.Join(root, localesDir)
	primary, err := loadMessages(filepath.Join(dir, primaryLocale))
	if err != nil {
		return Report{}, fmt.Errorf("load primary locale: %w", err)
	}

	r := Report{Used: used, Missing: map[string][]string{}, Mismatch: map[string][]string{}, Primaries: len(primary)}
	for id := range used {
		if _, ok := primary[id]; !ok {
			r.Unknown = append(r.Unknown, id)
		}
	}
	for id := range primary {
		if _, ok := used[id]; !ok {
			r.Orphaned = append(r.Orphaned, id)
		}
	}
	sort.Strings(r.Unknown)
	sort.Strings(r.Orphaned)

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return Report{}, err
	}
	for _, file := range files {
		name := filepath.Base(file)
		if name == primaryLocale {
			continue
		}
		other, err := loadMessages(file)
		if err != nil {
			return Report{}, fmt.Errorf("load %s: %w", name, err)
		}
		for id, msg := range primary {
			tr, ok := other[id]
			switch {
			case !ok:
				r.Missing[name] = append(r.Missing[name], id)
			case signature(tr) != signature(msg):
				r.Mismatch[name] = append(r.Mismatch[name], id)
			}
		}
		sort.Strings(r.Missing[name])
		sort.Strings(r.Mismatch[name])
	}
	return r, nil
}

// Print writes a human readable summary.
func Print(w io.Writer, r Report) {
	fmt.Fprintf(w, "%d message ids used in code, %d in %s\n", len(r.Used), r.Primaries, primaryLocale)
	for _, id := range r.Unknown {
		loc := r.Used[id][0]
		fmt.Fprintf(w, "  unknown: %s (%s:%d)\n", id, loc.Filepath, loc.Line)
	}
	for _, id := range r.Orphaned {
		fmt.Fprintf(w, "  orphaned: %s\n", id)
	}
	files := make([]string, 0, len(r.Missing)+len(r.Mismatch))
	for f := range r.Missing {
		files = append(files, f)
	}
	for f := range r.Mismatch {
		if _, ok := r.Missing[f]; !ok {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	for _, f := range files {
		for _, id := range r.Missing[f] {
			fmt.Fprintf(w, "  %s missing: %s\n", f, id)
		}
		for _, id := range r.Mismatch[f] {
			fmt.Fprintf(w, "  %s arguments differ: %s\n", f, id)
		}
	}
	if r.Failed() {
		fmt.Fprintln(w, "FAIL")
		return
	}
	fmt.Fprintln(w, "ok")
}

// findUsedKeys returns the ids of every i18n.T call outside tests.
func findUsedKeys(root string) (map[string][]Location, error) {
	keys := make(map[string][]Location)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for i, line := range strings.Split(string(content), "\n") {
			for _, m := range callRe.FindAllStringSubmatch(line, -1) {
				keys[m[1]] = append(keys[m[1]], Location{Filepath: path, Line: i + 1})
			}
		}
		return nil
	})
	return keys, err
}

// loadMessages reads a flat locale file.
func loadMessages(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var msgs map[string]string
	if err := yaml.Unmarshal(content, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// signature describes the arguments a message consumes: its printf verbs in
// order followed by its sorted template fields.
func signature(msg string) string {
	verbs := verbRe.FindAllString(strings.ReplaceAll(msg, "%%", ""), -1)
	for i, v := range verbs {
		verbs[i] = v[len(v)-1:]
	}
	var fields []string
	for _, m := range tmplRe.FindAllStringSubmatch(msg, -1) {
		fields = append(fields, m[1])
	}
	sort.Strings(fields)
	return strings.Join(verbs, "") + "|" + strings.Join(fields, ",")
}
