// Package report renders suite reports as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/wazuhcheck/internal/domain"
	"github.com/hamed0406/wazuhcheck/internal/probe"
	"github.com/hamed0406/wazuhcheck/internal/suite"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Write renders rep to w in format f.
func Write(w io.Writer, f Format, rep *suite.Report) error {
	switch f {
	case FormatJSON:
		return JSON(w, rep)
	case FormatYAML:
		return YAML(w, rep)
	default:
		return Text(w, rep)
	}
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// Glyph is the one-character marker for a status.
func Glyph(s domain.Status) string {
	switch s {
	case domain.StatusPass:
		return green("✔")
	case domain.StatusDegraded:
		return yellow("⚠")
	default:
		return red("✖")
	}
}

// Text writes one line per check, details for anything not passing, and a
// summary line. Color follows color.NoColor.
func Text(w io.Writer, rep *suite.Report) error {
	ew := &errWriter{w: w}
	for _, r := range rep.Results {
		ew.printf("%s %-18s %s %s\n", Glyph(r.Status), r.Name, r.Message, faint(fmt.Sprintf("(%.0fms)", r.LatencyMS)))
		if r.Status != domain.StatusPass {
			details(ew, r)
		}
	}

	c := rep.Counts()
	summary := fmt.Sprintf("%d passed, %d degraded, %d failed", c[domain.StatusPass], c[domain.StatusDegraded], c[domain.StatusFail])
	if rep.Passed() {
		summary = green(summary)
	} else {
		summary = red(summary)
	}
	ew.printf("\n%s %s\n", summary, faint("run "+rep.RunID))
	return ew.err
}

func details(ew *errWriter, r probe.CheckResult) {
	ew.printf("    target:    %s\n", r.Target)
	if r.Kind != domain.KindNone {
		ew.printf("    kind:      %s\n", r.Kind)
	}
	if r.Assertion != "" {
		ew.printf("    expected:  %s\n", r.Assertion)
	}
	if r.StatusCode != 0 {
		ew.printf("    status:    %d\n", r.StatusCode)
	}
	s := r.Snapshot
	if s == nil {
		return
	}
	if s.Fallback != "" {
		ew.printf("    fallback:  %s\n", s.Fallback)
	}
	if s.URL != "" {
		ew.printf("    url:       %s\n", s.URL)
	}
	if s.Title != "" {
		ew.printf("    title:     %q\n", s.Title)
	}
	if s.ReadyState != "" {
		ew.printf("    readyState: %s\n", s.ReadyState)
	}
	keys := make([]string, 0, len(s.Found))
	for k := range s.Found {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ew.printf("    found %s: %t\n", k, s.Found[k])
	}
}

func JSON(w io.Writer, rep *suite.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output(rep))
}

func YAML(w io.Writer, rep *suite.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(output(rep)); err != nil {
		return err
	}
	return enc.Close()
}

// document is the machine-readable shape: the report plus its verdict.
type document struct {
	RunID      string              `json:"run_id" yaml:"run_id"`
	Passed     bool                `json:"passed" yaml:"passed"`
	StartedAt  time.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time           `json:"finished_at" yaml:"finished_at"`
	Results    []probe.CheckResult `json:"results" yaml:"results"`
}

func output(rep *suite.Report) document {
	return document{
		RunID:      rep.RunID,
		Passed:     rep.Passed(),
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		Results:    rep.Results,
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
