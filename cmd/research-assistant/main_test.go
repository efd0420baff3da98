package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikeboe/research-assistant/pkg/research"
)

type scriptedRunner struct {
	events []research.Event
}

func (s scriptedRunner) Run(ctx context.Context, req research.Request) (<-chan research.Event, error) {
	if _, err := req.Normalize(); err != nil {
		return nil, err
	}
	ch := make(chan research.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func TestRunWritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	r := scriptedRunner{events: []research.Event{
		{Type: research.EventProgress, Progress: &research.Progress{Step: research.StepSearching, Message: "Searching..."}},
		{Type: research.EventComplete, Result: &research.Result{Result: "# Summary\n\nok", Format: research.FormatMarkdown}},
	}}

	var out bytes.Buffer
	if err := run(context.Background(), r, research.Request{Topic: "t"}, path, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Summary\n\nok" {
		t.Errorf("report = %q", got)
	}
	if !strings.Contains(out.String(), "[searching] Searching...") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunReportsErrors(t *testing.T) {
	r := scriptedRunner{events: []research.Event{
		{Type: research.EventError, Message: "Unable to search. Please try again."},
	}}
	err := run(context.Background(), r, research.Request{Topic: "t"}, filepath.Join(t.TempDir(), "x.md"), &bytes.Buffer{})
	if err == nil || err.Error() != "Unable to search. Please try again." {
		t.Errorf("run() error = %v", err)
	}

	err = run(context.Background(), r, research.Request{Topic: " "}, "", &bytes.Buffer{})
	if err == nil || err.Error() != "Topic cannot be empty." {
		t.Errorf("run() validation error = %v", err)
	}
}

func TestReportFilename(t *testing.T) {
	now := time.Unix(1700000000, 0)
	if got := reportFilename(research.FormatMarkdown, now); got != "research_1700000000.md" {
		t.Errorf("markdown filename = %q", got)
	}
	if got := reportFilename(research.FormatJSON, now); got != "research_1700000000.json" {
		t.Errorf("json filename = %q", got)
	}
}

func TestPromptTopic(t *testing.T) {
	var out bytes.Buffer
	got, err := promptTopic(strings.NewReader("  quantum batteries \n"), &out)
	if err != nil {
		t.Fatalf("promptTopic() error = %v", err)
	}
	if got != "quantum batteries" {
		t.Errorf("promptTopic() = %q", got)
	}
	if out.String() != "Enter research topic: " {
		t.Errorf("prompt = %q", out.String())
	}
}
