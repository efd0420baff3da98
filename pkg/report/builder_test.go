package report

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/mikeboe/research-assistant/pkg/research"
)

func sampleReport() research.Report {
	return research.Report{
		Summary:    "Solar storage is getting cheaper [1]. Grid operators disagree on timelines [2][3].",
		KeyPoints:  []string{"Costs fell", "Capacity grew", "Policy lags", "Supply chains matter", "Recycling is early"},
		Comparison: "Sources [1] and [2] agree on cost trends while [3] is more cautious.",
		Citations: []research.Citation{
			{Number: 1, Title: "Battery prices", URL: "https://a.example/1"},
			{Number: 2, Title: "Grid report <2024>", URL: "https://b.example/2?x=1&y=2"},
			{Number: 3, Title: "ذخیره‌سازی انرژی", URL: "https://c.example/3"},
		},
		Language: "en",
	}
}

func TestMarkdownLayout(t *testing.T) {
	got := Markdown(sampleReport())

	sections := []string{"# Summary\n\n", "# Key Points\n\n", "# Comparison\n\n", "# Citations\n\n"}
	last := -1
	for _, s := range sections {
		i := strings.Index(got, s)
		if i < 0 {
			t.Fatalf("section %q missing from:\n%s", s, got)
		}
		if i <= last {
			t.Errorf("section %q out of order", s)
		}
		last = i
	}

	for _, want := range []string{
		"- Costs fell\n",
		"- Recycling is early\n",
		"[1] Battery prices - https://a.example/1\n",
		"[3] ذخیره‌سازی انرژی - https://c.example/3\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := sampleReport()
	doc, err := JSON(in)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(doc, "ذخیره‌سازی") {
		t.Errorf("non-ASCII text was escaped: %s", doc)
	}
	if !strings.Contains(doc, "&y=2") || !strings.Contains(doc, "<2024>") {
		t.Errorf("HTML characters were escaped: %s", doc)
	}
	if !strings.HasPrefix(doc, "{\n  \"summary\"") {
		t.Errorf("unexpected indentation: %s", doc[:20])
	}

	out, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch\nin:  %+v\nout: %+v", in, out)
	}
}

func TestJSONEmptyCollections(t *testing.T) {
	doc, err := JSON(research.Report{Summary: "s", Comparison: "c"})
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(doc, `"key_points": []`) || !strings.Contains(doc, `"citations": []`) {
		t.Errorf("empty collections should render as arrays: %s", doc)
	}
}

func TestParseJSONRejectsUnknownFields(t *testing.T) {
	if _, err := ParseJSON(`{"summary":"s","extra":1}`); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestBuild(t *testing.T) {
	b := NewBuilder()
	tests := []struct {
		name    string
		format  research.Format
		prefix  string
		wantErr bool
	}{
		{"markdown", research.FormatMarkdown, "# Summary", false},
		{"json", research.FormatJSON, "{", false},
		{"unknown", research.Format("xml"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(sampleReport(), tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("Build() = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}

func TestMarkdownLocalizedTitles(t *testing.T) {
	tests := []struct {
		language string
		want     []string
	}{
		{"en", []string{"# Summary\n", "# Key Points\n", "# Comparison\n", "# Citations\n"}},
		{"de", []string{"# Zusammenfassung\n", "# Kernpunkte\n", "# Vergleich\n", "# Quellen\n"}},
		{"fa", []string{"# خلاصه\n", "# نکات کلیدی\n", "# مقایسه\n", "# منابع\n"}},
		{"ar", []string{"# ملخص\n", "# النقاط الرئيسية\n", "# المقارنة\n", "# المراجع\n"}},
		{"", []string{"# Summary\n", "# Key Points\n", "# Comparison\n", "# Citations\n"}},
		{"sv", []string{"# Summary\n", "# Key Points\n", "# Comparison\n", "# Citations\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			r := sampleReport()
			r.Language = tt.language
			got := Markdown(r)
			if !strings.HasPrefix(got, tt.want[0]) {
				t.Errorf("Markdown() starts with %q, want %q", strings.SplitN(got, "\n", 2)[0], tt.want[0])
			}
			for _, heading := range tt.want {
				if strings.Count(got, heading) != 1 {
					t.Errorf("heading %q appears %d times", heading, strings.Count(got, heading))
				}
			}
		})
	}
}

// citationLines returns the "[n] Title - URL" lines of a Markdown report.
func citationLines(md string) []string {
	var out []string
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "[") {
			out = append(out, line)
		}
	}
	return out
}

func TestJSONToMarkdownCitations(t *testing.T) {
	in := sampleReport()
	doc, err := JSON(in)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	parsed, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	md := Markdown(parsed)
	if md != Markdown(in) {
		t.Errorf("markdown from parsed JSON differs from markdown of the original report")
	}

	lines := citationLines(md)
	if len(lines) != len(parsed.Citations) {
		t.Fatalf("markdown has %d citations, JSON has %d", len(lines), len(parsed.Citations))
	}
	for i, c := range parsed.Citations {
		want := fmt.Sprintf("[%d] %s - %s", c.Number, c.Title, c.URL)
		if lines[i] != want {
			t.Errorf("citation %d = %q, want %q", i, lines[i], want)
		}
	}

	lastURL := -1
	for _, c := range in.Citations {
		pos := strings.Index(doc, `"url": "`+c.URL+`"`)
		if pos <= lastURL {
			t.Errorf("JSON lists %s out of order", c.URL)
		}
		lastURL = pos
	}
	if !strings.Contains(md, parsed.Summary) || !strings.Contains(md, parsed.Comparison) {
		t.Error("markdown is missing summary or comparison text")
	}
}

func TestJSONKeepsEmptyLanguage(t *testing.T) {
	doc, err := JSON(research.Report{Summary: "s", Comparison: "c"})
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(doc, `"language": ""`) {
		t.Errorf("language key missing: %s", doc)
	}
}
