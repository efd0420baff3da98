// Package report renders finished research reports as Markdown or JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikeboe/research-assistant/pkg/research"
)

// Builder renders research.Report values. It is stateless.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders r in the requested format.
func (b *Builder) Build(r research.Report, format research.Format) (string, error) {
	switch format {
	case research.FormatMarkdown:
		return Markdown(r), nil
	case research.FormatJSON:
		return JSON(r)
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
}

// Titles are the Markdown section headings in one language.
type Titles struct {
	Summary    string
	KeyPoints  string
	Comparison string
	Citations  string
}

var sectionTitles = map[string]Titles{
	"en": {"Summary", "Key Points", "Comparison", "Citations"},
	"fa": {"خلاصه", "نکات کلیدی", "مقایسه", "منابع"},
	"ar": {"ملخص", "النقاط الرئيسية", "المقارنة", "المراجع"},
	"ja": {"要約", "重要ポイント", "比較", "引用"},
	"zh": {"摘要", "要点", "比较", "引用"},
	"de": {"Zusammenfassung", "Kernpunkte", "Vergleich", "Quellen"},
	"fr": {"Résumé", "Points Clés", "Comparaison", "Citations"},
	"es": {"Resumen", "Puntos Clave", "Comparación", "Citas"},
}

// SectionTitles returns the headings for language, falling back to English.
func SectionTitles(language string) Titles {
	if t, ok := sectionTitles[strings.ToLower(language)]; ok {
		return t
	}
	return sectionTitles["en"]
}

// Markdown renders the four report sections under headings in the report's
// language. Citations are listed in number order as "[n] Title - URL".
func Markdown(r research.Report) string {
	titles := SectionTitles(r.Language)
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", titles.Summary)
	sb.WriteString(strings.TrimSpace(r.Summary))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", titles.KeyPoints)
	for _, p := range r.KeyPoints {
		sb.WriteString("- ")
		sb.WriteString(strings.TrimSpace(p))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "# %s\n\n", titles.Comparison)
	sb.WriteString(strings.TrimSpace(r.Comparison))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", titles.Citations)
	for _, c := range r.Citations {
		fmt.Fprintf(&sb, "[%d] %s - %s\n", c.Number, c.Title, c.URL)
	}
	return sb.String()
}

type jsonReport struct {
	Summary    string              `json:"summary"`
	KeyPoints  []string            `json:"key_points"`
	Comparison string              `json:"comparison"`
	Citations  []research.Citation `json:"citations"`
	Language   string              `json:"language"`
}

// JSON renders r as an indented object. Non-ASCII text and HTML characters
// are written as-is.
func JSON(r research.Report) (string, error) {
	doc := jsonReport{
		Summary:    r.Summary,
		KeyPoints:  r.KeyPoints,
		Comparison: r.Comparison,
		Citations:  r.Citations,
		Language:   r.Language,
	}
	if doc.KeyPoints == nil {
		doc.KeyPoints = []string{}
	}
	if doc.Citations == nil {
		doc.Citations = []research.Citation{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ParseJSON reads a document produced by JSON back into a Report.
func ParseJSON(doc string) (research.Report, error) {
	var in jsonReport
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return research.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return research.Report{
		Summary:    in.Summary,
		KeyPoints:  in.KeyPoints,
		Comparison: in.Comparison,
		Citations:  in.Citations,
		Language:   in.Language,
	}, nil
}
