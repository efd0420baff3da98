package research

import (
	"context"
	"time"
)

// SearchProvider returns ranked candidate sources for a topic.
type SearchProvider interface {
	Search(ctx context.Context, topic string, count int) ([]SourceCandidate, error)
}

// Extractor fetches a URL and returns its readable text.
type Extractor interface {
	Extract(ctx context.Context, url string) (ExtractedContent, error)
}

// Truncator bounds text to maxChars characters.
type Truncator interface {
	Truncate(text string, maxChars int) string
}

// Summarizer produces a bounded summary of one source.
type Summarizer interface {
	Summarize(ctx context.Context, title, text, language string) (string, error)
}

// Synthesizer combines the ordered per-source summaries into the report body.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, summaries []SourceSummary, language string) (Synthesis, error)
}

// ReportBuilder serializes a finished report.
type ReportBuilder interface {
	Build(report Report, format Format) (string, error)
}

// LanguageDetector returns a language code for text.
type LanguageDetector interface {
	Detect(text string) string
}

// Recorder receives pipeline measurements.
type Recorder interface {
	RunFinished(outcome string)
	SourceProcessed(result string)
	StageObserved(step Step, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(string)                {}
func (nopRecorder) SourceProcessed(string)            {}
func (nopRecorder) StageObserved(Step, time.Duration) {}
