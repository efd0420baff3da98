package research

import (
	"strings"
	"unicode/utf8"
)

const (
	MinSources     = 3
	MaxSources     = 10
	DefaultSources = 5
	MaxTopicLength = 500

	KeyPointsMin = 5
	KeyPointsMax = 7
)

// Format is the serialized representation of a finished report.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Request is a single research request. Use Normalize before handing it to
// anything that assumes the invariants hold.
type Request struct {
	Topic string
	// SourceCount of zero selects DefaultSources.
	SourceCount int
	// Format of "" selects FormatMarkdown.
	Format Format
}

// Normalize trims the topic, applies defaults and validates the result.
// The returned error is always a validation *Error.
func (r Request) Normalize() (Request, error) {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return Request{}, ErrEmptyTopic
	}
	if utf8.RuneCountInString(r.Topic) > MaxTopicLength {
		return Request{}, ErrTopicTooLong
	}

	if r.SourceCount == 0 {
		r.SourceCount = DefaultSources
	}
	if r.SourceCount < MinSources || r.SourceCount > MaxSources {
		return Request{}, ErrSourceCount
	}

	switch r.Format {
	case "":
		r.Format = FormatMarkdown
	case FormatJSON, FormatMarkdown:
	default:
		return Request{}, ErrFormat
	}
	return r, nil
}

// SourceCandidate is a search hit that has not been fetched yet.
type SourceCandidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	// Rank is the 1-based position in the search results.
	Rank int `json:"rank"`
}

// ExtractedContent is the readable text of one fetched page.
type ExtractedContent struct {
	URL   string
	Title string
	Text  string
}

// SourceSummary is the per-source summary of a successfully processed
// candidate. Number is its citation number.
type SourceSummary struct {
	Number  int
	Title   string
	URL     string
	Summary string
	Rank    int
}

type Citation struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// Synthesis is the cross-source output of the Synthesizer.
type Synthesis struct {
	Summary    string
	KeyPoints  []string
	Comparison string
}

// Report is the finished research report. Both renderings are derived from
// this value.
type Report struct {
	Summary    string     `json:"summary"`
	KeyPoints  []string   `json:"key_points"`
	Comparison string     `json:"comparison"`
	Citations  []Citation `json:"citations"`
	Language   string     `json:"language"`
}

// Step identifies a progress stage. Steps are totally ordered.
type Step string

const (
	StepSearching   Step = "searching"
	StepFound       Step = "found"
	StepFetching    Step = "fetching"
	StepSummarizing Step = "summarizing"
	StepAnalyzing   Step = "analyzing"
	StepFinalizing  Step = "finalizing"
)

var stepOrder = map[Step]int{
	StepSearching:   1,
	StepFound:       2,
	StepFetching:    3,
	StepSummarizing: 4,
	StepAnalyzing:   5,
	StepFinalizing:  6,
}

// Order returns the position of s in the step sequence, or 0 for unknown steps.
func (s Step) Order() int {
	return stepOrder[s]
}

// Repeatable reports whether consecutive events may share this step.
func (s Step) Repeatable() bool {
	return s == StepFetching || s == StepSummarizing
}

// Progress is the payload of a progress event.
type Progress struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
	Current *int   `json:"current,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// Result is the payload of the complete event.
type Result struct {
	Result string `json:"result"`
	Format Format `json:"format"`
}

type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one element of the stream returned by Engine.Run.
type Event struct {
	Type     EventType
	Progress *Progress
	Result   *Result
	// Message is set on error events and is always user-safe.
	Message string
}

// Payload returns the JSON payload sent on the wire for this event.
func (e Event) Payload() any {
	switch e.Type {
	case EventProgress:
		return e.Progress
	case EventComplete:
		return e.Result
	default:
		return struct {
			Message string `json:"message"`
		}{e.Message}
	}
}

func intPtr(v int) *int {
	return &v
}
