package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Settings holds the engine's tunables. The engine copies them on
// construction; they never change for the lifetime of an Engine.
type Settings struct {
	// FetchTimeout bounds each individual fetch.
	FetchTimeout time.Duration
	// MaxContentChars is the truncation budget applied to extracted text.
	MaxContentChars int
	// MaxWorkers caps the number of sources processed at once.
	MaxWorkers int
	// MinSuccessful is the number of sources that must survive for a report
	// to be built.
	MinSuccessful int
	// EventBuffer is the capacity of the event channel.
	EventBuffer int
}

func DefaultSettings() Settings {
	return Settings{
		FetchTimeout:    30 * time.Second,
		MaxContentChars: 8000,
		MaxWorkers:      MaxSources,
		MinSuccessful:   1,
		EventBuffer:     16,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = d.FetchTimeout
	}
	if s.MaxContentChars <= 0 {
		s.MaxContentChars = d.MaxContentChars
	}
	if s.MaxWorkers <= 0 || s.MaxWorkers > MaxSources {
		s.MaxWorkers = d.MaxWorkers
	}
	if s.MinSuccessful < 1 {
		s.MinSuccessful = d.MinSuccessful
	}
	if s.EventBuffer < 0 {
		s.EventBuffer = d.EventBuffer
	}
	return s
}

// Dependencies are the collaborators the engine drives. Logger and Recorder
// are optional.
type Dependencies struct {
	Search      SearchProvider
	Extractor   Extractor
	Truncator   Truncator
	Summarizer  Summarizer
	Synthesizer Synthesizer
	Builder     ReportBuilder
	Language    LanguageDetector
	Logger      *slog.Logger
	Recorder    Recorder
}

// Engine runs research requests through search, per-source processing,
// synthesis and rendering.
type Engine struct {
	settings Settings
	deps     Dependencies
	logger   *slog.Logger
}

func NewEngine(settings Settings, deps Dependencies) (*Engine, error) {
	switch {
	case deps.Search == nil:
		return nil, errors.New("research: search provider is required")
	case deps.Extractor == nil:
		return nil, errors.New("research: extractor is required")
	case deps.Truncator == nil:
		return nil, errors.New("research: truncator is required")
	case deps.Summarizer == nil:
		return nil, errors.New("research: summarizer is required")
	case deps.Synthesizer == nil:
		return nil, errors.New("research: synthesizer is required")
	case deps.Builder == nil:
		return nil, errors.New("research: report builder is required")
	case deps.Language == nil:
		return nil, errors.New("research: language detector is required")
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{settings: settings.withDefaults(), deps: deps, logger: logger}, nil
}

// WithLogger returns a copy of e that logs to l, typically a logger carrying
// a request id. The copy shares the collaborators of e.
func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	if l == nil {
		return e
	}
	c := *e
	c.logger = l
	return &c
}

// Run validates req and starts the pipeline. A validation failure is returned
// directly and no stream is started. Otherwise the returned channel carries
// progress events followed by exactly one complete or error event; if ctx is
// cancelled first the channel is closed with no terminal event.
func (e *Engine) Run(ctx context.Context, req Request) (<-chan Event, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	em := newEmitter(ctx, e.settings.EventBuffer)
	go e.run(ctx, req, em)
	return em.events(), nil
}

func (e *Engine) run(ctx context.Context, req Request, em *emitter) {
	defer em.close()

	start := time.Now()
	doc, err := e.execute(ctx, req, em)

	if ctx.Err() != nil {
		e.logger.Info("Research cancelled", "topic", req.Topic, "elapsed", time.Since(start))
		e.deps.Recorder.RunFinished("cancelled")
		return
	}
	if err != nil {
		e.logger.Error("Research failed", "topic", req.Topic, "kind", KindOf(err).String(), "error", err)
		e.deps.Recorder.RunFinished("error")
		_ = em.fail(UserMessage(err))
		return
	}

	if err := em.complete(Result{Result: doc, Format: req.Format}); err != nil {
		e.logger.Warn("Failed to publish result", "error", err)
		return
	}
	e.logger.Info("Research complete", "topic", req.Topic, "elapsed", time.Since(start), "length", len(doc))
	e.deps.Recorder.RunFinished("complete")
}

func (e *Engine) execute(ctx context.Context, req Request, em *emitter) (string, error) {
	language := e.deps.Language.Detect(req.Topic)
	e.logger.Info("Starting research", "topic", req.Topic, "sources", req.SourceCount, "format", req.Format, "language", language)

	// Searching. A search that yields nothing publishes no progress.
	stageStart := time.Now()
	candidates, err := e.search(ctx, req)
	e.deps.Recorder.StageObserved(StepSearching, time.Since(stageStart))
	if err != nil {
		return "", err
	}
	if err := em.progress(Progress{Step: StepSearching, Message: "Searching..."}); err != nil {
		return "", err
	}

	// Found
	if err := em.progress(Progress{
		Step:    StepFound,
		Message: fmt.Sprintf("Found %d sources", len(candidates)),
		Count:   intPtr(len(candidates)),
	}); err != nil {
		return "", err
	}

	// Fetching and summarizing
	stageStart = time.Now()
	summaries, err := e.gather(ctx, candidates, language, em)
	e.deps.Recorder.StageObserved(StepSummarizing, time.Since(stageStart))
	if err != nil {
		return "", err
	}

	// Analyzing
	if err := em.progress(Progress{Step: StepAnalyzing, Message: "Analyzing..."}); err != nil {
		return "", err
	}
	stageStart = time.Now()
	synthesis, err := e.synthesize(ctx, req.Topic, summaries, language)
	e.deps.Recorder.StageObserved(StepAnalyzing, time.Since(stageStart))
	if err != nil {
		return "", err
	}

	// Finalizing
	if err := em.progress(Progress{Step: StepFinalizing, Message: "Finalizing..."}); err != nil {
		return "", err
	}
	report := Report{
		Summary:    synthesis.Summary,
		KeyPoints:  synthesis.KeyPoints,
		Comparison: synthesis.Comparison,
		Citations:  citations(summaries),
		Language:   language,
	}
	doc, err := e.deps.Builder.Build(report, req.Format)
	if err != nil {
		return "", NewError(KindInternal, fmt.Errorf("render %s report: %w", req.Format, err))
	}
	return doc, nil
}

func (e *Engine) search(ctx context.Context, req Request) ([]SourceCandidate, error) {
	found, err := e.deps.Search.Search(ctx, req.Topic, req.SourceCount)
	if err != nil {
		return nil, classify(err, KindSearch)
	}

	candidates := make([]SourceCandidate, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, c := range found {
		c.URL = strings.TrimSpace(c.URL)
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		candidates = append(candidates, c)
		if len(candidates) == req.SourceCount {
			break
		}
	}
	if len(candidates) == 0 {
		return nil, Errorf(KindSearch, "no candidates for %q", req.Topic)
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	e.logger.Info("Search complete", "candidates", len(candidates))
	return candidates, nil
}

type sourceOutcome struct {
	candidate SourceCandidate
	title     string
	summary   string
	err       error
}

// gather fans the candidates out to a bounded worker pool and fans the
// results back in on a single channel. Progress is reported in completion
// order; the returned summaries are in rank order and carry their citation
// numbers.
func (e *Engine) gather(ctx context.Context, candidates []SourceCandidate, language string, em *emitter) ([]SourceSummary, error) {
	total := len(candidates)
	if err := em.progress(Progress{
		Step:    StepFetching,
		Message: fmt.Sprintf("Fetching %d sources...", total),
		Current: intPtr(0),
		Total:   intPtr(total),
	}); err != nil {
		return nil, err
	}

	workers := min(e.settings.MaxWorkers, total)
	results := make(chan sourceOutcome, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	go func() {
		for _, c := range candidates {
			g.Go(func() error {
				results <- e.processSource(gctx, c, language)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var succeeded []sourceOutcome
	failed := 0
	for done := 1; done <= total; done++ {
		var out sourceOutcome
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case out = <-results:
		}

		if out.err != nil {
			failed++
			kind := KindOf(out.err)
			e.deps.Recorder.SourceProcessed(kind.String())
			e.logger.Warn("Skipping source", "url", out.candidate.URL, "rank", out.candidate.Rank, "kind", kind.String(), "error", out.err)
		} else {
			e.deps.Recorder.SourceProcessed("ok")
			succeeded = append(succeeded, out)
		}

		if err := em.progress(Progress{
			Step:    StepSummarizing,
			Message: fmt.Sprintf("Summarizing %d/%d...", done, total),
			Current: intPtr(done),
			Total:   intPtr(total),
		}); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Sources processed", "succeeded", len(succeeded), "failed", failed)
	if len(succeeded) == 0 {
		return nil, Errorf(KindAllSourcesFailed, "all %d sources failed", total)
	}
	if len(succeeded) < e.settings.MinSuccessful {
		return nil, Errorf(KindAllSourcesFailed, "%d of %d sources succeeded, need %d", len(succeeded), total, e.settings.MinSuccessful)
	}

	sort.Slice(succeeded, func(i, j int) bool {
		return succeeded[i].candidate.Rank < succeeded[j].candidate.Rank
	})
	summaries := make([]SourceSummary, len(succeeded))
	for i, out := range succeeded {
		summaries[i] = SourceSummary{
			Number:  i + 1,
			Title:   out.title,
			URL:     out.candidate.URL,
			Summary: out.summary,
			Rank:    out.candidate.Rank,
		}
	}
	return summaries, nil
}

// processSource runs fetch, truncate and summarize for one candidate. Every
// failure, including a panic in a collaborator, is reported on the outcome.
func (e *Engine) processSource(ctx context.Context, c SourceCandidate, language string) (out sourceOutcome) {
	out.candidate = c
	defer func() {
		if r := recover(); r != nil {
			out.err = Errorf(KindInternal, "source worker panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.err = err
		return out
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.settings.FetchTimeout)
	content, err := e.deps.Extractor.Extract(fetchCtx, c.URL)
	cancel()
	if err != nil {
		out.err = classify(err, KindFetch)
		return out
	}

	text := e.deps.Truncator.Truncate(content.Text, e.settings.MaxContentChars)
	if strings.TrimSpace(text) == "" {
		out.err = Errorf(KindExtraction, "no readable text at %s", c.URL)
		return out
	}

	out.title = resolveTitle(content.Title, c)
	summary, err := e.deps.Summarizer.Summarize(ctx, out.title, text, language)
	if err != nil {
		out.err = classify(err, KindSummarization)
		return out
	}
	out.summary = strings.TrimSpace(summary)
	if out.summary == "" {
		out.err = Errorf(KindSummarization, "empty summary for %s", c.URL)
	}
	return out
}

func (e *Engine) synthesize(ctx context.Context, topic string, summaries []SourceSummary, language string) (Synthesis, error) {
	s, err := e.deps.Synthesizer.Synthesize(ctx, topic, summaries, language)
	if err != nil {
		return Synthesis{}, classify(err, KindSynthesis)
	}
	s.Summary = strings.TrimSpace(s.Summary)
	s.Comparison = strings.TrimSpace(s.Comparison)
	switch {
	case s.Summary == "":
		return Synthesis{}, Errorf(KindSynthesis, "empty unified summary")
	case s.Comparison == "":
		return Synthesis{}, Errorf(KindSynthesis, "empty comparison")
	case len(s.KeyPoints) < KeyPointsMin || len(s.KeyPoints) > KeyPointsMax:
		return Synthesis{}, Errorf(KindSynthesis, "got %d key points, want %d-%d", len(s.KeyPoints), KeyPointsMin, KeyPointsMax)
	}
	return s, nil
}

func resolveTitle(extracted string, c SourceCandidate) string {
	if t := strings.TrimSpace(extracted); t != "" {
		return t
	}
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return c.URL
}

func citations(summaries []SourceSummary) []Citation {
	out := make([]Citation, len(summaries))
	for i, s := range summaries {
		out[i] = Citation{Number: s.Number, Title: s.Title, URL: s.URL}
	}
	return out
}
