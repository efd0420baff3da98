package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/sync/errgroup"

	"github.com/mikeboe/research-assistant/pkg/language"
	"github.com/mikeboe/research-assistant/pkg/research"
)

// Synthesizer combines per-source summaries into the unified summary, key
// points and comparison. The three sections are generated concurrently.
type Synthesizer struct {
	gen generator
}

func NewSynthesizer(model Model, opts Options) *Synthesizer {
	return &Synthesizer{gen: generator{model: model, opts: opts.withDefaults()}}
}

func (s *Synthesizer) Synthesize(ctx context.Context, topic string, summaries []research.SourceSummary, lang string) (research.Synthesis, error) {
	if len(summaries) == 0 {
		return research.Synthesis{}, errors.New("synthesize: no source summaries")
	}

	values := map[string]any{
		"language_instruction": language.Instruction(lang),
		"topic":                topic,
		"summaries":            FormatSummaries(summaries),
	}
	opt := llms.WithTemperature(*s.gen.opts.Temperature)

	var out research.Synthesis
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		text, err := s.section(gctx, mainSummaryPrompt, values, nonEmpty, opt)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		out.Summary = strings.TrimSpace(text)
		return nil
	})
	g.Go(func() error {
		text, err := s.section(gctx, keyPointsPrompt, values, validateKeyPoints, opt)
		if err != nil {
			return fmt.Errorf("key points: %w", err)
		}
		out.KeyPoints = ParseKeyPoints(text)
		return nil
	})
	g.Go(func() error {
		text, err := s.section(gctx, comparisonPrompt, values, nonEmpty, opt)
		if err != nil {
			return fmt.Errorf("comparison: %w", err)
		}
		out.Comparison = strings.TrimSpace(text)
		return nil
	})

	if err := g.Wait(); err != nil {
		return research.Synthesis{}, research.NewError(research.KindSynthesis, err)
	}
	return out, nil
}

func (s *Synthesizer) section(ctx context.Context, p prompts.ChatPromptTemplate, values map[string]any, validate func(string) error, opts ...llms.CallOption) (string, error) {
	messages, err := render(p, values)
	if err != nil {
		return "", err
	}
	return s.gen.generateWithRetry(ctx, messages, validate, opts...)
}

// FormatSummaries renders the numbered source block shared by the synthesis
// prompts.
func FormatSummaries(summaries []research.SourceSummary) string {
	var sb strings.Builder
	for i, s := range summaries {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\nURL: %s\nSummary: %s\n", s.Number, s.Title, s.URL, s.Summary)
	}
	return sb.String()
}

var (
	bulletPrefix   = regexp.MustCompile(`^(?:•|[-*](?:\s|$))`)
	numberedPrefix = regexp.MustCompile(`^\d+[.)]\s`)
)

// ParseKeyPoints extracts bullet ("•", "- ", "* ") and numbered ("1. ", "2) ")
// lines from a model response. Bold text and lines that merely start with a
// number are not points. At most research.KeyPointsMax points are returned.
func ParseKeyPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		var point string
		if m := bulletPrefix.FindString(line); m != "" {
			point = line[len(m):]
		} else if m := numberedPrefix.FindString(line); m != "" {
			point = line[len(m):]
		} else {
			continue
		}

		point = strings.TrimSpace(point)
		if point == "" {
			continue
		}
		points = append(points, point)
		if len(points) == research.KeyPointsMax {
			break
		}
	}
	return points
}

func validateKeyPoints(text string) error {
	if n := len(ParseKeyPoints(text)); n < research.KeyPointsMin {
		return fmt.Errorf("got %d key points, want at least %d", n, research.KeyPointsMin)
	}
	return nil
}
