package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mikeboe/research-assistant/pkg/clients"
	"github.com/mikeboe/research-assistant/pkg/config"
	"github.com/mikeboe/research-assistant/pkg/research"
)

type options struct {
	topic   string
	sources int
	format  string
	out     string
}

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := newRootCmd(cfg, logger).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config, logger *slog.Logger) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "research-assistant",
		Short: "Research a topic from the terminal",
		Long: `research-assistant searches the web for a topic, summarizes each source and
writes a cited report with a unified summary, key points and a source comparison.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("topic") {
				topic, err := promptTopic(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				opts.topic = topic
			}

			req, err := research.Request{
				Topic:       opts.topic,
				SourceCount: opts.sources,
				Format:      research.Format(strings.ToLower(opts.format)),
			}.Normalize()
			if err != nil {
				return fmt.Errorf("%s", research.UserMessage(err))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := clients.NewEngine(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize research engine: %w", err)
			}
			return run(ctx, engine.WithLogger(logger.With("request_id", uuid.New().String())), req, opts.out, cmd.OutOrStdout())
		},
	}

	rootCmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "The research topic")
	rootCmd.Flags().IntVarP(&opts.sources, "sources", "n", research.DefaultSources, fmt.Sprintf("Number of sources (%d-%d)", research.MinSources, research.MaxSources))
	rootCmd.Flags().StringVarP(&opts.format, "format", "f", string(research.FormatMarkdown), "Output format: markdown or json")
	rootCmd.Flags().StringVarP(&opts.out, "out", "o", "", "Report file (default research_<timestamp>.md or .json)")
	return rootCmd
}

func promptTopic(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter research topic: ")
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read topic: %w", err)
	}
	return strings.TrimSpace(input), nil
}

type runner interface {
	Run(ctx context.Context, req research.Request) (<-chan research.Event, error)
}

// run executes req, printing progress to out, and writes the report file.
func run(ctx context.Context, r runner, req research.Request, path string, out io.Writer) error {
	events, err := r.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("%s", research.UserMessage(err))
	}

	result, err := research.Collect(events, func(p research.Progress) {
		fmt.Fprintf(out, "[%s] %s\n", p.Step, p.Message)
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("research cancelled")
		}
		return err
	}

	if path == "" {
		path = reportFilename(result.Format, time.Now())
	}
	if err := os.WriteFile(path, []byte(result.Result), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(out, "Report saved to %s\n", path)
	return nil
}

func reportFilename(format research.Format, now time.Time) string {
	ext := "md"
	if format == research.FormatJSON {
		ext = "json"
	}
	return fmt.Sprintf("research_%d.%s", now.Unix(), ext)
}
