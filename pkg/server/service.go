package server

import (
	"context"
	"log/slog"

	"github.com/mikeboe/research-assistant/pkg/research"
)

type Service struct {
	Engine *research.Engine
	Logger *slog.Logger
}

func NewService(engine *research.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Engine: engine, Logger: logger}
}

// ResearchRequest is the JSON body of a research request.
type ResearchRequest struct {
	Topic        string `json:"topic"`
	NumSources   int    `json:"num_sources"`
	OutputFormat string `json:"output_format"`
}

func (r ResearchRequest) request() research.Request {
	return research.Request{
		Topic:       r.Topic,
		SourceCount: r.NumSources,
		Format:      research.Format(r.OutputFormat),
	}
}

// Start validates req and starts a run whose logs carry requestID. The run
// stops when ctx is cancelled.
func (s *Service) Start(ctx context.Context, requestID string, req ResearchRequest) (<-chan research.Event, error) {
	logger := s.Logger.With("request_id", requestID)
	events, err := s.Engine.WithLogger(logger).Run(ctx, req.request())
	if err != nil {
		logger.Info("Rejected research request", "error", err)
		return nil, err
	}
	return events, nil
}

// Research runs req to completion and returns the rendered report.
func (s *Service) Research(ctx context.Context, requestID string, req ResearchRequest) (research.Result, error) {
	events, err := s.Start(ctx, requestID, req)
	if err != nil {
		return research.Result{}, err
	}
	return research.Collect(events, nil)
}
