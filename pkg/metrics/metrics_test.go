package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mikeboe/research-assistant/pkg/research"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("complete"))
	r.RunFinished("complete")
	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("complete")); got != before+1 {
		t.Errorf("research_runs_total{complete} = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(SourcesTotal.WithLabelValues("fetch_error"))
	r.SourceProcessed("fetch_error")
	r.SourceProcessed("fetch_error")
	if got := testutil.ToFloat64(SourcesTotal.WithLabelValues("fetch_error")); got != before+2 {
		t.Errorf("research_sources_total{fetch_error} = %v, want %v", got, before+2)
	}
}

func TestHandler(t *testing.T) {
	Recorder{}.StageObserved(research.StepAnalyzing, 1500*time.Millisecond)
	Recorder{}.RunFinished("error")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	output := string(body)

	if !strings.Contains(output, `research_stage_duration_seconds_bucket{stage="analyzing"`) {
		t.Errorf("expected research_stage_duration_seconds metric for analyzing")
	}
	if !strings.Contains(output, `research_runs_total{outcome="error"}`) {
		t.Errorf("expected research_runs_total metric for error")
	}
}
