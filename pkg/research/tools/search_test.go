package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mikeboe/research-assistant/pkg/research"
)

const duckDuckGoPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://duckduckgo.com/y.js?ad_provider=x">Sponsored</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fbatteries&amp;rut=abc">Battery
     storage   explained</a></h2>
  <a class="result__snippet">Grid batteries are <b>getting</b> cheaper.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://news.example.org/solar">Solar news</a>
  <a class="result__snippet">Solar capacity doubled.</a>
</div>
<div class="result results_links">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fbatteries">Duplicate</a>
</div>
<div class="result results_links">
  <a class="result__a" href="javascript:void(0)">Broken</a>
</div>
<div class="result results_links">
  <a class="result__a" href="https://third.example.net/">Third</a>
</div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		io.WriteString(w, duckDuckGoPage)
	}))
	defer srv.Close()

	d := &DuckDuckGo{BaseURL: srv.URL, Client: srv.Client()}
	got, err := d.Search(context.Background(), "energy storage", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "energy storage" {
		t.Errorf("query = %q", gotQuery)
	}

	want := []research.SourceCandidate{
		{URL: "https://example.com/batteries", Title: "Battery storage explained", Snippet: "Grid batteries are getting cheaper.", Rank: 1},
		{URL: "https://news.example.org/solar", Title: "Solar news", Snippet: "Solar capacity doubled.", Rank: 2},
		{URL: "https://third.example.net/", Title: "Third", Rank: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d results: %+v", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDuckDuckGoSearchLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, duckDuckGoPage)
	}))
	defer srv.Close()

	d := &DuckDuckGo{BaseURL: srv.URL, Client: srv.Client()}
	got, err := d.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://example.com/batteries" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestDuckDuckGoSearchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := &DuckDuckGo{BaseURL: srv.URL, Client: srv.Client()}
	if _, err := d.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestUnwrapDuckDuckGoLink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fx%3Fy%3D1", "https://a.example/x?y=1"},
		{"/l/?uddg=http%3A%2F%2Fb.example", "http://b.example"},
		{"https://c.example/page", "https://c.example/page"},
		{"https://duckduckgo.com/y.js?u3=abc", ""},
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fduckduckgo.com%2Fy.js%3Fad", ""},
		{"//duckduckgo.com/l/?rut=abc", ""},
		{"mailto:a@b.c", ""},
	}
	for _, tt := range tests {
		if got := unwrapDuckDuckGoLink(tt.in); got != tt.want {
			t.Errorf("unwrapDuckDuckGoLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("count") != "2" {
			t.Errorf("count = %q", r.URL.Query().Get("count"))
		}
		io.WriteString(w, `{"web":{"results":[
			{"title":"One","url":"https://one.example","description":"first"},
			{"title":"No URL","url":"","description":"skip"},
			{"title":"Two","url":"https://two.example","description":"second"},
			{"title":"Three","url":"https://three.example","description":"third"}
		]}}`)
	}))
	defer srv.Close()

	b := &Brave{APIKey: "secret", BaseURL: srv.URL, Client: srv.Client()}
	got, err := b.Search(context.Background(), "topic", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[0].URL != "https://one.example" || got[1].URL != "https://two.example" || got[1].Rank != 2 {
		t.Errorf("Search() = %+v", got)
	}

	b.APIKey = "wrong"
	if _, err := b.Search(context.Background(), "topic", 2); err == nil {
		t.Error("expected error on 401")
	}
}

func TestBraveRequiresKey(t *testing.T) {
	if _, err := (&Brave{}).Search(context.Background(), "topic", 3); err == nil {
		t.Fatal("expected error without API key")
	}
}

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Solid-State
      Batteries</title>
    <summary>  We study batteries.  </summary>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.00001v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <title>Grid Storage</title>
    <summary>Grid.</summary>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		io.WriteString(w, arxivFeed)
	}))
	defer srv.Close()

	a := &Arxiv{BaseURL: srv.URL, Client: srv.Client()}
	got, err := a.Search(context.Background(), "batteries", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if query.Get("search_query") != "all:batteries" || query.Get("max_results") != "3" {
		t.Errorf("query = %v", query)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].URL != "http://arxiv.org/abs/2401.00001v1" || got[0].Title != "Solid-State Batteries" || got[0].Snippet != "We study batteries." {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].URL != "http://arxiv.org/abs/2401.00002v1" || got[1].Rank != 2 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestNewSearchProvider(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"", "", "*tools.DuckDuckGo", false},
		{"DuckDuckGo", "", "*tools.DuckDuckGo", false},
		{"brave", "k", "*tools.Brave", false},
		{"brave", "", "", true},
		{"arxiv", "", "*tools.Arxiv", false},
		{"bing", "", "", true},
	}
	for _, tt := range tests {
		p, err := NewSearchProvider(tt.name, tt.key, nil, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewSearchProvider(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && fmt.Sprintf("%T", p) != tt.want {
			t.Errorf("NewSearchProvider(%q) = %T, want %s", tt.name, p, tt.want)
		}
	}
}
