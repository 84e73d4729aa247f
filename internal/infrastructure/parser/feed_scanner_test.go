package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"newspipe/internal/scanner"
)

func TestArticleIDFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		href string
		want string
	}{
		{"https://news.example.com/articles/0542e995e9ad", "0542e995e9ad"},
		{"https://news.example.com/articles/abc123/", "abc123"},
		{"/articles/rel456", "rel456"},
		{"https://news.example.com/", ""},
	}

	for _, tc := range cases {
		if got := articleIDFromURL(tc.href); got != tc.want {
			t.Fatalf("articleIDFromURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestFeedScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<html><body>
		<ul class="newsFeed_list">
		  <li><a href="https://news.example.com/articles/aaa111">
		    <img src="https://img.example.com/aaa111.jpg?w=640&h=480">First</a></li>
		  <li><a href="https://news.example.com/articles/bbb222">
		    <img src="https://img.example.com/bbb222.jpg">Second</a></li>
		  <li><a href="https://news.example.com/articles/ccc333">No image</a></li>
		</ul>
		<div class="other"><a href="https://news.example.com/articles/zzz999"><img src="x.jpg"></a></div>
		</body></html>`))
	}))
	defer server.Close()

	sc := NewFeedScanner(server.Client())

	items, err := sc.Scan(context.Background(), scanner.Request{
		FeedURL:  server.URL,
		Selector: ".newsFeed_list",
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].RawID != "aaa111" {
		t.Fatalf("unexpected first id: %s", items[0].RawID)
	}
	if items[0].Thumbnail != "https://img.example.com/aaa111.jpg" {
		t.Fatalf("thumbnail query string not stripped: %s", items[0].Thumbnail)
	}
	if items[1].RawID != "bbb222" {
		t.Fatalf("unexpected second id: %s", items[1].RawID)
	}
	if items[2].RawID != "ccc333" || items[2].Thumbnail != "" {
		t.Fatalf("unexpected third item: %+v", items[2])
	}

	for i, item := range items {
		if item.Index != i+1 {
			t.Fatalf("expected index %d, got %d", i+1, item.Index)
		}
	}
}

func TestFeedScannerRequiresSelector(t *testing.T) {
	t.Parallel()

	sc := NewFeedScanner(nil)
	if _, err := sc.Scan(context.Background(), scanner.Request{FeedURL: "https://example.com"}); err == nil {
		t.Fatal("expected error for missing selector")
	}
}

func TestFeedScannerScanIsStable(t *testing.T) {
	t.Parallel()

	page := `<div class="feed"><a href="/articles/stable01"><img src="/t.jpg"></a></div>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	sc := NewFeedScanner(server.Client())
	req := scanner.Request{FeedURL: server.URL, Selector: ".feed"}

	first, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one item per scan, got %d and %d", len(first), len(second))
	}
	if first[0].RawID != second[0].RawID {
		t.Fatalf("derived IDs differ between scans: %s vs %s", first[0].RawID, second[0].RawID)
	}
}
