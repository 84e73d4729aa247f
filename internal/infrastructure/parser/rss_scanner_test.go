package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"newspipe/internal/scanner"
)

func TestRSSScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <item>
      <title>First story</title>
      <link>https://news.example.com/articles/feed001</link>
    </item>
    <item>
      <title>Second story</title>
      <link>https://news.example.com/articles/feed002</link>
    </item>
    <item>
      <title>No link</title>
    </item>
  </channel>
</rss>`))
	}))
	defer server.Close()

	sc := NewRSSScanner(server.Client())
	items, err := sc.Scan(context.Background(), scanner.Request{FeedURL: server.URL})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].RawID != "feed001" || items[1].RawID != "feed002" {
		t.Fatalf("unexpected ids: %s, %s", items[0].RawID, items[1].RawID)
	}
	if items[0].Title != "First story" {
		t.Fatalf("unexpected title: %s", items[0].Title)
	}
}
