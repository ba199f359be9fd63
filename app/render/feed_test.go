package render

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/edgeboard/app/cfg"
	"github.com/lysyi3m/edgeboard/app/content"
	"github.com/mmcdole/gofeed"
)

func setupTestConfig() {
	// Clear os.Args to prevent config parsing from failing
	oldArgs := os.Args
	os.Args = []string{"test", "--base-url", "https://edge.example.com"}
	defer func() { os.Args = oldArgs }()

	cfg.Load()
}

func TestFeedGeneratorRun(t *testing.T) {
	setupTestConfig()
	generator := NewFeedGenerator()

	newer := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	older := time.Date(2023, 9, 15, 0, 0, 0, 0, time.UTC)

	cards := []content.Card{
		{
			Kind:      content.KindExperiment,
			Title:     "Loop <station>",
			Body:      "Granular & glitchy",
			Href:      "/playground/",
			Timestamp: &newer,
			Tags:      []string{"audio", "live"},
		},
		{
			Kind:      content.KindNote,
			Title:     "Field notes",
			Href:      "https://notes.example.com/1",
			Slug:      "note-1",
			Timestamp: &older,
		},
		{
			Kind:  content.KindProject,
			Title: "Undated",
		},
	}

	rss, err := generator.Run(FeedInfo{Title: "Edge Board"}, cards)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("RSS should contain XML declaration")
	}
	if !strings.Contains(rss, `<atom:link href="https://edge.example.com/feed.xml" rel="self"`) {
		t.Error("RSS should contain self link")
	}

	feed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS should parse, got: %v", err)
	}

	if feed.Title != "Edge Board" {
		t.Errorf("Expected feed title 'Edge Board', got '%s'", feed.Title)
	}
	if len(feed.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(feed.Items))
	}

	first := feed.Items[0]
	if first.Title != "Loop <station>" {
		t.Errorf("Expected escaped title to round-trip, got '%s'", first.Title)
	}
	if first.Link != "https://edge.example.com/playground/" {
		t.Errorf("Expected absolute internal link, got '%s'", first.Link)
	}
	if first.Description != "Granular & glitchy" {
		t.Errorf("Expected description 'Granular & glitchy', got '%s'", first.Description)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(newer) {
		t.Errorf("Expected pubDate %v, got %v", newer, first.PublishedParsed)
	}
	if len(first.Categories) != 3 || first.Categories[0] != "Experiment" {
		t.Errorf("Expected categories [Experiment audio live], got %v", first.Categories)
	}

	if feed.Items[1].Link != "https://notes.example.com/1" {
		t.Errorf("Expected external link to stay as is, got '%s'", feed.Items[1].Link)
	}
	if feed.Items[1].GUID == "" {
		t.Error("Expected a GUID")
	}

	if feed.Items[2].PublishedParsed != nil {
		t.Errorf("Expected undated item to have no pubDate, got %v", feed.Items[2].PublishedParsed)
	}
}
