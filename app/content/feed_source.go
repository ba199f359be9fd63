package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// decodeFeed maps the entries of an RSS or Atom document onto the field
// names JSON collections use, so feeds flow through the same normalizer.
func decodeFeed(data []byte) ([]RawItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}

		item := RawItem{
			"title":       entry.Title,
			"url":         entry.Link,
			"description": plainText(entry.Description),
		}

		if entry.PublishedParsed != nil {
			item["date"] = entry.PublishedParsed.UTC().Format(time.RFC3339)
		} else if entry.UpdatedParsed != nil {
			item["date"] = entry.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		if len(entry.Categories) > 0 {
			tags := make([]any, 0, len(entry.Categories))
			for _, c := range entry.Categories {
				tags = append(tags, c)
			}
			item["tags"] = tags
		}

		// RSS 2.0 allows a single enclosure per item
		if len(entry.Enclosures) > 0 && entry.Enclosures[0] != nil && entry.Enclosures[0].URL != "" {
			enclosure := entry.Enclosures[0]
			item["media"] = map[string]any{
				"src":  enclosure.URL,
				"type": enclosureKind(enclosure.Type),
			}
		}

		items = append(items, item)
	}

	return items, nil
}

func enclosureKind(mimeType string) string {
	major, minor, _ := strings.Cut(strings.ToLower(mimeType), "/")
	switch {
	case major == "image" || major == "audio" || major == "video":
		return major
	case minor == "pdf":
		return string(MediaPDF)
	}
	return ""
}

func plainText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
