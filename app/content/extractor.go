package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

const (
	excerptRunes     = 200
	unfurlConcurrent = 4
)

type Summary struct {
	Title   string
	Excerpt string
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run extracts the readable title and a short plain-text excerpt from an
// HTML document.
func (e *ContentExtractor) Run(data []byte) (Summary, error) {
	if len(data) == 0 {
		return Summary{}, fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return Summary{}, fmt.Errorf("no content extracted from HTML data")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read extracted content: %w", err)
	}

	return Summary{
		Title:   strings.TrimSpace(article.Title),
		Excerpt: truncateRunes(strings.Join(strings.Fields(doc.Text()), " "), excerptRunes),
	}, nil
}

// Unfurler fills in missing descriptions of external link cards from the
// pages they point to.
type Unfurler struct {
	loader    *Loader
	extractor *ContentExtractor
}

func NewUnfurler(loader *Loader, extractor *ContentExtractor) *Unfurler {
	return &Unfurler{loader: loader, extractor: extractor}
}

func (u *Unfurler) Run(ctx context.Context, cards []Card) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(unfurlConcurrent)

	for i := range cards {
		if cards[i].Kind != KindLink || cards[i].Body != "" || !cards[i].External() {
			continue
		}
		eg.Go(func() error {
			summary, err := u.summarize(egCtx, cards[i].Href)
			if err != nil {
				slog.Debug("Link unfurl failed", "url", cards[i].Href, "error", err)
				return nil
			}
			cards[i].Body = summary.Excerpt
			return nil
		})
	}
	_ = eg.Wait()
}

func (u *Unfurler) summarize(ctx context.Context, url string) (Summary, error) {
	data, err := u.loader.Fetch(ctx, url)
	if err != nil {
		return Summary{}, err
	}
	return u.extractor.Run(data)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
