package render

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/edgeboard/app/cfg"
	"github.com/lysyi3m/edgeboard/app/content"
)

// FeedInfo describes the RSS channel.
type FeedInfo struct {
	Title       string
	Description string
	Path        string
}

type FeedGenerator struct{}

func NewFeedGenerator() *FeedGenerator {
	return &FeedGenerator{}
}

// Run renders cards as an RSS 2.0 channel. Relative card links are made
// absolute against the public URL.
func (g *FeedGenerator) Run(info FeedInfo, cards []content.Card) (string, error) {
	base := strings.TrimRight(cfg.Get().PublicURL(), "/")

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(info.Title, "New Drop"), 4)
	g.writeElement(&buf, "link", base+"/", 4)
	g.writeElement(&buf, "description", cmp.Or(info.Description, "Latest projects, experiments and notes"), 4)

	selfLink := base + cmp.Or(info.Path, "/feed.xml")
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(cards) > 0 && cards[0].Timestamp != nil {
		lastBuildDate = cards[0].Timestamp.In(time.Local)
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("edgeboard/%s", cfg.Get().Version), 4)

	for _, card := range cards {
		g.writeItem(&buf, base, card)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *FeedGenerator) writeItem(buf *bytes.Buffer, base string, card content.Card) {
	buf.WriteString("    <item>\n")

	link := card.Href
	if link != "" && !card.External() {
		link = base + "/" + strings.TrimLeft(link, "/")
	}

	if guid := g.guid(card, link); guid != "" {
		buf.WriteString("      <guid isPermaLink=\"false\">")
		xml.EscapeText(buf, []byte(guid))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", card.Title, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", card.Body, 6)

	if card.Timestamp != nil {
		g.writeElement(buf, "pubDate", card.Timestamp.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", content.KindLabel(card.Kind), 6)
	for _, tag := range card.Tags {
		g.writeElement(buf, "category", tag, 6)
	}

	buf.WriteString("    </item>\n")
}

// guid identifies an item across feed refreshes.
func (g *FeedGenerator) guid(card content.Card, link string) string {
	parts := []string{string(card.Kind), cmp.Or(card.Slug, card.Title)}
	if card.Timestamp != nil {
		parts = append(parts, card.Timestamp.UTC().Format(time.RFC3339))
	}
	if card.Slug == "" && link != "" {
		parts = append(parts, link)
	}
	return strings.Join(parts, ":")
}

func (g *FeedGenerator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
