package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/database"
)

// Generator renders a snapshot as an RSS 2.0 channel, one item per card.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), version: version}
}

func (g *Generator) Run(src database.Source, snapshot card.Snapshot) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	title := src.Title
	if title == "" {
		title = src.Name
	}
	g.writeElement(&buf, "title", title, 4)
	g.writeElement(&buf, "link", src.URL, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Cards harvested from %s", src.URL), 4)

	if g.baseURL != "" {
		selfLink := fmt.Sprintf("%s/sources/%s/rss", g.baseURL, src.Name)
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	g.writeElement(&buf, "lastBuildDate", snapshot.CapturedAt.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Event-Comb/%s", g.version), 4)
	g.writeElement(&buf, "language", src.Language, 4)

	if src.ImageURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", src.ImageURL, 6)
		g.writeElement(&buf, "title", title, 6)
		g.writeElement(&buf, "link", src.URL, 6)
		buf.WriteString("    </image>\n")
	}

	for _, record := range snapshot.Records {
		g.writeItem(&buf, src, snapshot.CapturedAt, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, src database.Source, capturedAt time.Time, record card.NormalizedRecord) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(g.guid(src.Name, record)))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", record.Title, 6)
	g.writeElement(buf, "link", src.URL, 6)
	g.writeElement(buf, "description", g.describe(record), 6)

	published := capturedAt
	if record.Window.Start != nil {
		published = *record.Window.Start
	}
	g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)

	for _, category := range record.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	if record.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(record.ImageURL),
			html.EscapeString(imageType(record.ImageURL))))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) describe(record card.NormalizedRecord) string {
	parts := []string{record.Lifecycle.String()}
	if record.Description != "" {
		parts = append(parts, record.Description)
	}
	if record.Window.Start != nil {
		parts = append(parts, "start "+record.Window.Start.Format(time.RFC3339))
	}
	if record.Window.End != nil {
		parts = append(parts, "end "+record.Window.End.Format(time.RFC3339))
	}
	if record.Window.IsEmpty() && record.ProgressText != "" {
		parts = append(parts, record.ProgressText)
	}
	return strings.Join(parts, " | ")
}

// guid ignores the progress text, which counts down between runs.
func (g *Generator) guid(sourceName string, record card.NormalizedRecord) string {
	hash := sha256.Sum256([]byte(sourceName + "|" + record.Title + "|" + record.ImageURL))
	return hex.EncodeToString(hash[:16])
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
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

func imageType(imageURL string) string {
	lower := strings.ToLower(imageURL)
	switch {
	case strings.Contains(lower, ".png"):
		return "image/png"
	case strings.Contains(lower, ".webp"):
		return "image/webp"
	case strings.Contains(lower, ".gif"):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
