package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"

	"github.com/lysyi3m/event-comb/app/card"
	"github.com/lysyi3m/event-comb/app/source"
)

// PageMetadata describes the listing page itself.
type PageMetadata struct {
	Title    string
	ImageURL string
	Language string
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run extracts one RawRecord per card node. A page without card nodes is an
// error: the listing failed to render rather than being empty.
func (e *Extractor) Run(data []byte, pageURL string, sel source.Selectors) (*PageMetadata, []card.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	metadata := &PageMetadata{
		Title:    normalizeText(doc.Find("title").First().Text()),
		Language: strings.TrimSpace(doc.Find("html").AttrOr("lang", "")),
	}
	if image, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		metadata.ImageURL = resolveURL(base, image)
	}

	nodes := doc.Find(sel.Card)
	if nodes.Length() == 0 {
		return metadata, nil, fmt.Errorf("no card nodes matched selector %q", sel.Card)
	}

	records := make([]card.RawRecord, 0, nodes.Length())
	nodes.Each(func(_ int, node *goquery.Selection) {
		records = append(records, e.extractCard(node, base, sel))
	})

	return metadata, records, nil
}

func (e *Extractor) extractCard(node *goquery.Selection, base *url.URL, sel source.Selectors) card.RawRecord {
	record := card.RawRecord{
		Title:        normalizeText(node.Find(sel.Title).First().Text()),
		Description:  normalizeText(node.Find(sel.Description).First().Text()),
		StatusText:   normalizeText(node.Find(sel.Status).First().Text()),
		ProgressText: normalizeText(node.Find(sel.Progress).First().Text()),
		Tags:         []string{},
	}

	img := node.Find(sel.Image).First()
	src := img.AttrOr("src", "")
	if src == "" {
		src = img.AttrOr("data-src", "")
	}
	record.ImageURL = resolveURL(base, src)

	node.Find(sel.Tags).Each(func(_ int, tag *goquery.Selection) {
		if text := normalizeText(tag.Text()); text != "" {
			record.Tags = append(record.Tags, text)
		}
	})

	return record
}

// normalizeText folds full-width ASCII ("［活动］" becomes "[活动]") and
// collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(width.Fold.String(s)), " ")
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
