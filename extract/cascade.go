package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// dateToken matches one date value written after a label.
const dateToken = `(\d{1,2}[./]\d{1,2}[./]\d{4}(?:\s*[-–,]?\s*\d{1,2}:\d{2}(?::\d{2})?)?` +
	`|\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?)?` +
	`|(?:\p{L}+,\s*)?\d{1,2}\s+\p{L}+\s+\d{4}(?:\s*[-–,]?\s*\d{1,2}:\d{2})?` +
	`|\d+\s*(?:saniye|sn|dakika|dk|saat|gün|gun|hafta|ay|yıl|yil|seconds?|secs?|minutes?|mins?|hours?|days?|weeks?|months?|years?)\s+(?:önce|once|ago)` +
	`|(?:bugün|bugun|dün|dun|today|yesterday)(?:\s*,?\s*(?:saat\s+)?\d{1,2}:\d{2})?)`

var (
	publishedLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Giri[şs]\s*Tarihi\s*[:\-–]\s*` + dateToken),
		regexp.MustCompile(`(?i)(?:Yayınlanma|Yayın\s+Tarihi)\s*[:\-–]\s*` + dateToken),
		regexp.MustCompile(`(?i)Published(?:\s+on)?\s*[:\-–]\s*` + dateToken),
	}
	updatedLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Son\s+Güncelleme|Güncellenme)(?:\s+Tarihi)?\s*[:\-–]\s*` + dateToken),
		regexp.MustCompile(`(?i)(?:Last\s+updated|Updated)\s*[:\-–]\s*` + dateToken),
	}

	monthNameStamp = regexp.MustCompile(`(\d{1,2}\s+\p{L}+\s+\d{4}\s+\d{1,2}:\d{2})`)
	numericStamp   = regexp.MustCompile(`(\d{1,2}[./]\d{1,2}[./]\d{4})(?:\s*[-–]?\s*(\d{1,2}:\d{2}(?::\d{2})?))?`)
)

var (
	publishedMeta = []string{
		`meta[property="article:published_time"]`,
		`meta[name="pubdate"]`,
		`meta[name="publishdate"]`,
		`meta[name="publish-date"]`,
		`meta[itemprop="datePublished"]`,
	}
	updatedMeta = []string{
		`meta[property="article:modified_time"]`,
		`meta[name="lastmod"]`,
		`meta[itemprop="dateModified"]`,
	}
)

// publishedCandidates lists publish date texts in priority order: structured
// data, meta tags, time elements, schema markup, labelled text, bare dates.
func publishedCandidates(doc *goquery.Document, text string) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	pub, _ := jsonLDDates(doc)
	add(pub)

	for _, sel := range publishedMeta {
		add(metaContent(doc, sel))
	}

	doc.Find("time[datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		add(s.AttrOr("datetime", ""))
		return false
	})

	doc.Find(`[itemprop="datePublished"]`).Each(func(_ int, s *goquery.Selection) {
		for _, v := range []string{s.AttrOr("datetime", ""), s.AttrOr("content", ""), s.Text()} {
			if strings.TrimSpace(v) != "" {
				add(v)
				break
			}
		}
	})

	for _, re := range publishedLabels {
		if m := re.FindStringSubmatch(text); m != nil {
			add(m[1])
		}
	}

	if m := monthNameStamp.FindStringSubmatch(text); m != nil {
		add(m[1])
	}
	for _, m := range numericStamp.FindAllStringSubmatch(text, 3) {
		add(strings.TrimSpace(m[1] + " " + m[2]))
	}

	return out
}

// updatedCandidates lists modification date texts in priority order.
func updatedCandidates(doc *goquery.Document, text string) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	_, upd := jsonLDDates(doc)
	add(upd)

	for _, sel := range updatedMeta {
		add(metaContent(doc, sel))
	}

	for _, re := range updatedLabels {
		if m := re.FindStringSubmatch(text); m != nil {
			add(m[1])
		}
	}
	return out
}

// jsonLDDates returns datePublished and dateModified of the first Article or
// NewsArticle object embedded as JSON-LD.
func jsonLDDates(doc *goquery.Document) (published, modified string) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		for _, obj := range ldObjects(payload) {
			if !isArticle(obj) {
				continue
			}
			published, _ = obj["datePublished"].(string)
			modified, _ = obj["dateModified"].(string)
			if published != "" || modified != "" {
				return false
			}
		}
		return true
	})
	return published, modified
}

// ldObjects flattens a JSON-LD payload into its top level objects, including
// the members of an @graph.
func ldObjects(payload any) []map[string]any {
	var out []map[string]any
	switch v := payload.(type) {
	case []any:
		for _, e := range v {
			out = append(out, ldObjects(e)...)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, e := range graph {
				out = append(out, ldObjects(e)...)
			}
		}
	}
	return out
}

func isArticle(obj map[string]any) bool {
	t, ok := obj["@type"]
	if !ok {
		t = obj["type"]
	}
	switch v := t.(type) {
	case string:
		return v == "Article" || v == "NewsArticle"
	case []any:
		for _, e := range v {
			if s, _ := e.(string); s == "Article" || s == "NewsArticle" {
				return true
			}
		}
	}
	return false
}

// visibleText returns the page text with one space between text nodes.
// Script and style contents are skipped.
func visibleText(doc *goquery.Document) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
