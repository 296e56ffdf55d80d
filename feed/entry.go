package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// Entry is a feed item reduced to the fields the normalizers look at.
// Every field is optional; absence is an empty string, nil or empty slice.
type Entry struct {
	Title           string
	Link            string
	GUID            string
	Description     string
	Content         string
	Published       string
	Updated         string
	PublishedParsed *time.Time
	UpdatedParsed   *time.Time
	Enclosures      []string
	MediaContent    []string
	MediaThumbnails []string
	Image           string
	Custom          map[string]string
	Links           []Link
}

// Link is an atom:link element attached to an entry.
type Link struct {
	Href string
	Rel  string
	Type string
}

// newEntry copies the fields of a parsed gofeed item into an Entry.
func newEntry(item *gofeed.Item) Entry {
	e := Entry{
		Title:           item.Title,
		Link:            item.Link,
		GUID:            item.GUID,
		Description:     item.Description,
		Content:         item.Content,
		Published:       item.Published,
		Updated:         item.Updated,
		PublishedParsed: item.PublishedParsed,
		UpdatedParsed:   item.UpdatedParsed,
		Custom:          item.Custom,
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			e.Enclosures = append(e.Enclosures, strings.TrimSpace(enc.URL))
		}
	}

	if item.Image != nil {
		e.Image = strings.TrimSpace(item.Image.URL)
	}

	media := item.Extensions["media"]
	for _, c := range media["content"] {
		e.collectMedia(c)
	}
	for _, g := range media["group"] {
		for _, c := range g.Children["content"] {
			e.collectMedia(c)
		}
		for _, th := range g.Children["thumbnail"] {
			e.MediaThumbnails = appendAttr(e.MediaThumbnails, th, "url")
		}
	}
	for _, th := range media["thumbnail"] {
		e.MediaThumbnails = appendAttr(e.MediaThumbnails, th, "url")
	}

	for _, l := range item.Extensions["atom"]["link"] {
		if href := strings.TrimSpace(l.Attrs["href"]); href != "" {
			e.Links = append(e.Links, Link{Href: href, Rel: l.Attrs["rel"], Type: l.Attrs["type"]})
		}
	}

	return e
}

func (e *Entry) collectMedia(c ext.Extension) {
	e.MediaContent = appendAttr(e.MediaContent, c, "url")
	for _, th := range c.Children["thumbnail"] {
		e.MediaThumbnails = appendAttr(e.MediaThumbnails, th, "url")
	}
}

func appendAttr(list []string, x ext.Extension, attr string) []string {
	if v := strings.TrimSpace(x.Attrs[attr]); v != "" {
		return append(list, v)
	}
	return list
}
