package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// proprietaryImageFields are nonstandard item elements some outlets use for a
// direct image URL, tried in this order.
var proprietaryImageFields = []string{
	"image",
	"imageUrl",
	"image_url",
	"img",
	"resim",
	"haberResim",
	"ipimage",
	"foto",
}

type imageStrategy struct {
	name string
	find func(e *Entry) (string, bool)
}

// imageStrategies run in order; the first match wins.
var imageStrategies = []imageStrategy{
	{"enclosure", func(e *Entry) (string, bool) { return first(e.Enclosures) }},
	{"media_content", func(e *Entry) (string, bool) { return first(e.MediaContent) }},
	{"media_thumbnail", func(e *Entry) (string, bool) { return first(e.MediaThumbnails) }},
	{"description_img", func(e *Entry) (string, bool) { return firstImgSrc(e.Description) }},
	{"content_img", func(e *Entry) (string, bool) { return firstImgSrc(e.Content) }},
	{"proprietary", fromProprietaryFields},
	{"image_link", fromImageLinks},
}

// ResolveImage returns the best effort image URL of e. Having no image is a
// normal outcome.
func ResolveImage(e *Entry) (string, bool) {
	for _, s := range imageStrategies {
		if u, ok := s.find(e); ok {
			return u, true
		}
	}
	return "", false
}

func first(urls []string) (string, bool) {
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			return u, true
		}
	}
	return "", false
}

// firstImgSrc returns the src of the first <img> in an HTML fragment.
func firstImgSrc(fragment string) (string, bool) {
	if !strings.Contains(strings.ToLower(fragment), "<img") {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", false
	}

	var src string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src = strings.TrimSpace(s.AttrOr("src", ""))
		return src == ""
	})
	return src, src != ""
}

func fromProprietaryFields(e *Entry) (string, bool) {
	for _, name := range proprietaryImageFields {
		if name == "image" && e.Image != "" {
			return e.Image, true
		}
		for key, value := range e.Custom {
			if !strings.EqualFold(key, name) {
				continue
			}
			if v := strings.TrimSpace(value); strings.HasPrefix(v, "http") || strings.HasPrefix(v, "//") {
				return v, true
			}
		}
	}
	return "", false
}

func fromImageLinks(e *Entry) (string, bool) {
	for _, l := range e.Links {
		if !strings.EqualFold(l.Rel, "enclosure") {
			continue
		}
		if l.Type == "" || strings.HasPrefix(strings.ToLower(l.Type), "image/") {
			return l.Href, true
		}
	}
	return "", false
}
