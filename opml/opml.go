// Package opml converts the source registry to and from OPML.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/robertmeta/newswire/model"
	"github.com/robertmeta/newswire/registry"
)

// OPML represents the root OPML structure.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains metadata about the OPML document.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outline elements.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a feed or a category in OPML. Logo and Color carry the
// registry display metadata as extra attributes.
type Outline struct {
	Text     string    `xml:"text,attr,omitempty"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLUrl   string    `xml:"xmlUrl,attr,omitempty"`
	Category string    `xml:"category,attr,omitempty"`
	Logo     string    `xml:"logo,attr,omitempty"`
	Color    string    `xml:"color,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Parse reads an OPML document and builds a registry from it. Feeds outside
// any category outline land in defaultCategory.
func Parse(r io.Reader, defaultCategory string) (*registry.Registry, error) {
	var doc OPML
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	categories := make(map[string][]model.Source)
	extractSources(doc.Body.Outlines, defaultCategory, categories)

	reg, err := registry.New(defaultCategory, categories, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry from OPML: %w", err)
	}
	return reg, nil
}

// extractSources recursively collects sources from outlines.
// parentCategory is used for nested outlines that don't specify their own category.
func extractSources(outlines []Outline, parentCategory string, into map[string][]model.Source) {
	for _, outline := range outlines {
		if outline.XMLUrl != "" {
			src := model.Source{
				ID:    outline.Text,
				URL:   outline.XMLUrl,
				Logo:  outline.Logo,
				Color: outline.Color,
			}
			if src.ID == "" {
				src.ID = outline.Title
			}

			category := parentCategory
			if outline.Category != "" {
				category = outline.Category
			}
			into[category] = append(into[category], src)
		}

		if len(outline.Outlines) > 0 {
			categoryForChildren := outline.Text
			if categoryForChildren == "" {
				categoryForChildren = parentCategory
			}
			extractSources(outline.Outlines, categoryForChildren, into)
		}
	}
}

// Generate writes the registry as OPML, one outline per category.
func Generate(w io.Writer, reg *registry.Registry) error {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       "newswire sources",
			DateCreated: time.Now().Format(time.RFC1123),
		},
	}

	for _, category := range reg.Categories() {
		_, sources := reg.Resolve(category)
		categoryOutline := Outline{
			Text:  category,
			Title: category,
		}
		for _, src := range sources {
			categoryOutline.Outlines = append(categoryOutline.Outlines, Outline{
				Type:     "rss",
				Text:     src.ID,
				Title:    src.ID,
				XMLUrl:   src.URL,
				Category: category,
				Logo:     src.Logo,
				Color:    src.Color,
			})
		}
		doc.Body.Outlines = append(doc.Body.Outlines, categoryOutline)
	}

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write final newline: %w", err)
	}

	return nil
}
