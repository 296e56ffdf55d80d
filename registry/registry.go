// Package registry holds the immutable mapping of news categories to feed sources.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/robertmeta/newswire/model"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSources []byte

// Registry maps category names to the sources aggregated for them.
// A Registry is never modified after construction.
type Registry struct {
	defaultCategory string
	defaultWindow   time.Duration
	categories      map[string][]model.Source
	windows         map[string]time.Duration
}

// document is the YAML representation of a Registry.
type document struct {
	Default       string                             `yaml:"default"`
	DefaultWindow string                             `yaml:"default_window,omitempty"`
	Windows       map[string]string                  `yaml:"windows,omitempty"`
	Categories    map[string]map[string]model.Source `yaml:"categories"`
}

// New builds a Registry from explicit values. Sources inside a category are
// ordered by id. Windows not listed fall back to defaultWindow; zero disables filtering.
func New(defaultCategory string, categories map[string][]model.Source, windows map[string]time.Duration, defaultWindow time.Duration) (*Registry, error) {
	if len(categories) == 0 {
		return nil, errors.New("registry has no categories")
	}
	if _, ok := categories[defaultCategory]; !ok {
		return nil, fmt.Errorf("default category %q is not defined", defaultCategory)
	}

	r := &Registry{
		defaultCategory: defaultCategory,
		defaultWindow:   defaultWindow,
		categories:      make(map[string][]model.Source, len(categories)),
		windows:         make(map[string]time.Duration, len(windows)),
	}

	for name, sources := range categories {
		list := make([]model.Source, 0, len(sources))
		for _, s := range sources {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("invalid source in category %s: %w", name, err)
			}
			list = append(list, s)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		r.categories[name] = list
	}

	for name, w := range windows {
		if w < 0 {
			return nil, fmt.Errorf("negative window for category %s", name)
		}
		r.windows[name] = w
	}

	return r, nil
}

// Default returns the registry compiled into the binary.
func Default() *Registry {
	r, err := Parse(bytes.NewReader(defaultSources))
	if err != nil {
		panic(fmt.Sprintf("registry: embedded sources are invalid: %v", err))
	}
	return r
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a registry from YAML.
func Parse(r io.Reader) (*Registry, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}

	categories := make(map[string][]model.Source, len(doc.Categories))
	for name, sources := range doc.Categories {
		for id, s := range sources {
			s.ID = id
			categories[name] = append(categories[name], s)
		}
	}

	var defaultWindow time.Duration
	if doc.DefaultWindow != "" {
		w, err := ParseWindow(doc.DefaultWindow)
		if err != nil {
			return nil, fmt.Errorf("invalid default_window: %w", err)
		}
		defaultWindow = w
	}

	windows := make(map[string]time.Duration, len(doc.Windows))
	for name, raw := range doc.Windows {
		w, err := ParseWindow(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid window for %s: %w", name, err)
		}
		windows[name] = w
	}

	if doc.Default == "" {
		doc.Default = "all"
	}

	return New(doc.Default, categories, windows, defaultWindow)
}

// Resolve returns the category actually served for name and its sources.
// Unknown categories resolve to the default category.
func (r *Registry) Resolve(name string) (string, []model.Source) {
	sources, ok := r.categories[name]
	if !ok {
		name = r.defaultCategory
		sources = r.categories[name]
	}
	out := make([]model.Source, len(sources))
	copy(out, sources)
	return name, out
}

// Window returns the recency window of a category. Zero means no filtering.
func (r *Registry) Window(name string) time.Duration {
	name, _ = r.Resolve(name)
	if w, ok := r.windows[name]; ok {
		return w
	}
	return r.defaultWindow
}

// DefaultCategory returns the category unknown names resolve to.
func (r *Registry) DefaultCategory() string {
	return r.defaultCategory
}

// Categories returns the sorted category names.
func (r *Registry) Categories() []string {
	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode writes the registry as YAML in the format Parse accepts.
func (r *Registry) Encode(w io.Writer) error {
	doc := document{
		Default:    r.defaultCategory,
		Categories: make(map[string]map[string]model.Source, len(r.categories)),
	}
	if r.defaultWindow > 0 {
		doc.DefaultWindow = FormatWindow(r.defaultWindow)
	}
	if len(r.windows) > 0 {
		doc.Windows = make(map[string]string, len(r.windows))
		for name, win := range r.windows {
			doc.Windows[name] = FormatWindow(win)
		}
	}
	for name, sources := range r.categories {
		m := make(map[string]model.Source, len(sources))
		for _, s := range sources {
			m[s.ID] = s
		}
		doc.Categories[name] = m
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}
	return enc.Close()
}
